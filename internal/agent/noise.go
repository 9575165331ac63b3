package agent

import (
	"math/rand"

	"main/internal/schema"
	"main/internal/sizer"
)

// noiseUnitQty is the fixed order size for noise traders.
const noiseUnitQty = 1.0

// Noise trades a unit size at a price perturbed from the live market price
// by Gaussian noise. It carries no signal; it exists to supply liquidity
// and churn.
type Noise struct {
	base
	noiseWeight float64
	holdProb    float64
	rng         *rand.Rand
}

// NewNoise creates a noise trader. holdProb is the probability of sitting
// out a tick entirely; the remainder splits evenly between buy and sell.
func NewNoise(id int, w Wallet, s sizer.Sizer, noiseWeight, holdProb float64, rng *rand.Rand) *Noise {
	return &Noise{
		base:        base{id: id, tag: schema.TagNoise, wallet: w, sizer: s},
		noiseWeight: noiseWeight,
		holdProb:    holdProb,
		rng:         rng,
	}
}

func (n *Noise) Decide(view MarketView) (schema.Order, bool) {
	draw := n.rng.Float64()
	if draw < n.holdProb {
		return schema.Order{}, false
	}
	buy := draw < n.holdProb+(1-n.holdProb)/2

	price := view.MarketPrice + n.noiseWeight*view.MarketPrice*n.rng.NormFloat64()

	if buy {
		if n.wallet.Cash < price*noiseUnitQty {
			return schema.Order{}, false
		}
		return schema.Order{
			Side:        schema.SideBuy,
			Price:       price,
			TraderID:    n.id,
			SubmittedAt: view.Tick,
			Tag:         schema.TagNoise,
			Qty:         noiseUnitQty,
		}, true
	}

	if n.wallet.Position < noiseUnitQty {
		return schema.Order{}, false
	}
	return schema.Order{
		Side:        schema.SideSell,
		Price:       price,
		TraderID:    n.id,
		SubmittedAt: view.Tick,
		Tag:         schema.TagNoise,
		Qty:         noiseUnitQty,
	}, true
}

func (n *Noise) Clone(id int, w Wallet) Trader {
	return &Noise{
		base:        base{id: id, tag: schema.TagNoise, wallet: w, sizer: n.sizer},
		noiseWeight: n.noiseWeight,
		holdProb:    n.holdProb,
		rng:         n.rng,
	}
}

// NoiseWeight exposes the perturbation scale for reporting.
func (n *Noise) NoiseWeight() float64 { return n.noiseWeight }
