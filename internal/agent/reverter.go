package agent

import (
	"main/internal/schema"
	"main/internal/sizer"
)

// MeanRevert is the direction-inverted twin of Momentum: it buys when the
// short VWAP moving average is below the long one, betting the price
// reverts back up, and sells in the opposite case.
type MeanRevert struct {
	base
	shortWindow int
	longWindow  int
}

func NewMeanRevert(id int, w Wallet, s sizer.Sizer, shortWindow, longWindow int) *MeanRevert {
	return &MeanRevert{
		base:        base{id: id, tag: schema.TagMeanRevert, wallet: w, sizer: s},
		shortWindow: shortWindow,
		longWindow:  longWindow,
	}
}

func (m *MeanRevert) Decide(view MarketView) (schema.Order, bool) {
	if len(view.Ticks) < max(m.shortWindow, m.longWindow) {
		return schema.Order{}, false
	}

	vwaps := vwapSeries(view.Ticks)
	shortMA := movingAverage(vwaps, m.shortWindow)
	longMA := movingAverage(vwaps, m.longWindow)

	// reversion bet: the expected move is opposite the observed slope
	target := slopeTarget(view.MarketPrice, longMA, shortMA, m.shortWindow, m.longWindow)
	qty := m.sizer.Size(view.MarketPrice, target, 1.0, m.wallet.Value(view.MarketPrice))
	if qty <= 0 {
		return schema.Order{}, false
	}

	if shortMA < longMA && view.HasAsk {
		if m.wallet.Cash >= view.BestAsk*qty {
			return schema.Order{
				Side:        schema.SideBuy,
				Price:       view.BestAsk + priceStep,
				TraderID:    m.id,
				SubmittedAt: view.Tick,
				Tag:         schema.TagMeanRevert,
				Qty:         qty,
			}, true
		}
	} else if shortMA > longMA && view.HasBid {
		if m.wallet.Position >= qty {
			return schema.Order{
				Side:        schema.SideSell,
				Price:       view.BestBid - priceStep,
				TraderID:    m.id,
				SubmittedAt: view.Tick,
				Tag:         schema.TagMeanRevert,
				Qty:         qty,
			}, true
		}
	}

	return schema.Order{}, false
}

func (m *MeanRevert) Clone(id int, w Wallet) Trader {
	return &MeanRevert{
		base:        base{id: id, tag: schema.TagMeanRevert, wallet: w, sizer: m.sizer},
		shortWindow: m.shortWindow,
		longWindow:  m.longWindow,
	}
}

func (m *MeanRevert) ShortWindow() int { return m.shortWindow }
func (m *MeanRevert) LongWindow() int  { return m.longWindow }
