package market

import (
	"math/rand"

	"main/internal/agent"
	"main/internal/ops"
)

// makerIDBase keeps maker ids out of the trader id space.
const makerIDBase = 100000

// populate builds the initial population from the config: noise traders,
// then momentum, then mean reverters, shuffled so decision order carries
// no group bias. Moving-average windows are drawn per trader from the
// configured ranges and swapped into order if needed.
func (m *Market) populate() {
	w := m.startingWallet()

	for i := 0; i < m.cfg.Noise.Count; i++ {
		n := agent.NewNoise(m.allocID(), w, m.cfg.Noise.Sizer,
			m.cfg.Noise.NoiseWeight, m.cfg.Noise.HoldProbability, m.rng)
		m.traders = append(m.traders, n)
	}

	for i := 0; i < m.cfg.Momentum.Count; i++ {
		short, long := drawWindows(m.rng, m.cfg.Momentum)
		t := agent.NewMomentum(m.allocID(), w, m.cfg.Momentum.Sizer, short, long)
		m.traders = append(m.traders, t)
	}

	for i := 0; i < m.cfg.MeanReversion.Count; i++ {
		short, long := drawWindows(m.rng, m.cfg.MeanReversion)
		t := agent.NewMeanRevert(m.allocID(), w, m.cfg.MeanReversion.Sizer, short, long)
		m.traders = append(m.traders, t)
	}

	m.rng.Shuffle(len(m.traders), func(i, j int) {
		m.traders[i], m.traders[j] = m.traders[j], m.traders[i]
	})
	for _, t := range m.traders {
		m.byID[t.ID()] = t
	}

	anchor := m.cfg.MarketMakers.AnchorPrice
	if anchor == 0 {
		anchor = m.cfg.InitialPrice
	}
	for i := 0; i < m.cfg.MarketMakers.Count; i++ {
		m.makers = append(m.makers, agent.NewMaker(makerIDBase+i, anchor,
			m.cfg.MarketMakers.Spread, m.cfg.MarketMakers.QuoteSize))
	}
}

func drawWindows(rng *rand.Rand, g ops.WindowedGroup) (short, long int) {
	short = randRange(rng, g.MinShort, g.MaxShort)
	long = randRange(rng, g.MinLong, g.MaxLong)
	if short > long {
		short, long = long, short
	}
	return short, long
}

func randRange(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
