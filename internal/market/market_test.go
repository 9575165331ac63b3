package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/agent"
	"main/internal/ops"
	"main/internal/schema"
	"main/internal/sizer"
)

func resolve(t *testing.T, fc ops.FileConfig) ops.Config {
	t.Helper()
	if fc.Seed == 0 {
		fc.Seed = 1
	}
	cfg, err := ops.Resolve(fc)
	require.NoError(t, err)
	return cfg
}

func noiseOnlyConfig(t *testing.T, count int) ops.Config {
	return resolve(t, ops.FileConfig{
		Noise: ops.NoiseConfig{Count: count, NoiseWeight: 0.01},
	})
}

func TestQuietTickFallsBackToLastPrice(t *testing.T) {
	m := New(resolve(t, ops.FileConfig{InitialPrice: 100}))

	res := m.Step()
	assert.Equal(t, 0, res.Tick.Tick)
	assert.Equal(t, 100.0, res.Tick.LastPrice)
	assert.Equal(t, 100.0, res.Tick.VWAP, "no volume, VWAP falls back to last price")
	assert.Equal(t, 100.0, res.Tick.MidPrice, "empty book, mid falls back to last price")
	assert.Zero(t, res.Tick.Volume)
	assert.Empty(t, res.Trades)
}

func TestMakerQuotesSetTheMid(t *testing.T) {
	m := New(resolve(t, ops.FileConfig{
		InitialPrice: 100,
		MarketMakers: ops.MakerConfig{Count: 1, Spread: 0.1},
	}))

	res := m.Step()
	bb, ok := m.BestBid()
	require.True(t, ok)
	ba, ok := m.BestAsk()
	require.True(t, ok)
	assert.InDelta(t, 99.95, bb, 1e-9)
	assert.InDelta(t, 100.05, ba, 1e-9)
	assert.InDelta(t, 100.0, res.Tick.MidPrice, 1e-9)
	assert.Equal(t, 1, res.Counts.MarketMaker)
}

func TestNoiseMarketTradesAndConserves(t *testing.T) {
	const count = 50
	m := New(noiseOnlyConfig(t, count))

	var traded bool
	for i := 0; i < 200; i++ {
		if len(m.Step().Trades) > 0 {
			traded = true
		}
	}
	require.True(t, traded, "noise traders should cross each other")

	var cash, position float64
	for id := 0; id < count; id++ {
		w, ok := m.TraderWallet(id)
		require.True(t, ok)
		cash += w.Cash
		position += w.Position
	}
	assert.InDelta(t, count*100000.0, cash, 1e-6, "cash only moves between traders")
	assert.InDelta(t, count*10.0, position, 1e-9, "inventory only moves between traders")
}

func TestDeterministicWithSeed(t *testing.T) {
	cfg := resolve(t, ops.FileConfig{
		Seed:  7,
		Noise: ops.NoiseConfig{Count: 30, NoiseWeight: 0.01},
	})

	a, b := New(cfg), New(cfg)
	for i := 0; i < 100; i++ {
		ra, rb := a.Step(), b.Step()
		require.Equal(t, ra.Tick, rb.Tick, "same seed must replay the same run")
		require.Equal(t, len(ra.Trades), len(rb.Trades))
	}
	assert.Equal(t, a.Price(), b.Price())
}

func TestEvolutionReplacesWorst(t *testing.T) {
	cfg := resolve(t, ops.FileConfig{
		Evolve:         true,
		EvolutionTicks: 1,
		KillPercentage: 0.5,
		Noise:          ops.NoiseConfig{Count: 4, NoiseWeight: 0.01},
	})
	m := New(cfg)

	res := m.Step()
	assert.True(t, res.Evolved)
	assert.Equal(t, 4, res.Counts.Noise, "population size is constant")

	// culled slots are refilled under the same ids
	for id := 0; id < 4; id++ {
		_, ok := m.TraderWallet(id)
		assert.Truef(t, ok, "trader %d must stay resolvable after evolution", id)
	}
	for _, s := range m.Standings() {
		assert.Less(t, s.ID, 4, "no new ids are minted")
	}

	snap := m.Metrics().Snapshot()
	assert.Equal(t, uint64(1), snap.Evolutions)
	assert.Equal(t, uint64(2), snap.Replaced)
}

func TestSettlementConservesAcrossEvolution(t *testing.T) {
	// long order lifetimes plus frequent culls leave resting orders from
	// replaced traders in the book; their fills must still settle both
	// wallets through the reused ids
	const count = 40
	cfg := resolve(t, ops.FileConfig{
		Seed:           11,
		Evolve:         true,
		EvolutionTicks: 5,
		KillPercentage: 0.5,
		MaxOrderAge:    20,
		Noise:          ops.NoiseConfig{Count: count, NoiseWeight: 0.01},
	})
	m := New(cfg)

	totals := func() (cash, position float64) {
		for id := 0; id < count; id++ {
			w, ok := m.TraderWallet(id)
			require.True(t, ok)
			cash += w.Cash
			position += w.Position
		}
		return cash, position
	}

	for i := 0; i < 100; i++ {
		beforeCash, beforePos := totals()
		res := m.Step()
		if res.Evolved {
			// wallet resets move the totals; every other step conserves
			continue
		}
		afterCash, afterPos := totals()
		require.InDeltaf(t, beforeCash, afterCash, 1e-6, "tick %d: a fill settled only one wallet", i)
		require.InDeltaf(t, beforePos, afterPos, 1e-9, "tick %d: a fill settled only one wallet", i)
	}
}

func TestEvolutionPreservesEachStrategy(t *testing.T) {
	cfg := resolve(t, ops.FileConfig{
		Evolve:         true,
		EvolutionTicks: 1,
		KillPercentage: 1.0,
		Noise:          ops.NoiseConfig{Count: 3, NoiseWeight: 0.01},
		Momentum: ops.WindowedConfig{
			Count: 3, MinShort: 2, MaxShort: 5, MinLong: 6, MaxLong: 10,
		},
		MeanReversion: ops.WindowedConfig{
			Count: 3, MinShort: 2, MaxShort: 5, MinLong: 6, MaxLong: 10,
		},
	})
	m := New(cfg)

	for i := 0; i < 5; i++ {
		m.Step()
	}

	// even killing 100%, the best of each tag survives every round
	counts := m.Counts()[len(m.Counts())-1]
	assert.GreaterOrEqual(t, counts.Noise, 1)
	assert.GreaterOrEqual(t, counts.Momentum, 1)
	assert.GreaterOrEqual(t, counts.MeanRevert, 1)
}

func TestEvolutionDisabled(t *testing.T) {
	cfg := resolve(t, ops.FileConfig{
		Noise: ops.NoiseConfig{Count: 4, NoiseWeight: 0.01},
	})
	m := New(cfg)

	for i := 0; i < 10; i++ {
		assert.False(t, m.Step().Evolved)
	}
	for _, s := range m.Standings() {
		assert.Less(t, s.ID, 4, "no trader is ever replaced")
	}
}

func TestAttachPolicy(t *testing.T) {
	m := New(noiseOnlyConfig(t, 5))

	id := m.AttachPolicy(sizer.Fractional{Fraction: 0.01, MinBet: 1},
		func(view agent.MarketView, w *agent.Wallet) (schema.Order, bool) {
			if !view.HasAsk || w.Cash < view.BestAsk {
				return schema.Order{}, false
			}
			return schema.Order{Side: schema.SideBuy, Price: view.BestAsk, Qty: 1}, true
		})
	require.GreaterOrEqual(t, id, 5)

	res := m.Step()
	assert.Equal(t, 1, res.Counts.External)

	w, ok := m.TraderWallet(id)
	require.True(t, ok)
	assert.Greater(t, w.Cash, 0.0)
}

func TestValuesByTag(t *testing.T) {
	cfg := resolve(t, ops.FileConfig{
		Noise: ops.NoiseConfig{Count: 10, NoiseWeight: 0.01},
		Momentum: ops.WindowedConfig{
			Count: 5, MinShort: 2, MaxShort: 5, MinLong: 6, MaxLong: 10,
		},
	})
	m := New(cfg)

	avgs := m.ValuesByTag()
	require.Contains(t, avgs, schema.TagNoise)
	require.Contains(t, avgs, schema.TagMomentum)
	assert.NotContains(t, avgs, schema.TagMeanRevert)

	// everyone starts from the same wallet marked at the same price
	start := 10*100.0 + 100000
	assert.InDelta(t, start, avgs[schema.TagNoise], 1e-9)
	assert.InDelta(t, start, avgs[schema.TagMomentum], 1e-9)

	m.Step()
	values := m.Values()
	require.Len(t, values, 1)
	assert.Equal(t, 0, values[0].Tick)
	assert.Greater(t, values[0].Noise, 0.0)
}

func TestVolumeByTagCountsBothSides(t *testing.T) {
	m := New(noiseOnlyConfig(t, 50))

	var volume float64
	for i := 0; i < 200; i++ {
		for _, tr := range m.Step().Trades {
			volume += tr.Qty
		}
	}
	require.Greater(t, volume, 0.0)

	byTag := m.VolumeByTag()
	assert.InDelta(t, 2*volume, byTag[schema.TagNoise], 1e-9,
		"each fill counts toward buyer and seller")
}

func TestStandingsSortedBestFirst(t *testing.T) {
	m := New(noiseOnlyConfig(t, 20))
	for i := 0; i < 100; i++ {
		m.Step()
	}

	standings := m.Standings()
	require.Len(t, standings, 20)
	for i := 1; i < len(standings); i++ {
		assert.GreaterOrEqual(t, standings[i-1].Value, standings[i].Value)
	}
}

func TestHistoryRetentionBounded(t *testing.T) {
	m := New(resolve(t, ops.FileConfig{InitialPrice: 100}))

	for i := 0; i < historyRetention+50; i++ {
		m.Step()
	}
	require.Len(t, m.Ticks(), historyRetention)
	assert.Equal(t, 50, m.Ticks()[0].Tick, "oldest ticks are dropped first")
	assert.Equal(t, historyRetention+49, m.Ticks()[historyRetention-1].Tick)
}

func TestWindowDrawsOrdered(t *testing.T) {
	cfg := resolve(t, ops.FileConfig{
		Momentum: ops.WindowedConfig{
			// ranges overlap so raw draws can come out inverted
			Count: 50, MinShort: 2, MaxShort: 100, MinLong: 2, MaxLong: 100,
		},
	})
	m := New(cfg)

	for _, t0 := range m.traders {
		mt, ok := t0.(*agent.Momentum)
		require.True(t, ok)
		assert.LessOrEqual(t, mt.ShortWindow(), mt.LongWindow())
	}
}
