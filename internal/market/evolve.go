package market

import (
	"math"
	"sort"

	"github.com/yanun0323/logs"

	"main/internal/agent"
	"main/internal/schema"
)

type ranked struct {
	trader agent.Trader
	value  float64
}

// rank orders the population by mark-to-market value, best first. The sort
// is stable so equal values keep their population order.
func (m *Market) rank() []ranked {
	out := make([]ranked, len(m.traders))
	for i, t := range m.traders {
		out[i] = ranked{trader: t, value: t.Value(m.price)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].value > out[j].value
	})
	return out
}

// evolve culls the worst performers and refills their slots with clones of
// the global best trader. The best trader of each tag is exempt from
// culling so no strategy goes extinct. Clones keep the winner's strategy
// parameters but start from a fresh wallet.
func (m *Market) evolve() bool {
	n := len(m.traders)
	if n == 0 {
		return false
	}
	killCount := int(math.Round(float64(n) * m.cfg.KillPercentage))
	if killCount <= 0 {
		return false
	}

	order := m.rank()

	exempt := make(map[int]struct{})
	seen := make(map[schema.Tag]struct{})
	for _, r := range order {
		if _, ok := seen[r.trader.Tag()]; ok {
			continue
		}
		seen[r.trader.Tag()] = struct{}{}
		exempt[r.trader.ID()] = struct{}{}
	}

	marked := make(map[int]struct{})
	for i := n - 1; i >= 0 && len(marked) < killCount; i-- {
		id := order[i].trader.ID()
		if _, ok := exempt[id]; ok {
			continue
		}
		marked[id] = struct{}{}
	}
	if len(marked) == 0 {
		return false
	}

	winner := order[0].trader
	for i, t := range m.traders {
		if _, ok := marked[t.ID()]; !ok {
			continue
		}
		// the slot keeps its id: resting orders and trade history stay
		// attributable, and their fills settle against the clone's wallet
		clone := winner.Clone(t.ID(), m.startingWallet())
		m.traders[i] = clone
		m.byID[clone.ID()] = clone
	}

	m.metrics.IncEvolution(len(marked))
	logs.Infof("tick %d: replaced %d traders with clones of %d (%s)",
		m.tick, len(marked), winner.ID(), winner.Tag())
	return true
}
