package agent

import (
	"main/internal/schema"
	"main/internal/sizer"
)

// DecideFunc maps market observables and the agent's own wallet to an
// order, or ok=false to hold.
type DecideFunc func(view MarketView, w *Wallet) (schema.Order, bool)

// Policy adapts an externally supplied decision function to the Trader
// interface. This is the integration point for learned agents: the caller
// owns the policy (and any training loop behind it); the simulator only
// asks it for one order per tick.
type Policy struct {
	base
	decide DecideFunc
}

func NewPolicy(id int, w Wallet, s sizer.Sizer, decide DecideFunc) *Policy {
	return &Policy{
		base:   base{id: id, tag: schema.TagExternal, wallet: w, sizer: s},
		decide: decide,
	}
}

func (p *Policy) Decide(view MarketView) (schema.Order, bool) {
	o, ok := p.decide(view, &p.wallet)
	if !ok || o.Qty <= 0 {
		return schema.Order{}, false
	}
	o.TraderID = p.id
	o.SubmittedAt = view.Tick
	o.Tag = schema.TagExternal
	return o, true
}

func (p *Policy) Clone(id int, w Wallet) Trader {
	return &Policy{
		base:   base{id: id, tag: schema.TagExternal, wallet: w, sizer: p.sizer},
		decide: p.decide,
	}
}
