package agent

import "main/internal/schema"

// Maker quotes both sides of the book every tick. It is not a Trader: it
// has no wallet, never evolves, and its quotes are purged before each new
// round so they never persist across ticks.
//
// The configured anchor price is stored but quoting centers on the live
// market price passed in.
type Maker struct {
	id         int
	anchor     float64
	halfSpread float64
	quoteSize  float64
}

func NewMaker(id int, anchor, spread, quoteSize float64) *Maker {
	return &Maker{
		id:         id,
		anchor:     anchor,
		halfSpread: spread / 2,
		quoteSize:  quoteSize,
	}
}

func (m *Maker) ID() int             { return m.id }
func (m *Maker) Anchor() float64     { return m.anchor }
func (m *Maker) HalfSpread() float64 { return m.halfSpread }

// Quote returns the bid and ask for this tick, centered on marketPrice.
func (m *Maker) Quote(marketPrice float64, tick int) (schema.Order, schema.Order) {
	bid := schema.Order{
		Side:        schema.SideBuy,
		Price:       marketPrice - m.halfSpread,
		TraderID:    m.id,
		SubmittedAt: tick,
		Tag:         schema.TagMarketMaker,
		Qty:         m.quoteSize,
	}
	ask := schema.Order{
		Side:        schema.SideSell,
		Price:       marketPrice + m.halfSpread,
		TraderID:    m.id,
		SubmittedAt: tick,
		Tag:         schema.TagMarketMaker,
		Qty:         m.quoteSize,
	}
	return bid, ask
}
