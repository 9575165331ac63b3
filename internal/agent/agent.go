package agent

import (
	"main/internal/schema"
	"main/internal/sizer"
)

// MarketView bundles the observables a trader may read when deciding.
// Ticks is the bounded tick history, oldest first; it must be treated as
// read-only.
type MarketView struct {
	MarketPrice float64
	BestBid     float64
	HasBid      bool
	BestAsk     float64
	HasAsk      bool
	Ticks       []schema.MarketTick
	Tick        int
}

// Trader is a strategy occupying one population slot. Decide returns the
// order for this tick, or ok=false to hold. Clone produces a fresh occupant
// with the same strategy parameters and (shared) sizer under the given id
// and starting wallet; evolution reuses the culled slot's id so book and
// trade history stay attributable.
type Trader interface {
	ID() int
	Tag() schema.Tag
	Decide(view MarketView) (schema.Order, bool)
	Wallet() *Wallet
	Value(marketPrice float64) float64
	Clone(id int, w Wallet) Trader
}

// Wallet is a trader's cash and inventory. Fills mutate both counterparties
// atomically within a matching step; the book itself never touches wallets.
type Wallet struct {
	Cash     float64
	Position float64
}

// ApplyFill applies one fill from this wallet's perspective.
func (w *Wallet) ApplyFill(side schema.Side, price, qty float64) {
	switch side {
	case schema.SideBuy:
		w.Cash -= price * qty
		w.Position += qty
	case schema.SideSell:
		w.Cash += price * qty
		w.Position -= qty
	}
}

// Value is the mark-to-market value at the given price.
func (w Wallet) Value(marketPrice float64) float64 {
	return w.Position*marketPrice + w.Cash
}

type base struct {
	id     int
	tag    schema.Tag
	wallet Wallet
	sizer  sizer.Sizer
}

func (b *base) ID() int          { return b.id }
func (b *base) Tag() schema.Tag  { return b.tag }
func (b *base) Wallet() *Wallet  { return &b.wallet }
func (b *base) Sizer() sizer.Sizer { return b.sizer }

func (b *base) Value(marketPrice float64) float64 {
	return b.wallet.Value(marketPrice)
}

// vwapSeries extracts the VWAP column from tick history.
func vwapSeries(ticks []schema.MarketTick) []float64 {
	out := make([]float64, len(ticks))
	for i, t := range ticks {
		out[i] = t.VWAP
	}
	return out
}

// movingAverage averages the trailing window of prices. A window longer
// than the series averages what is available.
func movingAverage(prices []float64, window int) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	start := n - window
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, p := range prices[start:] {
		sum += p
	}
	return sum / float64(n-start)
}
