package agent

import (
	"main/internal/schema"
	"main/internal/sizer"
)

const (
	// lookaheadTicks projects the MA slope forward when deriving a price
	// target for sizing.
	lookaheadTicks = 1000
	// maxSlope bounds the normalized MA slope so the projection cannot
	// blow up on thin history.
	maxSlope = 0.01
	// priceStep is how far inside the touch momentum-style traders price
	// their orders to get filled.
	priceStep = 0.01
)

// Momentum buys when the short VWAP moving average is above the long one
// and sells when it is below. Orders are priced one step through the touch
// so they cross immediately.
type Momentum struct {
	base
	shortWindow int
	longWindow  int
}

func NewMomentum(id int, w Wallet, s sizer.Sizer, shortWindow, longWindow int) *Momentum {
	return &Momentum{
		base:        base{id: id, tag: schema.TagMomentum, wallet: w, sizer: s},
		shortWindow: shortWindow,
		longWindow:  longWindow,
	}
}

func (m *Momentum) Decide(view MarketView) (schema.Order, bool) {
	if len(view.Ticks) < max(m.shortWindow, m.longWindow) {
		return schema.Order{}, false
	}

	vwaps := vwapSeries(view.Ticks)
	shortMA := movingAverage(vwaps, m.shortWindow)
	longMA := movingAverage(vwaps, m.longWindow)

	target := slopeTarget(view.MarketPrice, shortMA, longMA, m.shortWindow, m.longWindow)
	qty := m.sizer.Size(view.MarketPrice, target, 1.0, m.wallet.Value(view.MarketPrice))
	if qty <= 0 {
		return schema.Order{}, false
	}

	if shortMA > longMA && view.HasAsk {
		if m.wallet.Cash >= view.BestAsk*qty {
			return schema.Order{
				Side:        schema.SideBuy,
				Price:       view.BestAsk + priceStep,
				TraderID:    m.id,
				SubmittedAt: view.Tick,
				Tag:         schema.TagMomentum,
				Qty:         qty,
			}, true
		}
	} else if shortMA < longMA && view.HasBid {
		if m.wallet.Position >= qty {
			return schema.Order{
				Side:        schema.SideSell,
				Price:       view.BestBid - priceStep,
				TraderID:    m.id,
				SubmittedAt: view.Tick,
				Tag:         schema.TagMomentum,
				Qty:         qty,
			}, true
		}
	}

	return schema.Order{}, false
}

func (m *Momentum) Clone(id int, w Wallet) Trader {
	return &Momentum{
		base:        base{id: id, tag: schema.TagMomentum, wallet: w, sizer: m.sizer},
		shortWindow: m.shortWindow,
		longWindow:  m.longWindow,
	}
}

func (m *Momentum) ShortWindow() int { return m.shortWindow }
func (m *Momentum) LongWindow() int  { return m.longWindow }

// slopeTarget projects the clamped, window-normalized MA slope
// lookaheadTicks forward from the current price.
func slopeTarget(marketPrice, shortMA, longMA float64, shortWindow, longWindow int) float64 {
	if longWindow == shortWindow {
		return marketPrice
	}
	slope := (shortMA - longMA) / float64(longWindow-shortWindow)
	slope = clamp(slope, -maxSlope, maxSlope)
	return marketPrice + marketPrice*slope*lookaheadTicks
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
