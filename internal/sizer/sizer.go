package sizer

import "math"

// Sizer converts a price target, a confidence signal and available capital
// into an order quantity. Implementations are stateless values and may be
// shared freely between traders.
type Sizer interface {
	Size(marketPrice, expectedPrice, confidence, capital float64) float64
	Method() string
}

// Fractional commits a fixed fraction of capital per order.
type Fractional struct {
	Fraction float64
	MinBet   float64
}

func (f Fractional) Size(marketPrice, expectedPrice, confidence, capital float64) float64 {
	if marketPrice <= 0 {
		return 0
	}
	return (f.Fraction * capital) / marketPrice
}

func (f Fractional) Method() string { return "FixedFraction" }

// Kelly sizes from the edge between expected and market price, scaled down
// by Fraction. Bets below MinBet are suppressed entirely.
type Kelly struct {
	Fraction float64
	MinBet   float64
}

func (k Kelly) Size(marketPrice, expectedPrice, confidence, capital float64) float64 {
	if marketPrice <= 0 {
		return 0
	}
	edge := expectedPrice - marketPrice
	odds := math.Abs(edge / marketPrice)
	if odds == 0 || confidence <= 0.5 {
		return 0
	}

	kelly := (confidence - (1 - confidence)) * odds
	kelly = math.Min(math.Max(kelly, 0), 1)

	bet := k.Fraction * kelly * capital
	if bet < k.MinBet {
		return 0
	}
	return bet / marketPrice
}

func (k Kelly) Method() string { return "Kelly" }
