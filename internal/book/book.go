package book

import (
	"container/heap"
	"sort"

	"main/internal/schema"
)

// PriceLevel is an aggregated view of one price in the book.
type PriceLevel struct {
	Price float64
	Qty   float64
	Count int
}

// Book is a single-asset limit order book with price-time priority.
// Each side is a price -> FIFO queue map plus a price heap for O(1) best
// price lookup. The book is exclusively owned by the orchestrator; all
// access happens on one goroutine, so there is no locking.
type Book struct {
	bidHeap *MaxPriceHeap
	askHeap *MinPriceHeap

	bids map[float64][]schema.Order
	asks map[float64][]schema.Order

	maxOrderAge int

	selfTradeDrops int
	expiredDrops   int
}

// New creates an empty book. Resting orders older than maxOrderAge ticks
// are discarded the next time a matching scan touches them.
func New(maxOrderAge int) *Book {
	bidHeap := &MaxPriceHeap{}
	askHeap := &MinPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	return &Book{
		bidHeap:     bidHeap,
		askHeap:     askHeap,
		bids:        make(map[float64][]schema.Order),
		asks:        make(map[float64][]schema.Order),
		maxOrderAge: maxOrderAge,
	}
}

// BestBid returns the highest resting bid price.
func (b *Book) BestBid() (float64, bool) {
	if b.bidHeap.Len() == 0 {
		return 0, false
	}
	return b.bidHeap.Peek(), true
}

// BestAsk returns the lowest resting ask price.
func (b *Book) BestAsk() (float64, bool) {
	if b.askHeap.Len() == 0 {
		return 0, false
	}
	return b.askHeap.Peek(), true
}

// Submit crosses an incoming order against the resting book and returns the
// trades it produced, in fill order. The incoming order fills at the resting
// (maker) price. A resting order owned by the same trader is discarded
// without a fill, as is any resting order past its age limit. Whatever
// quantity remains after the scan rests at the back of its price level.
func (b *Book) Submit(o schema.Order, tick int) []schema.Trade {
	if o.Qty <= 0 {
		return nil
	}

	var trades []schema.Trade

	if o.Side == schema.SideBuy {
		for o.Qty > 0 {
			askP, ok := b.BestAsk()
			if !ok || askP > o.Price {
				break
			}
			level := b.asks[askP]
			if len(level) == 0 {
				delete(b.asks, askP)
				removePrice(b.askHeap, askP)
				continue
			}
			maker := level[0]
			if maker.TraderID == o.TraderID {
				b.selfTradeDrops++
				b.dropFrontAsk(askP)
				continue
			}
			if tick-maker.SubmittedAt > b.maxOrderAge {
				b.expiredDrops++
				b.dropFrontAsk(askP)
				continue
			}

			fill := min(o.Qty, maker.Qty)
			trades = append(trades, schema.Trade{
				Price:     maker.Price,
				Qty:       fill,
				BuyerID:   o.TraderID,
				SellerID:  maker.TraderID,
				Tick:      tick,
				BuyerTag:  o.Tag,
				SellerTag: maker.Tag,
			})

			o.Qty -= fill
			maker.Qty -= fill
			if maker.Qty <= 0 {
				b.dropFrontAsk(askP)
			} else {
				// reduced maker keeps its place at the front of the level
				b.asks[askP][0] = maker
			}
		}
		if o.Qty > 0 {
			b.addBid(o)
		}
		return trades
	}

	for o.Qty > 0 {
		bidP, ok := b.BestBid()
		if !ok || bidP < o.Price {
			break
		}
		level := b.bids[bidP]
		if len(level) == 0 {
			delete(b.bids, bidP)
			removePrice(b.bidHeap, bidP)
			continue
		}
		maker := level[0]
		if maker.TraderID == o.TraderID {
			b.selfTradeDrops++
			b.dropFrontBid(bidP)
			continue
		}
		if tick-maker.SubmittedAt > b.maxOrderAge {
			b.expiredDrops++
			b.dropFrontBid(bidP)
			continue
		}

		fill := min(o.Qty, maker.Qty)
		trades = append(trades, schema.Trade{
			Price:     maker.Price,
			Qty:       fill,
			BuyerID:   maker.TraderID,
			SellerID:  o.TraderID,
			Tick:      tick,
			BuyerTag:  maker.Tag,
			SellerTag: o.Tag,
		})

		o.Qty -= fill
		maker.Qty -= fill
		if maker.Qty <= 0 {
			b.dropFrontBid(bidP)
		} else {
			b.bids[bidP][0] = maker
		}
	}
	if o.Qty > 0 {
		b.addAsk(o)
	}
	return trades
}

// SelfTradeDrops counts resting orders discarded by the self-trade guard.
func (b *Book) SelfTradeDrops() int { return b.selfTradeDrops }

// ExpiredDrops counts resting orders discarded past their age limit.
func (b *Book) ExpiredDrops() int { return b.expiredDrops }

// PurgeTag removes every resting order carrying the given tag. Used to
// clear ephemeral market-maker quotes before a new round of quoting.
func (b *Book) PurgeTag(tag schema.Tag) {
	purgeSide(b.bids, tag, func(p float64) { removePrice(b.bidHeap, p) })
	purgeSide(b.asks, tag, func(p float64) { removePrice(b.askHeap, p) })
}

// BidLevels returns bid levels best to worst.
func (b *Book) BidLevels() []PriceLevel {
	return collectLevels(b.bids, *b.bidHeap, true)
}

// AskLevels returns ask levels best to worst.
func (b *Book) AskLevels() []PriceLevel {
	return collectLevels(b.asks, *b.askHeap, false)
}

func (b *Book) addBid(o schema.Order) {
	if len(b.bids[o.Price]) == 0 {
		heap.Push(b.bidHeap, o.Price)
	}
	b.bids[o.Price] = append(b.bids[o.Price], o)
}

func (b *Book) addAsk(o schema.Order) {
	if len(b.asks[o.Price]) == 0 {
		heap.Push(b.askHeap, o.Price)
	}
	b.asks[o.Price] = append(b.asks[o.Price], o)
}

func (b *Book) dropFrontAsk(price float64) {
	level := b.asks[price]
	if len(level) <= 1 {
		delete(b.asks, price)
		removePrice(b.askHeap, price)
		return
	}
	b.asks[price] = level[1:]
}

func (b *Book) dropFrontBid(price float64) {
	level := b.bids[price]
	if len(level) <= 1 {
		delete(b.bids, price)
		removePrice(b.bidHeap, price)
		return
	}
	b.bids[price] = level[1:]
}

func purgeSide(side map[float64][]schema.Order, tag schema.Tag, dropPrice func(float64)) {
	for price, level := range side {
		filtered := level[:0]
		for _, o := range level {
			if o.Tag != tag {
				filtered = append(filtered, o)
			}
		}
		if len(filtered) == 0 {
			delete(side, price)
			dropPrice(price)
			continue
		}
		side[price] = filtered
	}
}

func removePrice(h heap.Interface, price float64) {
	switch ph := h.(type) {
	case *MaxPriceHeap:
		for i, p := range *ph {
			if p == price {
				heap.Remove(h, i)
				return
			}
		}
	case *MinPriceHeap:
		for i, p := range *ph {
			if p == price {
				heap.Remove(h, i)
				return
			}
		}
	}
}

func collectLevels(side map[float64][]schema.Order, prices []float64, descending bool) []PriceLevel {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool {
		if descending {
			return sorted[i] > sorted[j]
		}
		return sorted[i] < sorted[j]
	})

	levels := make([]PriceLevel, 0, len(sorted))
	for _, price := range sorted {
		queue := side[price]
		if len(queue) == 0 {
			continue
		}
		var qty float64
		for _, o := range queue {
			qty += o.Qty
		}
		levels = append(levels, PriceLevel{Price: price, Qty: qty, Count: len(queue)})
	}
	return levels
}
