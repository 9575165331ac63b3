package market

import (
	"math/rand"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/agent"
	"main/internal/book"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/schema"
	"main/internal/sizer"
)

// historyRetention bounds the in-memory tick, trade and census histories.
const historyRetention = 10000

// Market owns the order book, the trader population and the simulation
// clock. Everything runs on the caller's goroutine; one Step call is one
// tick.
type Market struct {
	cfg     ops.Config
	rng     *rand.Rand
	book    *book.Book
	metrics *obs.Metrics

	traders []agent.Trader
	byID    map[int]agent.Trader
	makers  []*agent.Maker
	nextID  int

	tick  int
	price float64

	ticks  []schema.MarketTick
	trades []schema.Trade
	counts []schema.TraderCount
	values []schema.TagValue

	volumeByTag map[schema.Tag]float64

	tickVolume   float64
	tickNotional float64

	seenSelfDrops    int
	seenExpiredDrops int
}

// StepResult summarizes one completed tick.
type StepResult struct {
	Tick    schema.MarketTick
	Trades  []schema.Trade
	Counts  schema.TraderCount
	Evolved bool
}

// Standing is one trader's rank entry, best first.
type Standing struct {
	ID    int
	Tag   schema.Tag
	Value float64
}

// New builds a market from the resolved config. A zero seed falls back to
// the wall clock so unseeded runs still differ.
func New(cfg ops.Config) *Market {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		logs.Infof("seed not set, using %d", seed)
	}

	m := &Market{
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(seed)),
		book:        book.New(cfg.MaxOrderAge),
		metrics:     obs.NewMetrics(),
		byID:        make(map[int]agent.Trader),
		volumeByTag: make(map[schema.Tag]float64),
		price:       cfg.InitialPrice,
	}
	m.populate()
	return m
}

// Step advances the simulation by one tick: maker quotes are refreshed,
// every trader gets one decision, the clock advances, and evolution runs
// if due.
func (m *Market) Step() StepResult {
	start := time.Now()

	m.tickVolume = 0
	m.tickNotional = 0
	trades := make([]schema.Trade, 0, 8)

	m.book.PurgeTag(schema.TagMarketMaker)
	for _, mk := range m.makers {
		bid, ask := mk.Quote(m.price, m.tick)
		trades = append(trades, m.submit(bid)...)
		trades = append(trades, m.submit(ask)...)
	}

	for _, t := range m.traders {
		o, ok := t.Decide(m.view())
		if !ok {
			m.metrics.IncHold(t.Tag())
			continue
		}
		m.metrics.IncOrder(t.Tag())
		trades = append(trades, m.submit(o)...)
	}

	cur := m.tick
	m.tick++

	evolved := false
	if m.cfg.Evolve && m.tick%m.cfg.EvolutionTicks == 0 {
		evolved = m.evolve()
	}

	mt := m.closeTick(cur)
	counts := m.census(cur)
	m.record(mt, trades, counts, m.tagValues(cur))

	m.metrics.AddSelfTradeDrops(m.book.SelfTradeDrops() - m.seenSelfDrops)
	m.metrics.AddExpiredDrops(m.book.ExpiredDrops() - m.seenExpiredDrops)
	m.seenSelfDrops = m.book.SelfTradeDrops()
	m.seenExpiredDrops = m.book.ExpiredDrops()

	m.metrics.ObserveStep(time.Since(start))
	return StepResult{Tick: mt, Trades: trades, Counts: counts, Evolved: evolved}
}

// AttachPolicy adds an externally driven trader to the population and
// returns its id. The trader starts with the standard wallet and competes
// (and evolves) like any other.
func (m *Market) AttachPolicy(s sizer.Sizer, decide agent.DecideFunc) int {
	p := agent.NewPolicy(m.allocID(), m.startingWallet(), s, decide)
	m.traders = append(m.traders, p)
	m.byID[p.ID()] = p
	return p.ID()
}

// Price returns the last traded price.
func (m *Market) Price() float64 { return m.price }

// CurrentTick returns the number of completed ticks.
func (m *Market) CurrentTick() int { return m.tick }

// BestBid returns the highest resting bid.
func (m *Market) BestBid() (float64, bool) { return m.book.BestBid() }

// BestAsk returns the lowest resting ask.
func (m *Market) BestAsk() (float64, bool) { return m.book.BestAsk() }

// Ticks returns the retained tick history, oldest first. Read-only.
func (m *Market) Ticks() []schema.MarketTick { return m.ticks }

// Trades returns the retained trade history, oldest first. Read-only.
func (m *Market) Trades() []schema.Trade { return m.trades }

// Counts returns the retained population census history. Read-only.
func (m *Market) Counts() []schema.TraderCount { return m.counts }

// Values returns the retained per-strategy average value history. Read-only.
func (m *Market) Values() []schema.TagValue { return m.values }

// ValuesByTag returns the current average mark-to-market value per
// strategy. Tags with no live traders are absent.
func (m *Market) ValuesByTag() map[schema.Tag]float64 {
	sums := make(map[schema.Tag]float64)
	ns := make(map[schema.Tag]int)
	for _, t := range m.traders {
		sums[t.Tag()] += t.Value(m.price)
		ns[t.Tag()]++
	}
	out := make(map[schema.Tag]float64, len(sums))
	for tag, sum := range sums {
		out[tag] = sum / float64(ns[tag])
	}
	return out
}

// VolumeByTag returns cumulative traded volume per strategy. Each fill
// counts toward both counterparties' tags.
func (m *Market) VolumeByTag() map[schema.Tag]float64 {
	out := make(map[schema.Tag]float64, len(m.volumeByTag))
	for tag, v := range m.volumeByTag {
		out[tag] = v
	}
	return out
}

// Metrics exposes the run counters.
func (m *Market) Metrics() *obs.Metrics { return m.metrics }

// TraderWallet returns a copy of the given trader's wallet.
func (m *Market) TraderWallet(id int) (agent.Wallet, bool) {
	t, ok := m.byID[id]
	if !ok {
		return agent.Wallet{}, false
	}
	return *t.Wallet(), true
}

// TraderValue returns the given trader's mark-to-market value.
func (m *Market) TraderValue(id int) (float64, bool) {
	t, ok := m.byID[id]
	if !ok {
		return 0, false
	}
	return t.Value(m.price), true
}

// Standings ranks the live population by mark-to-market value, best first.
// Ties keep population order.
func (m *Market) Standings() []Standing {
	ranked := m.rank()
	out := make([]Standing, len(ranked))
	for i, r := range ranked {
		out[i] = Standing{ID: r.trader.ID(), Tag: r.trader.Tag(), Value: r.value}
	}
	return out
}

// submit crosses an order against the book and settles the resulting
// fills against both counterparties' wallets. Makers have no wallet and
// are skipped on settlement.
func (m *Market) submit(o schema.Order) []schema.Trade {
	fills := m.book.Submit(o, m.tick)
	for _, tr := range fills {
		if buyer, ok := m.byID[tr.BuyerID]; ok {
			buyer.Wallet().ApplyFill(schema.SideBuy, tr.Price, tr.Qty)
		}
		if seller, ok := m.byID[tr.SellerID]; ok {
			seller.Wallet().ApplyFill(schema.SideSell, tr.Price, tr.Qty)
		}
		m.price = tr.Price
		m.tickVolume += tr.Qty
		m.tickNotional += tr.Price * tr.Qty
		m.volumeByTag[tr.BuyerTag] += tr.Qty
		m.volumeByTag[tr.SellerTag] += tr.Qty
	}
	m.metrics.AddTrades(len(fills))
	return fills
}

func (m *Market) view() agent.MarketView {
	bb, hasBid := m.book.BestBid()
	ba, hasAsk := m.book.BestAsk()
	return agent.MarketView{
		MarketPrice: m.price,
		BestBid:     bb,
		HasBid:      hasBid,
		BestAsk:     ba,
		HasAsk:      hasAsk,
		Ticks:       m.ticks,
		Tick:        m.tick,
	}
}

// closeTick derives the summary row for the tick that just completed.
// With no trades this tick, VWAP falls back to the last traded price; with
// an empty side of the book, so does the mid.
func (m *Market) closeTick(tick int) schema.MarketTick {
	vwap := m.price
	if m.tickVolume > 0 {
		vwap = m.tickNotional / m.tickVolume
	}

	mid := m.price
	bb, hasBid := m.book.BestBid()
	ba, hasAsk := m.book.BestAsk()
	if hasBid && hasAsk {
		mid = (bb + ba) / 2
	}

	return schema.MarketTick{
		LastPrice: m.price,
		Volume:    m.tickVolume,
		VWAP:      vwap,
		MidPrice:  mid,
		Tick:      tick,
	}
}

func (m *Market) census(tick int) schema.TraderCount {
	c := schema.TraderCount{Tick: tick, MarketMaker: len(m.makers)}
	for _, t := range m.traders {
		switch t.Tag() {
		case schema.TagNoise:
			c.Noise++
		case schema.TagMomentum:
			c.Momentum++
		case schema.TagMeanRevert:
			c.MeanRevert++
		case schema.TagExternal:
			c.External++
		}
	}
	return c
}

func (m *Market) tagValues(tick int) schema.TagValue {
	avgs := m.ValuesByTag()
	return schema.TagValue{
		Tick:       tick,
		Noise:      avgs[schema.TagNoise],
		Momentum:   avgs[schema.TagMomentum],
		MeanRevert: avgs[schema.TagMeanRevert],
		External:   avgs[schema.TagExternal],
	}
}

func (m *Market) record(mt schema.MarketTick, trades []schema.Trade, counts schema.TraderCount, values schema.TagValue) {
	m.ticks = append(m.ticks, mt)
	if len(m.ticks) > historyRetention {
		copy(m.ticks, m.ticks[len(m.ticks)-historyRetention:])
		m.ticks = m.ticks[:historyRetention]
	}

	m.counts = append(m.counts, counts)
	if len(m.counts) > historyRetention {
		copy(m.counts, m.counts[len(m.counts)-historyRetention:])
		m.counts = m.counts[:historyRetention]
	}

	m.values = append(m.values, values)
	if len(m.values) > historyRetention {
		copy(m.values, m.values[len(m.values)-historyRetention:])
		m.values = m.values[:historyRetention]
	}

	m.trades = append(m.trades, trades...)
	cutoff := m.ticks[0].Tick
	drop := 0
	for drop < len(m.trades) && m.trades[drop].Tick < cutoff {
		drop++
	}
	if drop > 0 {
		copy(m.trades, m.trades[drop:])
		m.trades = m.trades[:len(m.trades)-drop]
	}
}

func (m *Market) allocID() int {
	id := m.nextID
	m.nextID++
	return id
}

func (m *Market) startingWallet() agent.Wallet {
	return agent.Wallet{Cash: m.cfg.InitialCash, Position: m.cfg.InitialPosition}
}
