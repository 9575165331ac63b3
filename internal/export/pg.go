package export

import (
	"github.com/yanun0323/errors"

	"main/internal/market"
	"main/internal/schema"
	"main/pkg/conn"
)

const archiveBatchSize = 500

// TickRow is the persisted form of one market tick.
type TickRow struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	Tick      int
	LastPrice float64
	Volume    float64
	VWAP      float64
	MidPrice  float64
}

// TradeRow is the persisted form of one executed trade.
type TradeRow struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	Tick      int
	Price     float64
	Qty       float64
	BuyerID   int
	SellerID  int
	BuyerTag  string
	SellerTag string
}

// StandingRow is the persisted form of one final-ranking entry.
type StandingRow struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index"`
	Rank     int
	TraderID int
	Tag      string
	Value    float64
}

// Archiver persists run artifacts to PostgreSQL. Rows are keyed by run id
// so one database holds many runs.
type Archiver struct {
	client *conn.Client
	runID  string
}

// NewArchiver migrates the archive tables and returns an archiver bound to
// the given run id.
func NewArchiver(client *conn.Client, runID string) (*Archiver, error) {
	if err := client.DB().AutoMigrate(&TickRow{}, &TradeRow{}, &StandingRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate archive tables")
	}
	return &Archiver{client: client, runID: runID}, nil
}

// SaveTicks persists tick history.
func (a *Archiver) SaveTicks(ticks []schema.MarketTick) error {
	if len(ticks) == 0 {
		return nil
	}
	rows := make([]TickRow, len(ticks))
	for i, t := range ticks {
		rows[i] = TickRow{
			RunID:     a.runID,
			Tick:      t.Tick,
			LastPrice: t.LastPrice,
			Volume:    t.Volume,
			VWAP:      t.VWAP,
			MidPrice:  t.MidPrice,
		}
	}
	if err := a.client.DB().CreateInBatches(rows, archiveBatchSize).Error; err != nil {
		return errors.Wrap(err, "save ticks")
	}
	return nil
}

// SaveTrades persists trade history.
func (a *Archiver) SaveTrades(trades []schema.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	rows := make([]TradeRow, len(trades))
	for i, t := range trades {
		rows[i] = TradeRow{
			RunID:     a.runID,
			Tick:      t.Tick,
			Price:     t.Price,
			Qty:       t.Qty,
			BuyerID:   t.BuyerID,
			SellerID:  t.SellerID,
			BuyerTag:  t.BuyerTag.String(),
			SellerTag: t.SellerTag.String(),
		}
	}
	if err := a.client.DB().CreateInBatches(rows, archiveBatchSize).Error; err != nil {
		return errors.Wrap(err, "save trades")
	}
	return nil
}

// SaveStandings persists the final trader ranking.
func (a *Archiver) SaveStandings(standings []market.Standing) error {
	if len(standings) == 0 {
		return nil
	}
	rows := make([]StandingRow, len(standings))
	for i, s := range standings {
		rows[i] = StandingRow{
			RunID:    a.runID,
			Rank:     i + 1,
			TraderID: s.ID,
			Tag:      s.Tag.String(),
			Value:    s.Value,
		}
	}
	if err := a.client.DB().CreateInBatches(rows, archiveBatchSize).Error; err != nil {
		return errors.Wrap(err, "save standings")
	}
	return nil
}
