package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/yanun0323/errors"

	"main/internal/market"
	"main/internal/schema"
)

// WriteTicks dumps tick history to a CSV file, oldest first.
func WriteTicks(path string, ticks []schema.MarketTick) error {
	return writeCSV(path, []string{"tick", "last_price", "volume", "vwap", "mid_price"},
		len(ticks), func(i int) []string {
			t := ticks[i]
			return []string{
				strconv.Itoa(t.Tick),
				formatFloat(t.LastPrice),
				formatFloat(t.Volume),
				formatFloat(t.VWAP),
				formatFloat(t.MidPrice),
			}
		})
}

// WriteTrades dumps trade history to a CSV file.
func WriteTrades(path string, trades []schema.Trade) error {
	return writeCSV(path, []string{"tick", "price", "qty", "buyer_id", "seller_id", "buyer_tag", "seller_tag"},
		len(trades), func(i int) []string {
			t := trades[i]
			return []string{
				strconv.Itoa(t.Tick),
				formatFloat(t.Price),
				formatFloat(t.Qty),
				strconv.Itoa(t.BuyerID),
				strconv.Itoa(t.SellerID),
				t.BuyerTag.String(),
				t.SellerTag.String(),
			}
		})
}

// WriteCounts dumps the population census history to a CSV file.
func WriteCounts(path string, counts []schema.TraderCount) error {
	return writeCSV(path, []string{"tick", "noise", "market_maker", "momentum", "mean_revert", "external"},
		len(counts), func(i int) []string {
			c := counts[i]
			return []string{
				strconv.Itoa(c.Tick),
				strconv.Itoa(c.Noise),
				strconv.Itoa(c.MarketMaker),
				strconv.Itoa(c.Momentum),
				strconv.Itoa(c.MeanRevert),
				strconv.Itoa(c.External),
			}
		})
}

// WritePnL dumps the per-strategy average value history to a CSV file.
func WritePnL(path string, values []schema.TagValue) error {
	return writeCSV(path, []string{"tick", "noise", "momentum", "mean_revert", "external"},
		len(values), func(i int) []string {
			v := values[i]
			return []string{
				strconv.Itoa(v.Tick),
				formatFloat(v.Noise),
				formatFloat(v.Momentum),
				formatFloat(v.MeanRevert),
				formatFloat(v.External),
			}
		})
}

// WriteStandings dumps the final trader ranking to a CSV file, best first.
func WriteStandings(path string, standings []market.Standing) error {
	return writeCSV(path, []string{"rank", "trader_id", "tag", "value"},
		len(standings), func(i int) []string {
			s := standings[i]
			return []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(s.ID),
				s.Tag.String(),
				formatFloat(s.Value),
			}
		})
}

// PriceStream appends one tick row at a time to an open CSV file, for
// sampling long runs without holding full history.
type PriceStream struct {
	f *os.File
	w *csv.Writer
}

// OpenPriceStream creates (or truncates) the file and writes the header.
func OpenPriceStream(path string) (*PriceStream, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "open price stream")
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"tick", "last_price", "vwap", "mid_price"}); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "write header")
	}
	return &PriceStream{f: f, w: w}, nil
}

// Append writes one tick row and flushes it.
func (s *PriceStream) Append(t schema.MarketTick) error {
	if err := s.w.Write([]string{
		strconv.Itoa(t.Tick),
		formatFloat(t.LastPrice),
		formatFloat(t.VWAP),
		formatFloat(t.MidPrice),
	}); err != nil {
		return errors.Wrap(err, "write row")
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *PriceStream) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return errors.Wrap(err, "flush")
	}
	if err := s.f.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	return nil
}

func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
