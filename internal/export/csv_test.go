package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/market"
	"main/internal/schema"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTicks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	ticks := []schema.MarketTick{
		{Tick: 0, LastPrice: 100, Volume: 5, VWAP: 100.5, MidPrice: 100.25},
		{Tick: 1, LastPrice: 101, Volume: 0, VWAP: 101, MidPrice: 101},
	}

	require.NoError(t, WriteTicks(path, ticks))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"tick", "last_price", "volume", "vwap", "mid_price"}, rows[0])
	assert.Equal(t, []string{"0", "100", "5", "100.5", "100.25"}, rows[1])
	assert.Equal(t, []string{"1", "101", "0", "101", "101"}, rows[2])
}

func TestWriteTrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	trades := []schema.Trade{
		{Tick: 3, Price: 99.5, Qty: 2, BuyerID: 1, SellerID: 7, BuyerTag: schema.TagMomentum, SellerTag: schema.TagNoise},
	}

	require.NoError(t, WriteTrades(path, trades))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"3", "99.5", "2", "1", "7", "Momentum", "Noise"}, rows[1])
}

func TestWriteStandings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standings.csv")
	standings := []market.Standing{
		{ID: 9, Tag: schema.TagMeanRevert, Value: 123456.5},
		{ID: 2, Tag: schema.TagNoise, Value: 99000},
	}

	require.NoError(t, WriteStandings(path, standings))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "9", "MeanRevert", "123456.5"}, rows[1])
	assert.Equal(t, []string{"2", "2", "Noise", "99000"}, rows[2])
}

func TestWritePnL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pnl.csv")
	values := []schema.TagValue{
		{Tick: 0, Noise: 101000, Momentum: 100500, MeanRevert: 100250},
	}

	require.NoError(t, WritePnL(path, values))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"tick", "noise", "momentum", "mean_revert", "external"}, rows[0])
	assert.Equal(t, []string{"0", "101000", "100500", "100250", "0"}, rows[1])
}

func TestWriteCountsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.csv")

	require.NoError(t, WriteCounts(path, nil))

	rows := readCSV(t, path)
	require.Len(t, rows, 1, "header only")
}

func TestPriceStreamAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")

	s, err := OpenPriceStream(path)
	require.NoError(t, err)

	require.NoError(t, s.Append(schema.MarketTick{Tick: 0, LastPrice: 100, VWAP: 100, MidPrice: 100}))
	require.NoError(t, s.Append(schema.MarketTick{Tick: 100, LastPrice: 101.5, VWAP: 101.25, MidPrice: 101.4}))
	require.NoError(t, s.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"tick", "last_price", "vwap", "mid_price"}, rows[0])
	assert.Equal(t, []string{"100", "101.5", "101.25", "101.4"}, rows[2])
}
