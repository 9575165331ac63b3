package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/export"
	"main/internal/market"
	"main/internal/ops"
	"main/pkg/conn"
)

const topStandings = 20

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	ticks := flag.Int("ticks", 50000, "Number of ticks to simulate")
	outDir := flag.String("out", "testdata/out", "Directory for CSV exports")
	pgDSN := flag.String("pg-dsn", "", "PostgreSQL DSN for archiving results (empty=disabled)")
	runID := flag.String("run-id", "", "Run identifier for the archive (default: timestamp)")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "marketsim",
			ServerAddress:   *pyroscopeAddr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := run(cfg, *ticks, *outDir, *pgDSN, *runID); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func loadConfig(path string) (ops.Config, error) {
	if path == "" {
		return ops.Resolve(defaultFileConfig())
	}
	return ops.Load(path)
}

// defaultFileConfig is the population used when no config file is given.
func defaultFileConfig() ops.FileConfig {
	return ops.FileConfig{
		InitialPrice:   100,
		Evolve:         true,
		EvolutionTicks: 100,
		KillPercentage: 0.05,
		MaxOrderAge:    10,
		Noise:          ops.NoiseConfig{Count: 100, NoiseWeight: 0.01},
		Momentum: ops.WindowedConfig{
			Count: 20, MinShort: 5, MaxShort: 50, MinLong: 50, MaxLong: 200,
		},
		MeanReversion: ops.WindowedConfig{
			Count: 20, MinShort: 5, MaxShort: 50, MinLong: 50, MaxLong: 200,
		},
		MarketMakers: ops.MakerConfig{Count: 2, Spread: 0.1},
	}
}

func run(cfg ops.Config, ticks int, outDir, pgDSN, runID string) error {
	if ticks <= 0 {
		return fmt.Errorf("ticks must be > 0")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	m := market.New(cfg)

	stream, err := export.OpenPriceStream(filepath.Join(outDir, "prices.csv"))
	if err != nil {
		return err
	}
	defer stream.Close()

	start := time.Now()
	for i := 0; i < ticks; i++ {
		res := m.Step()
		if res.Tick.Tick%cfg.WriteEvery == 0 {
			if err := stream.Append(res.Tick); err != nil {
				return err
			}
		}
	}
	elapsed := time.Since(start)

	snap := m.Metrics().Snapshot()
	logs.Infof("simulated %d ticks in %s (%d trades, %d evolutions, avg step %s)",
		ticks, elapsed, snap.Trades, snap.Evolutions, snap.StepLatency.Avg)

	standings := m.Standings()
	for i, s := range standings {
		if i >= topStandings {
			break
		}
		logs.Infof("#%d trader %d (%s): %.2f", i+1, s.ID, s.Tag, s.Value)
	}

	if err := export.WriteTicks(filepath.Join(outDir, "ticks.csv"), m.Ticks()); err != nil {
		return err
	}
	if err := export.WriteTrades(filepath.Join(outDir, "trades.csv"), m.Trades()); err != nil {
		return err
	}
	if err := export.WriteCounts(filepath.Join(outDir, "counts.csv"), m.Counts()); err != nil {
		return err
	}
	if err := export.WritePnL(filepath.Join(outDir, "pnl.csv"), m.Values()); err != nil {
		return err
	}
	if err := export.WriteStandings(filepath.Join(outDir, "standings.csv"), standings); err != nil {
		return err
	}

	if pgDSN != "" {
		if err := archive(pgDSN, runID, m, standings); err != nil {
			return err
		}
	}
	return nil
}

func archive(dsn, runID string, m *market.Market, standings []market.Standing) error {
	if runID == "" {
		runID = time.Now().UTC().Format("20060102T150405Z")
	}

	client, err := conn.New(conn.Option{DSN: dsn})
	if err != nil {
		return err
	}
	defer client.Close()

	archiver, err := export.NewArchiver(client, runID)
	if err != nil {
		return err
	}
	if err := archiver.SaveTicks(m.Ticks()); err != nil {
		return err
	}
	if err := archiver.SaveTrades(m.Trades()); err != nil {
		return err
	}
	if err := archiver.SaveStandings(standings); err != nil {
		return err
	}
	logs.Infof("archived run %s to postgres", runID)
	return nil
}

type emptyLogger struct{}

func (emptyLogger) Infof(string, ...interface{})  {}
func (emptyLogger) Debugf(string, ...interface{}) {}
func (emptyLogger) Errorf(string, ...interface{}) {}
