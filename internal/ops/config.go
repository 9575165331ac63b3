package ops

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/yanun0323/errors"

	"main/internal/sizer"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Seed            int64   `json:"seed"`
	InitialPrice    float64 `json:"initialPrice"`
	Evolve          bool    `json:"evolve"`
	EvolutionTicks  int     `json:"evolutionTicks"`
	KillPercentage  float64 `json:"killPercentage"`
	WriteEvery      int     `json:"writeEvery"`
	MaxOrderAge     int     `json:"maxOrderAge"`
	InitialCash     float64 `json:"initialCash"`
	InitialPosition float64 `json:"initialPosition"`

	Noise         NoiseConfig    `json:"noise"`
	Momentum      WindowedConfig `json:"momentum"`
	MeanReversion WindowedConfig `json:"meanReversion"`
	MarketMakers  MakerConfig    `json:"marketMakers"`
}

// NoiseConfig describes the noise-trader group.
type NoiseConfig struct {
	Count           int         `json:"count"`
	NoiseWeight     float64     `json:"noiseWeight"`
	HoldProbability float64     `json:"holdProbability"`
	Sizer           SizerConfig `json:"sizer"`
}

// WindowedConfig describes a moving-average trader group. Each member
// draws its short/long windows uniformly from the configured ranges.
type WindowedConfig struct {
	Count    int         `json:"count"`
	MinShort int         `json:"minShort"`
	MaxShort int         `json:"maxShort"`
	MinLong  int         `json:"minLong"`
	MaxLong  int         `json:"maxLong"`
	Sizer    SizerConfig `json:"sizer"`
}

// MakerConfig describes the market-maker group.
type MakerConfig struct {
	Count       int     `json:"count"`
	AnchorPrice float64 `json:"anchorPrice"`
	Spread      float64 `json:"spread"`
	QuoteSize   float64 `json:"quoteSize"`
}

// SizerConfig selects a bet-sizing policy.
type SizerConfig struct {
	Method   string  `json:"method"`
	Fraction float64 `json:"fraction"`
	MinBet   float64 `json:"minBet"`
}

// Config is the resolved configuration ready for use.
type Config struct {
	Seed            int64
	InitialPrice    float64
	Evolve          bool
	EvolutionTicks  int
	KillPercentage  float64
	WriteEvery      int
	MaxOrderAge     int
	InitialCash     float64
	InitialPosition float64

	Noise         NoiseGroup
	Momentum      WindowedGroup
	MeanReversion WindowedGroup
	MarketMakers  MakerGroup
}

// NoiseGroup is the resolved noise-trader group.
type NoiseGroup struct {
	Count           int
	NoiseWeight     float64
	HoldProbability float64
	Sizer           sizer.Sizer
}

// WindowedGroup is the resolved moving-average trader group.
type WindowedGroup struct {
	Count    int
	MinShort int
	MaxShort int
	MinLong  int
	MaxLong  int
	Sizer    sizer.Sizer
}

// MakerGroup is the resolved market-maker group.
type MakerGroup struct {
	Count       int
	AnchorPrice float64
	Spread      float64
	QuoteSize   float64
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	return Resolve(cfg)
}

// Resolve applies defaults and validates a file config.
func Resolve(cfg FileConfig) (Config, error) {
	cfg = withDefaults(cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	noiseSizer, err := resolveSizer(cfg.Noise.Sizer)
	if err != nil {
		return Config{}, errors.Wrap(err, "noise sizer")
	}
	momentumSizer, err := resolveSizer(cfg.Momentum.Sizer)
	if err != nil {
		return Config{}, errors.Wrap(err, "momentum sizer")
	}
	reversionSizer, err := resolveSizer(cfg.MeanReversion.Sizer)
	if err != nil {
		return Config{}, errors.Wrap(err, "meanReversion sizer")
	}

	return Config{
		Seed:            cfg.Seed,
		InitialPrice:    cfg.InitialPrice,
		Evolve:          cfg.Evolve,
		EvolutionTicks:  cfg.EvolutionTicks,
		KillPercentage:  cfg.KillPercentage,
		WriteEvery:      cfg.WriteEvery,
		MaxOrderAge:     cfg.MaxOrderAge,
		InitialCash:     cfg.InitialCash,
		InitialPosition: cfg.InitialPosition,
		Noise: NoiseGroup{
			Count:           cfg.Noise.Count,
			NoiseWeight:     cfg.Noise.NoiseWeight,
			HoldProbability: cfg.Noise.HoldProbability,
			Sizer:           noiseSizer,
		},
		Momentum: WindowedGroup{
			Count:    cfg.Momentum.Count,
			MinShort: cfg.Momentum.MinShort,
			MaxShort: cfg.Momentum.MaxShort,
			MinLong:  cfg.Momentum.MinLong,
			MaxLong:  cfg.Momentum.MaxLong,
			Sizer:    momentumSizer,
		},
		MeanReversion: WindowedGroup{
			Count:    cfg.MeanReversion.Count,
			MinShort: cfg.MeanReversion.MinShort,
			MaxShort: cfg.MeanReversion.MaxShort,
			MinLong:  cfg.MeanReversion.MinLong,
			MaxLong:  cfg.MeanReversion.MaxLong,
			Sizer:    reversionSizer,
		},
		MarketMakers: MakerGroup{
			Count:       cfg.MarketMakers.Count,
			AnchorPrice: cfg.MarketMakers.AnchorPrice,
			Spread:      cfg.MarketMakers.Spread,
			QuoteSize:   cfg.MarketMakers.QuoteSize,
		},
	}, nil
}

func withDefaults(cfg FileConfig) FileConfig {
	if cfg.InitialPrice == 0 {
		cfg.InitialPrice = 100
	}
	if cfg.EvolutionTicks == 0 {
		cfg.EvolutionTicks = 100
	}
	if cfg.WriteEvery == 0 {
		cfg.WriteEvery = 100
	}
	if cfg.MaxOrderAge == 0 {
		cfg.MaxOrderAge = 10
	}
	if cfg.InitialCash == 0 {
		cfg.InitialCash = 100000
	}
	if cfg.InitialPosition == 0 {
		cfg.InitialPosition = 10
	}
	if cfg.MarketMakers.QuoteSize == 0 {
		cfg.MarketMakers.QuoteSize = 10
	}
	if cfg.MarketMakers.Spread == 0 {
		cfg.MarketMakers.Spread = 0.1
	}
	return cfg
}

func validate(cfg FileConfig) error {
	if cfg.InitialPrice <= 0 {
		return errors.New("initialPrice must be > 0")
	}
	if cfg.KillPercentage < 0 || cfg.KillPercentage > 1 {
		return errors.New("killPercentage must be between 0 and 1")
	}
	if cfg.Evolve && cfg.EvolutionTicks <= 0 {
		return errors.New("evolutionTicks must be > 0 when evolve is set")
	}
	if cfg.MaxOrderAge <= 0 {
		return errors.New("maxOrderAge must be > 0")
	}
	if cfg.WriteEvery <= 0 {
		return errors.New("writeEvery must be > 0")
	}
	if cfg.Noise.Count < 0 || cfg.Momentum.Count < 0 || cfg.MeanReversion.Count < 0 || cfg.MarketMakers.Count < 0 {
		return errors.New("trader counts must be >= 0")
	}
	if cfg.Noise.Count > 0 && cfg.Noise.NoiseWeight <= 0 {
		return errors.New("noiseWeight must be > 0")
	}
	if cfg.Noise.HoldProbability < 0 || cfg.Noise.HoldProbability >= 1 {
		return errors.New("holdProbability must be in [0, 1)")
	}
	if err := validateWindows(cfg.Momentum); err != nil {
		return errors.Wrap(err, "momentum")
	}
	if err := validateWindows(cfg.MeanReversion); err != nil {
		return errors.Wrap(err, "meanReversion")
	}
	if cfg.MarketMakers.Count > 0 && cfg.MarketMakers.Spread <= 0 {
		return errors.New("marketMakers.spread must be > 0")
	}
	return nil
}

func validateWindows(cfg WindowedConfig) error {
	if cfg.Count == 0 {
		return nil
	}
	if cfg.MinShort <= 0 || cfg.MinLong <= 0 {
		return errors.New("window minimums must be > 0")
	}
	if cfg.MaxShort < cfg.MinShort || cfg.MaxLong < cfg.MinLong {
		return errors.New("window ranges must be ordered")
	}
	return nil
}

func resolveSizer(cfg SizerConfig) (sizer.Sizer, error) {
	fraction := cfg.Fraction
	if fraction == 0 {
		fraction = 0.01
	}
	minBet := cfg.MinBet
	if minBet == 0 {
		minBet = 1
	}
	if fraction < 0 || fraction > 1 {
		return nil, errors.New("fraction must be between 0 and 1")
	}

	switch strings.ToLower(cfg.Method) {
	case "", "fractional", "fixedfraction":
		return sizer.Fractional{Fraction: fraction, MinBet: minBet}, nil
	case "kelly":
		return sizer.Kelly{Fraction: fraction, MinBet: minBet}, nil
	default:
		return nil, errors.New("unknown sizing method: " + cfg.Method)
	}
}
