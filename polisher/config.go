package polisher

import (
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Type selects the polishing flavor; fragment correction prefixes output tags
// with "r".
type Type int

const (
	TypeContig Type = iota
	TypeFragment
)

// Config carries the construction-time options of a polishing run. Values are
// validated by downstream use (the backend rejects zero devices) rather than
// by a separate validation pass.
type Config struct {
	Type             Type    `toml:"-"`
	WindowLength     uint32  `toml:"window_length"`
	QualityThreshold float64 `toml:"quality_threshold"`
	ErrorThreshold   float64 `toml:"error_threshold"`
	Match            int8    `toml:"match"`
	Mismatch         int8    `toml:"mismatch"`
	Gap              int8    `toml:"gap"`
	BatchCount       int     `toml:"batches"`
	BandedAlignment  bool    `toml:"banded_alignment"`
	FallbackWorkers  int     `toml:"fallback_workers"`
}

func DefaultConfig() Config {
	return Config{
		WindowLength:     500,
		QualityThreshold: 10.0,
		ErrorThreshold:   0.3,
		Match:            3,
		Mismatch:         -5,
		Gap:              -4,
		BatchCount:       2,
		FallbackWorkers:  runtime.NumCPU(),
	}
}

// LoadProfile reads a TOML profile over the defaults.
func LoadProfile(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if _, err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WindowLength == 0 {
		c.WindowLength = d.WindowLength
	}
	if c.BatchCount <= 0 {
		c.BatchCount = d.BatchCount
	}
	if c.FallbackWorkers <= 0 {
		c.FallbackWorkers = d.FallbackWorkers
	}
	if c.Match == 0 && c.Mismatch == 0 && c.Gap == 0 {
		c.Match, c.Mismatch, c.Gap = d.Match, d.Mismatch, d.Gap
	}
	return c
}
