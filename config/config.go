package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config drives the loanchain daemon. Platform settings listed here seed the
// in-memory settings store at startup; the asset settings file layers per-asset
// ceilings on top.
type Config struct {
	MetricsAddress    string            `toml:"MetricsAddress"`
	Environment       string            `toml:"Environment"`
	LogFile           string            `toml:"LogFile"`
	DataDir           string            `toml:"DataDir"`
	LendAsset         string            `toml:"LendAsset"`
	AdapterMarket     string            `toml:"AdapterMarket"`
	AssetSettingsPath string            `toml:"AssetSettingsPath"`
	PauserAddress     string            `toml:"PauserAddress"`
	PlatformSettings  map[string]uint64 `toml:"PlatformSettings"`
}

// Load loads the configuration from the given path, creating a commented
// default file when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0].String())
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(c.LendAsset) == "" {
		return fmt.Errorf("LendAsset must be set")
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		return fmt.Errorf("MetricsAddress must be set")
	}
	for name, value := range c.PlatformSettings {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("PlatformSettings contains an empty setting name")
		}
		_ = value
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./loanchain-data"
	}
	if cfg.PlatformSettings == nil {
		cfg.PlatformSettings = map[string]uint64{}
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		MetricsAddress: ":9090",
		Environment:    "local",
		DataDir:        "./loanchain-data",
		LendAsset:      "DAI",
		AdapterMarket:  "cDAI",
		PlatformSettings: map[string]uint64{
			"RequiredSubmissions":      2,
			"MaximumTolerance":         3000,
			"ResponseExpiryLength":     900,
			"SafetyInterval":           300,
			"TermsExpiryTime":          3600,
			"LiquidateRewardBps":       10500,
			"OverCollateralizedBuffer": 11000,
			"CollateralBuffer":         10000,
			"MaximumLoanDuration":      31536000,
			"StaleCollateralWindow":    0,
		},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
