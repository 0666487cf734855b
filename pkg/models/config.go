package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the detection thresholds for the cheat classifier.
type Config struct {
	// TPSCheatMin is the minimum throttle position (%) required before any
	// sensor excursion counts as a potential cheat. Below this the engine is
	// off-throttle and out-of-band readings are normal.
	TPSCheatMin float64 `yaml:"tps_cheat_min"`

	// LambdaMin/LambdaMax bound the acceptable averaged air-fuel ratio.
	LambdaMin float64 `yaml:"lambda_min"`
	LambdaMax float64 `yaml:"lambda_max"`

	// FuelMin/FuelMax bound the acceptable fuel pressure (psi).
	FuelMin float64 `yaml:"fuel_min"`
	FuelMax float64 `yaml:"fuel_max"`

	// AmbientOffset (°C) is added to the ambient temperature to form the
	// maximum allowed intake air and coolant temperatures.
	AmbientOffset float64 `yaml:"ambient_offset"`

	// CheatDelaySec is the minimum sustained violation duration (seconds)
	// before an episode is confirmed. Filters single-sample lean/rich spots.
	CheatDelaySec float64 `yaml:"cheat_delay_sec"`
}

// DefaultConfig returns the homologation thresholds used at the test bench.
func DefaultConfig() Config {
	return Config{
		TPSCheatMin:   97.0,
		LambdaMin:     0.80,
		LambdaMax:     0.92,
		FuelMin:       317,
		FuelMax:       372,
		AmbientOffset: 15,
		CheatDelaySec: 0.5,
	}
}

// Validate checks the thresholds for internal consistency.
func (c Config) Validate() error {
	if c.LambdaMin > c.LambdaMax {
		return fmt.Errorf("lambda range inverted: %.2f > %.2f", c.LambdaMin, c.LambdaMax)
	}
	if c.FuelMin > c.FuelMax {
		return fmt.Errorf("fuel pressure range inverted: %.0f > %.0f", c.FuelMin, c.FuelMax)
	}
	if c.CheatDelaySec <= 0 {
		return fmt.Errorf("cheat delay must be positive, got %g", c.CheatDelaySec)
	}
	if c.TPSCheatMin <= 0 || c.TPSCheatMin > 100 {
		return fmt.Errorf("tps cheat minimum out of range: %g", c.TPSCheatMin)
	}
	return nil
}

// ServerConfig holds settings for the web analyzer service.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	ResultsDir  string `yaml:"results_dir"`
	PreviewRows int    `yaml:"preview_rows"`

	Thresholds Config `yaml:"thresholds"`
}

// DefaultServerConfig returns the settings used when no config file is given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:        8080,
		ResultsDir:  os.TempDir(),
		PreviewRows: 100,
		Thresholds:  DefaultConfig(),
	}
}

// LoadServerConfig reads a YAML config file over the defaults. A missing
// file is not an error; the defaults are returned unchanged.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = DefaultServerConfig().PreviewRows
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
