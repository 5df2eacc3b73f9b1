package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration structure
type Config struct {
	Filter  FilterConfig  `yaml:"filter"`
	Logging LoggingConfig `yaml:"logging"`
}

// FilterConfig contains the sizing parameters passed to ldcf.New.
type FilterConfig struct {
	Epsilon            float64 `yaml:"epsilon"`             // target false-positive rate
	ExpectedPopulation uint64  `yaml:"expected_population"` // n
	ExpectedLevels     uint    `yaml:"expected_levels"`     // lambda
	HashFunction       string  `yaml:"hash_function"`       // informational; xxhash64 is the only one wired
	Seed               int64   `yaml:"seed"`                // RNG seed; 0 means "seed from the OS CSPRNG"
	MemoryBudgetBytes  int64   `yaml:"memory_budget_bytes"` // footprint budget handed to internal/memstat; 0 disables pressure tracking
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level         string `yaml:"level"`          // debug, info, warn, error, fatal
	EnableConsole bool   `yaml:"enable_console"` // Enable console output
	EnableFile    bool   `yaml:"enable_file"`    // Enable file output
	LogFile       string `yaml:"log_file"`       // Log file path
	LogDir        string `yaml:"log_dir"`        // Log directory
}

// Load reads and parses the configuration file, falling back to
// defaults when the file does not exist.
func Load(path string) (*Config, error) {
	config := &Config{
		Filter: FilterConfig{
			Epsilon:            0.01,
			ExpectedPopulation: 100000,
			ExpectedLevels:     4,
			HashFunction:       "xxhash64",
			Seed:               0,
			MemoryBudgetBytes:  64 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:         "info",
			EnableConsole: true,
			EnableFile:    false,
			LogFile:       "",
			LogDir:        "logs",
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("configuration file %s not found, using defaults\n", path)
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Filter.Epsilon <= 0 || c.Filter.Epsilon >= 1 {
		return fmt.Errorf("filter.epsilon must be in (0, 1)")
	}
	if c.Filter.ExpectedPopulation == 0 {
		return fmt.Errorf("filter.expected_population must be > 0")
	}
	if c.Filter.ExpectedLevels == 0 {
		return fmt.Errorf("filter.expected_levels must be >= 1")
	}
	if c.Filter.HashFunction != "" && c.Filter.HashFunction != "xxhash64" {
		return fmt.Errorf("unsupported filter.hash_function: %s", c.Filter.HashFunction)
	}
	return nil
}
