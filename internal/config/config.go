package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/banban/sdk/solver"
)

// Config represents the complete banban configuration file
type Config struct {
	Solver SolverSettings `hcl:"solver,block"`
	Output OutputSettings `hcl:"output,block"`
	Log    LogSettings    `hcl:"log,block"`
}

// SolverSettings controls the exact solver
type SolverSettings struct {
	Workers    int `hcl:"workers,optional"`
	CacheLimit int `hcl:"cache_limit,optional"`
}

// OutputSettings names where full-table solves are persisted. Empty paths
// skip that destination.
type OutputSettings struct {
	Chart    string `hcl:"chart,optional"`
	Database string `hcl:"database,optional"`
}

// LogSettings controls logging
type LogSettings struct {
	Level string `hcl:"level,optional"`
}

// fileConfig mirrors Config with optional blocks so a file may omit any of
// them.
type fileConfig struct {
	Solver *SolverSettings `hcl:"solver,block"`
	Output *OutputSettings `hcl:"output,block"`
	Log    *LogSettings    `hcl:"log,block"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Solver: SolverSettings{
			Workers:    runtime.NumCPU(),
			CacheLimit: solver.DefaultCacheLimit,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// Load reads configuration from an HCL file. A missing file yields defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := Default()
	if raw.Solver != nil {
		if raw.Solver.Workers != 0 {
			config.Solver.Workers = raw.Solver.Workers
		}
		if raw.Solver.CacheLimit != 0 {
			config.Solver.CacheLimit = raw.Solver.CacheLimit
		}
	}
	if raw.Output != nil {
		config.Output = *raw.Output
	}
	if raw.Log != nil && raw.Log.Level != "" {
		config.Log.Level = raw.Log.Level
	}

	return config, nil
}

// SolverConfig returns the solver settings as a solver.Config
func (c *Config) SolverConfig() solver.Config {
	return solver.Config{
		Workers:    c.Solver.Workers,
		CacheLimit: c.Solver.CacheLimit,
	}
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() (log.Level, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return level, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.SolverConfig().Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}
