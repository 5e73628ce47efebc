package mt5script

import (
	"fmt"
	"time"
)

// Config holds configuration for the connector process runner.
type Config struct {
	// PythonPath is the interpreter used to run the script.
	PythonPath string

	// ScriptDir is the working directory of every connector process.
	ScriptDir string

	// Script is the connector file name, relative to ScriptDir.
	Script string

	// Timeout bounds a single invocation, including interpreter startup.
	Timeout time.Duration

	// MaxConcurrent bounds the number of connector processes alive at once.
	MaxConcurrent int64

	// WaitDelay is how long to wait for output pipes to close after the
	// process has been killed.
	WaitDelay time.Duration
}

// ConfigDefaults returns the default configuration.
func ConfigDefaults() Config {
	return Config{
		PythonPath:    "python3",
		ScriptDir:     "./mt5_integration",
		Script:        "mt5_connector.py",
		Timeout:       30 * time.Second,
		MaxConcurrent: 8,
		WaitDelay:     2 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	defaults := ConfigDefaults()
	if c.PythonPath == "" {
		c.PythonPath = defaults.PythonPath
	}
	if c.ScriptDir == "" {
		c.ScriptDir = defaults.ScriptDir
	}
	if c.Script == "" {
		c.Script = defaults.Script
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = defaults.MaxConcurrent
	}
	if c.WaitDelay == 0 {
		c.WaitDelay = defaults.WaitDelay
	}
}

func (c Config) validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent must be positive, got %d", c.MaxConcurrent)
	}
	return nil
}
