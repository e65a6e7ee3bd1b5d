package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Configuration struct
// --------------------------------------------------------------------------

// Config holds the settings shared by all binser commands
type Config struct {
	// Logging configuration
	LogLevel string

	// Manifest is the optional path of a TOML schema manifest registered on top
	// of the primitive types
	Manifest string

	// Metrics enables printing the prometheus metrics after a command finished
	Metrics bool

	// Bench configuration
	Bench BenchConfig
}

// BenchConfig holds the parameters of the bench command
type BenchConfig struct {
	// TypeIds are the type ids whose routines are benchmarked
	TypeIds []string
	// Threads is the parallelism of the benchmark
	Threads int
	// ListSize is the number of elements written for list types
	ListSize int
	// Skip lists the benchmarks to skip (e.g. write,adapt)
	Skip []string
}

// DefaultConfig returns the configuration used when no flags are given
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "warn",
		Bench: BenchConfig{
			TypeIds:  []string{"Int", "String", "List[Int]", "List[List[Int]]"},
			Threads:  10,
			ListSize: 100,
		},
	}
}

// Validate checks the configuration for values that cannot be used
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Bench.Threads < 1 {
		return fmt.Errorf("bench threads must be positive, got %d", c.Bench.Threads)
	}
	if c.Bench.ListSize < 0 {
		return fmt.Errorf("bench list size must not be negative, got %d", c.Bench.ListSize)
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Types")
	manifest := c.Manifest
	if manifest == "" {
		manifest = "(none)"
	}
	addField("Manifest", manifest)
	addField("Print Metrics", fmt.Sprintf("%t", c.Metrics))

	addSection("Bench")
	addField("Type Ids", strings.Join(c.Bench.TypeIds, ", "))
	addField("Threads", fmt.Sprintf("%d", c.Bench.Threads))
	addField("List Size", fmt.Sprintf("%d", c.Bench.ListSize))
	if len(c.Bench.Skip) > 0 {
		addField("Skip", strings.Join(c.Bench.Skip, ", "))
	}

	return sb.String()
}
