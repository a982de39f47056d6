package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultWordlistURL is the fuzzing wordlist fetched when none is cached.
const DefaultWordlistURL = "https://raw.githubusercontent.com/danielmiessler/SecLists/master/Discovery/Web-Content/common.txt"

// Config holds all options for one scan run. It is immutable after
// construction; phase-specific timeout adjustments are per-call parameters,
// never config mutations.
type Config struct {
	// Target domain, validated by the CLI before any tool runs
	Target string `yaml:"target"`

	// Performance
	Threads int `yaml:"threads"` // Concurrency passed through to tools (httprobe -c, gau --threads)
	Timeout int `yaml:"timeout"` // Per-command timeout in seconds

	// Output
	OutputDir string `yaml:"output_dir"`

	// Vulnerability scanning
	NucleiTemplates string   `yaml:"nuclei_templates"`
	NucleiSeverity  []string `yaml:"nuclei_severity"`

	// Content discovery
	WordlistURL string `yaml:"wordlist_url"`

	// Verbose command tracing
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Threads:         10,
		Timeout:         1200,
		OutputDir:       "Targets",
		NucleiTemplates: "~/nuclei-templates/",
		NucleiSeverity:  []string{"info", "low", "medium", "high", "critical"},
		WordlistURL:     DefaultWordlistURL,
	}
}

// LoadFile reads a YAML configuration file. Values present in the file
// replace defaults; flag values are ignored entirely when a file is given.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration before any tool is invoked.
func (c *Config) Validate() error {
	if c.Target == "" || !strings.Contains(c.Target, ".") {
		return fmt.Errorf("invalid target domain %q", c.Target)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	return nil
}
