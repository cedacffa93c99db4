package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Server  Server  `yaml:"server"`
	Output  Output  `yaml:"output"`
	Review  Review  `yaml:"review"`
	Logging Logging `yaml:"logging"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

// Review holds the sampling and analysis tuning knobs.
type Review struct {
	LowConfidenceThreshold  float64 `yaml:"low_confidence_threshold"`
	LowConfidenceVoteTarget int     `yaml:"low_confidence_vote_target"`
	DisagreementLow         float64 `yaml:"disagreement_low"`
	DisagreementHigh        float64 `yaml:"disagreement_high"`
	ReviewerVoteFloor       int     `yaml:"reviewer_vote_floor"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for eitl.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "eitl")
}

// DataDir returns the XDG data directory for eitl.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "eitl")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/eitl/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'eitl init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Server: Server{Port: 8080},
		Review: Review{
			LowConfidenceThreshold:  0.7,
			LowConfidenceVoteTarget: 3,
			DisagreementLow:         0.4,
			DisagreementHigh:        0.6,
			ReviewerVoteFloor:       5,
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
