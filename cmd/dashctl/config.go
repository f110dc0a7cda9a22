package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// config is the optional dashctl.yaml file. Flags override its values.
type config struct {
	LogLevel  string `yaml:"log_level"`
	OutputDir string `yaml:"output_dir"`
	Indent    int    `yaml:"indent"`
	Color     string `yaml:"color"`
}

func defaultConfig() *config {
	cfg := &config{}
	cfg.applyDefaults()
	return cfg
}

func readConfig(path string) (*config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashctl: open config %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := decodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("dashctl: config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeConfig(r io.Reader) (*config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var cfg config
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Indent == 0 {
		c.Indent = 2
	}
	c.Color = strings.ToLower(strings.TrimSpace(c.Color))
	if c.Color == "" {
		c.Color = "auto"
	}
}

// Validate rejects values the commands cannot honour.
func (c *config) Validate() error {
	if c.Indent < 0 || c.Indent > 8 {
		return fmt.Errorf("indent must be between 0 and 8, got %d", c.Indent)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("color must be auto, always or never, got %q", c.Color)
	}
	return nil
}
