package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v2"
)

// DefaultPath is read when no config file is given.
const DefaultPath = "trustdump.yaml"

type Config struct {
	StorePath     string   `yaml:"storePath"`
	InMemory      bool     `yaml:"inMemory"`
	MinimumFreeGB uint64   `yaml:"minimumFreeGB"`
	LogLevel      string   `yaml:"logLevel"`
	NoColor       bool     `yaml:"noColor"`
	SkipInvalid   bool     `yaml:"skipInvalid"`
	Interfaces    []string `yaml:"interfaces"`
	Superclass    string   `yaml:"superclass"`
	CSP           string   `yaml:"csp"`
}

// Load reads the YAML file at path. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.UnmarshalStrict(data, &config); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if config.StorePath == "" {
		config.StorePath = "./trusted-store"
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	if config.CSP == "" {
		config.CSP = "Ed25519"
	}

	return config, nil
}
