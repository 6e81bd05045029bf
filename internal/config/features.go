package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"uk-forecast-lab/internal/features"
)

// LoadFeatures reads a synthesizer definition from a YAML file. Keys absent from
// the file keep their features.DefaultConfig values; an empty path returns the
// defaults unchanged.
//
// Example:
//
//	target: demand
//	lags:
//	  - {name: "1", offset: 30m}
//	  - {name: 1d, offset: 24h}
//	windows:
//	  - {label: 24h, length: 24h, std: true, deviation: true}
//	deviation_lag: "1"
//	night: {from: 23, to: 5}
func LoadFeatures(path string) (features.Config, error) {
	cfg := features.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return features.Config{}, fmt.Errorf("read features config: %w", err)
	}
	return ParseFeatures(data)
}

// ParseFeatures decodes a YAML synthesizer definition over the defaults.
func ParseFeatures(data []byte) (features.Config, error) {
	cfg := features.DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return features.Config{}, fmt.Errorf("parse features config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return features.Config{}, fmt.Errorf("invalid features config: %w", err)
	}
	return cfg, nil
}
