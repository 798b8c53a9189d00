package config

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/viper"
)

// LoadSim reads a simulation config file (yaml, json or toml by extension)
// and layers it over DefaultSim.
func LoadSim(path string) (SimConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := registerDefaults(v); err != nil {
		return SimConfig{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		return SimConfig{}, fmt.Errorf("read sim config %s: %w", path, err)
	}
	return decodeSim(v)
}

// ReadSim parses a simulation config of the given format ("yaml", "json",
// "toml") from r and layers it over DefaultSim.
func ReadSim(r io.Reader, format string) (SimConfig, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := registerDefaults(v); err != nil {
		return SimConfig{}, err
	}

	if err := v.ReadConfig(r); err != nil {
		return SimConfig{}, fmt.Errorf("parse sim config: %w", err)
	}
	return decodeSim(v)
}

// decodeSim unmarshals a fully defaulted viper tree. Every key is present, so
// zeros in the result were written by the file and are kept.
func decodeSim(v *viper.Viper) (SimConfig, error) {
	var cfg SimConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SimConfig{}, fmt.Errorf("decode sim config: %w", err)
	}
	cfg.Resolved = true
	if err := cfg.Validate(); err != nil {
		return SimConfig{}, fmt.Errorf("invalid sim config: %w", err)
	}
	return cfg, nil
}

// registerDefaults mirrors DefaultSim into viper so partial files and
// AllSettings both see every key.
func registerDefaults(v *viper.Viper) error {
	raw, err := json.Marshal(DefaultSim())
	if err != nil {
		return fmt.Errorf("encode sim defaults: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decode sim defaults: %w", err)
	}
	for key, val := range tree {
		v.SetDefault(key, val)
	}
	return nil
}
