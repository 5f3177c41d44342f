// Package config loads a simulation run's configuration — the bundled
// example project to build, time_max, random seed, stop-condition
// threshold, and checkpoint interval — from a YAML file.
//
// Grounded on the pack's cobra+viper config-loading idiom (e.g.
// other_examples' inference-sim and roach88-nysm, both cobra CLIs backed
// by gopkg.in/yaml.v3-shaped config). Neither the teacher nor
// original_source has a config file format of its own — de_sim's
// sim_config is an in-memory object passed directly to simulate() — so
// this is a supplemented ambient concern grounded on the rest of the pack
// rather than on the teacher specifically.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// RunConfig describes one `desim run` invocation.
type RunConfig struct {
	Project           string  `mapstructure:"project" yaml:"project"`
	Scenario          string  `mapstructure:"scenario" yaml:"scenario"`
	TimeMax           float64 `mapstructure:"timeMax" yaml:"timeMax"`
	Seed              int64   `mapstructure:"seed" yaml:"seed"`
	StopAtTime        float64 `mapstructure:"stopAtTime" yaml:"stopAtTime"`
	CheckpointEvery   float64 `mapstructure:"checkpointEvery" yaml:"checkpointEvery"`
	CheckpointDBPath  string  `mapstructure:"checkpointDbPath" yaml:"checkpointDbPath"`
	MetadataDir       string  `mapstructure:"metadataDir" yaml:"metadataDir"`
	ShowProgress      bool    `mapstructure:"showProgress" yaml:"showProgress"`
	AuthorName        string  `mapstructure:"authorName" yaml:"authorName"`
	AuthorEmail       string  `mapstructure:"authorEmail" yaml:"authorEmail"`
}

// Defaults returns a RunConfig with the engine's sensible defaults.
func Defaults() RunConfig {
	return RunConfig{
		Project: "periodic",
		TimeMax: 10,
		Seed:    1,
	}
}

// Load reads a YAML run-config file at path, overlaying it on Defaults().
// An empty path returns Defaults() unmodified.
func Load(path string) (RunConfig, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("reading run config %q: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing run config %q: %w", path, err)
	}
	return cfg, nil
}
