// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the settings that drive an analysis run: how far
// the widening controller lets a block run before forcing convergence, how
// noisy the solver's own logging should be, and where a visualizer should
// write its output.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultMaxCountBeforeWidening is used when a config file doesn't specify
// one. -1 means never widen; most clients whose lattice is finite (like
// livevariable) should leave it there and override only for a lattice with
// infinite ascending chains.
const DefaultMaxCountBeforeWidening = -1

// Config is the top-level settings document, loaded from a YAML file.
type Config struct {
	// MaxCountBeforeWidening is the number of merges into a block on a
	// cycle that take the least upper bound before the next merge widens
	// instead; the count then starts over. -1 disables widening.
	MaxCountBeforeWidening int `yaml:"max-count-before-widening"`

	// LogLevel selects how much the solver logs while it runs; see the
	// LogLevel constants in logging.go.
	LogLevel int `yaml:"log-level"`

	// GraphOutputDir, if non-empty, is where a visualizer should write the
	// rendered control-flow graph and per-block store dumps it produces.
	GraphOutputDir string `yaml:"graph-output-dir"`

	sourceFile string
}

// NewDefault returns the config used when no file is loaded: widening
// disabled, logging at InfoLevel, no graph output.
func NewDefault() *Config {
	return &Config{
		MaxCountBeforeWidening: DefaultMaxCountBeforeWidening,
		LogLevel:               int(InfoLevel),
	}
}

// Load reads and parses a YAML config file, filling in defaults for any
// field the file doesn't mention.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	return cfg, nil
}

// SourceFile returns the path Load read cfg from, or the empty string for
// a config built with NewDefault.
func (cfg *Config) SourceFile() string { return cfg.sourceFile }
