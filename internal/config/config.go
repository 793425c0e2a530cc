// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the YAML configuration of the stopmatch command.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"m4o.io/stopmatch/internal/matching"
)

// Inputs names the input files.
type Inputs struct {
	Atlas     string `yaml:"atlas" validate:"required"`
	OSM       string `yaml:"osm" validate:"required"`
	GTFS      string `yaml:"gtfs"`
	HRDF      string `yaml:"hrdf"`
	OSMRoutes string `yaml:"osm_routes"`
	Operators string `yaml:"operators"`
}

// Matching tunes the matching stages. Distances are in meters.
type Matching struct {
	MaxDistance       float64 `yaml:"max_distance" validate:"gt=0"`
	IsolationRadius   float64 `yaml:"isolation_radius" validate:"gt=0"`
	RouteMaxDistance  float64 `yaml:"route_max_distance" validate:"gt=0"`
	TieBreakMinSecond float64 `yaml:"tie_break_min_second" validate:"gte=0"`
	TieBreakRatio     float64 `yaml:"tie_break_ratio" validate:"gte=1"`
	Workers           int     `yaml:"workers" validate:"gte=1"`
}

// Output names where results go. SQLite also holds the manual overrides.
type Output struct {
	JSON   string `yaml:"json"`
	SQLite string `yaml:"sqlite"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Config is the root configuration structure.
type Config struct {
	Inputs   Inputs   `yaml:"inputs"`
	Matching Matching `yaml:"matching"`
	Output   Output   `yaml:"output"`
	Logging  Logging  `yaml:"logging"`
}

// Default returns the configuration used for every key a file leaves out.
func Default() *Config {
	p := matching.DefaultParams()

	return &Config{
		Matching: Matching{
			MaxDistance:       p.MaxDistance,
			IsolationRadius:   p.IsolationRadius,
			RouteMaxDistance:  p.RouteMaxDistance,
			TieBreakMinSecond: p.TieBreakMinSecond,
			TieBreakRatio:     p.TieBreakRatio,
			Workers:           p.Workers,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file at path over the defaults. The result is
// not validated since command line flags may still complete it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a YAML configuration over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// Params returns the matching tuning.
func (c *Config) Params() matching.Params {
	return matching.Params{
		MaxDistance:       c.Matching.MaxDistance,
		IsolationRadius:   c.Matching.IsolationRadius,
		RouteMaxDistance:  c.Matching.RouteMaxDistance,
		TieBreakMinSecond: c.Matching.TieBreakMinSecond,
		TieBreakRatio:     c.Matching.TieBreakRatio,
		Workers:           c.Matching.Workers,
	}
}
