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

// Package matching implements the matching stages that pair ATLAS stops with
// OSM nodes. Each stage consumes the rows left unmatched by the previous one
// and records its decisions in a shared Exclusion.
package matching

import (
	"log/slog"
	"runtime"

	"m4o.io/stopmatch/internal/operator"
	"m4o.io/stopmatch/internal/osmgraph"
	"m4o.io/stopmatch/internal/routes"
	"m4o.io/stopmatch/internal/spatial"
	"m4o.io/stopmatch/model"
)

const (
	// DefaultMaxDistance bounds the spatial stages, in meters.
	DefaultMaxDistance = 50.0

	// DefaultIsolationRadius is the radius of the no-nearby check, in meters.
	DefaultIsolationRadius = 50.0

	// DefaultRouteMaxDistance bounds the route stage, in meters.
	DefaultRouteMaxDistance = 50.0

	// DefaultTieBreakMinSecond is the minimal distance of the second nearest
	// candidate for the nearest one to win, in meters.
	DefaultTieBreakMinSecond = 10.0

	// DefaultTieBreakRatio is the minimal ratio between the second nearest
	// and the nearest candidate distance.
	DefaultTieBreakRatio = 4.0
)

// Params tunes the stages.
type Params struct {
	MaxDistance       float64
	IsolationRadius   float64
	RouteMaxDistance  float64
	TieBreakMinSecond float64
	TieBreakRatio     float64

	// Workers is the parallelism of the per-row spatial queries.
	Workers int
}

// DefaultParams returns the default tuning.
func DefaultParams() Params {
	return Params{
		MaxDistance:       DefaultMaxDistance,
		IsolationRadius:   DefaultIsolationRadius,
		RouteMaxDistance:  DefaultRouteMaxDistance,
		TieBreakMinSecond: DefaultTieBreakMinSecond,
		TieBreakRatio:     DefaultTieBreakRatio,
		Workers:           max(runtime.GOMAXPROCS(-1)-1, 1),
	}
}

type matcherOptions struct {
	params     Params
	routes     *routes.Tables
	normalizer *operator.Normalizer
	logger     *slog.Logger
}

// Option configures a Matcher.
type Option func(*matcherOptions)

// WithParams sets the stage tuning.
func WithParams(p Params) Option {
	return func(o *matcherOptions) {
		o.params = p
	}
}

// WithRoutes sets the route tables used by the route stage.
func WithRoutes(t *routes.Tables) Option {
	return func(o *matcherOptions) {
		o.routes = t
	}
}

// WithNormalizer sets the operator normalizer used for mismatch notes.
func WithNormalizer(n *operator.Normalizer) Option {
	return func(o *matcherOptions) {
		o.normalizer = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *matcherOptions) {
		o.logger = l
	}
}

// Matcher runs the stages over one OSM graph.
type Matcher struct {
	graph      *osmgraph.Graph
	ex         *Exclusion
	params     Params
	routes     *routes.Tables
	normalizer *operator.Normalizer
	logger     *slog.Logger

	everything *spatial.Index[*model.OsmNode]
}

// New returns a matcher recording its decisions in ex.
func New(graph *osmgraph.Graph, ex *Exclusion, opts ...Option) *Matcher {
	cfg := matcherOptions{params: DefaultParams()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.routes == nil {
		cfg.routes = routes.Empty()
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if cfg.params.Workers < 1 {
		cfg.params.Workers = 1
	}

	return &Matcher{
		graph:      graph,
		ex:         ex,
		params:     cfg.params,
		routes:     cfg.routes,
		normalizer: cfg.normalizer,
		logger:     cfg.logger,
	}
}

// Params returns the tuning in effect.
func (m *Matcher) Params() Params {
	return m.params
}

// Exclusion returns the state the matcher records into.
func (m *Matcher) Exclusion() *Exclusion {
	return m.ex
}

// unmatched returns the rows of stops that have no record yet, in order.
func (m *Matcher) unmatched(stops []model.AtlasStop) []model.AtlasStop {
	rest := make([]model.AtlasStop, 0, len(stops))

	for _, s := range stops {
		if !m.ex.IsMatched(s.Sloid) {
			rest = append(rest, s)
		}
	}

	return rest
}

// claim records matches and logs a rejected claim. Stages filter their
// candidates beforehand, so a rejection means the candidate went stale.
func (m *Matcher) claim(stage string, recs ...model.MatchRecord) bool {
	if err := m.ex.Claim(recs...); err != nil {
		m.logger.Warn("match rejected", "stage", stage, "error", err)

		return false
	}

	for _, r := range recs {
		m.logger.Debug("matched", "stage", stage, "sloid", r.Sloid, "node", r.NodeID, "type", r.Type)
	}

	return true
}
