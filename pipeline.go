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

package stopmatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"m4o.io/stopmatch/internal/atlas"
	"m4o.io/stopmatch/internal/matching"
	"m4o.io/stopmatch/internal/operator"
	"m4o.io/stopmatch/internal/osmgraph"
	"m4o.io/stopmatch/internal/routes"
	"m4o.io/stopmatch/model"
)

// ErrMissingInput is returned when a required input path is blank.
var ErrMissingInput = errors.New("missing input")

// Inputs names the files of one run. ATLAS and OSM are required, the other
// files are optional.
type Inputs struct {
	Atlas     string
	OSM       string
	GTFS      string
	HRDF      string
	OSMRoutes string
	Operators string
}

// State is a step of the pipeline. Steps run in declaration order.
type State int

const (
	StateManualOverrides State = iota
	StateExact
	StateName
	StateDistance
	StateRoute
	StatePostpassConsolidation
	StateDuplicatePropagation
	StateFinal
)

var stateNames = [...]string{
	"ManualOverrides",
	"Exact",
	"Name",
	"Distance",
	"Route",
	"PostpassConsolidation",
	"DuplicatePropagation",
	"Final",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// Run loads the inputs and matches them. Unreadable ATLAS or OSM input is
// fatal; a missing alias table or route table only weakens the matching.
func Run(ctx context.Context, in Inputs, opts ...Option) (*Result, error) {
	if in.Atlas == "" {
		return nil, fmt.Errorf("%w: ATLAS stops", ErrMissingInput)
	}

	if in.OSM == "" {
		return nil, fmt.Errorf("%w: OSM data", ErrMissingInput)
	}

	cfg := configure(opts)
	logger := cfg.logger

	if cfg.normalizer == nil && in.Operators != "" {
		n, err := operator.Load(in.Operators)
		if err != nil {
			logger.Warn("operator aliases unavailable, continuing without them", "error", err)
		} else {
			cfg.normalizer = n
		}
	}

	snap, err := atlas.Load(in.Atlas, logger)
	if err != nil {
		return nil, err
	}

	graph, err := osmgraph.Load(ctx, in.OSM,
		osmgraph.WithNormalizer(cfg.normalizer),
		osmgraph.WithLogger(logger),
		osmgraph.WithNCpus(cfg.params.Workers))
	if err != nil {
		return nil, err
	}

	if cfg.routes == nil {
		cfg.routes = routes.LoadAll(routes.Paths{GTFS: in.GTFS, HRDF: in.HRDF, OSM: in.OSMRoutes}, logger)
	}

	return match(ctx, snap, graph, cfg)
}

// Match runs the matching pipeline over parsed inputs.
func Match(ctx context.Context, snap *atlas.Snapshot, graph *osmgraph.Graph, opts ...Option) (*Result, error) {
	return match(ctx, snap, graph, configure(opts))
}

func configure(opts []Option) pipelineOptions {
	cfg := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	cfg.logger = cfg.logger.With("run_id", cfg.runID)

	return cfg
}

// pipeline carries one run from state to state.
type pipeline struct {
	snap    *atlas.Snapshot
	graph   *osmgraph.Graph
	matcher *matching.Matcher
	cfg     pipelineOptions

	duplicates []atlas.DuplicateGroup
	noNearby   []model.UnmatchedNoNearby

	bounds  *model.BoundingBox
	outside int
}

// extent returns the box covering the stops and the OSM nodes, and the number
// of stops lying outside the OSM nodes.
func extent(stops []model.AtlasStop, osm *model.BoundingBox) (*model.BoundingBox, int) {
	bounds := model.EmptyBoundingBox()
	outside := 0

	for _, s := range stops {
		c := s.Coordinate()
		bounds.Extend(c)

		if !osm.Contains(c) {
			outside++
		}
	}

	bounds.Union(osm)

	return bounds, outside
}

func match(ctx context.Context, snap *atlas.Snapshot, graph *osmgraph.Graph, cfg pipelineOptions) (*Result, error) {
	logger := cfg.logger

	matcher := matching.New(graph, matching.NewExclusion(),
		matching.WithParams(cfg.params),
		matching.WithRoutes(cfg.routes),
		matching.WithNormalizer(cfg.normalizer),
		matching.WithLogger(logger))

	p := &pipeline{
		snap:       snap,
		graph:      graph,
		matcher:    matcher,
		cfg:        cfg,
		duplicates: atlas.DuplicateGroups(snap.Stops),
	}

	p.bounds, p.outside = extent(snap.Stops, graph.Bounds)
	if p.outside > 0 {
		logger.Warn("stops outside the OSM extent", "outside", p.outside, "osm_bounds", graph.Bounds.String())
	}

	logger.Info("matching started",
		"stops", len(snap.Stops),
		"nodes", len(graph.Nodes),
		"bounds", p.bounds.String(),
		"duplicate_groups", len(p.duplicates))

	rest := snap.Stops

	for state := StateManualOverrides; state < StateFinal; state++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error

		rest, err = p.step(ctx, state, rest)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", state, err)
		}

		logger.Debug("state done", "state", state, "remaining", len(rest))
	}

	res, err := p.final(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StateFinal, err)
	}

	st := res.Stats()
	logger.Info("matching finished",
		"matched", st.Matched,
		"unmatched", st.Unmatched,
		"no_nearby", st.NoNearby,
		"isolated_nodes", st.IsolatedNodes)

	return res, nil
}

// step runs one state over the stops left by the previous ones.
func (p *pipeline) step(ctx context.Context, state State, rest []model.AtlasStop) ([]model.AtlasStop, error) {
	m := p.matcher

	switch state {
	case StateManualOverrides:
		return m.Manual(rest, p.cfg.overrides), nil
	case StateExact:
		return m.Exact(rest), nil
	case StateName:
		return m.Name(rest), nil
	case StateDistance:
		rest, noNearby, err := m.Distance(ctx, rest)
		p.noNearby = noNearby

		return rest, err
	case StateRoute:
		return m.Route(ctx, rest)
	case StatePostpassConsolidation:
		return m.Postpass(rest), nil
	case StateDuplicatePropagation:
		return m.Propagate(p.snap.Stops, p.duplicates), nil
	default:
		return rest, nil
	}
}
