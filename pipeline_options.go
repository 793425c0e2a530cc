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
	"log/slog"

	"m4o.io/stopmatch/internal/matching"
	"m4o.io/stopmatch/internal/operator"
	"m4o.io/stopmatch/internal/routes"
	"m4o.io/stopmatch/model"
)

// DefaultWorkers provides the default parallelism of the spatial queries.
func DefaultWorkers() int {
	return matching.DefaultParams().Workers
}

// pipelineOptions provides optional configuration parameters for a run.
type pipelineOptions struct {
	params     matching.Params
	logger     *slog.Logger
	normalizer *operator.Normalizer // operator aliases, applied at load and in notes
	routes     *routes.Tables       // route tables of the route stage
	overrides  []model.Override     // human confirmed matches
	runID      string
}

// Option configures a pipeline run.
type Option func(*pipelineOptions)

// WithMaxDistance sets the radius of the spatial stages, in meters.
func WithMaxDistance(m float64) Option {
	return func(o *pipelineOptions) {
		o.params.MaxDistance = m
	}
}

// WithIsolationRadius sets the radius of the no-nearby check, in meters. It
// also decides which unmatched OSM nodes are flagged isolated.
func WithIsolationRadius(m float64) Option {
	return func(o *pipelineOptions) {
		o.params.IsolationRadius = m
	}
}

// WithRouteMaxDistance sets the radius of the route stage, in meters.
func WithRouteMaxDistance(m float64) Option {
	return func(o *pipelineOptions) {
		o.params.RouteMaxDistance = m
	}
}

// WithTieBreak sets the tie-break rule of the distance stage: the second
// nearest candidate must be at least minSecond meters away and ratio times
// farther than the nearest.
func WithTieBreak(minSecond, ratio float64) Option {
	return func(o *pipelineOptions) {
		o.params.TieBreakMinSecond = minSecond
		o.params.TieBreakRatio = ratio
	}
}

// WithWorkers lets you set the number of goroutines used for spatial queries.
func WithWorkers(n int) Option {
	return func(o *pipelineOptions) {
		o.params.Workers = n
	}
}

// WithLogger sets the logger. The run id is attached to it.
func WithLogger(l *slog.Logger) Option {
	return func(o *pipelineOptions) {
		o.logger = l
	}
}

// WithNormalizer sets the operator alias table.
func WithNormalizer(n *operator.Normalizer) Option {
	return func(o *pipelineOptions) {
		o.normalizer = n
	}
}

// WithRoutes sets already loaded route tables. Run loads them from its
// inputs otherwise.
func WithRoutes(t *routes.Tables) Option {
	return func(o *pipelineOptions) {
		o.routes = t
	}
}

// WithOverrides sets the human confirmed matches applied before any
// automatic stage.
func WithOverrides(overrides []model.Override) Option {
	return func(o *pipelineOptions) {
		o.overrides = overrides
	}
}

// WithRunID sets the run identifier instead of a random one.
func WithRunID(id string) Option {
	return func(o *pipelineOptions) {
		o.runID = id
	}
}

// defaultPipelineOptions provides the default configuration of a run.
func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{
		params: matching.DefaultParams(),
	}
}
