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

// Package stopmatch pairs the stops of the Swiss national stop registry
// (ATLAS) with the public transport nodes of OpenStreetMap.
//
// A run is a one-shot batch computation over full snapshots of both sides.
// Stops are matched by a deterministic cascade of stages, each working on
// what the previous stages left: human confirmed overrides, shared station
// number, shared name, proximity, shared routes, a consolidation pass and
// finally propagation across duplicate ATLAS records. A node consumed by a
// stage is never offered to a later one.
//
//	res, err := stopmatch.Run(ctx, stopmatch.Inputs{
//		Atlas: "atlas.csv",
//		OSM:   "switzerland.osm.pbf",
//	}, stopmatch.WithMaxDistance(50))
package stopmatch
