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

package model

import (
	"strings"
)

// MatchType names the rule that produced a MatchRecord.
type MatchType string

// Match types. The distance stage names follow the historical stage
// numbering: 1 is group proximity, 2 is local reference in radius, 3a/3b
// is the cardinality tie-break.
const (
	MatchManual               MatchType = "manual"
	MatchExact                MatchType = "exact"
	MatchName                 MatchType = "name"
	MatchDistanceRefInRadius  MatchType = "distance_matching_2"
	MatchDistanceSingle       MatchType = "distance_matching_3a"
	MatchDistanceRatio        MatchType = "distance_matching_3b"
	MatchRouteGTFS            MatchType = "route_gtfs"
	MatchRouteGTFSNormalized  MatchType = "route_gtfs_normalized"
	MatchRouteHRDFUIC         MatchType = "route_hrdf_uic_direction"
	MatchRouteHRDFName        MatchType = "route_hrdf_name_direction"
	MatchRouteGTFSName        MatchType = "route_gtfs_name_direction"
	MatchExactPostpass        MatchType = "exact_postpass"
	MatchDuplicatePropagation MatchType = "duplicate_propagation"
	MatchNoNearbyCounterpart  MatchType = "no_nearby_counterpart"

	groupProximityPrefix = "distance_matching_1_"
	stopPositionSuffix   = "_stop_position"
)

// GroupProximityType returns the type for a group proximity match on key.
func GroupProximityType(key string, stopPositionOnly bool) MatchType {
	t := groupProximityPrefix + key
	if stopPositionOnly {
		t += stopPositionSuffix
	}

	return MatchType(t)
}

// Method returns the coarse family of the match type: manual, exact, name,
// distance, route, postpass or duplicate.
func (t MatchType) Method() string {
	s := string(t)

	switch {
	case t == MatchManual:
		return "manual"
	case t == MatchExact:
		return "exact"
	case t == MatchName:
		return "name"
	case t == MatchExactPostpass:
		return "postpass"
	case t == MatchDuplicatePropagation:
		return "duplicate"
	case t == MatchNoNearbyCounterpart:
		return "no_nearby"
	case strings.HasPrefix(s, "distance_matching_"):
		return "distance"
	case strings.HasPrefix(s, "route_"):
		return "route"
	default:
		return "unknown"
	}
}

// Shared reports whether records of this type may point at a node that
// another record already targets.
func (t MatchType) Shared() bool {
	return t == MatchDuplicatePropagation
}

// MatchRecord is one produced correspondence between an ATLAS stop and an
// OSM node.
type MatchRecord struct {
	Sloid             string    `json:"sloid"`
	NodeID            NodeID    `json:"osm_node_id"`
	Distance          *float64  `json:"distance_m"`
	Type              MatchType `json:"match_type"`
	Notes             []string  `json:"notes,omitempty"`
	CandidatePoolSize int       `json:"candidate_pool_size"`
}

// Meters returns the match distance, or def when it is unknown.
func (m MatchRecord) Meters(def float64) float64 {
	if m.Distance == nil {
		return def
	}

	return *m.Distance
}

// UnmatchedNoNearby is an ATLAS stop without any OSM node in its vicinity.
type UnmatchedNoNearby struct {
	Sloid string    `json:"sloid"`
	Lat   Degrees   `json:"lat"`
	Lon   Degrees   `json:"lon"`
	Type  MatchType `json:"match_type"`
}

// Meters is a helper for building a distance pointer.
func Meters(v float64) *float64 {
	return &v
}

// Override is a correspondence confirmed by a human reviewer.
type Override struct {
	Sloid  string `json:"sloid"`
	NodeID NodeID `json:"osm_node_id"`
}
