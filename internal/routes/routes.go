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

// Package routes reads the auxiliary route tables used by the route matcher:
// GTFS route assignments and HRDF line directions per ATLAS stop, and GTFS
// route memberships per OSM node. All tables are optional. A missing or
// malformed file degrades to an empty table.
package routes

import (
	"log/slog"

	"m4o.io/stopmatch/model"
)

// GTFSRoute is one route assignment of an ATLAS stop in the GTFS feed.
type GTFSRoute struct {
	RouteID     string
	DirectionID string
	ShortName   string
	LongName    string
}

// Token returns the route/direction pair of the assignment.
func (r GTFSRoute) Token() Token {
	return Token{RouteID: r.RouteID, DirectionID: r.DirectionID}
}

// HRDFRoute is one line direction serving an ATLAS stop in the HRDF timetable.
type HRDFRoute struct {
	LineName      string
	DirectionName string

	// DirectionUIC is the "<first> → <last>" endpoint string by station number.
	DirectionUIC string
}

// OSMRoute is one route membership of an OSM node.
type OSMRoute struct {
	RouteName   string
	GTFSRouteID string
	DirectionID string
	UICRef      string
}

// Token returns the route/direction pair of the membership.
func (r OSMRoute) Token() Token {
	return Token{RouteID: r.GTFSRouteID, DirectionID: r.DirectionID}
}

// Token is a (route id, direction id) pair.
type Token struct {
	RouteID     string
	DirectionID string
}

// Normalized returns the token with its year suffixes collapsed.
func (t Token) Normalized() Token {
	return Token{RouteID: NormalizeRouteID(t.RouteID), DirectionID: t.DirectionID}
}

func (t Token) String() string {
	return t.RouteID + "/" + t.DirectionID
}

// Tables bundles the three route tables.
type Tables struct {
	GTFS map[string][]GTFSRoute
	HRDF map[string][]HRDFRoute
	OSM  map[model.NodeID][]OSMRoute
}

// Empty returns tables without any entry.
func Empty() *Tables {
	return &Tables{
		GTFS: map[string][]GTFSRoute{},
		HRDF: map[string][]HRDFRoute{},
		OSM:  map[model.NodeID][]OSMRoute{},
	}
}

// Paths locates the route table files. Blank paths are skipped.
type Paths struct {
	GTFS string
	HRDF string
	OSM  string
}

// LoadAll reads every table named in p. It never fails: problems are logged
// and the affected table stays empty.
func LoadAll(p Paths, logger *slog.Logger) *Tables {
	if logger == nil {
		logger = slog.Default()
	}

	t := Empty()

	if p.GTFS != "" {
		t.GTFS = degrade(logger, "GTFS", p.GTFS, t.GTFS, LoadGTFS)
	}

	if p.HRDF != "" {
		t.HRDF = degrade(logger, "HRDF", p.HRDF, t.HRDF, LoadHRDF)
	}

	if p.OSM != "" {
		t.OSM = degrade(logger, "OSM", p.OSM, t.OSM, LoadOSM)
	}

	logger.Info("loaded route tables",
		"gtfs_stops", len(t.GTFS), "hrdf_stops", len(t.HRDF), "osm_nodes", len(t.OSM))

	return t
}

func degrade[K comparable, V any](logger *slog.Logger, name, path string, empty map[K][]V,
	load func(string) (map[K][]V, error),
) map[K][]V {
	m, err := load(path)
	if err != nil {
		logger.Warn("route table unavailable, continuing without it", "table", name, "path", path, "error", err)

		return empty
	}

	return m
}

// GTFSTokens returns the route tokens of an ATLAS stop.
func (t *Tables) GTFSTokens(sloid string) []Token {
	rs := t.GTFS[sloid]
	tokens := make([]Token, 0, len(rs))

	for _, r := range rs {
		tokens = append(tokens, r.Token())
	}

	return tokens
}

// OSMTokens returns the route tokens of an OSM node.
func (t *Tables) OSMTokens(id model.NodeID) []Token {
	rs := t.OSM[id]
	tokens := make([]Token, 0, len(rs))

	for _, r := range rs {
		if r.GTFSRouteID == "" {
			continue
		}

		tokens = append(tokens, r.Token())
	}

	return tokens
}
