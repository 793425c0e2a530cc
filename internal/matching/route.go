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

package matching

import (
	"context"
	"slices"

	"m4o.io/stopmatch/internal/routes"
	"m4o.io/stopmatch/internal/spatial"
	"m4o.io/stopmatch/model"
)

// routeEvidence is what a stop knows about the routes serving it.
type routeEvidence struct {
	tokens     map[routes.Token]bool
	normalized map[routes.Token]bool
	uicDirs    []string
	hrdfNames  []string
	gtfsNames  []string
}

func (e *routeEvidence) empty() bool {
	return len(e.tokens) == 0 && len(e.uicDirs) == 0 && len(e.hrdfNames) == 0 && len(e.gtfsNames) == 0
}

func (m *Matcher) evidence(sloid string) *routeEvidence {
	e := &routeEvidence{
		tokens:     map[routes.Token]bool{},
		normalized: map[routes.Token]bool{},
	}

	for _, t := range m.routes.GTFSTokens(sloid) {
		e.tokens[t] = true
		e.normalized[t.Normalized()] = true
	}

	for _, r := range m.routes.GTFS[sloid] {
		if r.LongName != "" && !slices.Contains(e.gtfsNames, r.LongName) {
			e.gtfsNames = append(e.gtfsNames, r.LongName)
		}
	}

	for _, r := range m.routes.HRDF[sloid] {
		if r.DirectionUIC != "" && !slices.Contains(e.uicDirs, r.DirectionUIC) {
			e.uicDirs = append(e.uicDirs, r.DirectionUIC)
		}

		if r.DirectionName != "" && !slices.Contains(e.hrdfNames, r.DirectionName) {
			e.hrdfNames = append(e.hrdfNames, r.DirectionName)
		}
	}

	return e
}

// routeTier is one level of route evidence. match returns the evidence
// shared between the stop and the node, if any.
type routeTier struct {
	typ   model.MatchType
	match func(m *Matcher, e *routeEvidence, n *model.OsmNode) (string, bool)
}

var routeTiers = []routeTier{
	{
		typ: model.MatchRouteGTFS,
		match: func(m *Matcher, e *routeEvidence, n *model.OsmNode) (string, bool) {
			for _, t := range m.routes.OSMTokens(n.ID) {
				if e.tokens[t] {
					return "gtfs route " + t.String(), true
				}
			}

			return "", false
		},
	},
	{
		typ: model.MatchRouteGTFSNormalized,
		match: func(m *Matcher, e *routeEvidence, n *model.OsmNode) (string, bool) {
			for _, t := range m.routes.OSMTokens(n.ID) {
				if e.normalized[t.Normalized()] {
					return "gtfs route " + t.Normalized().String(), true
				}
			}

			return "", false
		},
	},
	{
		typ: model.MatchRouteHRDFUIC,
		match: func(m *Matcher, e *routeEvidence, n *model.OsmNode) (string, bool) {
			return shared(e.uicDirs, m.graph.DirectionsOf(n.ID).ByUIC)
		},
	},
	{
		typ: model.MatchRouteHRDFName,
		match: func(m *Matcher, e *routeEvidence, n *model.OsmNode) (string, bool) {
			return shared(e.hrdfNames, m.graph.DirectionsOf(n.ID).ByName)
		},
	},
	{
		typ: model.MatchRouteGTFSName,
		match: func(m *Matcher, e *routeEvidence, n *model.OsmNode) (string, bool) {
			return shared(e.gtfsNames, m.graph.DirectionsOf(n.ID).ByName)
		},
	},
}

func shared(ours, theirs []string) (string, bool) {
	for _, v := range ours {
		if slices.Contains(theirs, v) {
			return "direction " + v, true
		}
	}

	return "", false
}

// Route matches stops through the routes serving them. Candidates are the
// available nodes within the route radius. Tiers are tried in order and the
// nearest candidate of the first tier with any evidence wins.
func (m *Matcher) Route(ctx context.Context, stops []model.AtlasStop) ([]model.AtlasStop, error) {
	before := m.ex.MatchedCount()

	var (
		rows      []model.AtlasStop
		evidences []*routeEvidence
	)

	for _, s := range stops {
		if m.ex.IsMatched(s.Sloid) {
			continue
		}

		if e := m.evidence(s.Sloid); !e.empty() {
			rows = append(rows, s)
			evidences = append(evidences, e)
		}
	}

	if len(rows) > 0 {
		var available []*model.OsmNode
		for _, n := range m.graph.All() {
			if m.available(n) {
				available = append(available, n)
			}
		}

		index := spatial.New(available, (*model.OsmNode).Coordinate)

		pools, err := m.within(ctx, index, rows, m.params.RouteMaxDistance)
		if err != nil {
			return nil, err
		}

		for i, s := range rows {
			m.routeMatch(s, evidences[i], m.fresh(pools[i]))
		}
	}

	m.logger.Info("route stage done", "with_routes", len(rows), "matched", m.ex.MatchedCount()-before)

	return m.unmatched(stops), nil
}

func (m *Matcher) routeMatch(s model.AtlasStop, e *routeEvidence, pool hits) bool {
	for _, tier := range routeTiers {
		for _, h := range pool {
			if note, ok := tier.match(m, e, h.Item); ok {
				return m.claim("route", m.record(s, h.Item, tier.typ, len(pool), note))
			}
		}
	}

	return false
}
