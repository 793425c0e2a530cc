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

	"github.com/destel/rill"

	"m4o.io/stopmatch/internal/spatial"
	"m4o.io/stopmatch/model"
)

type hits = []spatial.Hit[*model.OsmNode]

// Distance runs the spatial stages over the stops left by the name stage:
// group proximity (0), local reference in radius (1), cardinality tie-break
// (2) and isolation flagging (4). It returns the stops still unmatched and,
// among them, those without any node in the isolation radius.
func (m *Matcher) Distance(ctx context.Context, stops []model.AtlasStop) ([]model.AtlasStop, []model.UnmatchedNoNearby, error) {
	before := m.ex.MatchedCount()

	nodes := m.graph.All()
	grouped := m.groupProximity(stops, nodes)

	var available []*model.OsmNode
	for _, n := range nodes {
		if m.available(n) {
			available = append(available, n)
		}
	}

	index := spatial.New(available, (*model.OsmNode).Coordinate)
	rest := m.unmatched(stops)

	pools, err := m.within(ctx, index, rest, m.params.MaxDistance)
	if err != nil {
		return nil, nil, err
	}

	byRef := 0
	for i, s := range rest {
		if m.refInRadius(s, pools[i]) {
			byRef++
		}
	}

	byCount := 0
	for i, s := range rest {
		if !m.ex.IsMatched(s.Sloid) && m.tieBreak(s, pools[i]) {
			byCount++
		}
	}

	rest = m.unmatched(rest)
	isolated := m.isolated(rest)

	m.logger.Info("distance stage done",
		"matched", m.ex.MatchedCount()-before,
		"group_proximity", grouped,
		"ref_in_radius", byRef,
		"tie_break", byCount,
		"no_nearby", len(isolated))

	return rest, isolated, nil
}

// within queries the index around every stop. Queries run in parallel, the
// result keeps the order of stops.
func (m *Matcher) within(ctx context.Context, index *spatial.Index[*model.OsmNode], stops []model.AtlasStop, meters float64) ([]hits, error) {
	if len(stops) == 0 || index.Len() == 0 {
		return make([]hits, len(stops)), nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := rill.FromSlice(stops, nil)
	out := rill.OrderedMap(in, m.params.Workers, func(s model.AtlasStop) (hits, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		return index.Within(s.Coordinate(), meters), nil
	})

	return rill.ToSlice(out)
}

// fresh drops the nodes claimed since the pool was queried.
func (m *Matcher) fresh(pool hits) hits {
	out := make(hits, 0, len(pool))

	for _, h := range pool {
		if !m.ex.IsUsed(h.Item.ID) {
			out = append(out, h)
		}
	}

	return out
}

// refInRadius is stage 1: the nearest candidate whose local_ref equals the
// designation.
func (m *Matcher) refInRadius(s model.AtlasStop, pool hits) bool {
	if s.Designation == "" {
		return false
	}

	pool = m.fresh(pool)
	for _, h := range pool {
		if sameRef(s.Designation, h.Item.Tags.LocalRef) {
			return m.claim("distance_1", m.record(s, h.Item, model.MatchDistanceRefInRadius, len(pool)))
		}
	}

	return false
}

// tieBreak is stage 2. A lone candidate is taken. Otherwise the nearest wins
// only when the second nearest is both far enough and relatively far enough.
func (m *Matcher) tieBreak(s model.AtlasStop, pool hits) bool {
	pool = m.fresh(pool)

	switch len(pool) {
	case 0:
		return false
	case 1:
		return m.claim("distance_2", m.record(s, pool[0].Item, model.MatchDistanceSingle, 1))
	}

	if !m.unambiguous(pool[0].Meters, pool[1].Meters) {
		m.logger.Debug("ambiguous nearest neighbour", "sloid", s.Sloid,
			"d1", pool[0].Meters, "d2", pool[1].Meters, "pool", len(pool))

		return false
	}

	return m.claim("distance_2", m.record(s, pool[0].Item, model.MatchDistanceRatio, len(pool)))
}

// unambiguous is the tie-break rule on the two smallest distances. A nearest
// candidate at zero distance has an infinite ratio.
func (m *Matcher) unambiguous(d1, d2 float64) bool {
	if d2 < m.params.TieBreakMinSecond {
		return false
	}

	return d1 == 0 || d2/d1 >= m.params.TieBreakRatio
}

// isolated is stage 4: stops with no node at all, stations included, within
// the isolation radius.
func (m *Matcher) isolated(stops []model.AtlasStop) []model.UnmatchedNoNearby {
	index := m.allNodes()

	var out []model.UnmatchedNoNearby

	for _, s := range stops {
		if index.Any(s.Coordinate(), m.params.IsolationRadius) {
			continue
		}

		out = append(out, model.UnmatchedNoNearby{
			Sloid: s.Sloid,
			Lat:   s.Lat,
			Lon:   s.Lon,
			Type:  model.MatchNoNearbyCounterpart,
		})
	}

	return out
}

// allNodes returns the index over the whole graph, built on first use.
func (m *Matcher) allNodes() *spatial.Index[*model.OsmNode] {
	if m.everything == nil {
		m.everything = spatial.New(m.graph.All(), (*model.OsmNode).Coordinate)
	}

	return m.everything
}
