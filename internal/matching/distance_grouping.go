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
	"m4o.io/stopmatch/model"
)

// groupKey is one of the shared attributes stage 0 groups rows and nodes by.
type groupKey struct {
	name string
	stop func(model.AtlasStop) string
	node func(*model.OsmNode) string
}

var groupKeys = []groupKey{
	{
		name: "uic_ref",
		stop: func(s model.AtlasStop) string { return s.Number },
		node: func(n *model.OsmNode) string { return n.Tags.UICRef },
	},
	{
		name: "uic_name",
		stop: func(s model.AtlasStop) string { return s.DesignationOfficial },
		node: func(n *model.OsmNode) string { return n.Tags.UICName },
	},
	{
		name: "name",
		stop: func(s model.AtlasStop) string { return s.DesignationOfficial },
		node: func(n *model.OsmNode) string { return n.Tags.Name },
	},
}

// groupProximity is stage 0. For each key, stops and available nodes sharing
// a value are paired when both groups have the same size and the nearest
// neighbour relation is reciprocal and within reach. A group that fails is
// retried against its stop_position nodes only.
func (m *Matcher) groupProximity(stops []model.AtlasStop, nodes []*model.OsmNode) int {
	matched := 0

	for _, key := range groupKeys {
		keys, rows := groupBy(m.unmatched(stops), func(s model.AtlasStop) (string, bool) {
			v := key.stop(s)

			return v, v != ""
		})

		_, cands := groupBy(nodes, func(n *model.OsmNode) (string, bool) {
			v := key.node(n)

			return v, v != "" && m.available(n)
		})

		for _, k := range keys {
			if len(cands[k]) == 0 {
				continue
			}

			if n := m.assignGroup(rows[k], cands[k], model.GroupProximityType(key.name, false)); n > 0 {
				matched += n

				continue
			}

			var positions []*model.OsmNode
			for _, n := range cands[k] {
				if n.IsStopPosition() {
					positions = append(positions, n)
				}
			}

			matched += m.assignGroup(rows[k], positions, model.GroupProximityType(key.name, true))
		}
	}

	return matched
}

// assignGroup claims the reciprocal assignment between rows and cands, if
// there is one, and returns the number of claimed pairs.
func (m *Matcher) assignGroup(rows []model.AtlasStop, cands []*model.OsmNode, t model.MatchType) int {
	pairs, ok := reciprocal(rows, cands, m.params.MaxDistance)
	if !ok {
		return 0
	}

	recs := make([]model.MatchRecord, len(pairs))
	for i, j := range pairs {
		recs[i] = m.record(rows[i], cands[j], t, len(cands))
	}

	if !m.claim("distance_0", recs...) {
		return 0
	}

	return len(recs)
}

// reciprocal computes the full distance matrix of equally sized groups and
// returns, per row, the index of its candidate. It succeeds only when every
// row's nearest candidate has that row as its own nearest row, and every
// such pair lies within maxDistance.
func reciprocal(rows []model.AtlasStop, cands []*model.OsmNode, maxDistance float64) ([]int, bool) {
	if len(rows) == 0 || len(rows) != len(cands) {
		return nil, false
	}

	matrix := make([][]float64, len(rows))
	for i, s := range rows {
		matrix[i] = make([]float64, len(cands))
		for j, n := range cands {
			matrix[i][j] = distance(s, n)
		}
	}

	column := make([]float64, len(rows))
	pairs := make([]int, len(rows))

	for i := range rows {
		j := argmin(matrix[i])

		for r := range rows {
			column[r] = matrix[r][j]
		}

		if argmin(column) != i || matrix[i][j] > maxDistance {
			return nil, false
		}

		pairs[i] = j
	}

	return pairs, true
}
