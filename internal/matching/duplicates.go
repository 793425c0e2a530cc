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
	"math"

	"m4o.io/stopmatch/internal/atlas"
	"m4o.io/stopmatch/model"
)

// Propagate shares the node of the best matched member of each duplicate
// group with the group's unmatched members. The best member is the one with
// the smallest match distance, then the smallest sloid.
func (m *Matcher) Propagate(stops []model.AtlasStop, groups []atlas.DuplicateGroup) []model.AtlasStop {
	bySloid := make(map[string]model.AtlasStop, len(stops))
	for _, s := range stops {
		bySloid[s.Sloid] = s
	}

	propagated := 0

	for _, g := range groups {
		src, ok := m.bestRecord(g.Sloids)
		if !ok {
			continue
		}

		n, ok := m.graph.Node(src.NodeID)
		if !ok {
			continue
		}

		for _, sloid := range g.Sloids {
			s, ok := bySloid[sloid]
			if !ok || m.ex.IsMatched(sloid) {
				continue
			}

			rec := m.record(s, n, model.MatchDuplicatePropagation, 1, "propagated from "+src.Sloid)
			if err := m.ex.ClaimShared(rec); err != nil {
				m.logger.Warn("propagation rejected", "error", err)

				continue
			}

			propagated++
		}
	}

	m.logger.Info("duplicate propagation done", "groups", len(groups), "propagated", propagated)

	return m.unmatched(stops)
}

func (m *Matcher) bestRecord(sloids []string) (model.MatchRecord, bool) {
	var (
		best  model.MatchRecord
		found bool
	)

	for _, sloid := range sloids {
		for _, r := range m.ex.RecordsOf(sloid) {
			if !found || closer(r, best) {
				best, found = r, true
			}
		}
	}

	return best, found
}

func closer(a, b model.MatchRecord) bool {
	da, db := a.Meters(math.Inf(1)), b.Meters(math.Inf(1))
	if da != db {
		return da < db
	}

	return a.Sloid < b.Sloid
}
