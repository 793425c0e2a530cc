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

// Exact pairs stops with nodes sharing their station number and returns the
// stops left unmatched.
//
// Per number, with station and used nodes excluded from the candidates:
// a single candidate takes every stop of the group, unless its local_ref
// equals the designation of one of them; a single stop takes
// every candidate; otherwise stops and candidates are paired on designation
// equal to local_ref, ignoring case.
func (m *Matcher) Exact(stops []model.AtlasStop) []model.AtlasStop {
	keys, groups := groupBy(stops, func(s model.AtlasStop) (string, bool) {
		return s.Number, s.Number != "" && !m.ex.IsMatched(s.Sloid)
	})

	before := m.ex.MatchedCount()

	for _, number := range keys {
		rows := groups[number]
		cands := m.candidates(m.graph.ByUIC[number])
		pool := len(cands)

		switch {
		case pool == 0:
			continue

		case pool == 1 && !anySameRef(rows, cands[0].Tags.LocalRef):
			recs := make([]model.MatchRecord, len(rows))
			for i, s := range rows {
				recs[i] = m.record(s, cands[0], model.MatchExact, pool)
			}

			m.claim("exact", recs...)

		case len(rows) == 1:
			recs := make([]model.MatchRecord, len(cands))
			for i, n := range cands {
				recs[i] = m.record(rows[0], n, model.MatchExact, pool)
			}

			m.claim("exact", recs...)

		default:
			m.pairOnRef(rows, cands)
		}
	}

	m.logger.Info("exact stage done", "groups", len(keys), "matched", m.ex.MatchedCount()-before)

	return m.unmatched(stops)
}

func (m *Matcher) pairOnRef(rows []model.AtlasStop, cands []*model.OsmNode) {
	for _, s := range rows {
		for _, n := range cands {
			if m.ex.IsUsed(n.ID) || !sameRef(s.Designation, n.Tags.LocalRef) {
				continue
			}

			m.claim("exact", m.record(s, n, model.MatchExact, len(cands)))

			break
		}
	}
}

func anySameRef(rows []model.AtlasStop, ref string) bool {
	for _, s := range rows {
		if sameRef(s.Designation, ref) {
			return true
		}
	}

	return false
}
