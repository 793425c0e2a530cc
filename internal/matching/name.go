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

// Name pairs stops with nodes named after their official designation and
// returns the stops left unmatched. Several candidates are narrowed down to
// the first whose local_ref equals the designation.
func (m *Matcher) Name(stops []model.AtlasStop) []model.AtlasStop {
	before := m.ex.MatchedCount()

	for _, s := range stops {
		if s.DesignationOfficial == "" || m.ex.IsMatched(s.Sloid) {
			continue
		}

		cands := m.candidates(m.graph.ByName[s.DesignationOfficial])

		switch len(cands) {
		case 0:
		case 1:
			m.claim("name", m.record(s, cands[0], model.MatchName, 1))
		default:
			for _, n := range cands {
				if sameRef(s.Designation, n.Tags.LocalRef) {
					m.claim("name", m.record(s, n, model.MatchName, len(cands)))

					break
				}
			}
		}
	}

	m.logger.Info("name stage done", "matched", m.ex.MatchedCount()-before)

	return m.unmatched(stops)
}
