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

// Postpass matches stops whose station number has exactly one available
// candidate left. When several stops share that number, only the nearest
// takes the node.
func (m *Matcher) Postpass(stops []model.AtlasStop) []model.AtlasStop {
	keys, groups := groupBy(m.unmatched(stops), func(s model.AtlasStop) (string, bool) {
		return s.Number, s.Number != ""
	})

	matched := 0

	for _, number := range keys {
		cands := m.candidates(m.graph.ByUIC[number])
		if len(cands) != 1 {
			continue
		}

		rows := groups[number]
		distances := make([]float64, len(rows))

		for i, s := range rows {
			distances[i] = distance(s, cands[0])
		}

		s := rows[argmin(distances)]
		if m.claim("postpass", m.record(s, cands[0], model.MatchExactPostpass, 1)) {
			matched++
		}
	}

	m.logger.Info("postpass done", "matched", matched)

	return m.unmatched(stops)
}
