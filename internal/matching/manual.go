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

// Manual applies human confirmed overrides before any automatic stage.
// Overrides naming an unknown sloid or node, or conflicting with an earlier
// override, are skipped.
func (m *Matcher) Manual(stops []model.AtlasStop, overrides []model.Override) []model.AtlasStop {
	bySloid := make(map[string]model.AtlasStop, len(stops))
	for _, s := range stops {
		bySloid[s.Sloid] = s
	}

	applied := 0

	for _, o := range overrides {
		s, ok := bySloid[o.Sloid]
		if !ok {
			m.logger.Warn("override for unknown sloid", "sloid", o.Sloid, "node", o.NodeID)

			continue
		}

		n, ok := m.graph.Node(o.NodeID)
		if !ok {
			m.logger.Warn("override for unknown node", "sloid", o.Sloid, "node", o.NodeID)

			continue
		}

		if m.claim("manual", m.record(s, n, model.MatchManual, 1)) {
			applied++
		}
	}

	m.logger.Info("applied manual overrides", "overrides", len(overrides), "applied", applied)

	return m.unmatched(stops)
}
