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
	"cmp"
	"slices"
	"strings"

	"m4o.io/stopmatch/internal/geo"
	"m4o.io/stopmatch/model"
)

// available reports whether a node may still be matched: it is neither a
// station nor already used.
func (m *Matcher) available(n *model.OsmNode) bool {
	return !n.IsStation() && !m.ex.IsUsed(n.ID)
}

// candidates returns the available nodes of the list ordered by id.
func (m *Matcher) candidates(nodes []*model.OsmNode) []*model.OsmNode {
	out := make([]*model.OsmNode, 0, len(nodes))

	for _, n := range nodes {
		if m.available(n) {
			out = append(out, n)
		}
	}

	slices.SortFunc(out, func(a, b *model.OsmNode) int { return cmp.Compare(a.ID, b.ID) })

	return slices.CompactFunc(out, func(a, b *model.OsmNode) bool { return a.ID == b.ID })
}

// distance is the great circle distance between a stop and a node in meters.
func distance(s model.AtlasStop, n *model.OsmNode) float64 {
	return geo.Haversine(float64(s.Lat), float64(s.Lon), float64(n.Lat), float64(n.Lon))
}

// sameRef compares a designation with a local reference. Blank values never
// match.
func sameRef(designation, localRef string) bool {
	return designation != "" && strings.EqualFold(designation, localRef)
}

// record builds the match of s onto n, annotated with an operator note when
// both sides name different operators.
func (m *Matcher) record(s model.AtlasStop, n *model.OsmNode, t model.MatchType, pool int, notes ...string) model.MatchRecord {
	rec := model.MatchRecord{
		Sloid:             s.Sloid,
		NodeID:            n.ID,
		Distance:          model.Meters(distance(s, n)),
		Type:              t,
		CandidatePoolSize: pool,
	}

	rec.Notes = append(rec.Notes, notes...)

	if note, ok := m.operatorNote(s, n); ok {
		rec.Notes = append(rec.Notes, note)
	}

	return rec
}

func (m *Matcher) operatorNote(s model.AtlasStop, n *model.OsmNode) (string, bool) {
	if s.Operator == "" || n.Tags.Operator == "" {
		return "", false
	}

	if m.normalizer.Same(s.Operator, n.Tags.Operator) {
		return "", false
	}

	return "operator mismatch: atlas=" + s.Operator + " osm=" + n.Tags.Operator, true
}
