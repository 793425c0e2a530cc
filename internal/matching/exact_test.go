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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/stopmatch/internal/operator"
	"m4o.io/stopmatch/model"
)

func TestExactSharedNumberDistinctDesignations(t *testing.T) {
	g := graphOf(osmNode(1, 2, 0, model.NodeTags{UICRef: "8500010", LocalRef: "1"}))
	m := newMatcher(g)

	rows := []model.AtlasStop{
		stop("s1", "8500010", "1", "", 0, 0),
		stop("s2", "8500010", "2", "", 0, 20),
	}

	rest := m.Exact(rows)

	assert.Equal(t, []string{"s2"}, sloids(rest))
	require.Len(t, m.ex.Records(), 1)

	rec := m.ex.Records()[0]
	assert.Equal(t, "s1", rec.Sloid)
	assert.Equal(t, model.NodeID(1), rec.NodeID)
	assert.Equal(t, model.MatchExact, rec.Type)
	assert.Equal(t, 1, rec.CandidatePoolSize)
	require.NotNil(t, rec.Distance)
	assert.InDelta(t, 2.0, *rec.Distance, 0.01)
}

func TestExactSingleCandidateTakesGroup(t *testing.T) {
	g := graphOf(
		osmNode(1, 0, 0, model.NodeTags{UICRef: "8500010"}),
		osmNode(2, 0, 5, model.NodeTags{UICRef: "8500010", PublicTransport: "station"}),
	)
	m := newMatcher(g)

	rest := m.Exact([]model.AtlasStop{
		stop("s1", "8500010", "A", "", 0, 0),
		stop("s2", "8500010", "B", "", 0, 0),
	})

	assert.Empty(t, rest)
	require.Len(t, m.ex.Records(), 2)

	for _, r := range m.ex.Records() {
		assert.Equal(t, model.NodeID(1), r.NodeID)
	}

	assert.Equal(t, 1, m.ex.UsedCount())
	assert.False(t, m.ex.IsUsed(2))
}

func TestExactSingleCandidateUnrelatedLocalRef(t *testing.T) {
	g := graphOf(osmNode(1, 0, 0, model.NodeTags{UICRef: "85", LocalRef: "X"}))
	m := newMatcher(g)

	rest := m.Exact([]model.AtlasStop{
		stop("s1", "85", "A", "", 0, 0),
		stop("s2", "85", "B", "", 0, 10),
	})

	assert.Empty(t, rest)
	require.Len(t, m.ex.Records(), 2)
	assert.ElementsMatch(t, []string{"s1", "s2"}, []string{m.ex.Records()[0].Sloid, m.ex.Records()[1].Sloid})

	for _, r := range m.ex.Records() {
		assert.Equal(t, model.NodeID(1), r.NodeID)
		assert.Equal(t, model.MatchExact, r.Type)
	}
}

func TestExactSingleRowTakesAllCandidates(t *testing.T) {
	g := graphOf(
		osmNode(1, 0, 0, model.NodeTags{UICRef: "8500010", LocalRef: "1"}),
		osmNode(2, 0, 5, model.NodeTags{UICRef: "8500010", LocalRef: "2"}),
		osmNode(3, 0, 9, model.NodeTags{UICRef: "8500010", Aerialway: "station", PublicTransport: "station"}),
	)
	m := newMatcher(g)

	rest := m.Exact([]model.AtlasStop{stop("s1", "8500010", "7", "", 0, 0)})

	assert.Empty(t, rest)
	require.Len(t, m.ex.RecordsOf("s1"), 3)
	assert.Equal(t, 3, m.ex.RecordsOf("s1")[0].CandidatePoolSize)
	assert.Equal(t, 3, m.ex.UsedCount())
}

func TestExactPairsOnLocalRef(t *testing.T) {
	g := graphOf(
		osmNode(1, 0, 0, model.NodeTags{UICRef: "8500010", LocalRef: "a"}),
		osmNode(2, 0, 5, model.NodeTags{UICRef: "8500010", LocalRef: "B"}),
		osmNode(3, 0, 9, model.NodeTags{UICRef: "8500010", LocalRef: "C"}),
	)
	m := newMatcher(g)

	rest := m.Exact([]model.AtlasStop{
		stop("s1", "8500010", "A", "", 0, 0),
		stop("s2", "8500010", "b", "", 0, 0),
		stop("s3", "8500010", "D", "", 0, 0),
		stop("s4", "", "C", "", 0, 0),
	})

	assert.Equal(t, []string{"s3", "s4"}, sloids(rest))
	assert.Equal(t, model.NodeID(1), m.ex.RecordsOf("s1")[0].NodeID)
	assert.Equal(t, model.NodeID(2), m.ex.RecordsOf("s2")[0].NodeID)
	assert.False(t, m.ex.IsUsed(3))
}

func TestExactNoCandidates(t *testing.T) {
	g := graphOf(osmNode(1, 0, 0, model.NodeTags{UICRef: "8500010", Railway: "station"}))
	m := newMatcher(g)

	rest := m.Exact([]model.AtlasStop{stop("s1", "8500010", "", "", 0, 0)})

	assert.Equal(t, []string{"s1"}, sloids(rest))
	assert.Empty(t, m.ex.Records())
}

func TestExactOperatorNote(t *testing.T) {
	g := graphOf(
		osmNode(1, 0, 0, model.NodeTags{UICRef: "1", Operator: "Schweizerische Bundesbahnen"}),
		osmNode(2, 0, 0, model.NodeTags{UICRef: "2", Operator: "PostAuto"}),
	)
	n := operator.New(map[string][]string{"SBB": {"Schweizerische Bundesbahnen"}})
	m := newMatcher(g, WithNormalizer(n))

	a := stop("s1", "1", "", "", 0, 0)
	a.Operator = "SBB"
	b := stop("s2", "2", "", "", 0, 0)
	b.Operator = "SBB"

	m.Exact([]model.AtlasStop{a, b})

	assert.Empty(t, m.ex.RecordsOf("s1")[0].Notes)
	assert.Equal(t, []string{"operator mismatch: atlas=SBB osm=PostAuto"}, m.ex.RecordsOf("s2")[0].Notes)
}

func TestName(t *testing.T) {
	g := graphOf(
		osmNode(1, 0, 0, model.NodeTags{Name: "Bern, Bahnhof"}),
		osmNode(2, 0, 0, model.NodeTags{Name: "Thun", LocalRef: "1"}),
		osmNode(3, 0, 0, model.NodeTags{UICName: "Thun", LocalRef: "2"}),
		osmNode(4, 0, 0, model.NodeTags{GTFSName: "Spiez", LocalRef: "1"}),
		osmNode(5, 0, 0, model.NodeTags{Name: "Spiez", LocalRef: "2"}),
		osmNode(6, 0, 0, model.NodeTags{Name: "Biel", PublicTransport: "station"}),
	)
	m := newMatcher(g)

	rest := m.Name([]model.AtlasStop{
		stop("bern", "", "", "Bern, Bahnhof", 0, 0),
		stop("thun", "", "2", "Thun", 0, 0),
		stop("spiez", "", "3", "Spiez", 0, 0),
		stop("biel", "", "", "Biel", 0, 0),
		stop("blank", "", "1", "", 0, 0),
	})

	assert.Equal(t, []string{"spiez", "biel", "blank"}, sloids(rest))
	assert.Equal(t, model.NodeID(1), m.ex.RecordsOf("bern")[0].NodeID)
	assert.Equal(t, model.NodeID(3), m.ex.RecordsOf("thun")[0].NodeID)
	assert.Equal(t, 2, m.ex.RecordsOf("thun")[0].CandidatePoolSize)
	assert.Equal(t, model.MatchName, m.ex.RecordsOf("thun")[0].Type)
}

func TestManual(t *testing.T) {
	g := graphOf(
		osmNode(1, 0, 0, model.NodeTags{UICRef: "8500010"}),
		osmNode(2, 0, 0, model.NodeTags{}),
	)
	m := newMatcher(g)

	rows := []model.AtlasStop{
		stop("s1", "8500010", "", "", 0, 0),
		stop("s2", "8500010", "", "", 0, 0),
	}

	rest := m.Manual(rows, []model.Override{
		{Sloid: "s1", NodeID: 2},
		{Sloid: "s2", NodeID: 2},
		{Sloid: "ghost", NodeID: 1},
		{Sloid: "s2", NodeID: 99},
	})

	assert.Equal(t, []string{"s2"}, sloids(rest))
	assert.Equal(t, model.MatchManual, m.ex.RecordsOf("s1")[0].Type)
	assert.False(t, m.ex.IsUsed(1))

	rest = m.Exact(rest)
	assert.Empty(t, rest)
	assert.Equal(t, model.NodeID(1), m.ex.RecordsOf("s2")[0].NodeID)
	assert.Len(t, m.ex.RecordsOf("s1"), 1, "overridden stops are never reconsidered")
}
