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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/stopmatch/internal/routes"
	"m4o.io/stopmatch/model"
)

func TestRouteGTFSNormalized(t *testing.T) {
	g := graphOf(
		osmNode(10, 20, 0, model.NodeTags{UICRef: "8500050"}),
		osmNode(11, 10, 0, model.NodeTags{}),
	)

	tables := routes.Empty()
	tables.GTFS["s1"] = []routes.GTFSRoute{{RouteID: "91-15-E-j24-1", DirectionID: "0"}}
	tables.OSM[10] = []routes.OSMRoute{{GTFSRouteID: "91-15-E-j25-1", DirectionID: "0"}}
	tables.OSM[11] = []routes.OSMRoute{{GTFSRouteID: "91-15-E-j25-1", DirectionID: "1"}}

	m := newMatcher(g, WithRoutes(tables))

	rest, err := m.Route(context.Background(), []model.AtlasStop{stop("s1", "8500050", "", "", 0, 0)})
	require.NoError(t, err)
	assert.Empty(t, rest)

	recs := m.ex.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, model.NodeID(10), recs[0].NodeID)
	assert.Equal(t, model.MatchRouteGTFSNormalized, recs[0].Type)
	assert.Equal(t, 2, recs[0].CandidatePoolSize)
	assert.Equal(t, []string{"gtfs route 91-15-E-jXX-1/0"}, recs[0].Notes)
}

func TestRouteExactTokenFirst(t *testing.T) {
	g := graphOf(
		osmNode(1, 10, 0, model.NodeTags{}),
		osmNode(2, 30, 0, model.NodeTags{}),
	)

	tables := routes.Empty()
	tables.GTFS["s1"] = []routes.GTFSRoute{{RouteID: "r-j24", DirectionID: "1"}}
	tables.OSM[1] = []routes.OSMRoute{{GTFSRouteID: "r-j23", DirectionID: "1"}}
	tables.OSM[2] = []routes.OSMRoute{{GTFSRouteID: "r-j24", DirectionID: "1"}}

	m := newMatcher(g, WithRoutes(tables))

	_, err := m.Route(context.Background(), []model.AtlasStop{stop("s1", "", "", "", 0, 0)})
	require.NoError(t, err)

	recs := m.ex.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, model.NodeID(2), recs[0].NodeID)
	assert.Equal(t, model.MatchRouteGTFS, recs[0].Type)
}

func TestRouteDirections(t *testing.T) {
	endpoints := func() []*model.OsmNode {
		return []*model.OsmNode{
			osmNode(100, 5000, 0, model.NodeTags{UICRef: "8501008", Name: "Genève"}),
			osmNode(200, -5000, 0, model.NodeTags{UICRef: "8501120", Name: "Lausanne"}),
		}
	}

	testCases := []struct {
		name     string
		hrdf     []routes.HRDFRoute
		gtfs     []routes.GTFSRoute
		expected model.MatchType
	}{
		{
			name:     "uic direction",
			hrdf:     []routes.HRDFRoute{{LineName: "IR", DirectionName: "Bern → Thun", DirectionUIC: "8501008 → 8501120"}},
			expected: model.MatchRouteHRDFUIC,
		},
		{
			name:     "hrdf direction name",
			hrdf:     []routes.HRDFRoute{{LineName: "IR", DirectionName: "Genève → Lausanne", DirectionUIC: "1 → 2"}},
			expected: model.MatchRouteHRDFName,
		},
		{
			name:     "gtfs direction name",
			gtfs:     []routes.GTFSRoute{{RouteID: "x", DirectionID: "0", LongName: "Genève → Lausanne"}},
			expected: model.MatchRouteGTFSName,
		},
		{
			name: "nothing shared",
			hrdf: []routes.HRDFRoute{{LineName: "IR", DirectionName: "Lausanne → Genève"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := graphOf(append(endpoints(), osmNode(1, 15, 0, model.NodeTags{}))...)
			g.AddRoute([]model.NodeID{100, 1, 200})

			tables := routes.Empty()
			if tc.hrdf != nil {
				tables.HRDF["s1"] = tc.hrdf
			}

			if tc.gtfs != nil {
				tables.GTFS["s1"] = tc.gtfs
			}

			m := newMatcher(g, WithRoutes(tables))

			rest, err := m.Route(context.Background(), []model.AtlasStop{stop("s1", "", "", "", 0, 0)})
			require.NoError(t, err)

			if tc.expected == "" {
				assert.Equal(t, []string{"s1"}, sloids(rest))
				assert.Empty(t, m.ex.Records())

				return
			}

			recs := m.ex.Records()
			require.Len(t, recs, 1)
			assert.Equal(t, model.NodeID(1), recs[0].NodeID)
			assert.Equal(t, tc.expected, recs[0].Type)
		})
	}
}

func TestRouteWithoutTables(t *testing.T) {
	g := graphOf(osmNode(1, 5, 0, model.NodeTags{}))
	m := newMatcher(g)

	rest, err := m.Route(context.Background(), []model.AtlasStop{stop("s1", "", "", "", 0, 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, sloids(rest))
	assert.Empty(t, m.ex.Records())
}
