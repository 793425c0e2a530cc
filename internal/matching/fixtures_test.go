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
	"io"
	"log/slog"
	"math"

	"m4o.io/stopmatch/internal/osmgraph"
	"m4o.io/stopmatch/model"
)

const (
	originLat = 46.2
	originLon = 6.15

	metersPerDegree = 6371000 * math.Pi / 180
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// offset returns the position north and east meters away from the origin.
func offset(north, east float64) (model.Degrees, model.Degrees) {
	lat := originLat + north/metersPerDegree
	lon := originLon + east/(metersPerDegree*math.Cos(originLat*math.Pi/180))

	return model.Degrees(lat), model.Degrees(lon)
}

func stop(sloid, number, designation, official string, north, east float64) model.AtlasStop {
	lat, lon := offset(north, east)

	return model.AtlasStop{
		Sloid:               sloid,
		Number:              number,
		Designation:         designation,
		DesignationOfficial: official,
		Lat:                 lat,
		Lon:                 lon,
	}
}

func osmNode(id model.NodeID, north, east float64, tags model.NodeTags) *model.OsmNode {
	lat, lon := offset(north, east)

	return &model.OsmNode{ID: id, Lat: lat, Lon: lon, Tags: tags}
}

func graphOf(nodes ...*model.OsmNode) *osmgraph.Graph {
	g := osmgraph.NewGraph()
	for _, n := range nodes {
		g.Add(n)
	}

	return g
}

func newMatcher(g *osmgraph.Graph, opts ...Option) *Matcher {
	return New(g, NewExclusion(), append([]Option{WithLogger(discard), WithParams(testParams())}, opts...)...)
}

func testParams() Params {
	p := DefaultParams()
	p.Workers = 2

	return p
}

func sloids(stops []model.AtlasStop) []string {
	out := make([]string, len(stops))
	for i, s := range stops {
		out[i] = s.Sloid
	}

	return out
}
