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

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	testCases := []struct {
		name     string
		lat1     float64
		lon1     float64
		lat2     float64
		lon2     float64
		expected float64
		delta    float64
	}{
		{"same point", 46.2, 6.15, 46.2, 6.15, 0, 1e-9},
		{"one degree of latitude", 46, 7, 47, 7, 111_195, 1},
		{"geneva to zurich", 46.2104, 6.1425, 47.3782, 8.5402, 224_000, 2_000},
		{"antipodes", 0, 0, 0, 180, EarthRadius * 3.141592653589793, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Haversine(tc.lat1, tc.lon1, tc.lat2, tc.lon2), tc.delta)
		})
	}
}

func TestHaversineSymmetric(t *testing.T) {
	assert.InDelta(t, Haversine(46.2, 6.15, 46.3, 6.2), Haversine(46.3, 6.2, 46.2, 6.15), 1e-9)
}

func TestUnitVector(t *testing.T) {
	v := UnitVector(46.2, 6.15)
	assert.InDelta(t, 1.0, v.Norm(), 1e-12)

	north := UnitVector(90, 0)
	assert.InDelta(t, 1.0, north.Z, 1e-12)
}

func TestChordRadiusMonotonic(t *testing.T) {
	assert.Zero(t, ChordRadius2(0))

	prev := 0.0
	for _, meters := range []float64{0.5, 10, 50, 1_000, 250_000} {
		c := ChordRadius2(meters)
		assert.Greater(t, c, prev, meters)
		prev = c
	}
}

func TestChordMatchesHaversine(t *testing.T) {
	a := UnitVector(46.2, 6.15)
	b := UnitVector(46.2004, 6.1503)

	d := Haversine(46.2, 6.15, 46.2004, 6.1503)
	chord2 := a.Sub(b).Norm2()
	assert.InEpsilon(t, chord2, ChordRadius2(d), 1e-6)
}
