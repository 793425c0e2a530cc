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

// Package geo holds the great-circle helpers shared by the matchers and the
// spatial index.
package geo

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6_371_000.0

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	// clamp against rounding for antipodal points
	a = math.Min(1, math.Max(0, a))

	return 2 * EarthRadius * math.Asin(math.Sqrt(a))
}

// UnitVector projects a latitude/longitude pair onto the unit sphere.
func UnitVector(lat, lon float64) r3.Vector {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon)).Vector
}

// ChordRadius2 converts a surface distance in meters into the squared
// straight-line distance between two points on the unit sphere.
func ChordRadius2(meters float64) float64 {
	if meters <= 0 {
		return 0
	}

	angle := s1.Angle(meters / EarthRadius)
	if angle >= math.Pi {
		return float64(s1.StraightChordAngle)
	}

	return float64(s1.ChordAngleFromAngle(angle))
}
