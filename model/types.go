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

package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/s1"
)

// Degrees is the decimal degree representation of a longitude or latitude.
type Degrees float64

// Epsilon is an enumeration of precisions that can be used when comparing Degrees.
type Epsilon float64

// Degrees units.
const (
	Degree           Degrees = 1
	MinutesPerDegree         = 60
	SecondsPerDegree         = 3600

	E5 Epsilon = 1e-5
	E6 Epsilon = 1e-6
	E7 Epsilon = 1e-7
	E9 Epsilon = 1e-9

	Half = 0.5
)

var (
	// ErrLatitudeRange is returned for latitudes outside of [-90, 90].
	ErrLatitudeRange = errors.New("latitude out of range")

	// ErrLongitudeRange is returned for longitudes outside of [-180, 180].
	ErrLongitudeRange = errors.New("longitude out of range")
)

// Angle returns the equivalent s1.Angle.
func (d Degrees) Angle() s1.Angle { return s1.Angle(float64(d)) * s1.Degree }

func (d Degrees) String() string {
	var sign string
	if d < 0 {
		sign = "-"
	}

	val := math.Abs(float64(d))
	degrees := int(math.Floor(val))
	minutes := int(math.Floor(MinutesPerDegree * (val - float64(degrees))))
	seconds := SecondsPerDegree * (val - float64(degrees) - (float64(minutes) / MinutesPerDegree))

	return fmt.Sprintf("%s%d° %d' %s\"", sign, degrees, minutes, strconv.FormatFloat(seconds, 'f', 2, 64))
}

// MarshalJSON renders the degrees as a plain JSON number.
func (d Degrees) MarshalJSON() ([]byte, error) {
	return []byte(ftoa(float64(d))), nil
}

// EqualWithin checks if two degrees are within a specific epsilon.
func (d Degrees) EqualWithin(o Degrees, eps Epsilon) bool {
	return round(float64(d)/float64(eps))-round(float64(o)/float64(eps)) == 0
}

// E7 returns the angle in ten millionths of degrees.
func (d Degrees) E7() int64 { return round(float64(d) * 1e7) }

func round(val float64) int64 {
	if val < 0 {
		return int64(val - Half)
	}

	return int64(val + Half)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseDegrees converts a string to a Degrees instance. Surrounding blanks
// are ignored and a decimal comma is accepted.
func ParseDegrees(s string) (Degrees, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")

	u, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(u) || math.IsInf(u, 0) {
		return 0, fmt.Errorf("not a finite coordinate: %q", s)
	}

	return Degrees(u), nil
}

// ParseLatitude parses a latitude and checks its range.
func ParseLatitude(s string) (Degrees, error) {
	d, err := ParseDegrees(s)
	if err != nil {
		return 0, err
	}

	if d < MinLat || d > MaxLat {
		return 0, fmt.Errorf("%w: %s", ErrLatitudeRange, ftoa(float64(d)))
	}

	return d, nil
}

// ParseLongitude parses a longitude and checks its range.
func ParseLongitude(s string) (Degrees, error) {
	d, err := ParseDegrees(s)
	if err != nil {
		return 0, err
	}

	if d < MinLon || d > MaxLon {
		return 0, fmt.Errorf("%w: %s", ErrLongitudeRange, ftoa(float64(d)))
	}

	return d, nil
}

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat Degrees `json:"lat"`
	Lon Degrees `json:"lon"`
}

// Valid reports whether both components are within range.
func (c Coordinate) Valid() bool {
	return c.Lat >= MinLat && c.Lat <= MaxLat && c.Lon >= MinLon && c.Lon <= MaxLon
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%s, %s)", ftoa(float64(c.Lat)), ftoa(float64(c.Lon)))
}
