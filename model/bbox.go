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
	"fmt"
)

// Coordinate limits.
const (
	MaxLat Degrees = 90.0
	MaxLon Degrees = 180.0
	MinLat Degrees = -90.0
	MinLon Degrees = -180.0
)

// BoundingBox is the extent of a set of coordinates.
type BoundingBox struct {
	Top    Degrees `json:"top"`
	Left   Degrees `json:"left"`
	Bottom Degrees `json:"bottom"`
	Right  Degrees `json:"right"`
}

// EmptyBoundingBox returns an inverted box that any coordinate expands.
func EmptyBoundingBox() *BoundingBox {
	return &BoundingBox{
		Top:    MinLat,
		Left:   MaxLon,
		Bottom: MaxLat,
		Right:  MinLon,
	}
}

// Empty reports whether nothing has been added to the box.
func (b *BoundingBox) Empty() bool {
	return b.Bottom > b.Top || b.Left > b.Right
}

// Contains checks if the coordinate lies inside the box. Edges are included
// up to the 1e-7 degree resolution of OSM coordinates.
func (b *BoundingBox) Contains(c Coordinate) bool {
	return between(b.Left, c.Lon, b.Right) && between(b.Bottom, c.Lat, b.Top)
}

func between(lo, v, hi Degrees) bool {
	return (lo <= v || lo.EqualWithin(v, E7)) && (v <= hi || v.EqualWithin(hi, E7))
}

// Extend grows the box so that it contains c.
func (b *BoundingBox) Extend(c Coordinate) {
	b.Top = max(b.Top, c.Lat)
	b.Bottom = min(b.Bottom, c.Lat)
	b.Left = min(b.Left, c.Lon)
	b.Right = max(b.Right, c.Lon)
}

// Union grows the box so that it contains o.
func (b *BoundingBox) Union(o *BoundingBox) {
	if o == nil || o.Empty() {
		return
	}

	b.Extend(Coordinate{Lat: o.Top, Lon: o.Left})
	b.Extend(Coordinate{Lat: o.Bottom, Lon: o.Right})
}

func (b *BoundingBox) String() string {
	if b.Empty() {
		return "[]"
	}

	return fmt.Sprintf("[(%s, %s) (%s, %s)]",
		ftoa(float64(b.Top)), ftoa(float64(b.Left)),
		ftoa(float64(b.Bottom)), ftoa(float64(b.Right)))
}
