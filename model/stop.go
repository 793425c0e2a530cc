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

// AtlasStop is one record of the national stop registry.
type AtlasStop struct {
	Sloid               string  `json:"sloid"`
	Number              string  `json:"number"`
	Designation         string  `json:"designation"`
	DesignationOfficial string  `json:"designation_official"`
	Operator            string  `json:"operator"`
	Lat                 Degrees `json:"lat"`
	Lon                 Degrees `json:"lon"`
}

// Coordinate returns the position of the stop.
func (s AtlasStop) Coordinate() Coordinate {
	return Coordinate{Lat: s.Lat, Lon: s.Lon}
}

// InvalidRow describes an input row that was rejected before matching.
type InvalidRow struct {
	Line   int    `json:"line"`
	Sloid  string `json:"sloid,omitempty"`
	Reason string `json:"reason"`
}

func (r InvalidRow) Error() string {
	if r.Sloid == "" {
		return fmt.Sprintf("line %d: %s", r.Line, r.Reason)
	}

	return fmt.Sprintf("line %d (%s): %s", r.Line, r.Sloid, r.Reason)
}
