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
	"strconv"
)

// NodeID is the identifier of an OpenStreetMap node.
type NodeID int64

func (id NodeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Tag values with a meaning to the matcher.
const (
	TagStation      = "station"
	TagStopPosition = "stop_position"
)

// NodeTags holds the node tags consumed by the matcher. Everything else is
// kept in Extra.
type NodeTags struct {
	UICRef          string            `json:"uic_ref,omitempty"`
	LocalRef        string            `json:"local_ref,omitempty"`
	Name            string            `json:"name,omitempty"`
	UICName         string            `json:"uic_name,omitempty"`
	GTFSName        string            `json:"gtfs_name,omitempty"`
	PublicTransport string            `json:"public_transport,omitempty"`
	Railway         string            `json:"railway,omitempty"`
	Amenity         string            `json:"amenity,omitempty"`
	Aerialway       string            `json:"aerialway,omitempty"`
	Highway         string            `json:"highway,omitempty"`
	Network         string            `json:"network,omitempty"`
	Operator        string            `json:"operator,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// OsmNode is one node of the map registry.
type OsmNode struct {
	ID   NodeID   `json:"id"`
	Lat  Degrees  `json:"lat"`
	Lon  Degrees  `json:"lon"`
	Tags NodeTags `json:"tags"`

	// OriginalOperator is the operator tag before normalization. It is only
	// set when normalization changed the value.
	OriginalOperator string `json:"original_operator,omitempty"`
}

// Coordinate returns the position of the node.
func (n *OsmNode) Coordinate() Coordinate {
	return Coordinate{Lat: n.Lat, Lon: n.Lon}
}

// IsStation reports whether the node describes a whole station rather than
// a platform. Aerialway stations are platforms in practice and never count.
func (n *OsmNode) IsStation() bool {
	if n.Tags.Aerialway == TagStation {
		return false
	}

	return n.Tags.PublicTransport == TagStation || n.Tags.Railway == TagStation
}

// IsStopPosition reports whether the node is tagged as the stopping point
// of a vehicle.
func (n *OsmNode) IsStopPosition() bool {
	return n.Tags.PublicTransport == TagStopPosition
}
