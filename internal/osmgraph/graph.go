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

// Package osmgraph loads the OpenStreetMap side of the matching problem: a
// node table with identifier and name indexes, plus the endpoint strings of
// the route relations every node belongs to.
package osmgraph

import (
	"slices"

	"m4o.io/stopmatch/model"
)

// Arrow joins the first and last endpoint of a route direction.
const Arrow = " → "

// Directions holds the endpoint strings of the routes a node is part of.
type Directions struct {
	ByUIC  []string
	ByName []string
}

// Graph is the indexed OSM snapshot. It is read-only once loaded.
type Graph struct {
	Nodes map[model.NodeID]*model.OsmNode

	// ByUIC indexes nodes by their uic_ref tag.
	ByUIC map[string][]*model.OsmNode

	// ByName indexes nodes by name, uic_name and gtfs:name.
	ByName map[string][]*model.OsmNode

	// Directions maps a node to the endpoint strings of its route relations.
	Directions map[model.NodeID]*Directions

	Bounds *model.BoundingBox
	Routes int

	order []model.NodeID
}

// NewGraph returns an empty graph ready to be filled with Add.
func NewGraph() *Graph {
	return &Graph{
		Nodes:      map[model.NodeID]*model.OsmNode{},
		ByUIC:      map[string][]*model.OsmNode{},
		ByName:     map[string][]*model.OsmNode{},
		Directions: map[model.NodeID]*Directions{},
		Bounds:     model.EmptyBoundingBox(),
	}
}

// Add inserts a node and indexes it. Adding the same id twice replaces
// nothing and reports false.
func (g *Graph) Add(n *model.OsmNode) bool {
	if _, ok := g.Nodes[n.ID]; ok {
		return false
	}

	g.Nodes[n.ID] = n
	g.order = nil
	g.Bounds.Extend(n.Coordinate())

	if n.Tags.UICRef != "" {
		g.ByUIC[n.Tags.UICRef] = append(g.ByUIC[n.Tags.UICRef], n)
	}

	seen := make(map[string]bool, 3)
	for _, name := range []string{n.Tags.Name, n.Tags.UICName, n.Tags.GTFSName} {
		if name == "" || seen[name] {
			continue
		}

		seen[name] = true
		g.ByName[name] = append(g.ByName[name], n)
	}

	return true
}

// Node returns the node with the given id.
func (g *Graph) Node(id model.NodeID) (*model.OsmNode, bool) {
	n, ok := g.Nodes[id]

	return n, ok
}

// All returns every node ordered by id.
func (g *Graph) All() []*model.OsmNode {
	if g.order == nil {
		g.order = make([]model.NodeID, 0, len(g.Nodes))
		for id := range g.Nodes {
			g.order = append(g.order, id)
		}

		slices.Sort(g.order)
	}

	nodes := make([]*model.OsmNode, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.Nodes[id]
	}

	return nodes
}

// DirectionsOf returns the route endpoint strings of a node. The result is
// never nil.
func (g *Graph) DirectionsOf(id model.NodeID) *Directions {
	if d, ok := g.Directions[id]; ok {
		return d
	}

	return &Directions{}
}

// AddRoute records the endpoint strings of a route whose node members are
// given in relation order. Members unknown to the graph are ignored.
func (g *Graph) AddRoute(members []model.NodeID) {
	g.Routes++

	nodes := make([]*model.OsmNode, 0, len(members))
	for _, id := range members {
		if n, ok := g.Nodes[id]; ok {
			nodes = append(nodes, n)
		}
	}

	if len(nodes) < 2 {
		return
	}

	first, last := nodes[0], nodes[len(nodes)-1]

	var byUIC, byName string
	if first.Tags.UICRef != "" && last.Tags.UICRef != "" {
		byUIC = first.Tags.UICRef + Arrow + last.Tags.UICRef
	}

	if first.Tags.Name != "" && last.Tags.Name != "" {
		byName = first.Tags.Name + Arrow + last.Tags.Name
	}

	if byUIC == "" && byName == "" {
		return
	}

	for _, n := range nodes {
		d, ok := g.Directions[n.ID]
		if !ok {
			d = &Directions{}
			g.Directions[n.ID] = d
		}

		if byUIC != "" && !slices.Contains(d.ByUIC, byUIC) {
			d.ByUIC = append(d.ByUIC, byUIC)
		}

		if byName != "" && !slices.Contains(d.ByName, byName) {
			d.ByName = append(d.ByName, byName)
		}
	}
}
