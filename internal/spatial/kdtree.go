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

// Package spatial provides a k-d tree over points projected onto the unit
// sphere. Radius queries are answered with chord lengths and the reported
// distances are great-circle meters.
package spatial

import (
	"container/heap"
	"slices"

	"github.com/golang/geo/r3"

	"m4o.io/stopmatch/internal/geo"
	"m4o.io/stopmatch/model"
)

// chordSlack widens the chord radius slightly so that points sitting exactly
// on the radius are not lost to rounding. Results are filtered again with
// the haversine distance.
const chordSlack = 1e-9

// Hit is one query result.
type Hit[T any] struct {
	Item   T
	Meters float64
}

type entry[T any] struct {
	item  T
	pos   model.Coordinate
	point r3.Vector
}

type node struct {
	idx         int
	axis        int
	left, right *node
}

// Index is an immutable k-d tree. It is safe for concurrent queries.
type Index[T any] struct {
	entries []entry[T]
	root    *node
}

// New builds an index over items using locate to find their position.
func New[T any](items []T, locate func(T) model.Coordinate) *Index[T] {
	entries := make([]entry[T], len(items))
	for i, it := range items {
		pos := locate(it)
		entries[i] = entry[T]{
			item:  it,
			pos:   pos,
			point: geo.UnitVector(float64(pos.Lat), float64(pos.Lon)),
		}
	}

	idx := &Index[T]{entries: entries}

	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}

	idx.root = idx.build(order, 0)

	return idx
}

// Len returns the number of indexed items.
func (x *Index[T]) Len() int {
	return len(x.entries)
}

func component(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func (x *Index[T]) build(order []int, depth int) *node {
	if len(order) == 0 {
		return nil
	}

	axis := depth % 3
	slices.SortFunc(order, func(a, b int) int {
		ca, cb := component(x.entries[a].point, axis), component(x.entries[b].point, axis)
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		default:
			return a - b
		}
	})

	mid := len(order) / 2

	return &node{
		idx:   order[mid],
		axis:  axis,
		left:  x.build(order[:mid], depth+1),
		right: x.build(order[mid+1:], depth+1),
	}
}

// Within returns every item whose great-circle distance to center is at most
// meters, nearest first.
func (x *Index[T]) Within(center model.Coordinate, meters float64) []Hit[T] {
	if x.root == nil || meters < 0 {
		return nil
	}

	target := geo.UnitVector(float64(center.Lat), float64(center.Lon))
	r2 := geo.ChordRadius2(meters) + chordSlack

	var found []int

	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}

		p := x.entries[n.idx].point
		if p.Sub(target).Norm2() <= r2 {
			found = append(found, n.idx)
		}

		diff := component(target, n.axis) - component(p, n.axis)
		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}

		walk(near)

		if diff*diff <= r2 {
			walk(far)
		}
	}
	walk(x.root)

	hits := make([]Hit[T], 0, len(found))
	kept := make([]int, 0, len(found))

	for _, i := range found {
		d := x.meters(center, i)
		if d <= meters {
			hits = append(hits, Hit[T]{Item: x.entries[i].item, Meters: d})
			kept = append(kept, i)
		}
	}

	sortHits(hits, kept)

	return hits
}

// Any reports whether at least one item lies within meters of center.
func (x *Index[T]) Any(center model.Coordinate, meters float64) bool {
	return len(x.Nearest(center, 1, meters)) > 0
}

// Nearest returns up to k items nearest to center that are at most maxMeters
// away. A negative maxMeters means unbounded.
func (x *Index[T]) Nearest(center model.Coordinate, k int, maxMeters float64) []Hit[T] {
	if x.root == nil || k <= 0 {
		return nil
	}

	target := geo.UnitVector(float64(center.Lat), float64(center.Lon))

	bound := 4.0 + chordSlack
	if maxMeters >= 0 {
		bound = geo.ChordRadius2(maxMeters) + chordSlack
	}

	h := &candidateHeap{}

	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}

		p := x.entries[n.idx].point
		d2 := p.Sub(target).Norm2()

		limit := bound
		if h.Len() == k {
			limit = min(limit, (*h)[0].d2)
		}

		if d2 <= limit {
			heap.Push(h, candidate{idx: n.idx, d2: d2})
			if h.Len() > k {
				heap.Pop(h)
			}
		}

		diff := component(target, n.axis) - component(p, n.axis)
		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}

		walk(near)

		limit = bound
		if h.Len() == k {
			limit = min(limit, (*h)[0].d2)
		}

		if diff*diff <= limit {
			walk(far)
		}
	}
	walk(x.root)

	found := make([]int, 0, h.Len())
	for _, c := range *h {
		found = append(found, c.idx)
	}

	hits := make([]Hit[T], 0, len(found))
	kept := found[:0]
	for _, i := range found {
		d := x.meters(center, i)
		if maxMeters < 0 || d <= maxMeters {
			hits = append(hits, Hit[T]{Item: x.entries[i].item, Meters: d})
			kept = append(kept, i)
		}
	}

	sortHits(hits, kept)

	return hits
}

func (x *Index[T]) meters(center model.Coordinate, i int) float64 {
	pos := x.entries[i].pos

	return geo.Haversine(float64(center.Lat), float64(center.Lon), float64(pos.Lat), float64(pos.Lon))
}

// sortHits orders hits by distance, breaking ties by insertion order so that
// results are deterministic.
func sortHits[T any](hits []Hit[T], order []int) {
	type pair struct {
		hit Hit[T]
		idx int
	}

	pairs := make([]pair, len(hits))
	for i := range hits {
		pairs[i] = pair{hits[i], order[i]}
	}

	slices.SortStableFunc(pairs, func(a, b pair) int {
		switch {
		case a.hit.Meters < b.hit.Meters:
			return -1
		case a.hit.Meters > b.hit.Meters:
			return 1
		default:
			return a.idx - b.idx
		}
	})

	for i := range pairs {
		hits[i] = pairs[i].hit
	}
}

type candidate struct {
	idx int
	d2  float64
}

// candidateHeap is a max-heap on d2 used to keep the k best candidates.
type candidateHeap []candidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].d2 > h[j].d2 }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) { *h = append(*h, x.(candidate)) }

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]

	return c
}
