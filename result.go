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

package stopmatch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/destel/rill"

	"m4o.io/stopmatch/internal/atlas"
	"m4o.io/stopmatch/internal/spatial"
	"m4o.io/stopmatch/model"
)

// ErrInvariant is returned by Validate for an inconsistent result.
var ErrInvariant = errors.New("result invariant violated")

// UnmatchedStop is an ATLAS stop without a match. NoNearby is set when no
// OSM node at all lies within the isolation radius.
type UnmatchedStop struct {
	model.AtlasStop
	NoNearby bool `json:"no_nearby_counterpart"`
}

// UnmatchedNode is an OSM node without a match. Isolated is set when no
// ATLAS stop lies within the isolation radius.
type UnmatchedNode struct {
	*model.OsmNode
	Isolated bool `json:"isolated"`
}

// Result is the outcome of one run. Every valid ATLAS stop is either in
// Matches or in UnmatchedAtlas; every OSM node is either in MatchedNodes or
// in UnmatchedOSM.
type Result struct {
	RunID string `json:"run_id"`

	Matches        []model.MatchRecord `json:"matches"`
	UnmatchedAtlas []UnmatchedStop     `json:"unmatched_atlas"`
	UnmatchedOSM   []UnmatchedNode     `json:"unmatched_osm"`
	MatchedNodes   []model.NodeID      `json:"matched_nodes"`

	// NoNearby lists the unmatched stops without any node nearby.
	NoNearby []model.UnmatchedNoNearby `json:"no_nearby_counterpart"`

	// Duplicates maps a sloid to the other members of its duplicate group.
	Duplicates map[string][]string `json:"duplicates"`

	// Invalid lists the ATLAS rows rejected before matching.
	Invalid []model.InvalidRow `json:"invalid,omitempty"`

	// Bounds covers every stop and node.
	Bounds *model.BoundingBox `json:"bounds"`

	// OutsideBounds counts the stops lying outside the extent of the OSM
	// nodes.
	OutsideBounds int `json:"outside_osm_bounds"`

	stops int
	nodes int
}

// final partitions the stops and nodes once every state ran.
func (p *pipeline) final(ctx context.Context) (*Result, error) {
	ex := p.matcher.Exclusion()
	radius := p.matcher.Params().IsolationRadius

	res := &Result{
		RunID:      p.cfg.runID,
		Matches:    slices.Clone(ex.Records()),
		Duplicates: atlas.DuplicateMap(p.duplicates),
		Invalid:    p.snap.Invalid,
		Bounds:     p.bounds,
		stops:      len(p.snap.Stops),
		nodes:      len(p.graph.Nodes),

		OutsideBounds: p.outside,
	}

	flagged := make(map[string]bool, len(p.noNearby))
	for _, u := range p.noNearby {
		flagged[u.Sloid] = true
	}

	for _, s := range p.snap.Stops {
		if ex.IsMatched(s.Sloid) {
			continue
		}

		res.UnmatchedAtlas = append(res.UnmatchedAtlas, UnmatchedStop{AtlasStop: s, NoNearby: flagged[s.Sloid]})
	}

	// a later stage may have matched a flagged stop
	for _, u := range p.noNearby {
		if !ex.IsMatched(u.Sloid) {
			res.NoNearby = append(res.NoNearby, u)
		}
	}

	var unmatched []*model.OsmNode

	for _, n := range p.graph.All() {
		if ex.IsUsed(n.ID) {
			res.MatchedNodes = append(res.MatchedNodes, n.ID)
		} else {
			unmatched = append(unmatched, n)
		}
	}

	isolated, err := isolation(ctx, p.snap.Stops, unmatched, radius, p.matcher.Params().Workers)
	if err != nil {
		return nil, err
	}

	for i, n := range unmatched {
		res.UnmatchedOSM = append(res.UnmatchedOSM, UnmatchedNode{OsmNode: n, Isolated: isolated[i]})
	}

	return res, nil
}

// isolation reports, per node, whether no stop lies within radius.
func isolation(ctx context.Context, stops []model.AtlasStop, nodes []*model.OsmNode, radius float64, workers int) ([]bool, error) {
	index := spatial.New(stops, model.AtlasStop.Coordinate)

	in := rill.FromSlice(nodes, nil)
	out := rill.OrderedMap(in, max(workers, 1), func(n *model.OsmNode) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		return !index.Any(n.Coordinate(), radius), nil
	})

	return rill.ToSlice(out)
}

// Stats summarizes a result.
type Stats struct {
	Stops          int
	Matched        int
	Unmatched      int
	NoNearby       int
	Invalid        int
	Nodes          int
	MatchedNodes   int
	UnmatchedNodes int
	IsolatedNodes  int

	// ByType counts match records per match type.
	ByType map[model.MatchType]int
}

// Types returns the match types present, ordered by name.
func (s Stats) Types() []model.MatchType {
	types := make([]model.MatchType, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}

	slices.SortFunc(types, func(a, b model.MatchType) int { return cmp.Compare(a, b) })

	return types
}

// Stats counts the content of the result.
func (r *Result) Stats() Stats {
	st := Stats{
		Stops:          r.stops,
		Unmatched:      len(r.UnmatchedAtlas),
		NoNearby:       len(r.NoNearby),
		Invalid:        len(r.Invalid),
		Nodes:          r.nodes,
		MatchedNodes:   len(r.MatchedNodes),
		UnmatchedNodes: len(r.UnmatchedOSM),
		ByType:         map[model.MatchType]int{},
	}

	sloids := map[string]bool{}
	for _, m := range r.Matches {
		sloids[m.Sloid] = true
		st.ByType[m.Type]++
	}

	st.Matched = len(sloids)

	for _, n := range r.UnmatchedOSM {
		if n.Isolated {
			st.IsolatedNodes++
		}
	}

	return st
}

// Validate checks that no node and no sloid was consumed twice. The exact
// stage may pair a group of stops with a single node, or a single stop with
// several nodes; duplicate propagation shares nodes that were matched
// before. Anything else is a violation.
func (r *Result) Validate() error {
	var errs []error

	byNode := map[model.NodeID][]model.MatchRecord{}
	bySloid := map[string][]model.MatchRecord{}

	for _, m := range r.Matches {
		bySloid[m.Sloid] = append(bySloid[m.Sloid], m)

		if !m.Type.Shared() {
			byNode[m.NodeID] = append(byNode[m.NodeID], m)
		}
	}

	for _, m := range r.Matches {
		if m.Type.Shared() && len(byNode[m.NodeID]) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s shares node %s nobody matched", ErrInvariant, m.Sloid, m.NodeID))
		}
	}

	for _, id := range sortedKeys(byNode) {
		if recs := byNode[id]; len(recs) > 1 && !allExact(recs) {
			errs = append(errs, fmt.Errorf("%w: node %s matched %d times", ErrInvariant, id, len(recs)))
		}
	}

	for _, sloid := range sortedKeys(bySloid) {
		if recs := bySloid[sloid]; len(recs) > 1 && !allExact(recs) {
			errs = append(errs, fmt.Errorf("%w: sloid %s matched %d times", ErrInvariant, sloid, len(recs)))
		}
	}

	for _, u := range r.UnmatchedAtlas {
		if len(bySloid[u.Sloid]) > 0 {
			errs = append(errs, fmt.Errorf("%w: sloid %s both matched and unmatched", ErrInvariant, u.Sloid))
		}
	}

	if r.stops > 0 && len(bySloid)+len(r.UnmatchedAtlas) != r.stops {
		errs = append(errs, fmt.Errorf("%w: %d matched and %d unmatched of %d stops",
			ErrInvariant, len(bySloid), len(r.UnmatchedAtlas), r.stops))
	}

	return errors.Join(errs...)
}

func allExact(recs []model.MatchRecord) bool {
	for _, m := range recs {
		if m.Type != model.MatchExact {
			return false
		}
	}

	return true
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
