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
	"errors"
	"fmt"

	"m4o.io/stopmatch/model"
)

var (
	// ErrSloidMatched is returned when a claim targets a sloid that already
	// has a match.
	ErrSloidMatched = errors.New("sloid already matched")

	// ErrNodeUsed is returned when an exclusive claim targets a node that is
	// already used.
	ErrNodeUsed = errors.New("node already used")

	// ErrNodeFree is returned when a shared claim targets a node nobody
	// claimed before.
	ErrNodeFree = errors.New("node not claimed")
)

// Exclusion tracks the nodes and sloids consumed so far, together with the
// records that consumed them. It only grows. Claim and ClaimShared are the
// only way to change it.
type Exclusion struct {
	used    map[model.NodeID]bool
	matched map[string][]int
	records []model.MatchRecord
}

// NewExclusion returns an empty exclusion state.
func NewExclusion() *Exclusion {
	return &Exclusion{
		used:    map[model.NodeID]bool{},
		matched: map[string][]int{},
	}
}

// IsUsed reports whether the node was claimed.
func (e *Exclusion) IsUsed(id model.NodeID) bool {
	return e.used[id]
}

// IsMatched reports whether the sloid has at least one record.
func (e *Exclusion) IsMatched(sloid string) bool {
	return len(e.matched[sloid]) > 0
}

// Claim records a batch of exclusive matches. Every sloid and node of the
// batch must be free before the call; within the batch a node or a sloid may
// repeat, which is how a group of rows shares one identifier candidate. The
// batch is applied entirely or not at all.
func (e *Exclusion) Claim(recs ...model.MatchRecord) error {
	for _, r := range recs {
		if e.IsMatched(r.Sloid) {
			return fmt.Errorf("claim %s → %s: %w", r.Sloid, r.NodeID, ErrSloidMatched)
		}

		if e.used[r.NodeID] {
			return fmt.Errorf("claim %s → %s: %w", r.Sloid, r.NodeID, ErrNodeUsed)
		}
	}

	for _, r := range recs {
		e.add(r)
		e.used[r.NodeID] = true
	}

	return nil
}

// ClaimShared records a match onto a node another record already holds.
func (e *Exclusion) ClaimShared(r model.MatchRecord) error {
	if e.IsMatched(r.Sloid) {
		return fmt.Errorf("share %s → %s: %w", r.Sloid, r.NodeID, ErrSloidMatched)
	}

	if !e.used[r.NodeID] {
		return fmt.Errorf("share %s → %s: %w", r.Sloid, r.NodeID, ErrNodeFree)
	}

	e.add(r)

	return nil
}

func (e *Exclusion) add(r model.MatchRecord) {
	e.matched[r.Sloid] = append(e.matched[r.Sloid], len(e.records))
	e.records = append(e.records, r)
}

// Records returns the records in claim order.
func (e *Exclusion) Records() []model.MatchRecord {
	return e.records
}

// RecordsOf returns the records of one sloid in claim order.
func (e *Exclusion) RecordsOf(sloid string) []model.MatchRecord {
	idx := e.matched[sloid]
	recs := make([]model.MatchRecord, len(idx))

	for i, j := range idx {
		recs[i] = e.records[j]
	}

	return recs
}

// UsedCount returns the number of claimed nodes.
func (e *Exclusion) UsedCount() int {
	return len(e.used)
}

// MatchedCount returns the number of matched sloids.
func (e *Exclusion) MatchedCount() int {
	return len(e.matched)
}
