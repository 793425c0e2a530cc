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

package atlas

import (
	"cmp"
	"slices"

	"m4o.io/stopmatch/model"
)

// DuplicateGroup is a set of registry records describing the same physical
// stop: they share the station number and a non-empty designation.
type DuplicateGroup struct {
	Number      string
	Designation string
	Sloids      []string
}

// DuplicateGroups derives the duplicate groups of a snapshot, ordered by
// number then designation. Members keep file order.
func DuplicateGroups(stops []model.AtlasStop) []DuplicateGroup {
	type key struct{ number, designation string }

	members := map[key][]string{}
	var keys []key

	for _, s := range stops {
		if s.Number == "" || s.Designation == "" {
			continue
		}

		k := key{s.Number, s.Designation}
		if _, ok := members[k]; !ok {
			keys = append(keys, k)
		}

		members[k] = append(members[k], s.Sloid)
	}

	slices.SortFunc(keys, func(a, b key) int {
		return cmp.Or(cmp.Compare(a.number, b.number), cmp.Compare(a.designation, b.designation))
	})

	var groups []DuplicateGroup
	for _, k := range keys {
		if len(members[k]) < 2 {
			continue
		}

		groups = append(groups, DuplicateGroup{Number: k.number, Designation: k.designation, Sloids: members[k]})
	}

	return groups
}

// DuplicateMap maps every sloid of a duplicate group to the other members
// of its group.
func DuplicateMap(groups []DuplicateGroup) map[string][]string {
	out := map[string][]string{}

	for _, g := range groups {
		for _, sloid := range g.Sloids {
			others := make([]string, 0, len(g.Sloids)-1)
			for _, o := range g.Sloids {
				if o != sloid {
					others = append(others, o)
				}
			}

			out[sloid] = others
		}
	}

	return out
}
