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
	"slices"

	"golang.org/x/exp/constraints"
)

// groupBy buckets items by key, keeping input order inside each bucket.
// Items for which key reports false are left out. The keys are returned
// sorted so that callers iterate groups deterministically.
func groupBy[K constraints.Ordered, T any](items []T, key func(T) (K, bool)) ([]K, map[K][]T) {
	groups := map[K][]T{}

	for _, it := range items {
		k, ok := key(it)
		if !ok {
			continue
		}

		groups[k] = append(groups[k], it)
	}

	return sortedKeys(groups), groups
}

func sortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// argmin returns the index of the smallest value, the first one on ties.
func argmin[T constraints.Ordered](values []T) int {
	best := -1

	for i, v := range values {
		if best < 0 || v < values[best] {
			best = i
		}
	}

	return best
}
