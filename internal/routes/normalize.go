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

package routes

import "regexp"

// yearSuffix takes every digit so that "-j245" is seen as a whole and left
// alone.
var yearSuffix = regexp.MustCompile(`-j\d+`)

// NormalizeRouteID collapses two-digit timetable year suffixes ("-j24") to
// "-jXX" so that route ids of consecutive timetable years compare equal.
func NormalizeRouteID(id string) string {
	return yearSuffix.ReplaceAllStringFunc(id, func(m string) string {
		if len(m) != len("-j24") {
			return m
		}

		return "-jXX"
	})
}
