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

// Package operator standardizes free-text operator names through an alias
// table loaded once at start-up.
package operator

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"gopkg.in/yaml.v3"
)

// Normalizer maps operator aliases to canonical names. A nil *Normalizer is
// valid and leaves values untouched apart from trimming.
type Normalizer struct {
	canonical map[string]string // folded alias -> canonical name
}

// New builds a normalizer from a canonical name -> aliases table.
func New(table map[string][]string) *Normalizer {
	n := &Normalizer{canonical: make(map[string]string, len(table))}

	for name, aliases := range table {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		n.canonical[fold(name)] = name
		for _, alias := range aliases {
			if key := fold(alias); key != "" {
				n.canonical[key] = name
			}
		}
	}

	return n
}

// Parse reads a YAML alias table of the form
//
//	SBB:
//	  - Schweizerische Bundesbahnen
//	  - CFF
func Parse(r io.Reader) (*Normalizer, error) {
	table := map[string][]string{}

	if err := yaml.NewDecoder(r).Decode(&table); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode operator aliases: %w", err)
	}

	return New(table), nil
}

// Load reads the alias table at path.
func Load(path string) (*Normalizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open operator aliases: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Len returns the number of known spellings.
func (n *Normalizer) Len() int {
	if n == nil {
		return 0
	}

	return len(n.canonical)
}

// Standardize returns the canonical operator name for value, or the trimmed
// value itself when it is unknown.
func (n *Normalizer) Standardize(value string) string {
	value = strings.TrimSpace(value)
	if n == nil || value == "" {
		return value
	}

	if name, ok := n.canonical[fold(value)]; ok {
		return name
	}

	return value
}

// Same reports whether two operator values name the same operator.
func (n *Normalizer) Same(a, b string) bool {
	return fold(n.Standardize(a)) == fold(n.Standardize(b))
}

// fold lowercases, strips diacritics and collapses blanks.
func fold(s string) string {
	s = strings.ToLower(unidecode.Unidecode(strings.TrimSpace(s)))

	return strings.Join(strings.Fields(s), " ")
}
