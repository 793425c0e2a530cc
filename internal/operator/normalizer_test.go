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

package operator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliases = `
SBB:
  - Schweizerische Bundesbahnen
  - SBB CFF FFS
TPG:
  - Transports publics genevois
`

func TestStandardize(t *testing.T) {
	n, err := Parse(strings.NewReader(aliases))
	require.NoError(t, err)

	testCases := []struct {
		in       string
		expected string
	}{
		{"Schweizerische Bundesbahnen", "SBB"},
		{"  schweizerische   bundesbahnen ", "SBB"},
		{"sbb cff ffs", "SBB"},
		{"sbb", "SBB"},
		{"Transports Publics Genevois", "TPG"},
		{"Tränsports publics genevois", "TPG"},
		{"PostAuto", "PostAuto"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, n.Standardize(tc.in))
		})
	}
}

func TestSame(t *testing.T) {
	n := New(map[string][]string{"SBB": {"Schweizerische Bundesbahnen"}})

	assert.True(t, n.Same("Schweizerische Bundesbahnen", "SBB"))
	assert.True(t, n.Same("postauto", "PostAuto"))
	assert.False(t, n.Same("BLS", "SBB"))
}

func TestNilNormalizer(t *testing.T) {
	var n *Normalizer

	assert.Equal(t, "BLS", n.Standardize(" BLS "))
	assert.Equal(t, 0, n.Len())
	assert.True(t, n.Same("bls", "BLS"))
}

func TestParseEmpty(t *testing.T) {
	n, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, n.Len())
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader("- just\n- a list\n"))
	assert.Error(t, err)
}
