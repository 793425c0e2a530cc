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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/stopmatch/model"
)

const header = "sloid;number;designation;designationOfficial;servicePointBusinessOrganisationAbbreviationEn;wgs84North;wgs84East\n"

func TestRead(t *testing.T) {
	data := "\ufeff" + header +
		"ch:1:sloid:10:1;8500010;1;Genève;SBB;46.2100;6.1420\n" +
		"ch:1:sloid:10:2;8500010.0;2;Genève;SBB;46.2101;6.1421\n" +
		"ch:1:sloid:11:1;;;Bern, Bahnhof;BERNMOBIL;46,9480;7,4390\n" +
		"ch:1:sloid:12:1;85x;A;Zürich;VBZ;47.3780;8.5400\n"

	snap, err := Read(strings.NewReader(data), nil)
	require.NoError(t, err)
	require.Len(t, snap.Stops, 4)
	assert.Empty(t, snap.Invalid)

	s := snap.Stops[0]
	assert.Equal(t, "ch:1:sloid:10:1", s.Sloid)
	assert.Equal(t, "8500010", s.Number)
	assert.Equal(t, "1", s.Designation)
	assert.Equal(t, "Genève", s.DesignationOfficial)
	assert.Equal(t, "SBB", s.Operator)
	assert.True(t, s.Lat.EqualWithin(46.21, model.E7))

	assert.Equal(t, "8500010", snap.Stops[1].Number)
	assert.True(t, snap.Stops[2].Lon.EqualWithin(7.439, model.E7))
	assert.Empty(t, snap.Stops[3].Number, "non-numeric numbers are dropped")
}

func TestReadInvalidRows(t *testing.T) {
	data := header +
		";8500010;1;Genève;SBB;46.21;6.142\n" +
		"ch:1:sloid:1;8500010;1;Genève;SBB;;6.142\n" +
		"ch:1:sloid:2;8500010;1;Genève;SBB;46.21;east\n" +
		"ch:1:sloid:3;8500010;1;Genève;SBB;146.21;6.142\n" +
		"ch:1:sloid:4;8500010;1;Genève;SBB;46.21;6.142\n" +
		"ch:1:sloid:4;8500010;1;Genève;SBB;46.21;6.142\n"

	snap, err := Read(strings.NewReader(data), nil)
	require.NoError(t, err)
	require.Len(t, snap.Stops, 1)
	require.Len(t, snap.Invalid, 5)

	assert.Equal(t, 2, snap.Invalid[0].Line)
	assert.Equal(t, "missing sloid", snap.Invalid[0].Reason)
	assert.Contains(t, snap.Invalid[1].Reason, "latitude")
	assert.Contains(t, snap.Invalid[2].Reason, "longitude")
	assert.Contains(t, snap.Invalid[3].Reason, "out of range")
	assert.Equal(t, "duplicate sloid", snap.Invalid[4].Reason)
	assert.Contains(t, snap.Invalid[4].Error(), "ch:1:sloid:4")
}

func TestReadMissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("sloid;number\nx;1\n"), nil)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""), nil)
	assert.Error(t, err)
}

func TestNormalizeNumber(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
		ok       bool
	}{
		{"8500010", "8500010", true},
		{" 8500010.0 ", "8500010", true},
		{"", "", true},
		{"85-00", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			n, ok := NormalizeNumber(tc.in)
			assert.Equal(t, tc.expected, n)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestDuplicateGroups(t *testing.T) {
	stops := []model.AtlasStop{
		{Sloid: "a", Number: "2", Designation: "1"},
		{Sloid: "b", Number: "1", Designation: "1"},
		{Sloid: "c", Number: "2", Designation: "1"},
		{Sloid: "d", Number: "1", Designation: "1"},
		{Sloid: "e", Number: "1", Designation: "2"},
		{Sloid: "f", Number: "3", Designation: ""},
		{Sloid: "g", Number: "3", Designation: ""},
		{Sloid: "h", Number: "1", Designation: "1"},
	}

	groups := DuplicateGroups(stops)
	require.Len(t, groups, 2)
	assert.Equal(t, DuplicateGroup{Number: "1", Designation: "1", Sloids: []string{"b", "d", "h"}}, groups[0])
	assert.Equal(t, DuplicateGroup{Number: "2", Designation: "1", Sloids: []string{"a", "c"}}, groups[1])

	m := DuplicateMap(groups)
	assert.Equal(t, []string{"d", "h"}, m["b"])
	assert.Equal(t, []string{"a"}, m["c"])
	assert.NotContains(t, m, "e")
	assert.NotContains(t, m, "f")
}
