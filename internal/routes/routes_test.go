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

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/stopmatch/model"
)

func TestNormalizeRouteID(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"91-15-E-j24-1", "91-15-E-jXX-1"},
		{"91-15-E-j25-1", "91-15-E-jXX-1"},
		{"91-15-E-jXX-1", "91-15-E-jXX-1"},
		{"92-7-j23-j24", "92-7-jXX-jXX"},
		{"91-15-E-j2-1", "91-15-E-j2-1"},
		{"91-15-E-j245-1", "91-15-E-j245-1"},
		{"91-15-E-j24", "91-15-E-jXX"},
		{"91-15-E-j24x", "91-15-E-jXXx"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			once := NormalizeRouteID(tc.in)
			assert.Equal(t, tc.expected, once)
			assert.Equal(t, once, NormalizeRouteID(once))
		})
	}
}

func TestTokenNormalized(t *testing.T) {
	a := Token{RouteID: "91-15-E-j24-1", DirectionID: "0"}
	b := Token{RouteID: "91-15-E-j25-1", DirectionID: "0"}

	assert.NotEqual(t, a, b)
	assert.Equal(t, a.Normalized(), b.Normalized())
	assert.Equal(t, "91-15-E-j24-1/0", a.String())
}

func TestReadGTFS(t *testing.T) {
	data := "sloid,route_id,direction_id,route_short_name,route_long_name\n" +
		"ch:1:sloid:10:1,91-15-E-j24-1,0,15,Bern - Thun\n" +
		"ch:1:sloid:10:1,91-15-E-j24-1,0,15,Bern - Thun\n" +
		"ch:1:sloid:10:1,91-15-E-j24-1,1,15,Thun - Bern\n" +
		",91-15-E-j24-1,1,15,Thun - Bern\n"

	m, err := ReadGTFS(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, m, 1)
	require.Len(t, m["ch:1:sloid:10:1"], 2)
	assert.Equal(t, "Bern - Thun", m["ch:1:sloid:10:1"][0].LongName)

	tables := &Tables{GTFS: m}
	assert.Equal(t, []Token{
		{RouteID: "91-15-E-j24-1", DirectionID: "0"},
		{RouteID: "91-15-E-j24-1", DirectionID: "1"},
	}, tables.GTFSTokens("ch:1:sloid:10:1"))
	assert.Empty(t, tables.GTFSTokens("unknown"))
}

func TestReadHRDF(t *testing.T) {
	data := "sloid,line_name,direction_name,direction_uic\n" +
		"ch:1:sloid:10:1,S1,Genève → Lausanne,8501008 → 8501120\n" +
		"ch:1:sloid:10:2,S1,,\n"

	m, err := ReadHRDF(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, m, 1)
	assert.Equal(t, HRDFRoute{
		LineName:      "S1",
		DirectionName: "Genève → Lausanne",
		DirectionUIC:  "8501008 → 8501120",
	}, m["ch:1:sloid:10:1"][0])
}

func TestReadOSM(t *testing.T) {
	data := "node_id,route_name,gtfs_route_id,direction_id,uic_ref\n" +
		"42,Bus 15,91-15-E-j25-1,0,8500010\n" +
		"42,Bus 16,,0,8500010\n"

	m, err := ReadOSM(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, m[model.NodeID(42)], 2)

	tables := &Tables{OSM: m}
	assert.Equal(t, []Token{{RouteID: "91-15-E-j25-1", DirectionID: "0"}}, tables.OSMTokens(42))
}

func TestReadMalformed(t *testing.T) {
	_, err := ReadOSM(strings.NewReader("node_id,gtfs_route_id,direction_id\nabc,1,0\n"))
	assert.Error(t, err)

	_, err = ReadGTFS(strings.NewReader("sloid,route\nx,1\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = ReadHRDF(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadAllDegrades(t *testing.T) {
	dir := t.TempDir()

	gtfs := filepath.Join(dir, "gtfs.csv")
	require.NoError(t, os.WriteFile(gtfs, []byte("sloid,route_id,direction_id\ns1,r1,0\n"), 0o600))

	broken := filepath.Join(dir, "osm.csv")
	require.NoError(t, os.WriteFile(broken, []byte("node_id,gtfs_route_id,direction_id\nx,r1,0\n"), 0o600))

	tables := LoadAll(Paths{
		GTFS: gtfs,
		HRDF: filepath.Join(dir, "missing.csv"),
		OSM:  broken,
	}, nil)

	assert.Len(t, tables.GTFS, 1)
	assert.NotNil(t, tables.HRDF)
	assert.Empty(t, tables.HRDF)
	assert.NotNil(t, tables.OSM)
	assert.Empty(t, tables.OSM)
}
