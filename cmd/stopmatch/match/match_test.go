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

package match

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/stopmatch"
	"m4o.io/stopmatch/internal/config"
	"m4o.io/stopmatch/internal/store"
	"m4o.io/stopmatch/model"
)

const stops = `sloid;number;designation;designationOfficial;servicePointBusinessOrganisationAbbreviationEn;wgs84North;wgs84East
ch:1:sloid:7000:1;8507000;A;Bern;SBB;46.94890;7.43910
ch:1:sloid:7000:2;8507000;B;Bern;SBB;46.94880;7.43950
`

const nodes = `<osm version="0.6">
  <node id="11" lat="46.94891" lon="7.43911"><tag k="uic_ref" v="8507000"/><tag k="local_ref" v="A"/></node>
  <node id="12" lat="46.94881" lon="7.43951"><tag k="uic_ref" v="8507000"/><tag k="local_ref" v="B"/></node>
  <node id="13" lat="46.94900" lon="7.43930"><tag k="uic_ref" v="8507000"/><tag k="railway" v="station"/></node>
</osm>`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeInputs(t *testing.T) (dir string, cfg *config.Config) {
	t.Helper()

	dir = t.TempDir()

	atlasPath := filepath.Join(dir, "stops.csv")
	osmPath := filepath.Join(dir, "nodes.osm")
	require.NoError(t, os.WriteFile(atlasPath, []byte(stops), 0o600))
	require.NoError(t, os.WriteFile(osmPath, []byte(nodes), 0o600))

	cfg = config.Default()
	cfg.Inputs.Atlas = atlasPath
	cfg.Inputs.OSM = osmPath
	cfg.Matching.Workers = 2

	return dir, cfg
}

func TestRunMatch(t *testing.T) {
	dir, cfg := writeInputs(t)
	cfg.Output.JSON = filepath.Join(dir, "result.json")
	cfg.Output.SQLite = filepath.Join(dir, "result.db")

	res, err := runMatch(context.Background(), cfg, discard())
	require.NoError(t, err)

	st := res.Stats()
	assert.Equal(t, 2, st.Matched)
	assert.Equal(t, 2, st.ByType[model.MatchExact])

	b, err := os.ReadFile(cfg.Output.JSON)
	require.NoError(t, err)

	var doc struct {
		RunID   string              `json:"run_id"`
		Matches []model.MatchRecord `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, res.RunID, doc.RunID)
	assert.Len(t, doc.Matches, 2)

	db, err := store.Open(context.Background(), cfg.Output.SQLite)
	require.NoError(t, err)
	defer db.Close()

	saved, err := db.Matches(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestRunMatchOverrides(t *testing.T) {
	dir, cfg := writeInputs(t)
	cfg.Output.SQLite = filepath.Join(dir, "overrides.db")

	db, err := store.Open(context.Background(), cfg.Output.SQLite)
	require.NoError(t, err)
	require.NoError(t, db.AddOverride(context.Background(), model.Override{Sloid: "ch:1:sloid:7000:1", NodeID: 11}))
	require.NoError(t, db.Close())

	res, err := runMatch(context.Background(), cfg, discard())
	require.NoError(t, err)

	types := map[string]model.MatchType{}
	for _, m := range res.Matches {
		types[m.Sloid] = m.Type
	}

	assert.Equal(t, map[string]model.MatchType{
		"ch:1:sloid:7000:1": model.MatchManual,
		"ch:1:sloid:7000:2": model.MatchExact,
	}, types)
}

func TestRunMatchMissingInput(t *testing.T) {
	_, cfg := writeInputs(t)
	cfg.Inputs.OSM = filepath.Join(t.TempDir(), "missing.osm")

	_, err := runMatch(context.Background(), cfg, discard())
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir, _ := writeInputs(t)

	path := filepath.Join(dir, "stopmatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
inputs:
  atlas: stops.csv
  osm: nodes.osm
matching:
  max_distance: 40
  workers: 3
`), 0o600))

	flags := pflag.NewFlagSet("match", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.Float64("max-distance", 0, "")
	flags.IntP("workers", "w", 0, "")
	flags.StringP("output", "o", "", "")
	require.NoError(t, flags.Parse([]string{"--config", path, "--max-distance", "25", "-o", "out.json"}))

	cfg, err := loadConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, "stops.csv", cfg.Inputs.Atlas)
	assert.Equal(t, 25.0, cfg.Matching.MaxDistance)
	assert.Equal(t, 3, cfg.Matching.Workers)
	assert.Equal(t, "out.json", cfg.Output.JSON)
}

func TestLoadConfigInvalid(t *testing.T) {
	flags := pflag.NewFlagSet("match", pflag.ContinueOnError)
	flags.String("config", "", "")
	require.NoError(t, flags.Parse(nil))

	_, err := loadConfig(flags)
	assert.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	buf := new(bytes.Buffer)

	saved := out
	out = buf
	defer func() { out = saved }()

	renderSummary(stopmatch.Stats{
		Stops:        1500,
		Matched:      1234,
		Nodes:        2000,
		MatchedNodes: 1200,
		ByType: map[model.MatchType]int{
			model.MatchExact:          1000,
			model.MatchName:           200,
			model.MatchDistanceSingle: 20,
			model.MatchDistanceRatio:  14,
		},
	})

	txt := buf.String()
	assert.Contains(t, txt, "exact")
	assert.Contains(t, txt, "distance_matching_3a")

	// rows are grouped by method: distance before exact before name
	assert.Less(t, strings.Index(txt, "distance_matching_3b"), strings.Index(txt, "1,000"))
	assert.Less(t, strings.Index(txt, "1,000"), strings.Index(txt, "200"))
	assert.Contains(t, txt, "1,000")
	assert.Contains(t, txt, "1,234 / 1,500")
	assert.Contains(t, txt, "1,200 / 2,000")
}
