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

// Package atlas reads the national stop registry export.
package atlas

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"m4o.io/stopmatch/internal/source"
	"m4o.io/stopmatch/model"
)

// Column names of the registry export.
const (
	ColSloid               = "sloid"
	ColNumber              = "number"
	ColDesignation         = "designation"
	ColDesignationOfficial = "designationOfficial"
	ColOperator            = "servicePointBusinessOrganisationAbbreviationEn"
	ColLatitude            = "wgs84North"
	ColLongitude           = "wgs84East"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

var required = []string{ColSloid, ColNumber, ColDesignation, ColDesignationOfficial, ColOperator, ColLatitude, ColLongitude}

// Snapshot is the parsed registry: valid stops in file order, and the rows
// that were rejected.
type Snapshot struct {
	Stops   []model.AtlasStop
	Invalid []model.InvalidRow
}

// Load reads the semicolon separated export at path.
func Load(path string, logger *slog.Logger) (*Snapshot, error) {
	in, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ATLAS file: %w", err)
	}
	defer in.Close()

	return Read(in, logger)
}

// Read parses a semicolon separated export. Structural problems (no header,
// missing columns, broken quoting) are fatal; bad values only reject the
// affected row.
func Read(r io.Reader, logger *slog.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read ATLAS header: %w", err)
	}

	col := map[string]int{}
	for i, h := range head {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w %q in ATLAS header", ErrMissingColumn, name)
		}
	}

	snap := &Snapshot{}
	seen := map[string]bool{}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read ATLAS row %d: %w", line, err)
		}

		get := func(name string) string {
			if i := col[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}

			return ""
		}

		stop, invalid := parseRow(line, get, logger)
		if invalid == nil && seen[stop.Sloid] {
			invalid = &model.InvalidRow{Line: line, Sloid: stop.Sloid, Reason: "duplicate sloid"}
		}

		if invalid != nil {
			logger.Warn("skipping ATLAS row", "line", invalid.Line, "sloid", invalid.Sloid, "reason", invalid.Reason)
			snap.Invalid = append(snap.Invalid, *invalid)

			continue
		}

		seen[stop.Sloid] = true
		snap.Stops = append(snap.Stops, stop)
	}

	logger.Info("loaded ATLAS stops", "stops", len(snap.Stops), "invalid", len(snap.Invalid))

	return snap, nil
}

func parseRow(line int, get func(string) string, logger *slog.Logger) (model.AtlasStop, *model.InvalidRow) {
	stop := model.AtlasStop{
		Sloid:               get(ColSloid),
		Designation:         get(ColDesignation),
		DesignationOfficial: get(ColDesignationOfficial),
		Operator:            get(ColOperator),
	}

	if stop.Sloid == "" {
		return stop, &model.InvalidRow{Line: line, Reason: "missing sloid"}
	}

	lat, err := model.ParseLatitude(get(ColLatitude))
	if err != nil {
		return stop, &model.InvalidRow{Line: line, Sloid: stop.Sloid, Reason: "invalid latitude: " + err.Error()}
	}

	lon, err := model.ParseLongitude(get(ColLongitude))
	if err != nil {
		return stop, &model.InvalidRow{Line: line, Sloid: stop.Sloid, Reason: "invalid longitude: " + err.Error()}
	}

	stop.Lat, stop.Lon = lat, lon

	number, ok := NormalizeNumber(get(ColNumber))
	if !ok {
		// the stop stays usable for the spatial stages
		logger.Warn("ignoring invalid station number", "line", line, "sloid", stop.Sloid, "number", get(ColNumber))
	}

	stop.Number = number

	return stop, nil
}

// NormalizeNumber cleans a station number. Spreadsheet exports sometimes
// render it as "8500010.0". The second result is false when the value is
// present but not numeric, in which case the number is dropped.
func NormalizeNumber(s string) (string, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".0")
	if s == "" {
		return "", true
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}

	return s, true
}
