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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"m4o.io/stopmatch/internal/source"
	"m4o.io/stopmatch/model"
)

// ErrMissingColumn is returned when a table header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// LoadGTFS reads a GTFS per-stop route table
// (sloid, route_id, direction_id, route_short_name, route_long_name).
func LoadGTFS(path string) (map[string][]GTFSRoute, error) {
	return load(path, ReadGTFS)
}

// ReadGTFS parses a GTFS per-stop route table. Rows without a sloid or a
// route id are ignored.
func ReadGTFS(r io.Reader) (map[string][]GTFSRoute, error) {
	m := map[string][]GTFSRoute{}

	err := scan(r, []string{"sloid", "route_id", "direction_id"}, func(get getter) error {
		sloid := get("sloid")
		route := GTFSRoute{
			RouteID:     get("route_id"),
			DirectionID: get("direction_id"),
			ShortName:   get("route_short_name"),
			LongName:    get("route_long_name"),
		}

		if sloid != "" && route.RouteID != "" {
			m[sloid] = appendUnique(m[sloid], route)
		}

		return nil
	})

	return m, err
}

// LoadHRDF reads an HRDF per-stop direction table
// (sloid, line_name, direction_name, direction_uic).
func LoadHRDF(path string) (map[string][]HRDFRoute, error) {
	return load(path, ReadHRDF)
}

// ReadHRDF parses an HRDF per-stop direction table.
func ReadHRDF(r io.Reader) (map[string][]HRDFRoute, error) {
	m := map[string][]HRDFRoute{}

	err := scan(r, []string{"sloid", "line_name", "direction_name", "direction_uic"}, func(get getter) error {
		sloid := get("sloid")
		route := HRDFRoute{
			LineName:      get("line_name"),
			DirectionName: get("direction_name"),
			DirectionUIC:  get("direction_uic"),
		}

		if sloid != "" && (route.DirectionName != "" || route.DirectionUIC != "") {
			m[sloid] = appendUnique(m[sloid], route)
		}

		return nil
	})

	return m, err
}

// LoadOSM reads an OSM per-node route table
// (node_id, route_name, gtfs_route_id, direction_id, uic_ref).
func LoadOSM(path string) (map[model.NodeID][]OSMRoute, error) {
	return load(path, ReadOSM)
}

// ReadOSM parses an OSM per-node route table. A non-numeric node id is
// a malformed table.
func ReadOSM(r io.Reader) (map[model.NodeID][]OSMRoute, error) {
	m := map[model.NodeID][]OSMRoute{}

	err := scan(r, []string{"node_id", "gtfs_route_id", "direction_id"}, func(get getter) error {
		raw := get("node_id")
		if raw == "" {
			return nil
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("node_id %q: %w", raw, err)
		}

		route := OSMRoute{
			RouteName:   get("route_name"),
			GTFSRouteID: get("gtfs_route_id"),
			DirectionID: get("direction_id"),
			UICRef:      get("uic_ref"),
		}

		m[model.NodeID(id)] = appendUnique(m[model.NodeID(id)], route)

		return nil
	})

	return m, err
}

func load[K comparable, V any](path string, read func(io.Reader) (map[K][]V, error)) (map[K][]V, error) {
	in, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	return read(in)
}

type getter func(column string) string

// scan reads a comma separated table with a header line and calls row for
// every record.
func scan(r io.Reader, required []string, row func(get getter) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(head))
	for i, h := range head {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	for _, name := range required {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}

			return strings.TrimSpace(rec[i])
		}

		if err := row(get); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

func appendUnique[V comparable](s []V, v V) []V {
	for _, e := range s {
		if e == v {
			return s
		}
	}

	return append(s, v)
}
