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

package osmgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"

	"m4o.io/stopmatch/internal/operator"
	"m4o.io/stopmatch/internal/source"
	"m4o.io/stopmatch/model"
)

// ErrUnknownFormat is returned for files that are neither OSM XML nor PBF.
var ErrUnknownFormat = errors.New("unknown OSM file format")

// Format is an enumeration of OSM encodings.
type Format int

const (
	XML Format = iota
	PBF
)

// FormatOf derives the encoding from a file name, ignoring any compression
// extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(source.Trim(path))) {
	case ".osm", ".xml":
		return XML, nil
	case ".pbf":
		return PBF, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// loaderOptions provides optional configuration parameters for loading.
type loaderOptions struct {
	normalizer *operator.Normalizer
	logger     *slog.Logger
	nCPU       int
}

// Option configures the loader.
type Option func(*loaderOptions)

// WithNormalizer sets the operator normalizer applied to operator tags.
func WithNormalizer(n *operator.Normalizer) Option {
	return func(o *loaderOptions) {
		o.normalizer = n
	}
}

// WithLogger sets the logger used for skipped elements and statistics.
func WithLogger(l *slog.Logger) Option {
	return func(o *loaderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNCpus sets the number of goroutines used to decode PBF blocks.
func WithNCpus(n int) Option {
	return func(o *loaderOptions) {
		o.nCPU = max(n, 1)
	}
}

func defaultLoaderOptions() loaderOptions {
	return loaderOptions{
		logger: slog.Default(),
		nCPU:   max(runtime.GOMAXPROCS(-1)-1, 1),
	}
}

// scanner is the common surface of the XML and PBF scanners.
type scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

// Load reads and indexes the OSM file at path. Any parse failure is fatal.
func Load(ctx context.Context, path string, opts ...Option) (*Graph, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	in, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open OSM file: %w", err)
	}
	defer in.Close()

	return Decode(ctx, in, format, opts...)
}

// Decode reads and indexes an OSM stream in the given format.
func Decode(ctx context.Context, r io.Reader, format Format, opts ...Option) (*Graph, error) {
	cfg := defaultLoaderOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	var sc scanner

	switch format {
	case XML:
		sc = osmxml.New(ctx, r)
	case PBF:
		pbf := osmpbf.New(ctx, r, cfg.nCPU)
		pbf.SkipWays = true
		sc = pbf
	default:
		return nil, ErrUnknownFormat
	}
	defer sc.Close()

	g := NewGraph()

	var (
		routes  [][]model.NodeID
		skipped int
	)

	for sc.Scan() {
		switch v := sc.Object().(type) {
		case *osm.Node:
			n, err := convertNode(v, cfg.normalizer)
			if err != nil {
				skipped++
				cfg.logger.Warn("skipping OSM node", "node", int64(v.ID), "error", err)

				continue
			}

			if n != nil {
				g.Add(n)
			}
		case *osm.Relation:
			if v.Tags.Find("type") != "route" {
				continue
			}

			members := make([]model.NodeID, 0, len(v.Members))
			for _, m := range v.Members {
				if m.Type == osm.TypeNode {
					members = append(members, model.NodeID(m.Ref))
				}
			}

			routes = append(routes, members)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse OSM data: %w", err)
	}

	// relations may precede their member nodes in the stream
	for _, members := range routes {
		g.AddRoute(members)
	}

	cfg.logger.Info("loaded OSM graph",
		"nodes", len(g.Nodes),
		"uic_refs", len(g.ByUIC),
		"names", len(g.ByName),
		"routes", g.Routes,
		"skipped", skipped,
		"bounds", g.Bounds.String())

	return g, nil
}

// convertNode maps an OSM node onto the matcher's node type. Untagged nodes
// only carry way geometry and are dropped by returning nil.
func convertNode(v *osm.Node, normalizer *operator.Normalizer) (*model.OsmNode, error) {
	if len(v.Tags) == 0 {
		return nil, nil
	}

	pos := model.Coordinate{Lat: model.Degrees(v.Lat), Lon: model.Degrees(v.Lon)}
	if !pos.Valid() {
		return nil, fmt.Errorf("invalid coordinate %s", pos)
	}

	n := &model.OsmNode{
		ID:  model.NodeID(v.ID),
		Lat: pos.Lat,
		Lon: pos.Lon,
	}

	var ref string

	for _, tag := range v.Tags {
		value := strings.TrimSpace(tag.Value)

		switch tag.Key {
		case "uic_ref":
			n.Tags.UICRef = value
		case "local_ref":
			n.Tags.LocalRef = value
		case "ref":
			ref = value
		case "name":
			n.Tags.Name = value
		case "uic_name":
			n.Tags.UICName = value
		case "gtfs:name":
			n.Tags.GTFSName = value
		case "public_transport":
			n.Tags.PublicTransport = value
		case "railway":
			n.Tags.Railway = value
		case "amenity":
			n.Tags.Amenity = value
		case "aerialway":
			n.Tags.Aerialway = value
		case "highway":
			n.Tags.Highway = value
		case "network":
			n.Tags.Network = value
		case "operator":
			n.Tags.Operator = value
		default:
			if n.Tags.Extra == nil {
				n.Tags.Extra = map[string]string{}
			}

			n.Tags.Extra[tag.Key] = value
		}
	}

	if n.Tags.LocalRef == "" {
		n.Tags.LocalRef = ref
	}

	if n.Tags.Operator != "" {
		if std := normalizer.Standardize(n.Tags.Operator); std != n.Tags.Operator {
			n.OriginalOperator = n.Tags.Operator
			n.Tags.Operator = std
		}
	}

	return n, nil
}
