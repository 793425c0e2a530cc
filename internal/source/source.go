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

// Package source opens input files, transparently decompressing them based
// on their file extension.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// ErrUnknownCompression is returned by Wrap for an unsupported compression.
var ErrUnknownCompression = errors.New("unknown compression type")

// Compression is an enumeration of supported file compressions.
type Compression int

const (
	RAW Compression = iota
	GZIP
	ZSTD
	LZ4
	XZ
	LZMA
)

var extensions = map[string]Compression{
	".gz":   GZIP,
	".zst":  ZSTD,
	".zstd": ZSTD,
	".lz4":  LZ4,
	".xz":   XZ,
	".lzma": LZMA,
}

func (c Compression) String() string {
	switch c {
	case RAW:
		return "raw"
	case GZIP:
		return "gzip"
	case ZSTD:
		return "zstd"
	case LZ4:
		return "lz4"
	case XZ:
		return "xz"
	case LZMA:
		return "lzma"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// CompressionOf guesses the compression of a file from its name.
func CompressionOf(path string) Compression {
	if c, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}

	return RAW
}

// Trim removes a compression extension from path, so that "stops.csv.zst"
// becomes "stops.csv".
func Trim(path string) string {
	if CompressionOf(path) == RAW {
		return path
	}

	return strings.TrimSuffix(path, filepath.Ext(path))
}

// Open opens the file at path and decompresses it on the fly.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	rc, err := Wrap(f, CompressionOf(path))
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rc, nil
}

// Wrap returns a reader that decompresses r. Closing it closes r when r is
// an io.Closer.
func Wrap(r io.Reader, c Compression) (io.ReadCloser, error) {
	var (
		rdr     io.Reader
		release func()
	)

	switch c {
	case RAW:
		rdr = r
	case GZIP:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}

		rdr, release = zr, func() { _ = zr.Close() }
	case ZSTD:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}

		rdr, release = zr, zr.Close
	case LZ4:
		rdr = lz4.NewReader(r)
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}

		rdr = xr
	case LZMA:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("lzma reader: %w", err)
		}

		rdr = lr
	default:
		return nil, ErrUnknownCompression
	}

	return &readCloser{Reader: rdr, release: release, under: r}, nil
}

type readCloser struct {
	io.Reader
	release func()
	under   io.Reader
}

func (rc *readCloser) Close() error {
	if rc.release != nil {
		rc.release()
	}

	if c, ok := rc.under.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
