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

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// Interactive reports whether f is a terminal.
func Interactive(f *os.File) bool {
	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressReader reports how much of an OSM extract has been scanned. The
// count is taken before decompression, so it tracks the file on disk.
type progressReader struct {
	io.Reader
	file *os.File
	bar  *pb.ProgressBar
}

// WrapInputFile shows the progress of reading f on stderr. Loading a
// national extract takes a while and this is the only feedback until the
// graph is built. Without a terminal on stderr, or for stdin, f is returned
// untouched.
func WrapInputFile(f *os.File) (io.ReadCloser, error) {
	if f == os.Stdin || !Interactive(os.Stderr) {
		return f, nil
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Name(), err)
	}

	bar := pb.New64(fi.Size()).SetUnits(pb.U_BYTES_DEC)
	bar.Output = os.Stderr
	bar.ShowSpeed = true
	bar.Prefix(fi.Name() + " ")
	bar.Start()

	return &progressReader{
		Reader: bar.NewProxyReader(f),
		file:   f,
		bar:    bar,
	}, nil
}

// Close erases the bar so that the summary printed next starts on a clean
// line, then closes the file.
func (r *progressReader) Close() error {
	r.bar.NotPrint = true
	r.bar.Output = nil
	r.bar.Finish()

	fmt.Fprint(os.Stderr, "\033[2K\r")

	return r.file.Close()
}
