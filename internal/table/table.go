// Package table reads and writes the comma-delimited stage artifacts. Every
// write produces a complete snapshot: rows go to a temporary file in the
// target directory, which is renamed over the destination only after a
// successful flush.
package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dimchansky/utfbom"

	"github.com/gyeh/glpstats/internal/normalize"
)

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// DateLayout is the service-date format of written artifacts.
const DateLayout = "2006-01-02"

// Write writes header and n records produced by rec to path atomically.
func Write(path string, header []string, n int, rec func(i int) []string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriterSize(tmp, 256*1024)
	w := csv.NewWriter(bw)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(rec(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// Reader streams an artifact's rows with columns resolved by header name.
type Reader struct {
	path  string
	f     *os.File
	r     *csv.Reader
	index map[string]int
	row   []string
	line  int
}

// Open opens an artifact and reads its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	r := csv.NewReader(bufio.NewReaderSize(utfbom.SkipOnly(f), 256*1024))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	return &Reader{path: path, f: f, r: r, index: index, line: 1}, nil
}

// Close releases the file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Has reports whether the artifact has column col.
func (r *Reader) Has(col string) bool {
	_, ok := r.index[col]
	return ok
}

// Require fails unless every column is present.
func (r *Reader) Require(cols ...string) error {
	for _, c := range cols {
		if !r.Has(c) {
			return fmt.Errorf("%s: required column %q not found", r.path, c)
		}
	}
	return nil
}

// Next advances to the next row; it returns io.EOF after the last row.
func (r *Reader) Next() error {
	row, err := r.r.Read()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("%s: %w", r.path, err)
	}
	r.line++
	r.row = row
	return nil
}

// Get returns the current row's value for col, "" when absent.
func (r *Reader) Get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.row) {
		return ""
	}
	return r.row[i]
}

// Line is the 1-based line number of the current row.
func (r *Reader) Line() int {
	return r.line
}

// ReadAll opens path and decodes every row with parse.
func ReadAll[T any](path string, required []string, parse func(r *Reader) (T, error)) ([]T, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if err := r.Require(required...); err != nil {
		return nil, err
	}
	var out []T
	for {
		if err := r.Next(); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		v, err := parse(r)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, r.Line(), err)
		}
		out = append(out, v)
	}
}

func requireInt(r *Reader, col string) (int, error) {
	v := normalize.OptInt(r.Get(col))
	if v == nil {
		return 0, fmt.Errorf("invalid %s %q", col, r.Get(col))
	}
	return *v, nil
}

func requireDate(r *Reader, col string) (time.Time, error) {
	v := normalize.ParseDate(r.Get(col))
	if v == nil {
		return time.Time{}, fmt.Errorf("invalid %s %q", col, r.Get(col))
	}
	return *v, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		return true
	}
	return false
}
