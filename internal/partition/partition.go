// Package partition reads directories of headerless, pipe-delimited partition
// files. Each partition is scanned independently; a malformed partition is
// skipped without affecting the others.
package partition

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/exascience/pargo/parallel"
	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/schema"
)

var (
	// ErrMissingInput marks an absent partition directory or file.
	ErrMissingInput = errors.New("input not found")
	// ErrMalformed marks a partition that cannot be read against its layout.
	ErrMalformed = errors.New("malformed partition")
)

// MalformedError describes why a partition was rejected.
type MalformedError struct {
	Partition string
	Line      int64
	Reason    string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s line %d: %s", filepath.Base(e.Partition), e.Line, e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// Malformed builds a MalformedError; row visitors return it to reject the
// partition they are reading.
func Malformed(reason string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(reason, args...)}
}

// Extension is the suffix of partition files.
const Extension = ".csv"

// List returns the partition files of dir in name order.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, dir)
		}
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Visitor receives one row truncated to the layout width. The slice is
// reused between calls and must not be retained.
type Visitor func(row []string) error

// Scan streams one partition through visit. Rows wider than the layout are
// truncated to its prefix; a narrower row rejects the whole partition.
// Returns the number of rows read.
func Scan(path string, layout *schema.Layout, visit Visitor) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return 0, fmt.Errorf("open partition: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReaderSize(f, 256*1024))
	r.Comma = '|'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	width := layout.Width()
	var line int64
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return line, nil
		}
		line++
		if err != nil {
			return line, &MalformedError{Partition: path, Line: line, Reason: err.Error()}
		}
		if len(rec) < width {
			return line, &MalformedError{
				Partition: path,
				Line:      line,
				Reason:    fmt.Sprintf("has %d columns, layout %s expects %d", len(rec), layout.Name, width),
			}
		}
		if err := visit(rec[:width]); err != nil {
			var me *MalformedError
			if errors.As(err, &me) {
				me.Partition, me.Line = path, line
				return line, me
			}
			return line, err
		}
	}
}

// Stats summarizes a directory scan.
type Stats struct {
	Partitions int
	Skipped    int
	RowsRead   int64
	RowsKept   int64
	Duration   time.Duration
}

type partResult[T any] struct {
	rows []T
	read int64
	err  error
}

// Collect scans every partition of dir in parallel and concatenates, in
// partition order, the values keep returns with ok set. keep runs once per
// row and may reject the partition by returning Malformed. Malformed
// partitions are logged and skipped; any other partition error is returned.
// A missing directory returns an error wrapping ErrMissingInput.
func Collect[T any](ctx context.Context, log zerolog.Logger, dir string, layout *schema.Layout,
	keep func(row []string) (T, bool, error)) ([]T, Stats, error) {
	start := time.Now()

	files, err := List(dir)
	if err != nil {
		return nil, Stats{}, err
	}

	results := make([]partResult[T], len(files))
	if len(files) > 0 {
		parallel.Range(0, len(files), 0, func(low, high int) {
			for i := low; i < high; i++ {
				if err := ctx.Err(); err != nil {
					results[i].err = err
					continue
				}
				var kept []T
				n, err := Scan(files[i], layout, func(row []string) error {
					v, ok, err := keep(row)
					if err != nil {
						return err
					}
					if ok {
						kept = append(kept, v)
					}
					return nil
				})
				results[i] = partResult[T]{rows: kept, read: n, err: err}
			}
		})
	}

	stats := Stats{Partitions: len(files)}
	var out []T
	for i, res := range results {
		if res.err != nil {
			if errors.Is(res.err, ErrMalformed) {
				stats.Skipped++
				log.Warn().Str("partition", filepath.Base(files[i])).Str("reason", res.err.Error()).Msg("skipping malformed partition")
				continue
			}
			return nil, stats, fmt.Errorf("scan %s: %w", filepath.Base(files[i]), res.err)
		}
		stats.RowsRead += res.read
		stats.RowsKept += int64(len(res.rows))
		out = append(out, res.rows...)
	}
	stats.Duration = time.Since(start)

	log.Debug().
		Str("dir", dir).
		Int("partitions", stats.Partitions).
		Int("skipped", stats.Skipped).
		Int64("rows_read", stats.RowsRead).
		Int64("rows_kept", stats.RowsKept).
		Str("duration", stats.Duration.String()).
		Msg("partition scan complete")

	return out, stats, nil
}
