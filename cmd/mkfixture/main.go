// mkfixture cuts a small, internally consistent fixture tree out of a full extract.
// Two-pass: first reservoir-samples patient IDs from one partition directory, then
// copies every row belonging to those patients from each listed directory.
// Usage: go run ./cmd/mkfixture --data /mnt/extract --out testdata/fixture --patients 500 \
//
//	claims_2020/csv_in_parts:0 enroll_synth/csv_in_parts:0 enroll2_2020/csv_in_parts:0
package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/valyala/fastrand"

	"github.com/gyeh/glpstats/internal/partition"
)

// source is a partition directory relative to --data and the column holding pat_id.
type source struct {
	dir   string
	idCol int
}

func parseSource(arg string) (source, error) {
	dir, col, ok := strings.Cut(arg, ":")
	if !ok {
		return source{dir: arg}, nil
	}
	n, err := strconv.Atoi(col)
	if err != nil || n < 0 {
		return source{}, fmt.Errorf("bad id column in %q", arg)
	}
	return source{dir: dir, idCol: n}, nil
}

func main() {
	data := flag.String("data", ".", "root of the full extract")
	out := flag.String("out", "testdata/fixture", "output fixture root")
	patients := flag.Int("patients", 200, "patients to sample")
	maxParts := flag.Int("parts", 0, "max partitions read per directory in pass 1 (0 = all)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: mkfixture [flags] dir[:idcol] ...")
		os.Exit(1)
	}
	var sources []source
	for _, arg := range flag.Args() {
		s, err := parseSource(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		sources = append(sources, s)
	}

	// Pass 1: reservoir-sample distinct patient IDs from the first source.
	first := sources[0]
	files, err := partition.List(filepath.Join(*data, first.dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "list %s: %v\n", first.dir, err)
		os.Exit(1)
	}
	if *maxParts > 0 && len(files) > *maxParts {
		files = files[:*maxParts]
	}
	seen := make(map[string]bool)
	sample := make([]string, 0, *patients)
	for _, f := range files {
		err := eachRow(f, func(rec []string) error {
			if first.idCol >= len(rec) {
				return nil
			}
			id := rec[first.idCol]
			if id == "" || seen[id] {
				return nil
			}
			seen[id] = true
			if len(sample) < *patients {
				sample = append(sample, id)
			} else if j := fastrand.Uint32n(uint32(len(seen))); int(j) < *patients {
				sample[j] = id
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan %s: %v\n", f, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Pass 1: %d distinct patients in %d partitions, sampled %d\n", len(seen), len(files), len(sample))

	keep := make(map[string]bool, len(sample))
	for _, id := range sample {
		keep[id] = true
	}

	// Pass 2: copy every row for the sampled patients, one output part per input part.
	for _, s := range sources {
		files, err := partition.List(filepath.Join(*data, s.dir))
		if err != nil {
			fmt.Fprintf(os.Stderr, "list %s: %v\n", s.dir, err)
			os.Exit(1)
		}
		dst := filepath.Join(*out, s.dir)
		if err := os.MkdirAll(dst, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", dst, err)
			os.Exit(1)
		}
		var total, parts int
		for _, f := range files {
			n, err := copyPart(f, filepath.Join(dst, filepath.Base(f)), s.idCol, keep)
			if err != nil {
				fmt.Fprintf(os.Stderr, "copy %s: %v\n", f, err)
				os.Exit(1)
			}
			if n > 0 {
				parts++
			}
			total += n
		}
		fmt.Printf("  %-40s %8d rows in %d partitions\n", s.dir, total, parts)
	}
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(bufio.NewReaderSize(r, 256*1024))
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func eachRow(path string, fn func([]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r := newReader(f)
	r.ReuseRecord = true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// copyPart writes the kept rows of src to dst. Nothing is written when no row matches.
func copyPart(src, dst string, idCol int, keep map[string]bool) (int, error) {
	var rows [][]string
	err := eachRow(src, func(rec []string) error {
		if idCol < len(rec) && keep[rec[idCol]] {
			rows = append(rows, append([]string(nil), rec...))
		}
		return nil
	})
	if err != nil || len(rows) == 0 {
		return 0, err
	}

	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	w := csv.NewWriter(f)
	w.Comma = '|'
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return 0, err
	}
	return len(rows), f.Close()
}
