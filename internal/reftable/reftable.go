// Package reftable loads the comma-delimited reference tables: code lists,
// zip mappings, zip demographics, state population estimates and RUCA
// codes. Every table has a header row; a leading byte order mark is
// ignored.
package reftable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/go-gota/gota/dataframe"

	"github.com/gyeh/glpstats/internal/geo"
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/normalize"
	"github.com/gyeh/glpstats/internal/rural"
)

// Table is a string-typed reference table.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Read loads the table at path.
func Read(path string) (*Table, error) {
	return read(path, 0)
}

// read loads a table after discarding skip leading description lines.
func read(path string, skip int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference table: %w", err)
	}
	defer f.Close()

	var r io.Reader = utfbom.SkipOnly(f)
	if skip > 0 {
		br := bufio.NewReader(r)
		for i := 0; i < skip; i++ {
			if _, err := br.ReadString('\n'); err != nil {
				return nil, fmt.Errorf("%s: skip description line: %w", path, err)
			}
		}
		r = br
	}

	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return nil, fmt.Errorf("%s: %w", path, df.Err)
	}
	records := df.Records()
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no header", path)
	}

	t := &Table{Path: path, Header: records[0], Rows: records[1:], index: make(map[string]int, len(records[0]))}
	for i, h := range t.Header {
		t.index[strings.TrimSpace(h)] = i
	}
	return t, nil
}

// Require resolves column positions, failing on the first absent column.
func (t *Table) Require(cols ...string) ([]int, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("%s: required column %q not found", t.Path, c)
		}
		idx[i] = j
	}
	return idx, nil
}

// Optional resolves a column position, -1 when absent.
func (t *Table) Optional(col string) int {
	if j, ok := t.index[col]; ok {
		return j
	}
	return -1
}

// CodeList loads a diagnosis code list from its "code" column.
func CodeList(path string) (model.CodeSet, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	idx, err := t.Require("code")
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		codes = append(codes, row[idx[0]])
	}
	set := model.NewCodeSet(codes...)
	if len(set) == 0 {
		return nil, fmt.Errorf("%s: no codes", path)
	}
	return set, nil
}

// NDCList loads drug codes from a comma-separated text list; codes may be
// quoted and span lines.
func NDCList(path string) (model.CodeSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open NDC list: %w", err)
	}
	defer f.Close()
	b, err := io.ReadAll(utfbom.SkipOnly(f))
	if err != nil {
		return nil, fmt.Errorf("read NDC list: %w", err)
	}
	text := string(b)
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' })
	codes := make([]string, 0, len(fields))
	for _, field := range fields {
		codes = append(codes, strings.Trim(field, "'\" \t"))
	}
	set := model.NewCodeSet(codes...)
	if len(set) == 0 {
		return nil, fmt.Errorf("%s: no codes", path)
	}
	return set, nil
}

// ZipMap loads the zip3 to weighted zip mapping in file order.
func ZipMap(path string) (*geo.ZipMap, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	idx, err := t.Require("zip3", "weighted_zip")
	if err != nil {
		return nil, err
	}
	pairs := make([]geo.ZipPair, 0, len(t.Rows))
	for _, row := range t.Rows {
		z3, wz := normalize.OptStr(row[idx[0]]), normalize.OptStr(row[idx[1]])
		if z3 == nil || wz == nil {
			continue
		}
		pairs = append(pairs, geo.ZipPair{Zip3: *z3, WeightedZip: *wz})
	}
	return geo.NewZipMap(pairs), nil
}

// Zips loads the zip demographics table. Only zip is required; state,
// county and neighborhood columns are read when present.
func Zips(path string) (geo.ZipTable, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	idx, err := t.Require("zip")
	if err != nil {
		return nil, err
	}
	state, county := t.Optional("state_id"), t.Optional("county_fips")
	attrs := make([]int, len(model.NeighborhoodFields))
	for i, f := range model.NeighborhoodFields {
		attrs[i] = t.Optional(f.Column)
	}

	records := make([]model.ZipRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := model.ZipRecord{Zip: normalize.Zip5(row[idx[0]])}
		if rec.Zip == "" {
			continue
		}
		if state >= 0 {
			rec.State = normalize.State(row[state])
		}
		if county >= 0 {
			if c := normalize.OptStr(row[county]); c != nil {
				v := normalize.CountyFIPS(*c)
				rec.CountyFIPS = &v
			}
		}
		for i, f := range model.NeighborhoodFields {
			if attrs[i] >= 0 {
				*f.Ptr(&rec.Neighborhood) = normalize.OptFloat(row[attrs[i]])
			}
		}
		records = append(records, rec)
	}
	return geo.NewZipTable(records), nil
}

// StatePopulation loads population estimates keyed by (year, state). Rows
// with an unparseable year or population are skipped.
func StatePopulation(path string) ([]model.StateCount, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	idx, err := t.Require("state_abbrev", "year", "population")
	if err != nil {
		return nil, err
	}
	out := make([]model.StateCount, 0, len(t.Rows))
	for _, row := range t.Rows {
		st := normalize.State(row[idx[0]])
		year := normalize.OptInt(row[idx[1]])
		pop := normalize.OptInt64(row[idx[2]])
		if st == nil || year == nil || pop == nil {
			continue
		}
		out = append(out, model.StateCount{Year: *year, State: *st, Count: *pop})
	}
	return out, nil
}

// ErrNoTracts is returned for a RUCA file with no usable tract rows.
var ErrNoTracts = errors.New("no RUCA tracts")

// RUCA loads the tract-level RUCA file, whose first line is a description
// above the header, and returns the modal description per county.
func RUCA(path string) (map[string]string, error) {
	t, err := read(path, 1)
	if err != nil {
		return nil, err
	}
	idx, err := t.Require("CountyFIPS20", "PrimaryRUCADescription")
	if err != nil {
		return nil, err
	}
	tracts := make([]rural.Tract, 0, len(t.Rows))
	for _, row := range t.Rows {
		c, d := normalize.OptStr(row[idx[0]]), normalize.OptStr(row[idx[1]])
		if c == nil || d == nil {
			continue
		}
		tracts = append(tracts, rural.Tract{CountyFIPS: *c, Description: *d})
	}
	if len(tracts) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTracts)
	}
	return rural.CountyModes(tracts), nil
}
