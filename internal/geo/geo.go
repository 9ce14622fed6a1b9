// Package geo attaches a representative five-digit zip and its neighborhood
// attributes to patient-year rows through their three-digit postal prefix.
package geo

import (
	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/fill"
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/normalize"
)

// ZipPair is one row of the zip3 to weighted zip mapping.
type ZipPair struct {
	Zip3        string
	WeightedZip string
}

// ZipMap resolves a zip3 to its weighted zip. Keys are padded to 3 and
// values to 5 on insert.
type ZipMap struct {
	byZip3 map[string]string
	// Conflicts counts later rows that named a different zip for a zip3
	// already mapped. The first row wins.
	Conflicts int
}

// NewZipMap builds a map from pairs in file order.
func NewZipMap(pairs []ZipPair) *ZipMap {
	m := &ZipMap{byZip3: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		if normalize.IsMissing(p.Zip3) {
			continue
		}
		z3 := normalize.ZeroPad(p.Zip3, 3)
		wz := normalize.Zip5(p.WeightedZip)
		if wz == "" {
			continue
		}
		if cur, ok := m.byZip3[z3]; ok {
			if cur != wz {
				m.Conflicts++
			}
			continue
		}
		m.byZip3[z3] = wz
	}
	return m
}

// Len is the number of mapped prefixes.
func (m *ZipMap) Len() int {
	return len(m.byZip3)
}

// Lookup pads zip3 and returns its weighted zip.
func (m *ZipMap) Lookup(zip3 string) (string, bool) {
	wz, ok := m.byZip3[normalize.ZeroPad(zip3, 3)]
	return wz, ok
}

// ZipTable indexes zip-demographic records by padded zip.
type ZipTable map[string]model.ZipRecord

// NewZipTable indexes records; the first record per zip wins.
func NewZipTable(records []model.ZipRecord) ZipTable {
	t := make(ZipTable, len(records))
	for _, r := range records {
		z := normalize.Zip5(r.Zip)
		if z == "" {
			continue
		}
		if _, dup := t[z]; dup {
			continue
		}
		r.Zip = z
		t[z] = r
	}
	return t
}

// Lookup pads zip and returns its record.
func (t ZipTable) Lookup(zip string) (model.ZipRecord, bool) {
	r, ok := t[normalize.Zip5(zip)]
	return r, ok
}

// Report counts join outcomes.
type Report struct {
	Rows          int
	NoZip3        int
	UnmatchedZip3 int
	UnmatchedZip  int
	Enriched      int
}

// Enrich returns a copy of rows with weighted zip, county and neighborhood
// attributes attached. Joined values replace existing ones. A row that misses
// a join has the attributes that join supplies cleared to nil.
func Enrich(log zerolog.Logger, rows []model.PatientYear, zips *ZipMap, table ZipTable) ([]model.PatientYear, Report) {
	rep := Report{Rows: len(rows)}
	out := make([]model.PatientYear, len(rows))
	for i := range rows {
		out[i] = rows[i].Clone()
		r := &out[i]
		if r.Zip3 == nil || normalize.IsMissing(*r.Zip3) {
			rep.NoZip3++
			r.WeightedZip = nil
			clearAttributes(r)
			continue
		}
		wz, ok := zips.Lookup(*r.Zip3)
		if !ok {
			rep.UnmatchedZip3++
			r.WeightedZip = nil
			clearAttributes(r)
			continue
		}
		r.WeightedZip, _ = fill.Reconcile(r.WeightedZip, &wz, fill.NonNil[string], fill.PreferRight)

		rec, ok := table.Lookup(wz)
		if !ok {
			rep.UnmatchedZip++
			clearAttributes(r)
			continue
		}
		r.CountyFIPS, _ = fill.Reconcile(r.CountyFIPS, rec.CountyFIPS, fill.NonNil[string], fill.PreferRight)
		for _, f := range model.NeighborhoodFields {
			dst := f.Ptr(&r.Neighborhood)
			*dst, _ = fill.Reconcile(*dst, *f.Ptr(&rec.Neighborhood), fill.NonNil[float64], fill.PreferRight)
		}
		rep.Enriched++
	}

	log.Info().
		Int("rows", rep.Rows).
		Int("no_zip3", rep.NoZip3).
		Int("unmatched_zip3", rep.UnmatchedZip3).
		Int("unmatched_zip", rep.UnmatchedZip).
		Int("enriched", rep.Enriched).
		Int("zip_map_conflicts", zips.Conflicts).
		Msg("geographic enrichment complete")
	return out, rep
}

func clearAttributes(r *model.PatientYear) {
	r.CountyFIPS = nil
	r.Neighborhood = model.Neighborhood{}
}
