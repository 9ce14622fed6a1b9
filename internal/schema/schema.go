// Package schema is the registry of ordered column layouts for the headerless
// partitioned datasets. Every stage that filters or joins raw partitions
// resolves its columns here instead of carrying its own list.
package schema

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Built-in dataset names.
const (
	EnrollDemographics = "enroll_demographics"
	EnrollPayer        = "enroll_payer"
)

// Claims column names resolved against each year's header.
const (
	ColPatientID   = "pat_id"
	ColServiceDate = "to_dt"
	ColNDC         = "ndc"
	ColDaysSupply  = "dayssup"
)

// DiagnosisColumn returns the name of the i-th (1-based) diagnosis column.
func DiagnosisColumn(i int) string {
	return "diag" + strconv.Itoa(i)
}

// Layout is an ordered column list applied positionally to a headerless file.
type Layout struct {
	Name    string
	Columns []string
	index   map[string]int
}

// NewLayout builds a layout; column names are trimmed.
func NewLayout(name string, columns []string) *Layout {
	l := &Layout{Name: name, Columns: make([]string, len(columns)), index: make(map[string]int, len(columns))}
	for i, c := range columns {
		c = strings.TrimSpace(c)
		l.Columns[i] = c
		if _, dup := l.index[c]; !dup {
			l.index[c] = i
		}
	}
	return l
}

// Width is the number of columns a partition row must have.
func (l *Layout) Width() int {
	return len(l.Columns)
}

// Index returns the position of a column.
func (l *Layout) Index(col string) (int, bool) {
	i, ok := l.index[col]
	return i, ok
}

// Require returns the positions of cols, failing on the first one absent.
func (l *Layout) Require(cols ...string) ([]int, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		p, ok := l.index[c]
		if !ok {
			return nil, fmt.Errorf("layout %s: missing column %q", l.Name, c)
		}
		idx[i] = p
	}
	return idx, nil
}

var builtins = map[string][]string{
	EnrollDemographics: {
		"der_sex", "der_yob", "pat_id", "pat_region", "pat_state", "pat_zip3",
		"grp_indv_cd", "mh_cd", "enr_rel",
	},
	EnrollPayer: {
		"pat_id", "mstr_enroll_cd", "prd_type", "pay_type", "pcob_type", "mcob_type", "month_id",
	},
}

// Registry holds the layouts of every dataset vintage.
type Registry struct {
	mu      sync.RWMutex
	layouts map[string]*Layout
}

// NewRegistry returns a registry preloaded with the enrollment layouts.
func NewRegistry() *Registry {
	r := &Registry{layouts: make(map[string]*Layout)}
	for name, cols := range builtins {
		r.layouts[name] = NewLayout(name, cols)
	}
	return r
}

// Register adds or replaces a layout.
func (r *Registry) Register(l *Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[l.Name] = l
}

// Lookup returns the named layout.
func (r *Registry) Lookup(name string) (*Layout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("no layout registered for %q", name)
	}
	return l, nil
}

// ClaimsName is the registry name of a claims vintage.
func ClaimsName(year int) string {
	return fmt.Sprintf("claims_%d", year)
}

// Claims returns the claims layout for a year.
func (r *Registry) Claims(year int) (*Layout, error) {
	return r.Lookup(ClaimsName(year))
}

// ClaimsYears lists the years with a registered claims layout, ascending.
func (r *Registry) ClaimsYears() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var years []int
	for name := range r.layouts {
		rest, ok := strings.CutPrefix(name, "claims_")
		if !ok {
			continue
		}
		if y, err := strconv.Atoi(rest); err == nil {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

var headerFile = regexp.MustCompile(`^header_claims_(\d{4})\.\w+$`)

// LoadClaimsHeaders registers a claims layout for every header_claims_<year>
// file in dir. Each file holds one pipe-separated line of column names.
// Returns the number of layouts registered.
func (r *Registry) LoadClaimsHeaders(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read header dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := headerFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		cols, err := readHeaderLine(filepath.Join(dir, e.Name()))
		if err != nil {
			return n, err
		}
		r.Register(NewLayout(ClaimsName(year), cols))
		n++
	}
	return n, nil
}

func readHeaderLine(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open header %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header %s: %w", path, err)
		}
		return nil, fmt.Errorf("header %s is empty", path)
	}
	line := strings.TrimPrefix(strings.TrimSpace(sc.Text()), "\ufeff")
	cols := strings.Split(line, "|")
	if len(cols) == 0 || (len(cols) == 1 && cols[0] == "") {
		return nil, fmt.Errorf("header %s has no columns", path)
	}
	return cols, nil
}
