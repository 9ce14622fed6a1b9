package partition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/schema"
)

func writePart(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

var testLayout = schema.NewLayout("test", []string{"pat_id", "value", "flag"})

func TestList_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writePart(t, dir, "part_002.csv", "")
	writePart(t, dir, "part_001.csv", "")
	writePart(t, dir, "notes.txt", "")
	os.Mkdir(filepath.Join(dir, "sub.csv"), 0755)

	files, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "part_001.csv" {
		t.Errorf("files not sorted: %v", files)
	}
}

func TestList_MissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestScan_TruncatesWideRows(t *testing.T) {
	dir := t.TempDir()
	writePart(t, dir, "p.csv", "A|1|x|extra|more\nB|2|y\n")

	var got []string
	n, err := Scan(filepath.Join(dir, "p.csv"), testLayout, func(row []string) error {
		if len(row) != 3 {
			t.Errorf("row width %d, want 3", len(row))
		}
		got = append(got, strings.Join(row, ","))
		return nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 2 {
		t.Errorf("rows read: got %d, want 2", n)
	}
	if got[0] != "A,1,x" || got[1] != "B,2,y" {
		t.Errorf("unexpected rows: %v", got)
	}
}

func TestScan_RejectsNarrowRows(t *testing.T) {
	dir := t.TempDir()
	writePart(t, dir, "p.csv", "A|1|x\nB|2\n")

	_, err := Scan(filepath.Join(dir, "p.csv"), testLayout, func([]string) error { return nil })
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	var me *MalformedError
	if !errors.As(err, &me) || me.Line != 2 {
		t.Errorf("expected malformed at line 2, got %v", err)
	}
}

func TestCollect_SkipsMalformedPartitions(t *testing.T) {
	dir := t.TempDir()
	writePart(t, dir, "a.csv", "P1|10|y\nP2|20|n\n")
	writePart(t, dir, "b.csv", "P3|30\n") // too few columns
	writePart(t, dir, "c.csv", "P4|bad|y\n")
	writePart(t, dir, "d.csv", "P5|50|y\n")

	keep := func(row []string) (string, bool, error) {
		if row[1] == "bad" {
			return "", false, Malformed("unparseable value %q", row[1])
		}
		return row[0], row[2] == "y", nil
	}

	got, stats, err := Collect(context.Background(), zerolog.Nop(), dir, testLayout, keep)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.Partitions != 4 || stats.Skipped != 2 {
		t.Errorf("stats: %+v", stats)
	}
	if len(got) != 2 || got[0] != "P1" || got[1] != "P5" {
		t.Errorf("kept rows in partition order: got %v, want [P1 P5]", got)
	}
	if stats.RowsRead != 3 || stats.RowsKept != 2 {
		t.Errorf("row counts: %+v", stats)
	}
}

func TestCollect_MissingDir(t *testing.T) {
	_, _, err := Collect(context.Background(), zerolog.Nop(), "/nonexistent/parts", testLayout,
		func([]string) (int, bool, error) { return 0, false, nil })
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestCollect_EmptyDir(t *testing.T) {
	got, stats, err := Collect(context.Background(), zerolog.Nop(), t.TempDir(), testLayout,
		func(row []string) (string, bool, error) { return row[0], true, nil })
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 0 || stats.Partitions != 0 {
		t.Errorf("expected nothing, got %v %+v", got, stats)
	}
}
