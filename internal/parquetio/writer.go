package parquetio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/glpstats/internal/model"
)

const flushInterval = 100_000

// Write exports rows to a snappy-compressed Parquet file at path. The file
// is written under a temporary name and renamed on success.
func Write(path string, rows []model.PatientYear) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	w := parquet.NewGenericWriter[Row](f, parquet.Compression(&parquet.Snappy))
	buf := make([]Row, 0, 1024)
	for i := range rows {
		buf = append(buf, FromPatientYear(&rows[i]))
		if len(buf) == cap(buf) {
			if _, err := w.Write(buf); err != nil {
				return fmt.Errorf("write parquet rows: %w", err)
			}
			buf = buf[:0]
		}
		if (i+1)%flushInterval == 0 {
			if err := w.Flush(); err != nil {
				return fmt.Errorf("flush parquet row group: %w", err)
			}
		}
	}
	if len(buf) > 0 {
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("publish parquet file: %w", err)
	}
	return nil
}
