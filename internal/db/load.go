package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/normalize"
	embedsql "github.com/gyeh/glpstats/internal/sql"
)

const copyBufferSize = 1024

// Batch kinds. A kind names the table a batch loads into.
const (
	KindPatientYears = "patient_years"
	KindStateRates   = "state_rates"
)

// Batch identifies one artifact load.
type Batch struct {
	ID            uuid.UUID
	Kind          string
	Artifact      string
	SHA256        string
	AlreadyLoaded bool
}

// LoadResult holds metrics from one load.
type LoadResult struct {
	BatchID  string
	Rows     int64
	Skipped  bool
	Duration time.Duration
}

// RegisterBatch hashes the artifact at path and registers a load batch for
// it. An artifact already loaded under kind is reported as AlreadyLoaded
// unless force is set; a forced or previously failed batch keeps its id and
// has its rows cleared.
func RegisterBatch(ctx context.Context, pool *pgxpool.Pool, kind, path string, force bool) (*Batch, error) {
	sha, err := normalize.FileHash(path)
	if err != nil {
		return nil, fmt.Errorf("hash artifact: %w", err)
	}
	b := &Batch{ID: uuid.New(), Kind: kind, Artifact: filepath.Base(path), SHA256: sha}

	var id uuid.UUID
	err = pool.QueryRow(ctx, embedsql.RegisterBatch, b.ID, kind, b.Artifact, sha).Scan(&id)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("register batch: %w", err)
	}

	var status string
	if err := pool.QueryRow(ctx, embedsql.LookupBatch, kind, sha).Scan(&b.ID, &status); err != nil {
		return nil, fmt.Errorf("lookup existing batch: %w", err)
	}
	if status == "loaded" && !force {
		b.AlreadyLoaded = true
		return b, nil
	}
	if err := clearBatch(ctx, pool, b); err != nil {
		return nil, err
	}
	if err := UpdateStatus(ctx, pool, b.ID, "pending", nil); err != nil {
		return nil, fmt.Errorf("reset batch status: %w", err)
	}
	return b, nil
}

func clearBatch(ctx context.Context, pool *pgxpool.Pool, b *Batch) error {
	q := embedsql.DeletePatientYears
	if b.Kind == KindStateRates {
		q = embedsql.DeleteStateRates
	}
	if _, err := pool.Exec(ctx, q, b.ID); err != nil {
		return fmt.Errorf("clear batch rows: %w", err)
	}
	return nil
}

// UpdateStatus sets a batch's status and, when rows is non-nil, its row count.
func UpdateStatus(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, status string, rows *int64) error {
	_, err := pool.Exec(ctx, embedsql.UpdateBatchStatus, id, status, rows)
	return err
}

// LoadPatientYears COPY-loads the patient-year artifact at path.
func LoadPatientYears(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, path string, rows []model.PatientYear, force bool) (*LoadResult, error) {
	cols := append([]string{"load_batch_id"}, model.PatientYearColumns()...)
	return load(ctx, pool, log, KindPatientYears, path, force, rows, cols,
		pgx.Identifier{"analytics", "patient_years"},
		func(id uuid.UUID, r *model.PatientYear) []any {
			return append([]any{id}, r.CopyValues()...)
		})
}

// LoadRates COPY-loads a rate artifact computed under basis.
func LoadRates(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, path, basis string, rows []model.RateRow, force bool) (*LoadResult, error) {
	cols := append([]string{"load_batch_id", "basis"}, model.RateColumns()...)
	return load(ctx, pool, log, KindStateRates, path, force, rows, cols,
		pgx.Identifier{"analytics", "state_rates"},
		func(id uuid.UUID, r *model.RateRow) []any {
			return append([]any{id, basis}, r.CopyValues()...)
		})
}

func load[T any](ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, kind, path string, force bool,
	rows []T, cols []string, table pgx.Identifier, values func(uuid.UUID, *T) []any) (*LoadResult, error) {
	start := time.Now()

	b, err := RegisterBatch(ctx, pool, kind, path, force)
	if err != nil {
		return nil, err
	}
	log = log.With().Str("load_batch_id", b.ID.String()).Str("artifact", b.Artifact).Logger()
	if b.AlreadyLoaded {
		log.Info().Str("sha256", b.SHA256).Msg("artifact already loaded, skipping (use --force to reload)")
		return &LoadResult{BatchID: b.ID.String(), Skipped: true, Duration: time.Since(start)}, nil
	}

	ch := make(chan *T, copyBufferSize)
	go func() {
		defer close(ch)
		for i := range rows {
			select {
			case ch <- &rows[i]:
			case <-ctx.Done():
				return
			}
		}
	}()

	source := NewChannelSource(ch, func(r *T) []any { return values(b.ID, r) })
	n, err := pool.CopyFrom(ctx, table, cols, source)
	if err != nil {
		// Drain so the producer exits.
		for range ch {
		}
		_ = UpdateStatus(ctx, pool, b.ID, "failed", nil)
		return nil, fmt.Errorf("copy %s: %w", kind, err)
	}
	if err := ctx.Err(); err != nil {
		_ = UpdateStatus(ctx, pool, b.ID, "failed", nil)
		return nil, err
	}
	if err := UpdateStatus(ctx, pool, b.ID, "loaded", &n); err != nil {
		return nil, fmt.Errorf("mark batch loaded: %w", err)
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_copied", n).
		Str("duration", dur.String()).
		Float64("rows_per_sec", float64(n)/dur.Seconds()).
		Msg("load complete")

	return &LoadResult{BatchID: b.ID.String(), Rows: n, Duration: dur}, nil
}
