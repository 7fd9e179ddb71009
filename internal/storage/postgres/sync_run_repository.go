package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

type syncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository создаёт PostgreSQL-реализацию SyncRunRepository.
func NewSyncRunRepository(store *Store) domain.SyncRunRepository {
	return &syncRunRepository{db: store.DB()}
}

func (r *syncRunRepository) Append(ctx context.Context, run domain.SyncRun) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			id, trigger, since, started_at, finished_at,
			processed, added_valid, added_ignored, customers_rebuilt, error
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		run.ID, run.Trigger, nullTime(run.Since), run.StartedAt, run.FinishedAt,
		run.Result.Processed, run.Result.AddedValid, run.Result.AddedIgnored,
		run.Result.CustomersRebuilt, run.Error,
	); err != nil {
		return fmt.Errorf("append sync run: %w", err)
	}

	return nil
}

func (r *syncRunRepository) List(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT id, trigger, since, started_at, finished_at,
		       processed, added_valid, added_ignored, customers_rebuilt, error
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.SyncRun, 0)
	for rows.Next() {
		var (
			run   domain.SyncRun
			since sql.NullTime
		)
		if err := rows.Scan(
			&run.ID, &run.Trigger, &since, &run.StartedAt, &run.FinishedAt,
			&run.Result.Processed, &run.Result.AddedValid, &run.Result.AddedIgnored,
			&run.Result.CustomersRebuilt, &run.Error,
		); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		if since.Valid {
			run.Since = since.Time
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}

	return runs, nil
}

var _ domain.SyncRunRepository = (*syncRunRepository)(nil)
