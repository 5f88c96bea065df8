package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/pactguard/pactguard/internal/domain/usage"
)

type UsageRepository struct{ db *sql.DB }

func NewUsageRepository(db *sql.DB) *UsageRepository { return &UsageRepository{db: db} }

// EnsureSchema creates analysis_runs and its index when missing.
func (r *UsageRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
  id            TEXT        PRIMARY KEY,
  report_id     TEXT        NOT NULL,
  source        TEXT        NOT NULL,
  status        TEXT        NOT NULL,
  document_type TEXT        NOT NULL,
  risk_level    SMALLINT    NOT NULL,
  risk_label    TEXT        NOT NULL,
  provider      TEXT        NOT NULL DEFAULT '',
  external_call BOOLEAN     NOT NULL,
  billable      BOOLEAN     NOT NULL,
  duration_ms   BIGINT      NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created ON analysis_runs (created_at DESC)`,
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Save insert/update run record
func (r *UsageRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
(id, report_id, source, status, document_type, risk_level, risk_label,
 provider, external_call, billable, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 risk_level = EXCLUDED.risk_level,
 risk_label = EXCLUDED.risk_label;`

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		run.ID, run.ReportID, stringOrDash(string(run.Source)), stringOrDash(run.Status),
		stringOrDash(run.DocumentType), run.RiskLevel, stringOrDash(run.RiskLabel),
		run.Provider, run.ExternalCall, run.Billable, run.DurationMS, createdAt,
	)
	return err
}

// where builds the filter clause; next is the first free placeholder.
func where(f domain.Filter) (clause string, args []any, next int) {
	next = 1
	var conds []string
	if f.Source != "" {
		conds = append(conds, fmt.Sprintf("source = $%d", next))
		args = append(args, string(f.Source))
		next++
	}
	if f.Status != "" {
		conds = append(conds, fmt.Sprintf("status = $%d", next))
		args = append(args, f.Status)
		next++
	}
	if len(conds) > 0 {
		clause = " WHERE " + strings.Join(conds, " AND ")
	}
	return clause, args, next
}

func (r *UsageRepository) Paginate(ctx context.Context, page, pageSize int, f domain.Filter) (domain.PaginatedResult, error) {
	page, pageSize = domain.NormalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	clause, args, next := where(f)
	query := `
SELECT id, report_id, source, status, document_type, risk_level, risk_label,
       provider, external_call, billable, duration_ms, created_at
FROM analysis_runs` + clause +
		fmt.Sprintf("\nORDER BY created_at DESC, id DESC\nLIMIT $%d OFFSET $%d", next, next+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(
			&run.ID, &run.ReportID, &run.Source, &run.Status, &run.DocumentType, &run.RiskLevel, &run.RiskLabel,
			&run.Provider, &run.ExternalCall, &run.Billable, &run.DurationMS, &run.CreatedAt,
		); err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		runs = append(runs, &run)
	}
	if err = rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	total, err := r.Count(ctx, f)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}
	return domain.NewPage(runs, page, pageSize, total), nil
}

// Count returns the total number of records matching the given filter
func (r *UsageRepository) Count(ctx context.Context, f domain.Filter) (int64, error) {
	clause, args, _ := where(f)
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_runs"+clause, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
