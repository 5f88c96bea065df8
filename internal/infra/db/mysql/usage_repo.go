package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/pactguard/pactguard/internal/domain/usage"
)

type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
  id            VARCHAR(64)  NOT NULL PRIMARY KEY,
  report_id     VARCHAR(64)  NOT NULL,
  source        VARCHAR(16)  NOT NULL,
  status        VARCHAR(32)  NOT NULL,
  document_type VARCHAR(128) NOT NULL,
  risk_level    TINYINT      NOT NULL,
  risk_label    VARCHAR(16)  NOT NULL,
  provider      VARCHAR(64)  NOT NULL DEFAULT '',
  external_call BOOLEAN      NOT NULL,
  billable      BOOLEAN      NOT NULL,
  duration_ms   BIGINT       NOT NULL,
  created_at    DATETIME(6)  NOT NULL,
  INDEX idx_analysis_runs_created (created_at)
);`

// EnsureSchema creates analysis_runs when missing.
func (r *UsageRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts a run, updating status fields on a repeated id.
func (r *UsageRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
  (id, report_id, source, status, document_type, risk_level, risk_label,
   provider, external_call, billable, duration_ms, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  status=VALUES(status), risk_level=VALUES(risk_level), risk_label=VALUES(risk_label);
`
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		run.ID, run.ReportID, stringOrDash(string(run.Source)), stringOrDash(run.Status),
		stringOrDash(run.DocumentType), run.RiskLevel, stringOrDash(run.RiskLabel),
		run.Provider, run.ExternalCall, run.Billable, run.DurationMS, createdAt.UTC(),
	)
	return err
}

func where(f domain.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, string(f.Source))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Paginate returns a page of runs ordered by created_at desc
func (r *UsageRepository) Paginate(ctx context.Context, page, pageSize int, f domain.Filter) (domain.PaginatedResult, error) {
	page, pageSize = domain.NormalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	clause, args := where(f)
	q := `
SELECT id, report_id, source, status, document_type, risk_level, risk_label,
       provider, external_call, billable, duration_ms, created_at
FROM analysis_runs` + clause + `
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, q, append(args, pageSize, offset)...)
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
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	total, err := r.Count(ctx, f)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}
	return domain.NewPage(runs, page, pageSize, total), nil
}

// Count returns the total number of runs matching f
func (r *UsageRepository) Count(ctx context.Context, f domain.Filter) (int64, error) {
	clause, args := where(f)
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_runs"+clause, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
