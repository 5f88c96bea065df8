package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/pactguard/pactguard/internal/domain/usage"
)

func TestUsageRepositoryPaginateNoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 8, 23, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "report_id", "source", "status", "document_type", "risk_level", "risk_label",
		"provider", "external_call", "billable", "duration_ms", "created_at"}
	mock.ExpectQuery(`FROM analysis_runs\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("run-1", "rep-1", "drive", "success", "Terms of Service", 7, "High", "google", true, true, int64(900), at).
			AddRow("run-0", "rep-0", "text", "fallback", "Legal Agreement", 3, "Low", "local", false, false, int64(2), at))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM analysis_runs")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	res, err := NewUsageRepository(db).Paginate(context.Background(), 0, 0, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, domain.DefaultPageSize, res.PageSize)
	assert.Equal(t, domain.SourceDrive, res.Data[0].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepositoryFilterPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM analysis_runs WHERE status = $1")).
		WithArgs("partial").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := NewUsageRepository(db).Count(context.Background(), domain.Filter{Status: "partial"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepositorySaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO analysis_runs").WillReturnError(errors.New("connection reset"))
	err = NewUsageRepository(db).Save(context.Background(), &domain.Run{ID: "x"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepositoryEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS analysis_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_analysis_runs_created").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewUsageRepository(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
