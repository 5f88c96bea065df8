package mysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/pactguard/pactguard/internal/domain/usage"
)

var runCols = []string{"id", "report_id", "source", "status", "document_type", "risk_level", "risk_label",
	"provider", "external_call", "billable", "duration_ms", "created_at"}

func TestUsageRepositorySave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 8, 23, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO analysis_runs").
		WithArgs("run-1", "rep-1", "text", "success", "-", 9, "Critical", "openai", true, true, int64(120), at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewUsageRepository(db)
	err = repo.Save(context.Background(), &domain.Run{
		ID: "run-1", ReportID: "rep-1", Source: domain.SourceText, Status: "success",
		RiskLevel: 9, RiskLabel: "Critical", Provider: "openai", ExternalCall: true, Billable: true,
		DurationMS: 120, CreatedAt: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepositoryPaginate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 8, 23, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM analysis_runs WHERE source = \? AND status = \?\s+ORDER BY created_at DESC, id DESC\s+LIMIT \? OFFSET \?`).
		WithArgs("upload", "partial", 10, 10).
		WillReturnRows(sqlmock.NewRows(runCols).
			AddRow("run-2", "rep-2", "upload", "partial", "Privacy Policy", 5, "Medium", "local", false, false, int64(8), at))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM analysis_runs WHERE source = ? AND status = ?")).
		WithArgs("upload", "partial").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	repo := NewUsageRepository(db)
	res, err := repo.Paginate(context.Background(), 2, 10, domain.Filter{Source: domain.SourceUpload, Status: "partial"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, domain.RunID("run-2"), res.Data[0].ID)
	assert.Equal(t, domain.SourceUpload, res.Data[0].Source)
	assert.False(t, res.Data[0].ExternalCall)
	assert.Equal(t, int64(11), res.Total)
	assert.Equal(t, 2, res.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepositoryEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS analysis_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewUsageRepository(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptionsDSN(t *testing.T) {
	dsn := Options{Host: "db", Port: 3306, User: "pg", Password: "secret", Name: "pactguard"}.DSN()
	assert.Contains(t, dsn, "pg:secret@tcp(db:3306)/pactguard")
	assert.Contains(t, dsn, "parseTime=true")
}
