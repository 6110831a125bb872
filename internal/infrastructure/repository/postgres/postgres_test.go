package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals-monitor/internal/domain"
)

var summaryColumns = []string{
	"session_id", "channel", "policy", "sample_count", "mean", "min_value", "max_value",
	"reference_low", "reference_high", "unit", "classification", "report", "completed_at",
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return New(db, nil), mock
}

// TestRepositoryMigrate проверяет применение встроенных миграций по порядку.
func TestRepositoryMigrate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS diagnosis_summaries")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS diagnosis_summaries_channel_idx")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMigrateFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS diagnosis_summaries")).
		WillReturnError(errors.New("permission denied"))

	err := repo.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_diagnosis_summaries.sql")
}

// TestRepositoryAdd проверяет вставку сводки.
func TestRepositoryAdd(t *testing.T) {
	repo, mock := newMockRepository(t)

	sessionID := uuid.NewString()
	summary := domain.Summary{
		Channel:        "glucose",
		SessionID:      sessionID,
		Policy:         domain.PolicyAll,
		Count:          10,
		Mean:           130,
		Reference:      domain.Band{Low: 120, High: 124},
		Unit:           "mg/dL",
		Classification: domain.ClassificationHigh,
		Text:           "report",
		CompletedAt:    time.Now().UTC(),
	}

	t.Log("Шаг 1: ожидаем INSERT с аргументами сводки")
	mock.ExpectExec(regexp.QuoteMeta(insertStatement)).
		WithArgs(sessionID, "glucose", "all", 10, 130.0, 0.0, 0.0, 120.0, 124.0, "mg/dL", "High", "report", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Add(context.Background(), summary))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryAddValidates(t *testing.T) {
	repo, mock := newMockRepository(t)

	err := repo.Add(context.Background(), domain.Summary{Channel: "glucose", SessionID: "not-a-uuid"})
	assert.Error(t, err)

	err = repo.Add(context.Background(), domain.Summary{SessionID: uuid.NewString()})
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryAddWrapsDriverError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(insertStatement)).WillReturnError(errors.New("connection reset"))

	err := repo.Add(context.Background(), domain.Summary{Channel: "glucose", SessionID: uuid.NewString()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

// TestRepositoryRecent проверяет чтение сводок канала, новые первыми.
func TestRepositoryRecent(t *testing.T) {
	repo, mock := newMockRepository(t)

	newer := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	rows := sqlmock.NewRows(summaryColumns).
		AddRow("s-2", "crustrol", "out-of-range", 3, 0.0, 139.0, 170.0, 150.0, 154.0, "mg/dL", "High", "text-2", newer).
		AddRow("s-1", "crustrol", "all", 0, 0.0, 0.0, 0.0, 150.0, 154.0, "mg/dL", "No-data", "No readings available for diagnosis.", older)

	mock.ExpectQuery(regexp.QuoteMeta(recentStatement)).
		WithArgs("crustrol", 5).
		WillReturnRows(rows)

	summaries, err := repo.Recent(context.Background(), "crustrol", 5)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "s-2", summaries[0].SessionID)
	assert.Equal(t, domain.PolicyOutOfRange, summaries[0].Policy)
	assert.Equal(t, 139.0, summaries[0].Min)
	assert.Equal(t, 170.0, summaries[0].Max)
	assert.Equal(t, domain.ClassificationHigh, summaries[0].Classification)
	assert.Equal(t, domain.Band{Low: 150, High: 154}, summaries[0].Reference)
	assert.Equal(t, newer, summaries[0].CompletedAt)

	assert.Equal(t, domain.ClassificationNoData, summaries[1].Classification)
	assert.False(t, summaries[1].HasData())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRecentDefaultsLimitAndReportsNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(recentStatement)).
		WithArgs("glucose", defaultLimit).
		WillReturnRows(sqlmock.NewRows(summaryColumns))

	_, err := repo.Recent(context.Background(), "glucose", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectClose()
	repo := New(db, nil)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestParseClassification(t *testing.T) {
	assert.Equal(t, domain.ClassificationLow, parseClassification("Low"))
	assert.Equal(t, domain.ClassificationWithinRange, parseClassification("Within-range"))
	assert.Equal(t, domain.ClassificationHigh, parseClassification("High"))
	assert.Equal(t, domain.ClassificationNoData, parseClassification("garbage"))
}
