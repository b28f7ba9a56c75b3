// internal/repository/repository_test.go
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	stderrors "referwell-matching/internal/common/errors"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var candidateColumns = []string{
	"id", "name", "specialisms", "qualifications", "languages",
	"preferred_conditions", "preferred_age_groups",
	"service_type", "modality", "latitude", "longitude",
	"max_patients", "current_patients", "availability_status",
	"years_experience", "embedding",
}

func createCandidateRepo(t *testing.T) (*CandidateRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCandidateRepository(db, logger.NewTestLogger(t)), mock
}

func createThresholdRepo(t *testing.T) (*ThresholdRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewThresholdRepository(db, logger.NewTestLogger(t)), mock
}

func candidateRow() []driver.Value {
	return []driver.Value{
		"c1", "Dr Smith",
		`["anxiety","depression"]`, `["DClinPsy"]`, `["english"]`,
		`["anxiety"]`, `["adult"]`,
		"nhs", "remote", 51.5, -0.12,
		20, 5, "available",
		8, `[0.1,0.2,0.3]`,
	}
}

// ==========================
// Candidate Repository Tests
// ==========================

func TestCandidateRepository_FetchCandidates(t *testing.T) {
	repo, mock := createCandidateRepo(t)

	rows := sqlmock.NewRows(candidateColumns).AddRow(candidateRow()...)
	mock.ExpectQuery("SELECT id, name, specialisms").WillReturnRows(rows)

	candidates, err := repo.FetchCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, []string{"anxiety", "depression"}, c.Specialisms)
	assert.Equal(t, models.ServiceTypeNHS, c.ServiceType)
	require.NotNil(t, c.Location)
	assert.Equal(t, 51.5, c.Location.Latitude)
	require.NotNil(t, c.YearsExperience)
	assert.Equal(t, 8, *c.YearsExperience)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, c.Embedding)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_FetchCandidates_NullableFields(t *testing.T) {
	repo, mock := createCandidateRepo(t)

	rows := sqlmock.NewRows(candidateColumns).AddRow(
		"c2", "Dr Null",
		`[]`, nil, `["english"]`,
		nil, nil,
		"private", "in_person", nil, nil,
		10, 10, "available",
		nil, nil,
	)
	mock.ExpectQuery("SELECT id, name, specialisms").WillReturnRows(rows)

	candidates, err := repo.FetchCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Nil(t, c.Location)
	assert.Nil(t, c.YearsExperience)
	assert.False(t, c.HasEmbedding())
	assert.False(t, c.HasCapacity())
}

func TestCandidateRepository_FetchCandidates_CorruptEmbedding(t *testing.T) {
	repo, mock := createCandidateRepo(t)

	row := candidateRow()
	row[len(row)-1] = "{not json"
	rows := sqlmock.NewRows(candidateColumns).AddRow(row...)
	mock.ExpectQuery("SELECT id, name, specialisms").WillReturnRows(rows)

	candidates, err := repo.FetchCandidates(context.Background())
	require.NoError(t, err, "a corrupt vector only disables the vector path")
	require.Len(t, candidates, 1)
	assert.False(t, candidates[0].HasEmbedding())
}

func TestCandidateRepository_FetchCandidates_QueryError(t *testing.T) {
	repo, mock := createCandidateRepo(t)
	mock.ExpectQuery("SELECT id, name, specialisms").WillReturnError(errors.New("connection reset"))

	_, err := repo.FetchCandidates(context.Background())
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeQueryExecutionFailed, stderrors.CodeOf(err))
	assert.True(t, stderrors.IsRetryable(err))
}

func TestCandidateRepository_FetchForEmbedding_SkipsEmbedded(t *testing.T) {
	repo, mock := createCandidateRepo(t)

	rows := sqlmock.NewRows(candidateColumns)
	mock.ExpectQuery(`embedding IS NULL OR embedding = ''`).
		WithArgs("", 50).
		WillReturnRows(rows)

	batch, err := repo.FetchForEmbedding(context.Background(), false, "", 50)
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepository_UpdateEmbedding(t *testing.T) {
	repo, mock := createCandidateRepo(t)

	mock.ExpectExec("UPDATE psychologists").
		WithArgs("c1", "[0.1,0.2]").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateEmbedding(context.Background(), "c1", []float64{0.1, 0.2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Threshold Repository Tests
// ==========================

func TestThresholdRepository_Get(t *testing.T) {
	repo, mock := createThresholdRepo(t)

	rows := sqlmock.NewRows([]string{"user_type", "auto_threshold", "high_touch_threshold", "is_active"}).
		AddRow("gp", 0.7, 0.5, true)
	mock.ExpectQuery("SELECT user_type, auto_threshold").
		WithArgs("gp").
		WillReturnRows(rows)

	cfg, err := repo.Get(context.Background(), models.ReferrerGP)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, models.ReferrerGP, cfg.UserType)
	assert.Equal(t, 0.7, cfg.AutoThreshold)
	assert.Equal(t, 0.5, cfg.HighTouchThreshold)
}

func TestThresholdRepository_Get_Missing(t *testing.T) {
	repo, mock := createThresholdRepo(t)

	mock.ExpectQuery("SELECT user_type, auto_threshold").
		WithArgs("patient").
		WillReturnRows(sqlmock.NewRows([]string{"user_type", "auto_threshold", "high_touch_threshold", "is_active"}))

	cfg, err := repo.Get(context.Background(), models.ReferrerPatient)
	require.NoError(t, err, "missing config is not an error")
	assert.Nil(t, cfg)
}

func TestThresholdRepository_Upsert(t *testing.T) {
	repo, mock := createThresholdRepo(t)

	mock.ExpectExec("INSERT INTO matching_thresholds").
		WithArgs("gp", 0.9, 0.6, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), models.ThresholdConfig{
		UserType:           models.ReferrerGP,
		AutoThreshold:      0.9,
		HighTouchThreshold: 0.6,
		IsActive:           true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThresholdRepository_SeedDefaults(t *testing.T) {
	repo, mock := createThresholdRepo(t)

	for _, cfg := range models.DefaultThresholds() {
		mock.ExpectExec("ON CONFLICT \\(user_type\\) DO NOTHING").
			WithArgs(string(cfg.UserType), cfg.AutoThreshold, cfg.HighTouchThreshold, cfg.IsActive).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	require.NoError(t, repo.SeedDefaults(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
