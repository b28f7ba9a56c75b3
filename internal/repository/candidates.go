// internal/repository/candidates.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	stderrors "referwell-matching/internal/common/errors"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/models"
)

// CandidateRepository materializes read-only provider snapshots from
// Postgres. The engine never sees lazy rows, only finished slices.
type CandidateRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewCandidateRepository(db *sql.DB, log logger.Logger) *CandidateRepository {
	return &CandidateRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "candidate-repo"}),
	}
}

const fetchCandidatesQuery = `
	SELECT id, name, specialisms, qualifications, languages,
	       preferred_conditions, preferred_age_groups,
	       service_type, modality, latitude, longitude,
	       max_patients, current_patients, availability_status,
	       years_experience, embedding
	FROM psychologists
	WHERE is_active = TRUE AND is_accepting_referrals = TRUE`

// FetchCandidates returns all active providers accepting new referrals.
func (r *CandidateRepository) FetchCandidates(ctx context.Context) ([]models.CandidateProfile, error) {
	rows, err := r.db.QueryContext(ctx, fetchCandidatesQuery)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("fetch_candidates", err)
	}
	defer rows.Close()

	var candidates []models.CandidateProfile
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan_candidate", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("fetch_candidates", err)
	}

	r.logger.Debug("fetched candidate pool", map[string]interface{}{
		"count": len(candidates),
	})
	return candidates, nil
}

// FetchForEmbedding returns a batch of candidates needing an embedding
// refresh, keyset-paginated by id. With force set, candidates with an
// existing vector are included.
func (r *CandidateRepository) FetchForEmbedding(ctx context.Context, force bool, afterID string, limit int) ([]models.CandidateProfile, error) {
	query := fetchCandidatesQuery
	if !force {
		query += " AND (embedding IS NULL OR embedding = '')"
	}
	query += " AND id > $1 ORDER BY id LIMIT $2"

	rows, err := r.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("fetch_for_embedding", err)
	}
	defer rows.Close()

	var candidates []models.CandidateProfile
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan_candidate", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// UpdateEmbedding stores a freshly computed vector on the provider row.
func (r *CandidateRepository) UpdateEmbedding(ctx context.Context, id string, vector []float64) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE psychologists
		SET embedding = $2, last_updated_embedding = NOW()
		WHERE id = $1`, id, string(data))
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("update_embedding", err)
	}
	return nil
}

func scanCandidate(rows *sql.Rows) (models.CandidateProfile, error) {
	var (
		c                     models.CandidateProfile
		specialisms           []byte
		qualifications        []byte
		languages             []byte
		preferredConditions   []byte
		preferredAgeGroups    []byte
		latitude, longitude   sql.NullFloat64
		yearsExperience       sql.NullInt64
		embedding             sql.NullString
	)

	err := rows.Scan(
		&c.ID, &c.Name, &specialisms, &qualifications, &languages,
		&preferredConditions, &preferredAgeGroups,
		&c.ServiceType, &c.Modality, &latitude, &longitude,
		&c.MaxPatients, &c.CurrentPatients, &c.AvailabilityStatus,
		&yearsExperience, &embedding,
	)
	if err != nil {
		return c, err
	}

	c.Specialisms = unmarshalStrings(specialisms)
	c.Qualifications = unmarshalStrings(qualifications)
	c.Languages = unmarshalStrings(languages)
	c.PreferredConditions = unmarshalStrings(preferredConditions)
	c.PreferredAgeGroups = unmarshalStrings(preferredAgeGroups)

	if latitude.Valid && longitude.Valid {
		c.Location = &models.GeoPoint{Latitude: latitude.Float64, Longitude: longitude.Float64}
	}
	if yearsExperience.Valid {
		years := int(yearsExperience.Int64)
		c.YearsExperience = &years
	}
	if embedding.Valid && embedding.String != "" {
		// A corrupt stored vector only disables the vector path.
		_ = json.Unmarshal([]byte(embedding.String), &c.Embedding)
	}
	return c, nil
}

func unmarshalStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
