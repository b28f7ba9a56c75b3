// internal/repository/thresholds.go
package repository

import (
	"context"
	"database/sql"

	stderrors "referwell-matching/internal/common/errors"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/models"
)

// ThresholdRepository stores routing threshold configuration, one row per
// referrer type.
type ThresholdRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewThresholdRepository(db *sql.DB, log logger.Logger) *ThresholdRepository {
	return &ThresholdRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "threshold-repo"}),
	}
}

// Get returns the active config row for the referrer type, or (nil, nil)
// when none exists.
func (r *ThresholdRepository) Get(ctx context.Context, userType models.ReferrerType) (*models.ThresholdConfig, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_type, auto_threshold, high_touch_threshold, is_active
		FROM matching_thresholds
		WHERE user_type = $1 AND is_active = TRUE`, string(userType))

	var cfg models.ThresholdConfig
	err := row.Scan(&cfg.UserType, &cfg.AutoThreshold, &cfg.HighTouchThreshold, &cfg.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("get_threshold", err)
	}
	return &cfg, nil
}

// Upsert writes the config row for the referrer type.
func (r *ThresholdRepository) Upsert(ctx context.Context, cfg models.ThresholdConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO matching_thresholds (user_type, auto_threshold, high_touch_threshold, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_type) DO UPDATE
		SET auto_threshold = EXCLUDED.auto_threshold,
		    high_touch_threshold = EXCLUDED.high_touch_threshold,
		    is_active = EXCLUDED.is_active`,
		string(cfg.UserType), cfg.AutoThreshold, cfg.HighTouchThreshold, cfg.IsActive)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("upsert_threshold", err)
	}
	return nil
}

// SeedDefaults creates the default rows for every referrer type without
// overwriting existing configuration. Idempotent.
func (r *ThresholdRepository) SeedDefaults(ctx context.Context) error {
	for _, cfg := range models.DefaultThresholds() {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO matching_thresholds (user_type, auto_threshold, high_touch_threshold, is_active)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_type) DO NOTHING`,
			string(cfg.UserType), cfg.AutoThreshold, cfg.HighTouchThreshold, cfg.IsActive)
		if err != nil {
			return stderrors.NewQueryExecutionFailedError("seed_thresholds", err)
		}
	}
	r.logger.Info("default threshold rows ensured", map[string]interface{}{
		"count": len(models.DefaultThresholds()),
	})
	return nil
}
