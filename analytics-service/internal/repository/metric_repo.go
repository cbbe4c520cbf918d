package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Schema:
//
//	CREATE TABLE metrics (
//	    key        TEXT PRIMARY KEY,
//	    value      BIGINT NOT NULL DEFAULT 0,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);

type MetricRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMetricRepository(db *pgxpool.Pool, logger *zap.Logger) *MetricRepository {
	return &MetricRepository{
		db:     db,
		logger: logger,
	}
}

// Increment bumps a counter atomically at the storage layer. The upsert keeps
// concurrent pushes for the same key from losing updates; a missing key starts
// at zero.
func (r *MetricRepository) Increment(ctx context.Context, key string, amount int64) error {
	query := `
        INSERT INTO metrics (key, value)
        VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE
        SET value = metrics.value + EXCLUDED.value, updated_at = now()
    `
	if _, err := r.db.Exec(ctx, query, key, amount); err != nil {
		r.logger.Error("Failed to increment metric",
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// All returns every counter keyed by name.
func (r *MetricRepository) All(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM metrics ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var key string
		var value int64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, rows.Err()
}
