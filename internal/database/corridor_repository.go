package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adetumilara/stellar-insights/internal/domain"
)

// CorridorRepo reads and writes daily corridor aggregates.
type CorridorRepo struct {
	pool *pgxpool.Pool
}

var _ domain.CorridorStore = (*CorridorRepo)(nil)

func NewCorridorRepo(pool *pgxpool.Pool) *CorridorRepo {
	return &CorridorRepo{pool: pool}
}

// ListCorridorMetricsForDate returns every corridor aggregate recorded for
// the given calendar date, highest volume first.
func (r *CorridorRepo) ListCorridorMetricsForDate(ctx context.Context, date time.Time) ([]domain.CorridorMetric, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT corridor_key, asset_a_code, asset_a_issuer, asset_b_code, asset_b_issuer,
		       payment_count, total_volume, success_rate, metric_date
		FROM corridor_metrics_daily
		WHERE metric_date = $1::date
		ORDER BY total_volume DESC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query corridor metrics: %w", err)
	}
	defer rows.Close()

	var corridors []domain.CorridorMetric
	for rows.Next() {
		var m domain.CorridorMetric
		if err := rows.Scan(
			&m.CorridorKey, &m.AssetACode, &m.AssetAIssuer, &m.AssetBCode, &m.AssetBIssuer,
			&m.PaymentCount, &m.TotalVolume, &m.SuccessRate, &m.MetricDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan corridor metric: %w", err)
		}
		corridors = append(corridors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corridor metrics: %w", err)
	}

	return corridors, nil
}

// UpsertDailyMetric writes one corridor's aggregate for its metric date,
// replacing any earlier aggregate for the same corridor and date.
func (r *CorridorRepo) UpsertDailyMetric(ctx context.Context, m domain.CorridorMetric) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO corridor_metrics_daily
			(corridor_key, asset_a_code, asset_a_issuer, asset_b_code, asset_b_issuer,
			 payment_count, total_volume, success_rate, metric_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::date)
		ON CONFLICT (corridor_key, metric_date) DO UPDATE SET
			payment_count = EXCLUDED.payment_count,
			total_volume = EXCLUDED.total_volume,
			success_rate = EXCLUDED.success_rate
	`, m.CorridorKey, m.AssetACode, m.AssetAIssuer, m.AssetBCode, m.AssetBIssuer,
		m.PaymentCount, m.TotalVolume, m.SuccessRate, m.MetricDate)
	if err != nil {
		return fmt.Errorf("failed to upsert corridor metric: %w", err)
	}
	return nil
}
