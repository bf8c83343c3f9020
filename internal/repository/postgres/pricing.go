package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hail/internal/domain"
	"hail/internal/repository"
)

// PricingConfigRepository is a PostgreSQL implementation of
// repository.PricingConfigRepository. The configuration lives in a single
// row plus ordered rule tables; rule position is significant because the
// calculator applies the first matching rule.
type PricingConfigRepository struct {
	db *sql.DB
}

// NewPricingConfigRepository creates a new PostgreSQL pricing config repository.
func NewPricingConfigRepository(db *sql.DB) *PricingConfigRepository {
	return &PricingConfigRepository{db: db}
}

// Get returns the current pricing configuration.
func (r *PricingConfigRepository) Get(ctx context.Context) (*domain.PricingConfig, error) {
	var cfg domain.PricingConfig

	query := `
		SELECT base_fare, per_km_fare, per_minute_fare, negotiation_range_percent, updated_at
		FROM pricing_config WHERE id = 1
	`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&cfg.BaseFare, &cfg.PerKmFare, &cfg.PerMinuteFare,
		&cfg.NegotiationRangePercent, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	cfg.ServiceMultipliers = make(map[domain.ServiceType]float64)
	rows, err := r.db.QueryContext(ctx, `SELECT service_type, multiplier FROM pricing_multipliers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st domain.ServiceType
		var m float64
		if err := rows.Scan(&st, &m); err != nil {
			return nil, err
		}
		cfg.ServiceMultipliers[st] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	specialRows, err := r.db.QueryContext(ctx, `
		SELECT name, start_date, end_date, surcharge_percent
		FROM pricing_special_rules ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer specialRows.Close()
	for specialRows.Next() {
		var rule domain.SpecialFareRule
		if err := specialRows.Scan(&rule.Name, &rule.StartDate, &rule.EndDate, &rule.SurchargePercent); err != nil {
			return nil, err
		}
		cfg.SpecialFareRules = append(cfg.SpecialFareRules, rule)
	}
	if err := specialRows.Err(); err != nil {
		return nil, err
	}

	peakRows, err := r.db.QueryContext(ctx, `
		SELECT start_time, end_time, surcharge_percent
		FROM pricing_peak_rules ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer peakRows.Close()
	for peakRows.Next() {
		var rule domain.PeakTimeRule
		if err := peakRows.Scan(&rule.StartTime, &rule.EndTime, &rule.SurchargePercent); err != nil {
			return nil, err
		}
		cfg.PeakTimeRules = append(cfg.PeakTimeRules, rule)
	}
	if err := peakRows.Err(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Update replaces the pricing configuration atomically.
func (r *PricingConfigRepository) Update(ctx context.Context, cfg *domain.PricingConfig) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pricing_config (id, base_fare, per_km_fare, per_minute_fare, negotiation_range_percent, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET base_fare = $1, per_km_fare = $2, per_minute_fare = $3,
		    negotiation_range_percent = $4, updated_at = NOW()
	`, cfg.BaseFare, cfg.PerKmFare, cfg.PerMinuteFare, cfg.NegotiationRangePercent)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM pricing_multipliers`); err != nil {
		return err
	}
	for st, m := range cfg.ServiceMultipliers {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO pricing_multipliers (service_type, multiplier) VALUES ($1, $2)`, st, m); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM pricing_special_rules`); err != nil {
		return err
	}
	for i, rule := range cfg.SpecialFareRules {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO pricing_special_rules (position, name, start_date, end_date, surcharge_percent)
			VALUES ($1, $2, $3, $4, $5)
		`, i, rule.Name, rule.StartDate, rule.EndDate, rule.SurchargePercent); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM pricing_peak_rules`); err != nil {
		return err
	}
	for i, rule := range cfg.PeakTimeRules {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO pricing_peak_rules (position, start_time, end_time, surcharge_percent)
			VALUES ($1, $2, $3, $4)
		`, i, rule.StartTime, rule.EndTime, rule.SurchargePercent); err != nil {
			return err
		}
	}

	return tx.Commit()
}
