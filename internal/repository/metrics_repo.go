package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// MetricsRepository persists one snapshot per run date. A re-run for the
// same date replaces the stored snapshot wholesale; snapshots are never
// partially mutated.
type MetricsRepository struct {
	pool *pgxpool.Pool
}

func NewMetricsRepository(pool *pgxpool.Pool) *MetricsRepository {
	return &MetricsRepository{pool: pool}
}

func (r *MetricsRepository) Save(ctx context.Context, snap model.MetricsSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO metrics_snapshots (
			run_date, total_revenue, total_settlement,
			total_settlement_charge_back, total_settlement_unsettled_claims,
			total_bank_isw_unsettled_claims, total_bank_isw_charge_back,
			snapshot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_date) DO UPDATE SET
			total_revenue = EXCLUDED.total_revenue,
			total_settlement = EXCLUDED.total_settlement,
			total_settlement_charge_back = EXCLUDED.total_settlement_charge_back,
			total_settlement_unsettled_claims = EXCLUDED.total_settlement_unsettled_claims,
			total_bank_isw_unsettled_claims = EXCLUDED.total_bank_isw_unsettled_claims,
			total_bank_isw_charge_back = EXCLUDED.total_bank_isw_charge_back,
			snapshot = EXCLUDED.snapshot,
			created_at = NOW()`,
		snap.RunDate, snap.TotalRevenue, snap.TotalSettlement,
		snap.TotalSettlementChargeBack, snap.TotalSettlementUnsettledClaims,
		snap.TotalBankUnsettledClaims, snap.TotalBankChargeBack,
		payload,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.RunDate, err)
	}
	return nil
}

func (r *MetricsRepository) GetByDate(ctx context.Context, runDate string) (*model.MetricsSnapshot, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT snapshot FROM metrics_snapshots WHERE run_date = $1`, runDate))
}

func (r *MetricsRepository) GetLatest(ctx context.Context) (*model.MetricsSnapshot, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT snapshot FROM metrics_snapshots ORDER BY run_date DESC LIMIT 1`))
}

// List returns stored snapshots newest first, plus the total count for
// pagination.
func (r *MetricsRepository) List(ctx context.Context, limit, offset int) ([]model.MetricsSnapshot, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM metrics_snapshots`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count snapshots: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT snapshot FROM metrics_snapshots
		ORDER BY run_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.MetricsSnapshot
	for rows.Next() {
		snap, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		snaps = append(snaps, *snap)
	}
	return snaps, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *MetricsRepository) scanOne(row rowScanner) (*model.MetricsSnapshot, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, err
	}
	var snap model.MetricsSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
