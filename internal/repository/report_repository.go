// Package repository persists cycle reports for historical comparison. The
// store is optional; when the database is disabled the pipeline runs
// entirely in memory.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/yourusername/underdog-edge/internal/database"
	"github.com/yourusername/underdog-edge/internal/models"
)

// ReportRepository stores one row per scored poll entry per cycle.
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a report repository.
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SaveReport persists a cycle report atomically: the cycle header and every
// scored entry, missing ones included.
func (r *ReportRepository) SaveReport(ctx context.Context, report *models.EVReport) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO ev_cycles (cycle_id, league, generated_at, valid_count, missing_count)
			VALUES ($1, $2, $3, $4, $5)`,
			report.CycleID, report.League, report.GeneratedAt,
			len(report.Valid), len(report.Missing),
		)
		if err != nil {
			return fmt.Errorf("failed to insert cycle: %w", err)
		}

		insert := func(res models.EVResult, position int) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO ev_results (cycle_id, team_id, team, rank, real_odds, payout, fair_prob, ev, is_missing, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				report.CycleID, res.TeamID, res.Team, res.Rank, res.RealOdds,
				res.Payout, res.FairProb, res.EV, res.IsMissing, position,
			)
			return err
		}

		for i, res := range report.Valid {
			if err := insert(res, i); err != nil {
				return fmt.Errorf("failed to insert result for %s: %w", res.Team, err)
			}
		}
		for i, res := range report.Missing {
			if err := insert(res, len(report.Valid)+i); err != nil {
				return fmt.Errorf("failed to insert missing result for %s: %w", res.Team, err)
			}
		}
		return nil
	})
}

// GetReport loads a cycle report by id, reconstructing the valid/missing
// partition in stored order.
func (r *ReportRepository) GetReport(ctx context.Context, cycleID uuid.UUID) (*models.EVReport, error) {
	report := &models.EVReport{CycleID: cycleID}

	row := r.db.QueryRow(ctx,
		`SELECT league, generated_at FROM ev_cycles WHERE cycle_id = $1`, cycleID)
	if err := row.Scan(&report.League, &report.GeneratedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("cycle %s not found", cycleID)
		}
		return nil, fmt.Errorf("failed to load cycle: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT team_id, team, rank, real_odds, payout, fair_prob, ev, is_missing
		FROM ev_results WHERE cycle_id = $1 ORDER BY position`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res models.EVResult
		var payout, ev decimal.Decimal
		if err := rows.Scan(&res.TeamID, &res.Team, &res.Rank, &res.RealOdds,
			&payout, &res.FairProb, &ev, &res.IsMissing); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		res.Payout = payout
		res.EV = ev
		if res.IsMissing {
			report.Missing = append(report.Missing, res)
		} else {
			report.Valid = append(report.Valid, res)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return report, nil
}

// ListRecentCycles returns cycle ids for a league, newest first.
func (r *ReportRepository) ListRecentCycles(ctx context.Context, league string, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT cycle_id FROM ev_cycles
		WHERE league = $1 ORDER BY generated_at DESC LIMIT $2`, league, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cycle id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
