package postgres

import (
	"context"
	"fmt"

	"github.com/medgrid/resqroute/internal/core/domain"
)

// DispatchRepo implements ports.DispatchRepository.
type DispatchRepo struct {
	db *DB
}

func NewDispatchRepo(db *DB) *DispatchRepo {
	return &DispatchRepo{db: db}
}

func (r *DispatchRepo) Insert(ctx context.Context, rec *domain.DispatchRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO dispatches (id, call_id, incident_lat, incident_lon, facility_id, facility_name,
			category, priority, total_distance_km, eta_minutes, fallback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, rec.ID, nilIfEmpty(rec.CallID), rec.Incident.Lat, rec.Incident.Lon,
		rec.FacilityID, rec.FacilityName, nilIfEmpty(rec.Category), nilIfEmpty(rec.Priority),
		rec.TotalDistanceKm, rec.ETAMinutes, rec.Fallback, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dispatch: %w", err)
	}
	return nil
}

func (r *DispatchRepo) List(ctx context.Context, limit, offset int) ([]domain.DispatchRecord, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM dispatches`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, COALESCE(call_id, ''), incident_lat, incident_lon, facility_id, facility_name,
			COALESCE(category, ''), COALESCE(priority, ''), total_distance_km, eta_minutes, fallback, created_at
		FROM dispatches
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []domain.DispatchRecord
	for rows.Next() {
		var rec domain.DispatchRecord
		if err := rows.Scan(
			&rec.ID, &rec.CallID, &rec.Incident.Lat, &rec.Incident.Lon,
			&rec.FacilityID, &rec.FacilityName, &rec.Category, &rec.Priority,
			&rec.TotalDistanceKm, &rec.ETAMinutes, &rec.Fallback, &rec.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func (r *DispatchRepo) Report(ctx context.Context, periodDays int) (*domain.DispatchReport, error) {
	report := &domain.DispatchReport{
		PeriodDays:        periodDays,
		CategoryBreakdown: map[string]int{},
		PriorityBreakdown: map[string]int{},
	}

	row := r.db.Pool.QueryRow(ctx, `
		SELECT count(*),
			COALESCE(avg(eta_minutes) FILTER (WHERE NOT fallback), 0),
			count(*) FILTER (WHERE fallback)
		FROM dispatches
		WHERE created_at > now() - make_interval(days => $1)
	`, periodDays)
	if err := row.Scan(&report.TotalDispatches, &report.AvgETAMinutes, &report.FallbackCount); err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT COALESCE(NULLIF(category, ''), 'general'), count(*)
		FROM dispatches
		WHERE created_at > now() - make_interval(days => $1)
		GROUP BY 1
	`, periodDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		report.CategoryBreakdown[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := r.db.Pool.Query(ctx, `
		SELECT COALESCE(NULLIF(priority, ''), 'unknown'), count(*)
		FROM dispatches
		WHERE created_at > now() - make_interval(days => $1)
		GROUP BY 1
	`, periodDays)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var priority string
		var n int
		if err := prows.Scan(&priority, &n); err != nil {
			return nil, err
		}
		report.PriorityBreakdown[priority] = n
	}
	return report, prows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
