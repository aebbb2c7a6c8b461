package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medgrid/resqroute/internal/core/domain"
)

// AmbulancePositionRepo implements ports.AmbulancePositionRepository.
type AmbulancePositionRepo struct {
	db *DB
}

func NewAmbulancePositionRepo(db *DB) *AmbulancePositionRepo {
	return &AmbulancePositionRepo{db: db}
}

func (r *AmbulancePositionRepo) Insert(ctx context.Context, pos *domain.AmbulancePosition) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO ambulance_positions (time, ambulance_id, lat, lon, status)
		VALUES ($1, $2, $3, $4, $5)
	`, pos.Time, pos.AmbulanceID, pos.Location.Lat, pos.Location.Lon, nilIfEmpty(pos.Status))
	return err
}

func (r *AmbulancePositionRepo) Latest(ctx context.Context, ambulanceID string) (*domain.AmbulancePosition, error) {
	var pos domain.AmbulancePosition
	var status sql.NullString
	err := r.db.Pool.QueryRow(ctx, `
		SELECT time, ambulance_id, lat, lon, status
		FROM ambulance_positions
		WHERE ambulance_id = $1
		ORDER BY time DESC
		LIMIT 1
	`, ambulanceID).Scan(&pos.Time, &pos.AmbulanceID, &pos.Location.Lat, &pos.Location.Lon, &status)
	if err != nil {
		return nil, fmt.Errorf("latest position for %s: %w", ambulanceID, err)
	}
	pos.Status = status.String
	return &pos, nil
}
