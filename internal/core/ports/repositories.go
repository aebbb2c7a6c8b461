package ports

import (
	"context"

	"github.com/medgrid/resqroute/internal/core/domain"
)

// DispatchRepository persists dispatch audit records.
type DispatchRepository interface {
	Insert(ctx context.Context, rec *domain.DispatchRecord) error
	List(ctx context.Context, limit, offset int) ([]domain.DispatchRecord, int, error)
	Report(ctx context.Context, periodDays int) (*domain.DispatchReport, error)
}

// AmbulancePositionRepository persists real-time ambulance positions.
type AmbulancePositionRepository interface {
	Insert(ctx context.Context, pos *domain.AmbulancePosition) error
	Latest(ctx context.Context, ambulanceID string) (*domain.AmbulancePosition, error)
}
