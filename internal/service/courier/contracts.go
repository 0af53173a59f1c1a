package courier

import (
	"context"

	"delivery-orchestrator/internal/domain"
)

// driverFinder defines the read-only driver queries the selector needs.
type driverFinder interface {
	FindAvailableDriversByCity(ctx context.Context, city string, k int) ([]domain.Driver, error)
	FindAvailableDriversNear(ctx context.Context, p domain.GeoPoint, radiusMeters float64, k int) ([]domain.Driver, error)
	FindAvailableDrivers(ctx context.Context, k int) ([]domain.Driver, error)
}
