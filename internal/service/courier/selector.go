package courier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/logx"
)

// Strategy names the query that produced the candidates.
type Strategy string

// Strategies in the order they are tried.
const (
	StrategyCity Strategy = "city"
	StrategyGeo  Strategy = "geo"
	StrategyAny  Strategy = "any"
	StrategyNone Strategy = "none"
)

// Selector returns up to K available drivers for an order. Selection does not reserve anyone;
// the orchestrator's CAS on the driver does.
type Selector struct {
	repo             driverFinder
	k                int
	radiusMeters     float64
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewSelector creates a Selector.
func NewSelector(r driverFinder, k int, radiusMeters float64, timeout time.Duration, logger logx.Logger) *Selector {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if k < 0 {
		k = 0
	}
	return &Selector{repo: r, k: k, radiusMeters: radiusMeters, operationTimeout: timeout, logger: logger}
}

func (s *Selector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Select tries the order's city, then its location, then any available driver.
// The first non-empty result wins.
func (s *Selector) Select(ctx context.Context, o domain.Order) ([]string, error) {
	ids, strategy, err := s.selectWithStrategy(ctx, o)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("candidates selected",
		logx.OrderID(o.OrderID),
		logx.String("strategy", string(strategy)),
		logx.Int("count", len(ids)),
	)
	return ids, nil
}

func (s *Selector) selectWithStrategy(ctx context.Context, o domain.Order) ([]string, Strategy, error) {
	if s.k == 0 {
		return nil, StrategyNone, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if city := strings.TrimSpace(o.City); city != "" {
		ds, err := s.repo.FindAvailableDriversByCity(ctx, city, s.k)
		if err != nil {
			return nil, StrategyCity, fmt.Errorf("drivers by city: %w", err)
		}
		if len(ds) > 0 {
			return driverIDs(ds, s.k), StrategyCity, nil
		}
	}

	if o.Location.Valid() {
		ds, err := s.repo.FindAvailableDriversNear(ctx, *o.Location, s.radiusMeters, s.k)
		if err != nil {
			return nil, StrategyGeo, fmt.Errorf("drivers near: %w", err)
		}
		if len(ds) > 0 {
			return driverIDs(ds, s.k), StrategyGeo, nil
		}
	}

	ds, err := s.repo.FindAvailableDrivers(ctx, s.k)
	if err != nil {
		return nil, StrategyAny, fmt.Errorf("any available driver: %w", err)
	}
	if len(ds) == 0 {
		return nil, StrategyNone, nil
	}
	return driverIDs(ds, s.k), StrategyAny, nil
}

func driverIDs(ds []domain.Driver, k int) []string {
	out := make([]string, 0, min(len(ds), k))
	seen := make(map[string]struct{}, len(ds))
	for _, d := range ds {
		if len(out) == k {
			break
		}
		if d.DriverID == "" || d.Status != domain.DriverAvailable {
			continue
		}
		if _, dup := seen[d.DriverID]; dup {
			continue
		}
		seen[d.DriverID] = struct{}{}
		out = append(out, d.DriverID)
	}
	return out
}
