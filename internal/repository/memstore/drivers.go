package memstore

import (
	"context"
	"math"
	"sort"

	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/events"
)

const earthRadiusMeters = 6371008.8

// UpsertDriver is the driver actor's advertisement.
func (s *Store) UpsertDriver(_ context.Context, d domain.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	op := events.OpUpdate
	if _, ok := s.drivers[d.DriverID]; !ok {
		op = events.OpInsert
	}
	s.drivers[d.DriverID] = d
	s.feed.emit(Drivers, op, d)
	return nil
}

// GetDriver returns the driver or nil.
func (s *Store) GetDriver(_ context.Context, driverID string) (*domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetDriver"); err != nil {
		return nil, err
	}
	d, ok := s.drivers[driverID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// FindAvailableDriversByCity returns up to k available drivers of city.
func (s *Store) FindAvailableDriversByCity(_ context.Context, city string, k int) ([]domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return limit(s.available(func(d domain.Driver) bool { return d.City == city }), k), nil
}

// FindAvailableDriversNear returns up to k available drivers within radius, nearest first.
func (s *Store) FindAvailableDriversNear(_ context.Context, p domain.GeoPoint, radiusMeters float64, k int) ([]domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dist := make(map[string]float64)
	in := s.available(func(d domain.Driver) bool {
		if !d.Location.Valid() {
			return false
		}
		m := haversine(&p, d.Location)
		dist[d.DriverID] = m
		return m <= radiusMeters
	})
	sort.SliceStable(in, func(i, j int) bool { return dist[in[i].DriverID] < dist[in[j].DriverID] })
	return limit(in, k), nil
}

// FindAvailableDrivers returns up to k available drivers.
func (s *Store) FindAvailableDrivers(_ context.Context, k int) ([]domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return limit(s.available(func(domain.Driver) bool { return true }), k), nil
}

// ClaimDriver flips an available driver to busy on orderID.
func (s *Store) ClaimDriver(_ context.Context, driverID, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ClaimDriver"); err != nil {
		return false, err
	}
	d, ok := s.drivers[driverID]
	if !ok || d.Status != domain.DriverAvailable {
		return false, nil
	}
	d.Status = domain.DriverBusy
	d.CurrentOrderID = orderID
	s.drivers[driverID] = d
	s.feed.emit(Drivers, events.OpUpdate, d)
	return true, nil
}

// ReleaseDriver returns a driver busy on orderID to available.
func (s *Store) ReleaseDriver(_ context.Context, driverID, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[driverID]
	if !ok || d.Status != domain.DriverBusy || d.CurrentOrderID != orderID {
		return false, nil
	}
	d.Status = domain.DriverAvailable
	d.CurrentOrderID = ""
	s.drivers[driverID] = d
	s.feed.emit(Drivers, events.OpUpdate, d)
	return true, nil
}

// available returns matching available drivers sorted by id; the caller holds the lock.
func (s *Store) available(keep func(domain.Driver) bool) []domain.Driver {
	var out []domain.Driver
	for _, d := range s.drivers {
		if d.Status == domain.DriverAvailable && keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverID < out[j].DriverID })
	return out
}

func limit(ds []domain.Driver, k int) []domain.Driver {
	if k >= 0 && len(ds) > k {
		return ds[:k]
	}
	return ds
}

func haversine(a, b *domain.GeoPoint) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(b.Lat() - a.Lat())
	dLon := rad(b.Lon() - a.Lon())
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat()))*math.Cos(rad(b.Lat()))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
