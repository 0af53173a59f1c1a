package memstore

import (
	"context"
	"fmt"
	"sort"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/repository"
)

// AddClient, AddRestaurant and AddMenu seed the reference collections joined by enrichment.
func (s *Store) AddClient(c domain.ClientProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ClientID] = c
}

func (s *Store) AddRestaurant(r domain.RestaurantProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.RestaurantID] = r
}

func (s *Store) AddMenu(m domain.MenuEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus[m.MenuID] = m
}

// FindDeliveredOrderIDs pages over delivered orders by ascending order_id.
func (s *Store) FindDeliveredOrderIDs(_ context.Context, page repository.DeliveredPage) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("FindDeliveredOrderIDs"); err != nil {
		return nil, err
	}
	var ids []string
	for id, o := range s.orders {
		if o.Status != domain.OrderDelivered || id <= page.After {
			continue
		}
		if page.From != nil && o.CreatedTS.Before(*page.From) {
			continue
		}
		if page.To != nil && o.CreatedTS.After(*page.To) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if page.Limit > 0 && len(ids) > page.Limit {
		ids = ids[:page.Limit]
	}
	return ids, nil
}

// EnrichOrders joins each order with its reference documents.
func (s *Store) EnrichOrders(_ context.Context, orderIDs []string) ([]domain.EnrichmentSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("EnrichOrders"); err != nil {
		return nil, err
	}
	var out []domain.EnrichmentSource
	for _, id := range orderIDs {
		o, ok := s.orders[id]
		if !ok {
			continue
		}
		src := domain.EnrichmentSource{Order: *copyOrder(o)}
		if c, ok := s.clients[o.ClientID]; ok {
			src.Client = &c
		}
		if d, ok := s.drivers[o.AssignedDriverID]; ok && o.AssignedDriverID != "" {
			src.Driver = &d
		}
		if r, ok := s.restaurants[o.RestaurantID]; ok {
			src.Restaurant = &r
		}
		menuKey := o.MenuID
		if menuKey == "" && len(o.Items) > 0 {
			menuKey = o.Items[0].MenuID
		}
		if m, ok := s.menus[menuKey]; ok && menuKey != "" {
			src.Menu = &m
		}
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order.OrderID < out[j].Order.OrderID })
	return out, nil
}

// BulkInsertHistory inserts records unordered; existing order_numbers count as duplicates.
func (s *Store) BulkInsertHistory(_ context.Context, recs []domain.HistoryRecord) (repository.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("BulkInsertHistory"); err != nil {
		return repository.BulkResult{}, err
	}
	var res repository.BulkResult
	for _, r := range recs {
		if _, ok := s.history[r.OrderNumber]; ok {
			res.Duplicates++
			res.DuplicateIDs = append(res.DuplicateIDs, r.OrderNumber)
			continue
		}
		s.history[r.OrderNumber] = r
		res.Inserted++
	}
	return res, nil
}

// SampleHistory returns the n most recently archived records.
func (s *Store) SampleHistory(_ context.Context, n int) ([]domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HistoryRecord, 0, len(s.history))
	for _, r := range s.history {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ArchivedAt.Equal(out[j].ArchivedAt) {
			return out[i].ArchivedAt.After(out[j].ArchivedAt)
		}
		return out[i].OrderNumber < out[j].OrderNumber
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// HistoryRecord returns the archived record of orderNumber.
func (s *Store) HistoryRecord(orderNumber string) (domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.history[orderNumber]
	if !ok {
		return r, fmt.Errorf("%w: history %s", apperr.ErrNotFound, orderNumber)
	}
	return r, nil
}

// HistoryCount returns the number of archived records.
func (s *Store) HistoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
