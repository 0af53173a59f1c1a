package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"delivery-orchestrator/internal/domain"
)

// DeliveredPage selects a page of delivered orders for batch archiving.
// From and To bound created_ts; After is the last order_id of the previous page.
type DeliveredPage struct {
	From  *time.Time
	To    *time.Time
	After string
	Limit int
}

// FindDeliveredOrderIDs returns delivered order ids in ascending order.
func (s *Store) FindDeliveredOrderIDs(ctx context.Context, page DeliveredPage) ([]string, error) {
	filter := bson.M{"status": domain.OrderDelivered}
	if page.After != "" {
		filter["order_id"] = bson.M{"$gt": page.After}
	}
	created := bson.M{}
	if page.From != nil {
		created["$gte"] = *page.From
	}
	if page.To != nil {
		created["$lte"] = *page.To
	}
	if len(created) > 0 {
		filter["created_ts"] = created
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "order_id", Value: 1}}).
		SetProjection(bson.M{"order_id": 1, "_id": 0})
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}

	var ids []string
	err := s.do(ctx, "FindDeliveredOrderIDs", func(ctx context.Context) error {
		cur, err := s.coll(s.cols.Orders).Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		var rows []struct {
			OrderID string `bson:"order_id"`
		}
		if err := cur.All(ctx, &rows); err != nil {
			return err
		}
		ids = make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.OrderID)
		}
		return nil
	})
	return ids, err
}

// EnrichOrders joins each order with its client, driver, restaurant and menu in one
// aggregation. Missing joins come back as nil.
func (s *Store) EnrichOrders(ctx context.Context, orderIDs []string) ([]domain.EnrichmentSource, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var out []domain.EnrichmentSource
	err := s.do(ctx, "EnrichOrders", func(ctx context.Context) error {
		cur, err := s.coll(s.cols.Orders).Aggregate(ctx, s.enrichPipeline(orderIDs))
		if err != nil {
			return err
		}
		out = nil
		return cur.All(ctx, &out)
	})
	return out, err
}

func (s *Store) enrichPipeline(orderIDs []string) bson.A {
	lookup := func(from, local, foreign, as string) bson.M {
		return bson.M{"$lookup": bson.M{
			"from":         from,
			"localField":   local,
			"foreignField": foreign,
			"as":           as,
		}}
	}
	first := func(field string) bson.M {
		return bson.M{"$arrayElemAt": bson.A{field, 0}}
	}
	return bson.A{
		bson.M{"$match": bson.M{"order_id": bson.M{"$in": orderIDs}}},
		bson.M{"$addFields": bson.M{
			"_menu_key": bson.M{"$ifNull": bson.A{"$menu_id", bson.M{"$arrayElemAt": bson.A{"$items.menu_id", 0}}}},
		}},
		lookup(s.cols.Clients, "client_id", "client_id", "_client"),
		lookup(s.cols.Drivers, "assigned_driver_id", "driver_id", "_driver"),
		lookup(s.cols.Restaurants, "restaurant_id", "restaurant_id", "_restaurant"),
		lookup(s.cols.Menus, "_menu_key", "menu_id", "_menu"),
		bson.M{"$project": bson.M{
			"_id":        0,
			"order":      "$$ROOT",
			"client":     first("$_client"),
			"driver":     first("$_driver"),
			"restaurant": first("$_restaurant"),
			"menu":       first("$_menu"),
		}},
		bson.M{"$sort": bson.M{"order.order_id": 1}},
	}
}

// BulkInsertHistory inserts records unordered; records whose order_number already exists
// are reported as duplicates.
func (s *Store) BulkInsertHistory(ctx context.Context, recs []domain.HistoryRecord) (BulkResult, error) {
	docs := make([]any, len(recs))
	ids := make([]string, len(recs))
	for i := range recs {
		docs[i] = recs[i]
		ids[i] = recs[i].OrderNumber
	}
	return s.bulkInsertUnordered(ctx, "BulkInsertHistory", s.cols.History, docs, ids)
}

// SampleHistory returns the n most recently archived records.
func (s *Store) SampleHistory(ctx context.Context, n int) ([]domain.HistoryRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "archived_at", Value: -1}, {Key: "order_number", Value: 1}}).
		SetLimit(int64(n)).
		SetProjection(bson.M{"_id": 0})
	var out []domain.HistoryRecord
	err := s.do(ctx, "SampleHistory", func(ctx context.Context) error {
		cur, err := s.coll(s.cols.History).Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		out = nil
		return cur.All(ctx, &out)
	})
	return out, err
}
