package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes the idempotency of the core relies on, plus
// the query indexes of candidate search and recovery.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	plan := map[string][]mongo.IndexModel{
		s.cols.Orders: {
			unique(bson.D{{Key: "order_id", Value: 1}}),
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_ts", Value: 1}}},
		},
		s.cols.RestaurantRequests: {
			unique(bson.D{{Key: "order_id", Value: 1}}),
		},
		s.cols.DeliveryRequests: {
			unique(bson.D{{Key: "order_id", Value: 1}, {Key: "driver_id", Value: 1}}),
		},
		s.cols.Notifications: {
			unique(bson.D{
				{Key: "order_id", Value: 1},
				{Key: "recipient.role", Value: 1},
				{Key: "recipient.id", Value: 1},
				{Key: "kind", Value: 1},
			}),
		},
		s.cols.Refunds: {
			unique(bson.D{{Key: "order_id", Value: 1}, {Key: "beneficiary", Value: 1}}),
		},
		s.cols.Metrics: {
			unique(bson.D{{Key: "order_id", Value: 1}}),
		},
		s.cols.Drivers: {
			unique(bson.D{{Key: "driver_id", Value: 1}}),
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "city", Value: 1}}},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		s.cols.History: {
			unique(bson.D{{Key: "order_number", Value: 1}}),
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "order_date", Value: 1}}},
		},
	}

	for collection, models := range plan {
		err := s.do(ctx, "EnsureIndexes", func(ctx context.Context) error {
			_, err := s.coll(collection).Indexes().CreateMany(ctx, models)
			return err
		})
		if err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", collection, err)
		}
	}
	return nil
}
