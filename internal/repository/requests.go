package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"delivery-orchestrator/internal/domain"
)

// InsertRestaurantRequest stores the solicitation; a second one for the same order is
// reported as apperr.ErrDuplicate.
func (s *Store) InsertRestaurantRequest(ctx context.Context, rr domain.RestaurantRequest) error {
	return s.do(ctx, "InsertRestaurantRequest", func(ctx context.Context) error {
		_, err := s.coll(s.cols.RestaurantRequests).InsertOne(ctx, rr)
		return err
	})
}

// GetRestaurantRequest returns the request of an order or nil.
func (s *Store) GetRestaurantRequest(ctx context.Context, orderID string) (*domain.RestaurantRequest, error) {
	var out *domain.RestaurantRequest
	err := s.do(ctx, "GetRestaurantRequest", func(ctx context.Context) error {
		var rr domain.RestaurantRequest
		err := s.coll(s.cols.RestaurantRequests).FindOne(ctx, bson.M{"order_id": orderID}).Decode(&rr)
		if IsNotFound(err) {
			out = nil
			return nil
		}
		if err != nil {
			return err
		}
		out = &rr
		return nil
	})
	return out, err
}

// RespondRestaurantRequest is the restaurant actor's write.
func (s *Store) RespondRestaurantRequest(ctx context.Context, orderID string, status domain.RequestStatus, prepMinutes *int, reason string) error {
	set := bson.M{"status": status, "responded_ts": s.now()}
	if prepMinutes != nil {
		set["prep_time_minutes"] = *prepMinutes
	}
	if reason != "" {
		set["reject_reason"] = reason
	}
	return s.do(ctx, "RespondRestaurantRequest", func(ctx context.Context) error {
		_, err := s.coll(s.cols.RestaurantRequests).UpdateOne(ctx,
			bson.M{"order_id": orderID, "status": domain.RequestRequested},
			bson.M{"$set": set},
		)
		return err
	})
}

// InsertDeliveryRequests offers the order to each candidate. Offers already present are
// counted as duplicates.
func (s *Store) InsertDeliveryRequests(ctx context.Context, drs []domain.DeliveryRequest) (int, error) {
	docs := make([]any, len(drs))
	ids := make([]string, len(drs))
	for i := range drs {
		docs[i] = drs[i]
		ids[i] = drs[i].DriverID
	}
	res, err := s.bulkInsertUnordered(ctx, "InsertDeliveryRequests", s.cols.DeliveryRequests, docs, ids)
	if err != nil {
		return res.Inserted, err
	}
	return res.Inserted, nil
}

// ListDeliveryRequests returns the offers of an order, in request order.
func (s *Store) ListDeliveryRequests(ctx context.Context, orderID string) ([]domain.DeliveryRequest, error) {
	var out []domain.DeliveryRequest
	err := s.do(ctx, "ListDeliveryRequests", func(ctx context.Context) error {
		cur, err := s.coll(s.cols.DeliveryRequests).Find(ctx, bson.M{"order_id": orderID},
			options.Find().SetSort(bson.D{{Key: "requested_ts", Value: 1}, {Key: "driver_id", Value: 1}}))
		if err != nil {
			return err
		}
		out = nil
		return cur.All(ctx, &out)
	})
	return out, err
}

// RespondDeliveryRequest is the driver actor's write.
func (s *Store) RespondDeliveryRequest(ctx context.Context, orderID, driverID string, status domain.RequestStatus) error {
	return s.do(ctx, "RespondDeliveryRequest", func(ctx context.Context) error {
		_, err := s.coll(s.cols.DeliveryRequests).UpdateOne(ctx,
			bson.M{"order_id": orderID, "driver_id": driverID, "status": domain.RequestRequested},
			bson.M{"$set": bson.M{"status": status, "responded_ts": s.now()}},
		)
		return err
	})
}
