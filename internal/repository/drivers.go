package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"delivery-orchestrator/internal/domain"
)

// UpsertDriver is the driver actor's advertisement of status, city and location.
func (s *Store) UpsertDriver(ctx context.Context, d domain.Driver) error {
	return s.do(ctx, "UpsertDriver", func(ctx context.Context) error {
		_, err := s.coll(s.cols.Drivers).ReplaceOne(ctx, bson.M{"driver_id": d.DriverID}, d,
			options.Replace().SetUpsert(true))
		return err
	})
}

// GetDriver returns the driver or nil.
func (s *Store) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	var out *domain.Driver
	err := s.do(ctx, "GetDriver", func(ctx context.Context) error {
		var d domain.Driver
		err := s.coll(s.cols.Drivers).FindOne(ctx, bson.M{"driver_id": driverID}).Decode(&d)
		if IsNotFound(err) {
			out = nil
			return nil
		}
		if err != nil {
			return err
		}
		out = &d
		return nil
	})
	return out, err
}

// FindAvailableDriversByCity returns up to k available drivers of city.
func (s *Store) FindAvailableDriversByCity(ctx context.Context, city string, k int) ([]domain.Driver, error) {
	return s.findDrivers(ctx, "FindAvailableDriversByCity",
		bson.M{"status": domain.DriverAvailable, "city": city},
		options.Find().SetSort(bson.D{{Key: "driver_id", Value: 1}}).SetLimit(int64(k)))
}

// FindAvailableDriversNear returns up to k available drivers within radius meters, nearest first.
func (s *Store) FindAvailableDriversNear(ctx context.Context, p domain.GeoPoint, radiusMeters float64, k int) ([]domain.Driver, error) {
	return s.findDrivers(ctx, "FindAvailableDriversNear",
		bson.M{
			"status": domain.DriverAvailable,
			"location": bson.M{"$nearSphere": bson.M{
				"$geometry":    p,
				"$maxDistance": radiusMeters,
			}},
		},
		options.Find().SetLimit(int64(k)))
}

// FindAvailableDrivers returns up to k available drivers.
func (s *Store) FindAvailableDrivers(ctx context.Context, k int) ([]domain.Driver, error) {
	return s.findDrivers(ctx, "FindAvailableDrivers",
		bson.M{"status": domain.DriverAvailable},
		options.Find().SetSort(bson.D{{Key: "driver_id", Value: 1}}).SetLimit(int64(k)))
}

func (s *Store) findDrivers(ctx context.Context, method string, filter bson.M, opts *options.FindOptions) ([]domain.Driver, error) {
	var out []domain.Driver
	err := s.do(ctx, method, func(ctx context.Context) error {
		cur, err := s.coll(s.cols.Drivers).Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		out = nil
		return cur.All(ctx, &out)
	})
	return out, err
}

// ClaimDriver flips an available driver to busy on orderID. It reports false when the
// driver is no longer available.
func (s *Store) ClaimDriver(ctx context.Context, driverID, orderID string) (bool, error) {
	return s.updateDriver(ctx, "ClaimDriver",
		bson.M{"driver_id": driverID, "status": domain.DriverAvailable},
		bson.M{"$set": bson.M{"status": domain.DriverBusy, "current_order_id": orderID}},
	)
}

// ReleaseDriver returns a driver busy on orderID to available.
func (s *Store) ReleaseDriver(ctx context.Context, driverID, orderID string) (bool, error) {
	return s.updateDriver(ctx, "ReleaseDriver",
		bson.M{"driver_id": driverID, "status": domain.DriverBusy, "current_order_id": orderID},
		bson.M{"$set": bson.M{"status": domain.DriverAvailable}, "$unset": bson.M{"current_order_id": ""}},
	)
}

func (s *Store) updateDriver(ctx context.Context, method string, filter, update bson.M) (bool, error) {
	var applied bool
	err := s.do(ctx, method, func(ctx context.Context) error {
		res, err := s.coll(s.cols.Drivers).UpdateOne(ctx, filter, update)
		if err != nil {
			return err
		}
		applied = res.ModifiedCount == 1
		return nil
	})
	return applied, err
}
