package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens a client and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("delivery-orchestrator"))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Collections names every collection the core touches.
type Collections struct {
	Orders             string
	RestaurantRequests string
	DeliveryRequests   string
	Notifications      string
	Refunds            string
	Metrics            string
	Drivers            string
	History            string
	Clients            string
	Restaurants        string
	Menus              string
	Cursors            string
}

// DefaultCollections returns the production collection names.
func DefaultCollections() Collections {
	return Collections{
		Orders:             "Orders",
		RestaurantRequests: "RestaurantRequests",
		DeliveryRequests:   "DeliveryRequests",
		Notifications:      "Notifications",
		Refunds:            "Refunds",
		Metrics:            "Metrics",
		Drivers:            "Drivers",
		History:            "History",
		Clients:            "Client",
		Restaurants:        "Restaurant",
		Menus:              "Menu",
		Cursors:            "Cursors",
	}
}

// Store is the MongoDB implementation of the store adapter.
type Store struct {
	db               *mongo.Database
	cols             Collections
	retry            *Retrier
	operationTimeout time.Duration
	now              func() time.Time
}

// NewStore binds a Store to db.
func NewStore(db *mongo.Database, cols Collections, retry *Retrier, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{
		db:               db,
		cols:             cols,
		retry:            retry,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Collections returns the names the store was built with.
func (s *Store) Collections() Collections { return s.cols }

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// do runs one store call under the operation timeout and the retry policy.
func (s *Store) do(ctx context.Context, method string, fn func(context.Context) error) error {
	return s.retry.Do(ctx, method, func(ctx context.Context) error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		return classify(fn(ctx))
	})
}

// DatabaseName returns the name of the bound database.
func (s *Store) DatabaseName() string { return s.db.Name() }
