//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/repository"
)

var (
	tcClient *mongo.Client
	dbSeq    atomic.Int64
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	// change streams need a replica set
	container, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	if err != nil {
		log.Fatalf("failed to start mongodb testcontainer: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		if termErr := container.Terminate(ctx); termErr != nil {
			log.Printf("failed to terminate container after conn string error: %v", termErr)
		}
		log.Fatalf("failed to get connection string from container: %v", err)
	}

	client, err := repository.Connect(ctx, uri)
	if err != nil {
		if termErr := container.Terminate(ctx); termErr != nil {
			log.Printf("failed to terminate container after connect error: %v", termErr)
		}
		log.Fatalf("failed to connect to mongodb in testcontainer: %v", err)
	}
	tcClient = client

	code := m.Run()

	_ = client.Disconnect(ctx)
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate mongodb container: %v", err)
	}

	os.Exit(code)
}

// newStore returns a store on a fresh database with indexes in place.
func newStore(t *testing.T) *repository.Store {
	t.Helper()

	db := tcClient.Database(fmt.Sprintf("it_%d", dbSeq.Add(1)))
	retry := repository.NewRetrier(logx.Nop(), nil, repository.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    50 * time.Millisecond,
	})
	store := repository.NewStore(db, repository.DefaultCollections(), retry, 5*time.Second)
	if err := store.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	return store
}
