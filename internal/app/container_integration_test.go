//go:build integration

package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/repository"
	"delivery-orchestrator/internal/service/orchestrator"
	testlog "delivery-orchestrator/internal/testutil"
)

func TestBuildOrchestrator_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.MongoURI = uri
	cfg.DatabaseName = "app_it"

	c, err := NewContainerBuilder(nil).WithConfig(cfg).WithLogger(testlog.New().Logger()).BuildOrchestrator(ctx)
	require.NoError(t, err)

	err = c.Invoke(func(st Store, svc *orchestrator.Service, closeFn storeCloser) {
		defer func() { _ = closeFn(context.Background()) }()
		require.NotNil(t, svc)

		mongoStore, ok := st.(*repository.Store)
		require.True(t, ok)
		require.NoError(t, mongoStore.InsertOrder(ctx, domain.Order{OrderID: "IT-1", ClientID: "C1", RestaurantID: "R1",
			Status: domain.OrderPending}))
		o, err := st.GetOrder(ctx, "IT-1")
		require.NoError(t, err)
		require.Equal(t, domain.OrderPending, o.Status)
	})
	require.NoError(t, err)
}
