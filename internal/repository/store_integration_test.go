//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/events"
	"delivery-orchestrator/internal/repository"
)

type StoreSuite struct {
	suite.Suite
	store *repository.Store
}

func (s *StoreSuite) SetupTest() {
	s.store = newStore(s.T())
}

func (s *StoreSuite) order(id string) domain.Order {
	return domain.Order{
		OrderID:      id,
		ClientID:     "c1",
		RestaurantID: "r1",
		MenuID:       "m1",
		TotalAmount:  30,
		City:         "Paris",
		Status:       domain.OrderPending,
		CreatedTS:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (s *StoreSuite) TestUpdateOrderIfStatus_CAS() {
	ctx := context.Background()
	s.Require().NoError(s.store.InsertOrder(ctx, s.order("o1")))

	applied, cur, err := s.store.UpdateOrderIfStatus(ctx, "o1", domain.OrderPending, domain.OrderWaitingForResto, nil)
	s.Require().NoError(err)
	s.True(applied)
	s.Equal(domain.OrderWaitingForResto, cur.Status)

	applied, cur, err = s.store.UpdateOrderIfStatus(ctx, "o1", domain.OrderPending, domain.OrderCancelled, nil)
	s.Require().NoError(err)
	s.False(applied)
	s.Equal(domain.OrderWaitingForResto, cur.Status)

	applied, cur, err = s.store.UpdateOrderIfStatus(ctx, "missing", domain.OrderPending, domain.OrderCancelled, nil)
	s.Require().NoError(err)
	s.False(applied)
	s.Nil(cur)
}

func (s *StoreSuite) TestUpdateOrderIfStatus_AssignedDriverSetOnce() {
	ctx := context.Background()
	o := s.order("o2")
	o.Status = domain.OrderWaitingForDriver
	o.AssignedDriverID = "d0"
	s.Require().NoError(s.store.InsertOrder(ctx, o))

	applied, _, err := s.store.UpdateOrderIfStatus(ctx, "o2", domain.OrderWaitingForDriver, domain.OrderAssigned,
		domain.Patch{"assigned_driver_id": "d1"})
	s.Require().NoError(err)
	s.False(applied)
}

func (s *StoreSuite) TestRequestCancel() {
	ctx := context.Background()
	s.Require().NoError(s.store.InsertOrder(ctx, s.order("o3")))

	applied, cur, err := s.store.RequestCancel(ctx, "o3")
	s.Require().NoError(err)
	s.True(applied)
	s.Equal(domain.OrderCancelRequested, cur.Status)

	applied, _, err = s.store.RequestCancel(ctx, "o3")
	s.Require().NoError(err)
	s.False(applied)
}

func (s *StoreSuite) TestDuplicates() {
	ctx := context.Background()
	s.Require().NoError(s.store.InsertOrder(ctx, s.order("o4")))
	s.ErrorIs(s.store.InsertOrder(ctx, s.order("o4")), apperr.ErrDuplicate)

	rr := domain.RestaurantRequest{OrderID: "o4", RestaurantID: "r1", Status: domain.RequestRequested, RequestedTS: time.Now()}
	s.Require().NoError(s.store.InsertRestaurantRequest(ctx, rr))
	s.ErrorIs(s.store.InsertRestaurantRequest(ctx, rr), apperr.ErrDuplicate)

	drs := []domain.DeliveryRequest{
		{OrderID: "o4", DriverID: "d1", Status: domain.RequestRequested, RequestedTS: time.Now()},
		{OrderID: "o4", DriverID: "d2", Status: domain.RequestRequested, RequestedTS: time.Now()},
	}
	n, err := s.store.InsertDeliveryRequests(ctx, drs)
	s.Require().NoError(err)
	s.Equal(2, n)
	n, err = s.store.InsertDeliveryRequests(ctx, drs)
	s.Require().NoError(err)
	s.Zero(n)

	notif := domain.Notification{ID: "n1", OrderID: "o4", Recipient: domain.ToClient("c1"), Kind: domain.KindOrderCancelled}
	s.Require().NoError(s.store.InsertNotification(ctx, notif))
	notif.ID = "n2"
	s.ErrorIs(s.store.InsertNotification(ctx, notif), apperr.ErrDuplicate)
}

func (s *StoreSuite) TestClaimAndReleaseDriver() {
	ctx := context.Background()
	s.Require().NoError(s.store.UpsertDriver(ctx, domain.Driver{
		DriverID: "d1", Status: domain.DriverAvailable, City: "Paris", Location: domain.NewPoint(2.35, 48.85),
	}))

	ok, err := s.store.ClaimDriver(ctx, "d1", "o1")
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.store.ClaimDriver(ctx, "d1", "o2")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.ReleaseDriver(ctx, "d1", "o2")
	s.Require().NoError(err)
	s.False(ok)
	ok, err = s.store.ReleaseDriver(ctx, "d1", "o1")
	s.Require().NoError(err)
	s.True(ok)

	d, err := s.store.GetDriver(ctx, "d1")
	s.Require().NoError(err)
	s.Equal(domain.DriverAvailable, d.Status)
	s.Empty(d.CurrentOrderID)
}

func (s *StoreSuite) TestFindAvailableDriversNear() {
	ctx := context.Background()
	s.Require().NoError(s.store.UpsertDriver(ctx, domain.Driver{DriverID: "near", Status: domain.DriverAvailable, Location: domain.NewPoint(2.350, 48.850)}))
	s.Require().NoError(s.store.UpsertDriver(ctx, domain.Driver{DriverID: "far", Status: domain.DriverAvailable, Location: domain.NewPoint(4.83, 45.76)}))
	s.Require().NoError(s.store.UpsertDriver(ctx, domain.Driver{DriverID: "busy", Status: domain.DriverBusy, Location: domain.NewPoint(2.351, 48.851)}))

	got, err := s.store.FindAvailableDriversNear(ctx, *domain.NewPoint(2.352, 48.852), 5000, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("near", got[0].DriverID)
}

func (s *StoreSuite) TestEnrichOrdersAndHistory() {
	ctx := context.Background()
	cols := s.store.Collections()
	o := s.order("o5")
	o.Status = domain.OrderDelivered
	o.AssignedDriverID = "d1"
	o.MenuID = ""
	o.Items = []domain.Item{{MenuID: "m1", Quantity: 1, Price: 30}}
	s.Require().NoError(s.store.InsertOrder(ctx, o))
	s.Require().NoError(s.store.UpsertDriver(ctx, domain.Driver{DriverID: "d1", Status: domain.DriverAvailable, Name: "Dan"}))
	_, err := tcClient.Database(s.databaseName()).Collection(cols.Menus).InsertOne(ctx, domain.MenuEntry{MenuID: "m1", Name: "Burger"})
	s.Require().NoError(err)

	ids, err := s.store.FindDeliveredOrderIDs(ctx, repository.DeliveredPage{Limit: 10})
	s.Require().NoError(err)
	s.Equal([]string{"o5"}, ids)

	src, err := s.store.EnrichOrders(ctx, ids)
	s.Require().NoError(err)
	s.Require().Len(src, 1)
	s.Equal("o5", src[0].Order.OrderID)
	s.Nil(src[0].Client)
	s.Require().NotNil(src[0].Driver)
	s.Equal("Dan", src[0].Driver.Name)
	s.Require().NotNil(src[0].Menu)
	s.Equal("Burger", src[0].Menu.Name)

	rec := domain.HistoryRecord{OrderNumber: "o5", Status: "delivered", ArchivedBy: "archive v2.0.0"}
	res, err := s.store.BulkInsertHistory(ctx, []domain.HistoryRecord{rec})
	s.Require().NoError(err)
	s.Equal(1, res.Inserted)
	res, err = s.store.BulkInsertHistory(ctx, []domain.HistoryRecord{{OrderNumber: "o6"}, rec})
	s.Require().NoError(err)
	s.Equal(1, res.Inserted)
	s.Equal(1, res.Duplicates)
	s.Equal([]string{"o5"}, res.DuplicateIDs)
}

func (s *StoreSuite) TestCursorRoundTrip() {
	ctx := context.Background()
	tok, err := s.store.LoadCursor(ctx, "orders.pending")
	s.Require().NoError(err)
	s.Nil(tok)

	s.Require().NoError(s.store.PersistCursor(ctx, "orders.pending", []byte("tok")))
	tok, err = s.store.LoadCursor(ctx, "orders.pending")
	s.Require().NoError(err)
	s.Equal([]byte("tok"), tok)
}

func (s *StoreSuite) TestWatchDeliversPostImage() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	stream, err := s.store.Watch(ctx, s.store.Collections().Orders,
		events.Filter{Ops: []events.Op{events.OpInsert}, Statuses: []string{string(domain.OrderPending)}}, nil)
	s.Require().NoError(err)
	defer stream.Close(context.Background())

	s.Require().NoError(s.store.InsertOrder(ctx, s.order("o6")))
	s.Require().True(stream.Next(ctx), "stream error: %v", stream.Err())

	ev := stream.Event()
	s.Equal("o6", ev.Key())
	s.Equal(string(domain.OrderPending), ev.Status())
	s.NotEmpty(ev.Token)
}

func (s *StoreSuite) databaseName() string {
	return s.store.DatabaseName()
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}
