package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/events"
	"delivery-orchestrator/internal/repository/memstore"
)

func newOrder(id string) domain.Order {
	return domain.Order{OrderID: id, ClientID: "c1", RestaurantID: "r1", TotalAmount: 20, Status: domain.OrderPending}
}

func TestUpdateOrderIfStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.InsertOrder(ctx, newOrder("o1")))

	now := time.Now().UTC()
	applied, cur, err := s.UpdateOrderIfStatus(ctx, "o1", domain.OrderPending, domain.OrderWaitingForResto,
		domain.Patch{"ready_ts": now, "prep_time_minutes": 12})
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, domain.OrderWaitingForResto, cur.Status)
	require.NotNil(t, cur.ReadyTS)
	require.WithinDuration(t, now, *cur.ReadyTS, time.Millisecond)
	require.Equal(t, 12, *cur.PrepTimeMinutes)

	applied, cur, err = s.UpdateOrderIfStatus(ctx, "o1", domain.OrderPending, domain.OrderCancelled, nil)
	require.NoError(t, err)
	require.False(t, applied)
	require.Equal(t, domain.OrderWaitingForResto, cur.Status)
}

func TestAssignedDriverIsSetOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	o := newOrder("o1")
	o.Status = domain.OrderWaitingForDriver
	require.NoError(t, s.InsertOrder(ctx, o))

	applied, _, err := s.UpdateOrderIfStatus(ctx, "o1", domain.OrderWaitingForDriver, domain.OrderAssigned,
		domain.Patch{"assigned_driver_id": "d1"})
	require.NoError(t, err)
	require.True(t, applied)

	applied, cur, err := s.UpdateOrderIfStatus(ctx, "o1", domain.OrderAssigned, domain.OrderAssigned,
		domain.Patch{"assigned_driver_id": "d2"})
	require.NoError(t, err)
	require.False(t, applied)
	require.Equal(t, "d1", cur.AssignedDriverID)
}

func TestUniqueKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()

	n := domain.Notification{ID: "a", OrderID: "o1", Recipient: domain.ToClient("c1"), Kind: domain.KindOrderCancelled}
	require.NoError(t, s.InsertNotification(ctx, n))
	n.ID = "b"
	require.ErrorIs(t, s.InsertNotification(ctx, n), apperr.ErrDuplicate)

	r := domain.Refund{OrderID: "o1", Beneficiary: domain.BeneficiaryClient, Amount: 10}
	require.NoError(t, s.InsertRefund(ctx, r))
	require.ErrorIs(t, s.InsertRefund(ctx, r), apperr.ErrDuplicate)
	require.Len(t, s.Refunds("o1"), 1)

	drs := []domain.DeliveryRequest{{OrderID: "o1", DriverID: "d1"}, {OrderID: "o1", DriverID: "d2"}}
	inserted, err := s.InsertDeliveryRequests(ctx, drs)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)
	inserted, err = s.InsertDeliveryRequests(ctx, drs)
	require.NoError(t, err)
	require.Zero(t, inserted)
}

func TestClaimAndRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.UpsertDriver(ctx, domain.Driver{DriverID: "d1", Status: domain.DriverAvailable}))

	ok, err := s.ClaimDriver(ctx, "d1", "o1")
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = s.ClaimDriver(ctx, "d1", "o2")
	require.False(t, ok)
	ok, _ = s.ReleaseDriver(ctx, "d1", "o2")
	require.False(t, ok)
	ok, _ = s.ReleaseDriver(ctx, "d1", "o1")
	require.True(t, ok)

	d, err := s.GetDriver(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, domain.DriverAvailable, d.Status)
	require.Empty(t, d.CurrentOrderID)
}

func TestFindAvailableDriversNear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.UpsertDriver(ctx, domain.Driver{DriverID: "b", Status: domain.DriverAvailable, Location: domain.NewPoint(2.36, 48.86)}))
	require.NoError(t, s.UpsertDriver(ctx, domain.Driver{DriverID: "a", Status: domain.DriverAvailable, Location: domain.NewPoint(2.351, 48.851)}))
	require.NoError(t, s.UpsertDriver(ctx, domain.Driver{DriverID: "lyon", Status: domain.DriverAvailable, Location: domain.NewPoint(4.83, 45.76)}))

	got, err := s.FindAvailableDriversNear(ctx, *domain.NewPoint(2.35, 48.85), 5000, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].DriverID)
	require.Equal(t, "b", got[1].DriverID)
}

func TestWatch_FiltersAndResumes(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s := memstore.New()

	filter := events.Filter{Statuses: []string{string(domain.OrderPending)}}
	st, err := s.Watch(ctx, memstore.Orders, filter, nil)
	require.NoError(t, err)

	require.NoError(t, s.InsertOrder(ctx, newOrder("o1")))
	_, _, err = s.UpdateOrderIfStatus(ctx, "o1", domain.OrderPending, domain.OrderWaitingForResto, nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertOrder(ctx, newOrder("o2")))

	require.True(t, st.Next(ctx))
	first := st.Event()
	require.Equal(t, "o1", first.Key())
	require.Equal(t, events.OpInsert, first.Op)
	require.True(t, st.Next(ctx))
	require.Equal(t, "o2", st.Event().Key())
	require.NoError(t, st.Close(ctx))

	resumed, err := s.Watch(ctx, memstore.Orders, filter, first.Token)
	require.NoError(t, err)
	require.True(t, resumed.Next(ctx))
	require.Equal(t, "o2", resumed.Event().Key())
}

func TestWatch_CompactInvalidatesTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.InsertOrder(ctx, newOrder("o1")))
	tok := []byte("0")

	s.Compact()
	_, err := s.Watch(ctx, memstore.Orders, events.Filter{}, tok)
	require.ErrorIs(t, err, apperr.ErrCursorInvalid)

	_, err = s.Watch(ctx, memstore.Orders, events.Filter{}, s.Token())
	require.NoError(t, err)
}

func TestWatch_Interrupt(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s := memstore.New()
	st, err := s.Watch(ctx, memstore.Orders, events.Filter{}, nil)
	require.NoError(t, err)

	boom := errors.New("connection reset")
	go s.Interrupt(boom)
	require.False(t, st.Next(ctx))
	require.ErrorIs(t, st.Err(), boom)
}

func TestFailNext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	s.FailNext("GetOrder", apperr.ErrTransient)

	_, err := s.GetOrder(ctx, "o1")
	require.ErrorIs(t, err, apperr.ErrTransient)
	o, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	require.Nil(t, o)
}

func TestBulkInsertHistory_ReportsDuplicateIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	res, err := s.BulkInsertHistory(ctx, []domain.HistoryRecord{{OrderNumber: "CMD-1"}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
	require.Empty(t, res.DuplicateIDs)

	res, err = s.BulkInsertHistory(ctx, []domain.HistoryRecord{{OrderNumber: "CMD-2"}, {OrderNumber: "CMD-1"}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
	require.Equal(t, 1, res.Duplicates)
	require.Equal(t, []string{"CMD-1"}, res.DuplicateIDs)
}
