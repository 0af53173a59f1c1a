package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"delivery-orchestrator/internal/apperr"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	require.True(t, CanTransition(OrderPending, OrderWaitingForResto))
	require.True(t, CanTransition(OrderWaitingForResto, OrderReady))
	require.True(t, CanTransition(OrderReady, OrderWaitingForDriver))
	require.True(t, CanTransition(OrderWaitingForDriver, OrderAssigned))
	require.True(t, CanTransition(OrderAssigned, OrderDelivered))

	require.False(t, CanTransition(OrderAssigned, OrderCancelled))
	require.False(t, CanTransition(OrderCancelled, OrderPending))
	require.False(t, CanTransition(OrderReady, OrderWaitingForResto))
	require.False(t, CanTransition(OrderDelivered, OrderAssigned))
}

func TestOrderStatus_TerminalAndCancellable(t *testing.T) {
	t.Parallel()

	for _, s := range []OrderStatus{OrderAssigned, OrderCancelled, OrderDelivered} {
		require.True(t, s.IsTerminal(), s)
		require.False(t, s.Cancellable(), s)
	}
	for _, s := range []OrderStatus{OrderPending, OrderWaitingForResto, OrderReady, OrderWaitingForDriver} {
		require.False(t, s.IsTerminal(), s)
		require.True(t, s.Cancellable(), s)
	}
	require.False(t, OrderStatus("cooking").Valid())
}

func TestOrder_Validate(t *testing.T) {
	t.Parallel()

	ok := &Order{OrderID: "O1", ClientID: "C1", RestaurantID: "R1", TotalAmount: 20}
	require.NoError(t, ok.Validate())

	err := (&Order{OrderID: "O1", TotalAmount: 1}).Validate()
	require.ErrorIs(t, err, apperr.ErrInvalid)
	require.Contains(t, err.Error(), "client_id, restaurant_id")

	err = (&Order{OrderID: "O1", ClientID: "C1", RestaurantID: "R1", TotalAmount: -1}).Validate()
	require.ErrorIs(t, err, apperr.ErrInvalid)

	var nilOrder *Order
	require.ErrorIs(t, nilOrder.Validate(), apperr.ErrInvalid)
}

func TestRecipient_ChannelKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "client:C1", ToClient("C1").ChannelKey())
	require.Equal(t, "driver:D2", ToDriver("D2").ChannelKey())
	require.Equal(t, "restaurant:R1", ToRestaurant("R1").ChannelKey())
	require.Equal(t, "broadcast", ToBroadcast().ChannelKey())
	require.Equal(t, "broadcast", Recipient{Role: RoleDriver}.ChannelKey())
}

func TestGeoPoint_Valid(t *testing.T) {
	t.Parallel()

	p := NewPoint(2.35, 48.85)
	require.True(t, p.Valid())
	require.Equal(t, 2.35, p.Lon())
	require.Equal(t, 48.85, p.Lat())

	require.False(t, NewPoint(200, 0).Valid())
	require.False(t, (&GeoPoint{Type: "Point"}).Valid())

	var nilPoint *GeoPoint
	require.False(t, nilPoint.Valid())
}
