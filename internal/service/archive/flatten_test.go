package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
)

func TestFlatten_JoinedRecordIsComplete(t *testing.T) {
	t.Parallel()

	price := 12.5
	delivered := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	created := delivered.Add(-40 * time.Minute)
	now := delivered.Add(time.Hour)

	rec := Flatten(domain.EnrichmentSource{
		Order: domain.Order{
			OrderID: "CMD-1", ClientID: "C1", RestaurantID: "R1", AssignedDriverID: "D1",
			TotalAmount: 25, DeliveryFee: 2.5, DeliveryAddress: "1 rue de Rivoli", DriverReward: 3.75,
			Status: domain.OrderDelivered, CreatedTS: created, DeliveredTS: &delivered,
		},
		Client:     &domain.ClientProfile{ClientID: "C1", FirstName: "Alice", LastName: "Martin", Email: "a@x.fr"},
		Driver:     &domain.Driver{DriverID: "D1", Name: "Bob", Phone: "+336"},
		Restaurant: &domain.RestaurantProfile{RestaurantID: "R1", Name: "Chez Paul", Address: "2 quai"},
		Menu:       &domain.MenuEntry{MenuID: "M1", Name: "Menu midi", Price: &price},
	}, "archive v2.0.0", now)

	require.Equal(t, "CMD-1", rec.OrderNumber)
	require.Equal(t, "delivered", rec.Status)
	require.Equal(t, created, rec.OrderDate)
	require.Equal(t, "Alice Martin", rec.ClientName)
	require.Equal(t, "a@x.fr", rec.ClientEmail)
	require.Equal(t, "Bob", rec.DriverName)
	require.Equal(t, "+336", rec.DriverPhone)
	require.Equal(t, "Chez Paul", rec.RestaurantName)
	require.Equal(t, "2 quai", rec.RestaurantAddress)
	require.Equal(t, "Menu midi", rec.MenuName)
	require.Equal(t, 12.5, *rec.MenuPrice)
	require.Equal(t, 25.0, *rec.TotalCost)
	require.Equal(t, now, rec.ArchivedAt)
	require.Equal(t, "archive v2.0.0", rec.ArchivedBy)
	require.False(t, rec.Incomplete)
	require.Empty(t, rec.MissingFields)
}

func TestFlatten_FallsBackToOrderFields(t *testing.T) {
	t.Parallel()

	rec := Flatten(domain.EnrichmentSource{
		Order: domain.Order{
			OrderID: "CMD-2", ClientID: "C9", RestaurantID: "R9", TotalAmount: 10,
			ClientName: "Walk In", ProductName: "Burger",
		},
	}, "archive v2.0.0", time.Now())

	require.Equal(t, "Walk In", rec.ClientName)
	require.Equal(t, "Burger", rec.MenuName)
	require.Equal(t, domain.UnassignedDriver, rec.DriverName)
	require.Equal(t, domain.UnknownRestaurant, rec.RestaurantName)
	require.True(t, rec.Incomplete)
	require.Equal(t, []string{"driver_name", "restaurant_name"}, rec.MissingFields)
}

func TestFlatten_SentinelsWhenNothingKnown(t *testing.T) {
	t.Parallel()

	rec := Flatten(domain.EnrichmentSource{
		Order:  domain.Order{OrderID: "CMD-3", Items: []domain.Item{{Name: " "}, {Name: "Salade"}}},
		Client: &domain.ClientProfile{ClientID: "C1"},
	}, "t", time.Now())

	require.Equal(t, domain.UnknownClient, rec.ClientName)
	require.Equal(t, "Salade", rec.MenuName)
	require.Nil(t, rec.TotalCost)
	require.Equal(t, []string{"client_name", "driver_name", "restaurant_name", "total_cost"}, rec.MissingFields)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-01-15", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2026-01-15 08:30:00", time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)},
		{"15/01/2026", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{" 15/01/2026 23:59:59 ", time.Date(2026, 1, 15, 23, 59, 59, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDate("01-15-2026")
	require.Error(t, err)
}

func TestParseEndDate(t *testing.T) {
	t.Parallel()

	got, err := ParseEndDate("31/05/2024")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 31, 23, 59, 59, 999999999, time.UTC), got)

	got, err = ParseEndDate("2024-05-31 12:00:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC), got)

	_, err = ParseEndDate("May 31")
	require.ErrorIs(t, err, apperr.ErrInvalid)
}
