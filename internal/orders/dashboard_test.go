package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesalehub-backend/internal/products"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
)

func TestWholesalerOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := dbtest.SeedProduct(t, f.conn, f.wholesaler.ID, "Rice", "10.00", 50, 1)
	dbtest.SeedProduct(t, f.conn, f.wholesaler.ID, "Saffron", "99.00", 3, 1)
	second := dbtest.SeedUser(t, f.conn, enums.RoleRetailer)

	shipped, err := f.svc.CreateOrder(ctx, f.order(CreateOrderItemInput{ProductID: rice.ID, Quantity: 5}))
	require.NoError(t, err)
	for _, status := range []string{"confirmed", "shipped"} {
		_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{RequesterID: f.wholesaler.ID, ActorRole: enums.RoleWholesaler, OrderID: shipped.ID, Status: status})
		require.NoError(t, err)
	}
	_, err = f.svc.CreateOrder(ctx, CreateOrderInput{
		RetailerID:   second.ID,
		ActorRole:    enums.RoleRetailer,
		WholesalerID: f.wholesaler.ID,
		Items:        []CreateOrderItemInput{{ProductID: rice.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	dash, err := NewDashboardService(NewRepository(f.conn), products.NewRepository(f.conn), 5)
	require.NoError(t, err)
	overview, err := dash.WholesalerOverview(ctx, f.wholesaler.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 2, overview.TotalOrders)
	assert.EqualValues(t, 1, overview.PendingOrders)
	assert.EqualValues(t, 2, overview.Customers)
	assert.Equal(t, "50.00", overview.Revenue.StringFixed(2))
	require.Len(t, overview.LowStockProducts, 1)
	assert.Equal(t, "Saffron", overview.LowStockProducts[0].Name)
}

func TestRetailerOverviewCapsRecentOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, f.conn, f.wholesaler.ID, "Corn", "1.00", 100, 1)
	for i := 0; i < 12; i++ {
		_, err := f.svc.CreateOrder(ctx, f.order(CreateOrderItemInput{ProductID: product.ID, Quantity: 1}))
		require.NoError(t, err)
	}

	dash, err := NewDashboardService(NewRepository(f.conn), products.NewRepository(f.conn), 0)
	require.NoError(t, err)
	overview, err := dash.RetailerOverview(ctx, f.retailer.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 12, overview.TotalOrders)
	assert.Len(t, overview.RecentOrders, 10)
}
