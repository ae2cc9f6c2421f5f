package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesalehub-backend/pkg/errors"
	"github.com/angelmondragon/wholesalehub-backend/pkg/pagination"
)

func TestListScopesWholesalerToOwnCatalog(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	owner := dbtest.SeedUser(t, conn, enums.RoleWholesaler)
	other := dbtest.SeedUser(t, conn, enums.RoleWholesaler)
	retailer := dbtest.SeedUser(t, conn, enums.RoleRetailer)
	dbtest.SeedProduct(t, conn, owner.ID, "Oil", "150.00", 10, 1)
	dbtest.SeedProduct(t, conn, other.ID, "Ghee", "450.00", 10, 1)

	own, err := svc.List(ctx, ListInput{RequesterID: owner.ID, Role: enums.RoleWholesaler})
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	require.Equal(t, "Oil", own.Items[0].Name)

	all, err := svc.List(ctx, ListInput{RequesterID: retailer.ID, Role: enums.RoleRetailer})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
}

func TestListPaginates(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	owner := dbtest.SeedUser(t, conn, enums.RoleWholesaler)
	for i := 0; i < 3; i++ {
		dbtest.SeedProduct(t, conn, owner.ID, "Item", "10.00", 10, 1)
	}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	for page := 0; page < 3; page++ {
		res, err := svc.List(context.Background(), ListInput{
			Role:       enums.RoleRetailer,
			Pagination: pagination.Params{Limit: 2, Cursor: cursor},
		})
		require.NoError(t, err)
		for _, item := range res.Items {
			require.False(t, seen[item.ID], "duplicate item across pages")
			seen[item.ID] = true
		}
		if res.NextCursor == "" {
			break
		}
		cursor = res.NextCursor
	}
	require.Len(t, seen, 3)

	_, err = svc.List(context.Background(), ListInput{Pagination: pagination.Params{Cursor: "%%%"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetProduct(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	owner := dbtest.SeedUser(t, conn, enums.RoleWholesaler)
	product := dbtest.SeedProduct(t, conn, owner.ID, "Dal", "99.50", 10, 2)

	dto, err := svc.Get(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, "99.5", dto.Price.String())
	require.Equal(t, 2, dto.MOQ)

	_, err = svc.Get(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
