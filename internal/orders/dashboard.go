package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/wholesalehub-backend/internal/products"
	pkgerrors "github.com/angelmondragon/wholesalehub-backend/pkg/errors"
)

const (
	recentOrdersLimit = 10
	lowStockLimit     = 20
)

// DashboardService serves the role specific overview screens.
type DashboardService interface {
	WholesalerOverview(ctx context.Context, wholesalerID uuid.UUID) (*WholesalerOverview, error)
	RetailerOverview(ctx context.Context, retailerID uuid.UUID) (*RetailerOverview, error)
}

type dashboardService struct {
	repo              Repository
	products          *products.Repository
	lowStockThreshold int
}

// NewDashboardService builds the overview reader. A non-positive threshold falls back to 10.
func NewDashboardService(repo Repository, catalog *products.Repository, lowStockThreshold int) (DashboardService, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	return &dashboardService{repo: repo, products: catalog, lowStockThreshold: lowStockThreshold}, nil
}

func (s *dashboardService) WholesalerOverview(ctx context.Context, wholesalerID uuid.UUID) (*WholesalerOverview, error) {
	stats, err := s.repo.WholesalerStats(ctx, wholesalerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order stats")
	}
	lowStock, err := s.products.LowStock(ctx, wholesalerID, s.lowStockThreshold, lowStockLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load low stock products")
	}

	overview := &WholesalerOverview{
		TotalOrders:      stats.TotalOrders,
		PendingOrders:    stats.PendingOrders,
		Revenue:          stats.Revenue.Round(2),
		Customers:        stats.Customers,
		LowStockProducts: make([]LowStockProductView, 0, len(lowStock)),
	}
	for _, p := range lowStock {
		overview.LowStockProducts = append(overview.LowStockProducts, LowStockProductView{
			ID:    p.ID,
			Name:  p.Name,
			SKU:   p.SKU,
			Stock: p.Stock,
		})
	}
	return overview, nil
}

func (s *dashboardService) RetailerOverview(ctx context.Context, retailerID uuid.UUID) (*RetailerOverview, error) {
	count, err := s.repo.CountForRetailer(ctx, retailerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	rows, err := s.repo.List(ctx, ListQuery{RetailerID: &retailerID, Limit: recentOrdersLimit})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recent orders")
	}
	if len(rows) > recentOrdersLimit {
		rows = rows[:recentOrdersLimit]
	}

	overview := &RetailerOverview{TotalOrders: count, RecentOrders: make([]OrderDTO, 0, len(rows))}
	for _, row := range rows {
		overview.RecentOrders = append(overview.RecentOrders, FromModel(row))
	}
	return overview, nil
}
