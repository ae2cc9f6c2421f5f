package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wholesalehub-backend/internal/products"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesalehub-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// Service serves the wholesaler reports.
type Service interface {
	Sales(ctx context.Context, input SalesInput) (*SalesReport, error)
	Inventory(ctx context.Context, wholesalerID uuid.UUID) (*InventoryReport, error)
	Customers(ctx context.Context, wholesalerID uuid.UUID) (*CustomersReport, error)
}

type reportRepository interface {
	SalesTotals(ctx context.Context, wholesalerID uuid.UUID, from, to *time.Time) (*SalesTotals, error)
	Inventory(ctx context.Context, ownerID uuid.UUID) ([]models.Product, error)
	Customers(ctx context.Context, wholesalerID uuid.UUID) ([]CustomerTotals, error)
}

type service struct {
	repo reportRepository
}

func NewService(repo reportRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Sales(ctx context.Context, input SalesInput) (*SalesReport, error) {
	from, _, err := parseBound(input.StartDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid startDate")
	}
	to, dateOnly, err := parseBound(input.EndDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid endDate")
	}
	upper := to
	if to != nil && dateOnly {
		next := to.AddDate(0, 0, 1)
		upper = &next
	}
	if from != nil && upper != nil && !from.Before(*upper) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "startDate must be before endDate")
	}

	totals, err := s.repo.SalesTotals(ctx, input.WholesalerID, from, upper)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sales totals")
	}
	return &SalesReport{
		TotalOrders: totals.TotalOrders,
		TotalSales:  totals.TotalSales.Round(2),
		From:        from,
		To:          to,
	}, nil
}

// parseBound reads an optional date and reports whether it was date-only.
func parseBound(raw string) (*time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", raw)
	}
	t = t.UTC()
	return &t, false, nil
}

func (s *service) Inventory(ctx context.Context, wholesalerID uuid.UUID) (*InventoryReport, error) {
	rows, err := s.repo.Inventory(ctx, wholesalerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory")
	}
	report := &InventoryReport{Count: len(rows), Products: make([]products.ProductDTO, 0, len(rows))}
	for _, row := range rows {
		report.Products = append(report.Products, products.FromModel(row))
	}
	return report, nil
}

func (s *service) Customers(ctx context.Context, wholesalerID uuid.UUID) (*CustomersReport, error) {
	rows, err := s.repo.Customers(ctx, wholesalerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer totals")
	}
	report := &CustomersReport{Count: len(rows), Customers: make([]CustomerSummary, 0, len(rows))}
	for _, row := range rows {
		report.Customers = append(report.Customers, CustomerSummary{
			ID:          row.ID,
			Name:        row.Name,
			Email:       row.Email,
			Company:     row.Company,
			Phone:       row.Phone,
			TotalSpent:  row.TotalSpent.Round(2),
			TotalOrders: row.TotalOrders,
		})
	}
	return report, nil
}
