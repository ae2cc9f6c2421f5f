package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesalehub-backend/internal/products"
)

// SalesInput filters the sales report. Dates are YYYY-MM-DD or RFC 3339; a bare
// end date covers that whole day.
type SalesInput struct {
	WholesalerID uuid.UUID
	StartDate    string
	EndDate      string
}

type SalesReport struct {
	TotalOrders int64           `json:"total_orders"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	From        *time.Time      `json:"from,omitempty"`
	To          *time.Time      `json:"to,omitempty"`
}

type InventoryReport struct {
	Count    int                   `json:"count"`
	Products []products.ProductDTO `json:"products"`
}

type CustomerSummary struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Company     *string         `json:"company,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	TotalOrders int64           `json:"total_orders"`
}

type CustomersReport struct {
	Count     int               `json:"count"`
	Customers []CustomerSummary `json:"customers"`
}
