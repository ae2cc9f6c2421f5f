package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/pagination"
)

// CreateOrderItemInput is one requested line. UnitPrice is an optional client override.
type CreateOrderItemInput struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateOrderInput carries a retailer's order against one wholesaler.
type CreateOrderInput struct {
	RetailerID   uuid.UUID
	ActorRole    enums.UserRole
	WholesalerID uuid.UUID
	Items        []CreateOrderItemInput
}

// ListOrdersInput selects orders where the requester is either party.
type ListOrdersInput struct {
	RequesterID uuid.UUID
	Role        enums.UserRole
	Status      string
	Pagination  pagination.Params
}

// UpdateStatusInput moves an order along its fulfilment lifecycle.
type UpdateStatusInput struct {
	RequesterID uuid.UUID
	ActorRole   enums.UserRole
	OrderID     uuid.UUID
	Status      string
}

// PartySummary identifies the retailer or wholesaler on an order.
type PartySummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Company *string   `json:"company,omitempty"`
	Phone   *string   `json:"phone,omitempty"`
}

// OrderItemDTO is a priced line with its product snapshot.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	SKU         *string         `json:"sku,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the expanded order returned to both parties.
type OrderDTO struct {
	ID           uuid.UUID         `json:"id"`
	RetailerID   uuid.UUID         `json:"retailer_id"`
	WholesalerID uuid.UUID         `json:"wholesaler_id"`
	Total        decimal.Decimal   `json:"total"`
	Status       enums.OrderStatus `json:"status"`
	Items        []OrderItemDTO    `json:"items"`
	Retailer     *PartySummary     `json:"retailer,omitempty"`
	Wholesaler   *PartySummary     `json:"wholesaler,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ListOrdersResult is a cursor page of orders.
type ListOrdersResult = pagination.Page[OrderDTO]

// WholesalerOverview summarises a wholesaler's book of business.
type WholesalerOverview struct {
	TotalOrders      int64                 `json:"total_orders"`
	PendingOrders    int64                 `json:"pending_orders"`
	Revenue          decimal.Decimal       `json:"revenue"`
	Customers        int64                 `json:"customers"`
	LowStockProducts []LowStockProductView `json:"low_stock_products"`
}

// LowStockProductView is a product at or below the dashboard stock threshold.
type LowStockProductView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	SKU   *string   `json:"sku,omitempty"`
	Stock int       `json:"stock"`
}

// RetailerOverview lists a retailer's latest orders.
type RetailerOverview struct {
	TotalOrders  int64      `json:"total_orders"`
	RecentOrders []OrderDTO `json:"recent_orders"`
}

// PartyFromModel projects a user onto the public party summary.
func PartyFromModel(u *models.User) *PartySummary {
	if u == nil {
		return nil
	}
	return &PartySummary{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Company: u.Company,
		Phone:   u.Phone,
	}
}

// FromModel maps an order and whatever associations were preloaded.
func FromModel(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:           o.ID,
		RetailerID:   o.RetailerID,
		WholesalerID: o.WholesalerID,
		Total:        o.Total,
		Status:       o.Status,
		Items:        make([]OrderItemDTO, 0, len(o.Items)),
		Retailer:     PartyFromModel(o.Retailer),
		Wholesaler:   PartyFromModel(o.Wholesaler),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	for _, item := range o.Items {
		line := OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.SKU = item.Product.SKU
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
