package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesalehub-backend/internal/orders"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/pagination"
)

// InvoiceDTO is the invoice view shared by both parties.
type InvoiceDTO struct {
	ID                 uuid.UUID            `json:"id"`
	InvoiceNumber      string               `json:"invoice_number"`
	OrderID            uuid.UUID            `json:"order_id"`
	Amount             decimal.Decimal      `json:"amount"`
	Currency           string               `json:"currency"`
	IssuedToID         uuid.UUID            `json:"issued_to_id"`
	IssuedByID         uuid.UUID            `json:"issued_by_id"`
	Status             enums.InvoiceStatus  `json:"status"`
	ExternalOrderRef   *string              `json:"external_order_ref,omitempty"`
	ExternalPaymentRef *string              `json:"external_payment_ref,omitempty"`
	PaidAt             *time.Time           `json:"paid_at,omitempty"`
	Order              *orders.OrderDTO     `json:"order,omitempty"`
	IssuedTo           *orders.PartySummary `json:"issued_to,omitempty"`
	IssuedBy           *orders.PartySummary `json:"issued_by,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

// ListInput pages through invoices where the requester is one party.
type ListInput struct {
	RequesterID uuid.UUID
	Pagination  pagination.Params
}

// ListResult is a cursor page of invoices.
type ListResult = pagination.Page[InvoiceDTO]

// FromModel maps an invoice and whatever associations were preloaded.
func FromModel(inv models.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:                 inv.ID,
		InvoiceNumber:      inv.InvoiceNumber,
		OrderID:            inv.OrderID,
		Amount:             inv.Amount,
		Currency:           inv.Currency,
		IssuedToID:         inv.IssuedToID,
		IssuedByID:         inv.IssuedByID,
		Status:             inv.Status,
		ExternalOrderRef:   inv.ExternalOrderRef,
		ExternalPaymentRef: inv.ExternalPaymentRef,
		PaidAt:             inv.PaidAt,
		IssuedTo:           orders.PartyFromModel(inv.IssuedTo),
		IssuedBy:           orders.PartyFromModel(inv.IssuedBy),
		CreatedAt:          inv.CreatedAt,
	}
	if inv.Order != nil {
		order := orders.FromModel(*inv.Order)
		dto.Order = &order
	}
	return dto
}
