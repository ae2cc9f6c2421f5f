package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once an order and its stock reservation commit.
type OrderCreatedEvent struct {
	OrderID      uuid.UUID       `json:"order_id"`
	RetailerID   uuid.UUID       `json:"retailer_id"`
	WholesalerID uuid.UUID       `json:"wholesaler_id"`
	Total        decimal.Decimal `json:"total"`
	ItemCount    int             `json:"item_count"`
}

// OrderStatusChangedEvent reports a fulfilment transition made by the wholesaler.
type OrderStatusChangedEvent struct {
	OrderID      uuid.UUID         `json:"order_id"`
	RetailerID   uuid.UUID         `json:"retailer_id"`
	WholesalerID uuid.UUID         `json:"wholesaler_id"`
	From         enums.OrderStatus `json:"from"`
	To           enums.OrderStatus `json:"to"`
	Restocked    bool              `json:"restocked,omitempty"`
}

// InvoiceIssuedEvent is emitted when a wholesaler bills an order.
type InvoiceIssuedEvent struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	IssuedTo      uuid.UUID       `json:"issued_to"`
	IssuedBy      uuid.UUID       `json:"issued_by"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

// PaymentIntentCreatedEvent records that a gateway order now backs the invoice.
type PaymentIntentCreatedEvent struct {
	InvoiceID        uuid.UUID `json:"invoice_id"`
	ExternalOrderRef string    `json:"external_order_ref"`
	AmountMinor      int64     `json:"amount_minor"`
	Currency         string    `json:"currency"`
}

// InvoicePaidEvent is emitted exactly once, when a verified payment settles an invoice.
type InvoicePaidEvent struct {
	InvoiceID          uuid.UUID       `json:"invoice_id"`
	InvoiceNumber      string          `json:"invoice_number"`
	OrderID            uuid.UUID       `json:"order_id"`
	IssuedTo           uuid.UUID       `json:"issued_to"`
	IssuedBy           uuid.UUID       `json:"issued_by"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	ExternalPaymentRef string          `json:"external_payment_ref"`
}
