package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
)

// IntentResult is everything a client checkout needs. It never carries the secret.
type IntentResult struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	GatewayKeyID  string          `json:"gateway_key_id"`
	IntentID      string          `json:"intent_id"`
	AmountMinor   int64           `json:"amount_minor"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CheckoutURL   string          `json:"checkout_url,omitempty"`
}

// VerifyPaymentInput is the gateway callback relayed by the client.
type VerifyPaymentInput struct {
	OrderRef   string `json:"order_ref" validate:"required"`
	PaymentRef string `json:"payment_ref" validate:"required"`
	Signature  string `json:"signature" validate:"required"`
}

// VerifyResult reports the settled invoice. AlreadyProcessed is set on replays.
type VerifyResult struct {
	InvoiceID        uuid.UUID           `json:"invoice_id"`
	InvoiceNumber    string              `json:"invoice_number"`
	Status           enums.InvoiceStatus `json:"status"`
	AlreadyProcessed bool                `json:"already_processed"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
}
