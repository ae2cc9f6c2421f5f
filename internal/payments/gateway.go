package payments

import (
	"context"

	"github.com/angelmondragon/wholesalehub-backend/pkg/razorpay"
	"github.com/angelmondragon/wholesalehub-backend/pkg/security"
)

// IntentRequest asks the gateway to open a payable intent.
type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Intent is the gateway side reference a checkout pays against.
type Intent struct {
	ID          string
	AmountMinor int64
	Currency    string
}

// Gateway opens payment intents with an external provider.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	CheckoutURL(intentID string) string
	KeyID() string
}

// RazorpayGateway adapts the Razorpay orders API.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(client *razorpay.Client) *RazorpayGateway {
	return &RazorpayGateway{client: client}
}

func (g *RazorpayGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	order, err := g.client.CreateOrder(ctx, razorpay.OrderRequest{
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &Intent{ID: order.ID, AmountMinor: order.AmountMinor, Currency: order.Currency}, nil
}

func (g *RazorpayGateway) CheckoutURL(intentID string) string {
	return g.client.CheckoutURL(intentID)
}

func (g *RazorpayGateway) KeyID() string {
	return g.client.KeyID()
}

// Sign computes the hex HMAC-SHA256 of "orderRef|paymentRef" that the gateway
// attaches to a successful checkout.
func Sign(secret, orderRef, paymentRef string) string {
	return security.SignHMACSHA256(secret, orderRef+"|"+paymentRef)
}

func validSignature(secret, orderRef, paymentRef, signature string) bool {
	return security.VerifyHMACSHA256(secret, orderRef+"|"+paymentRef, signature)
}
