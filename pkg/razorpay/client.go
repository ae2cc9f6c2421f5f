// Package razorpay wraps the Razorpay orders API used to open payment intents.
package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	rzp "github.com/razorpay/razorpay-go"

	"github.com/angelmondragon/wholesalehub-backend/pkg/config"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
)

const maxReceiptLen = 40

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
)

type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// OrderRequest opens a Razorpay order. AmountMinor is in the currency's smallest unit.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the subset of the Razorpay order resource the backend keeps.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
}

// Client holds the API handle plus the public key id handed to checkout.
type Client struct {
	orders      orderAPI
	keyID       string
	checkoutURL string
}

func NewClient(ctx context.Context, cfg config.PaymentsConfig, logg *logger.Logger) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	secret := strings.TrimSpace(cfg.KeySecret)
	if secret == "" {
		return nil, errKeySecretRequired
	}

	api := rzp.NewClient(keyID, secret)
	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("razorpay client initialized (%s)", mode(keyID)))
	}
	return &Client{
		orders:      api.Order,
		keyID:       keyID,
		checkoutURL: strings.TrimRight(cfg.CheckoutBaseURL, "/"),
	}, nil
}

// KeyID is the publishable key the client-side checkout needs.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// CheckoutURL returns the hosted checkout link for an order, or "" when unset.
func (c *Client) CheckoutURL(orderID string) string {
	if c == nil || c.checkoutURL == "" || orderID == "" {
		return ""
	}
	return fmt.Sprintf("%s?key_id=%s&order_id=%s", c.checkoutURL, c.keyID, orderID)
}

// CreateOrder registers an order with Razorpay. The SDK call is not context aware,
// so ctx is only checked before dispatch.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if c == nil || c.orders == nil {
		return nil, errors.New("razorpay client not initialized")
	}
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.AmountMinor)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": strings.ToUpper(req.Currency),
		"receipt":  truncate(req.Receipt, maxReceiptLen),
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	resp, err := c.orders.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	return parseOrder(resp)
}

func parseOrder(resp map[string]interface{}) (*Order, error) {
	id, _ := resp["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay response missing order id")
	}
	order := &Order{ID: id}
	if currency, ok := resp["currency"].(string); ok {
		order.Currency = currency
	}
	if status, ok := resp["status"].(string); ok {
		order.Status = status
	}
	switch amount := resp["amount"].(type) {
	case float64:
		order.AmountMinor = int64(amount)
	case int64:
		order.AmountMinor = amount
	case int:
		order.AmountMinor = int64(amount)
	}
	return order, nil
}

func mode(keyID string) string {
	if strings.HasPrefix(keyID, "rzp_live_") {
		return "live"
	}
	return "test"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
