package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesalehub-backend/internal/invoices"
	"github.com/angelmondragon/wholesalehub-backend/internal/notifications"
	"github.com/angelmondragon/wholesalehub-backend/internal/orders"
	"github.com/angelmondragon/wholesalehub-backend/internal/payments"
	"github.com/angelmondragon/wholesalehub-backend/internal/products"
	"github.com/angelmondragon/wholesalehub-backend/internal/reports"
	pkgAuth "github.com/angelmondragon/wholesalehub-backend/pkg/auth"
	"github.com/angelmondragon/wholesalehub-backend/pkg/config"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
	"github.com/angelmondragon/wholesalehub-backend/pkg/metrics"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox"
)

const gatewaySecret = "router_test_secret"

type stubGateway struct{ n int }

func (g *stubGateway) CreateIntent(_ context.Context, req payments.IntentRequest) (*payments.Intent, error) {
	g.n++
	return &payments.Intent{ID: fmt.Sprintf("order_stub_%d", g.n), AmountMinor: req.AmountMinor, Currency: req.Currency}, nil
}

func (g *stubGateway) CheckoutURL(intentID string) string { return "https://checkout.test/" + intentID }

func (g *stubGateway) KeyID() string { return "key_test" }

type apiFixture struct {
	t          *testing.T
	handler    http.Handler
	cfg        *config.Config
	product    models.Product
	retailer   models.User
	wholesaler models.User
	outsider   models.User
}

// memoryRateStore counts in memory; idempotency lookups always miss.
type memoryRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memoryRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryRateStore) RateLimitKey(policy, dimension, subject string) string {
	return policy + ":" + dimension + ":" + subject
}

func (m *memoryRateStore) Get(context.Context, string) (string, error) { return "", goredis.Nil }

func (m *memoryRateStore) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	return true, nil
}

func (m *memoryRateStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryRateStore) Del(context.Context, ...string) error { return nil }

func newAPIFixture(t *testing.T, opts ...func(*Deps)) *apiFixture {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	txRunner := db.Wrap(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	registry := prometheus.NewRegistry()
	domain := metrics.NewDomain(registry)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", RequestTimeout: 5 * time.Second},
		JWT: config.JWTConfig{Secret: "jwt-secret", Issuer: "wholesalehub-test", ExpirationMinutes: 30},
	}

	catalog := products.NewRepository(conn)
	productSvc, err := products.NewService(catalog)
	require.NoError(t, err)

	orderRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:               orderRepo,
		Products:           catalog,
		TxRunner:           txRunner,
		Outbox:             emitter,
		Logger:             logg,
		Metrics:            domain,
		AllowClientPricing: true,
	})
	require.NoError(t, err)
	dashboard, err := orders.NewDashboardService(orderRepo, catalog, 10)
	require.NoError(t, err)

	invoiceRepo := invoices.NewRepository(conn)
	invoiceSvc, err := invoices.NewService(invoices.ServiceParams{
		Repo:      invoiceRepo,
		Orders:    orderRepo,
		TxRunner:  txRunner,
		Outbox:    emitter,
		Sequencer: invoices.NewSequencer(true),
		Currency:  enums.CurrencyINR,
		Logger:    logg,
		Metrics:   domain,
	})
	require.NoError(t, err)

	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Invoices: invoiceRepo,
		TxRunner: txRunner,
		Outbox:   emitter,
		Gateway:  &stubGateway{},
		Secret:   gatewaySecret,
		Logger:   logg,
		Metrics:  domain,
	})
	require.NoError(t, err)

	inbox, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	reportSvc, err := reports.NewService(reports.NewRepository(conn))
	require.NoError(t, err)

	deps := Deps{
		Config:        cfg,
		Logger:        logg,
		Gatherer:      registry,
		HTTPMetrics:   metrics.NewHTTP(registry),
		Products:      productSvc,
		Orders:        orderSvc,
		Dashboard:     dashboard,
		Reports:       reportSvc,
		Invoices:      invoiceSvc,
		Payments:      paymentSvc,
		Notifications: inbox,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	handler := NewRouter(deps)

	wholesaler := dbtest.SeedUser(t, conn, enums.RoleWholesaler)
	return &apiFixture{
		t:          t,
		handler:    handler,
		cfg:        cfg,
		product:    dbtest.SeedProduct(t, conn, wholesaler.ID, "Basmati Rice 25kg", "50.00", 10, 1),
		retailer:   dbtest.SeedUser(t, conn, enums.RoleRetailer),
		wholesaler: wholesaler,
		outsider:   dbtest.SeedUser(t, conn, enums.RoleRetailer),
	}
}

func (f *apiFixture) token(user models.User) string {
	f.t.Helper()
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: user.ID, Role: user.Role})
	require.NoError(f.t, err)
	return token
}

func (f *apiFixture) do(method, path string, user *models.User, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+f.token(*user))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Error.Code
}

func TestOrderToPaymentOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	created := f.do(http.MethodPost, "/api/v1/orders", &f.retailer, map[string]any{
		"wholesaler_id": f.wholesaler.ID,
		"items":         []map[string]any{{"product_id": f.product.ID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	order := decodeData[orders.OrderDTO](t, created)
	assert.Equal(t, "150.00", order.Total.StringFixed(2))

	for _, status := range []string{"confirmed", "shipped", "delivered"} {
		rec := f.do(http.MethodPut, "/api/v1/orders/"+order.ID.String()+"/status", &f.wholesaler, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	issued := f.do(http.MethodPost, "/api/v1/invoices/order/"+order.ID.String(), &f.wholesaler, nil)
	require.Equal(t, http.StatusCreated, issued.Code, issued.Body.String())
	invoice := decodeData[invoices.InvoiceDTO](t, issued)
	assert.True(t, invoice.Amount.Equal(order.Total))

	pdf := f.do(http.MethodGet, "/api/v1/invoices/"+invoice.ID.String()+"/pdf", &f.retailer, nil)
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.Equal(t, "application/pdf", pdf.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(pdf.Body.Bytes(), []byte("%PDF")))

	intentRec := f.do(http.MethodPost, "/api/v1/payments/intents", &f.retailer, map[string]string{"invoice_id": invoice.ID.String()})
	require.Equal(t, http.StatusCreated, intentRec.Code, intentRec.Body.String())
	intent := decodeData[payments.IntentResult](t, intentRec)
	assert.Equal(t, int64(15000), intent.AmountMinor)

	verifyBody := map[string]string{
		"order_ref":   intent.IntentID,
		"payment_ref": "pay_001",
		"signature":   payments.Sign(gatewaySecret, intent.IntentID, "pay_001"),
	}
	verified := f.do(http.MethodPost, "/api/v1/payments/verify", &f.retailer, verifyBody)
	require.Equal(t, http.StatusOK, verified.Code, verified.Body.String())
	first := decodeData[payments.VerifyResult](t, verified)
	assert.False(t, first.AlreadyProcessed)

	replayed := f.do(http.MethodPost, "/api/v1/payments/verify", &f.retailer, verifyBody)
	require.Equal(t, http.StatusOK, replayed.Code)
	assert.True(t, decodeData[payments.VerifyResult](t, replayed).AlreadyProcessed)
}

func TestRouteAuthorization(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/orders", &f.wholesaler, map[string]any{
		"wholesaler_id": f.wholesaler.ID,
		"items":         []map[string]any{{"product_id": f.product.ID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	created := f.do(http.MethodPost, "/api/v1/orders", &f.retailer, map[string]any{
		"wholesaler_id": f.wholesaler.ID,
		"items":         []map[string]any{{"product_id": f.product.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	order := decodeData[orders.OrderDTO](t, created)

	rec = f.do(http.MethodPut, "/api/v1/orders/"+order.ID.String()+"/status", &f.retailer, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/orders/"+order.ID.String(), &f.outsider, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), &f.retailer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/orders/not-a-uuid", &f.retailer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/dashboard/overview", &f.retailer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/invoices/wholesaler", &f.retailer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := f.outsider
	admin.Role = enums.RoleAdmin
	rec = f.do(http.MethodPost, "/api/v1/invoices/order/"+order.ID.String(), &admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	for _, path := range []string{"/api/v1/reports/sales", "/api/v1/reports/inventory", "/api/v1/reports/customers"} {
		rec = f.do(http.MethodGet, path, &f.retailer, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestReportsOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	created := f.do(http.MethodPost, "/api/v1/orders", &f.retailer, map[string]any{
		"wholesaler_id": f.wholesaler.ID,
		"items":         []map[string]any{{"product_id": f.product.ID, "quantity": 4}},
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	sales := f.do(http.MethodGet, "/api/v1/reports/sales", &f.wholesaler, nil)
	require.Equal(t, http.StatusOK, sales.Code, sales.Body.String())
	salesReport := decodeData[reports.SalesReport](t, sales)
	assert.EqualValues(t, 1, salesReport.TotalOrders)
	assert.Equal(t, "200.00", salesReport.TotalSales.StringFixed(2))

	future := f.do(http.MethodGet, "/api/v1/reports/sales?startDate="+time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02"), &f.wholesaler, nil)
	require.Equal(t, http.StatusOK, future.Code)
	assert.Zero(t, decodeData[reports.SalesReport](t, future).TotalOrders)

	bad := f.do(http.MethodGet, "/api/v1/reports/sales?endDate=soon", &f.wholesaler, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	inventory := f.do(http.MethodGet, "/api/v1/reports/inventory", &f.wholesaler, nil)
	require.Equal(t, http.StatusOK, inventory.Code)
	inventoryReport := decodeData[reports.InventoryReport](t, inventory)
	require.Equal(t, 1, inventoryReport.Count)
	assert.Equal(t, 6, inventoryReport.Products[0].Stock)

	customers := f.do(http.MethodGet, "/api/v1/reports/customers", &f.wholesaler, nil)
	require.Equal(t, http.StatusOK, customers.Code)
	customerReport := decodeData[reports.CustomersReport](t, customers)
	require.Equal(t, 1, customerReport.Count)
	assert.Equal(t, f.retailer.ID, customerReport.Customers[0].ID)
	assert.EqualValues(t, 1, customerReport.Customers[0].TotalOrders)
}

func TestPaymentVerifyIsThrottledPerUser(t *testing.T) {
	store := &memoryRateStore{}
	f := newAPIFixture(t, func(d *Deps) {
		d.Redis = store
		d.Config.RateLimit.VerifyWindow = time.Minute
		d.Config.RateLimit.VerifyUserLimit = 2
	})

	body := map[string]string{"order_ref": "order_unknown", "payment_ref": "pay_x", "signature": "deadbeef"}
	for i := 0; i < 2; i++ {
		rec := f.do(http.MethodPost, "/api/v1/payments/verify", &f.retailer, body)
		assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	}
	rec := f.do(http.MethodPost, "/api/v1/payments/verify", &f.retailer, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, rec))

	rec = f.do(http.MethodPost, "/api/v1/payments/verify", &f.outsider, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsufficientStockOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/orders", &f.retailer, map[string]any{
		"wholesaler_id": f.wholesaler.ID,
		"items":         []map[string]any{{"product_id": f.product.ID, "quantity": 11}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", errorCode(t, rec))

	rec = f.do(http.MethodPost, "/api/v1/orders", &f.retailer, map[string]any{
		"wholesaler_id": f.wholesaler.ID,
		"items":         []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.do(http.MethodGet, "/api/v1/products", &f.retailer, nil)
	rec = f.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}
