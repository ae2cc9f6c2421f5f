package notifications

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/internal/users"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/email"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox/registry"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type dispatchFixture struct {
	conn       *gorm.DB
	dispatcher *Dispatcher
	sender     *recordingSender
	retailer   models.User
	wholesaler models.User
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	conn := dbtest.Open(t)
	sender := &recordingSender{}
	logg := logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard})

	d, err := NewDispatcher(NewRepository(conn), users.NewRepository(conn), db.Wrap(conn), sender, logg)
	require.NoError(t, err)

	return &dispatchFixture{
		conn:       conn,
		dispatcher: d,
		sender:     sender,
		retailer:   dbtest.SeedUser(t, conn, enums.RoleRetailer),
		wholesaler: dbtest.SeedUser(t, conn, enums.RoleWholesaler),
	}
}

func (f *dispatchFixture) inbox(t *testing.T, userID uuid.UUID) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, f.conn.Where("user_id = ?", userID).Find(&rows).Error)
	return rows
}

func TestOrderCreatedNotifiesBothParties(t *testing.T) {
	f := newDispatchFixture(t)
	orderID := uuid.New()

	event := &registry.ResolvedEvent{Payload: &payloads.OrderCreatedEvent{
		OrderID:      orderID,
		RetailerID:   f.retailer.ID,
		WholesalerID: f.wholesaler.ID,
		Total:        decimal.RequireFromString("150"),
		ItemCount:    1,
	}}
	require.NoError(t, f.dispatcher.Handle(context.Background(), event))

	retailerInbox := f.inbox(t, f.retailer.ID)
	require.Len(t, retailerInbox, 1)
	assert.Equal(t, enums.NotificationTypeOrderPlaced, retailerInbox[0].Type)
	assert.Contains(t, retailerInbox[0].Message, "150.00")
	require.NotNil(t, retailerInbox[0].Link)
	assert.Equal(t, "/orders/"+orderID.String(), *retailerInbox[0].Link)

	wholesalerInbox := f.inbox(t, f.wholesaler.ID)
	require.Len(t, wholesalerInbox, 1)
	assert.Equal(t, enums.NotificationTypeOrderReceived, wholesalerInbox[0].Type)

	require.Len(t, f.sender.sent, 2)
	subjects := []string{f.sender.sent[0].Subject, f.sender.sent[1].Subject}
	assert.Contains(t, subjects, "Order Confirmed: #"+orderID.String())
	assert.Contains(t, subjects, "New Order Received: #"+orderID.String())
}

func TestStatusChangeMessageUsesUpperCaseStatus(t *testing.T) {
	f := newDispatchFixture(t)
	event := &registry.ResolvedEvent{Payload: &payloads.OrderStatusChangedEvent{
		OrderID:      uuid.New(),
		RetailerID:   f.retailer.ID,
		WholesalerID: f.wholesaler.ID,
		From:         enums.OrderStatusPending,
		To:           enums.OrderStatusShipped,
	}}
	require.NoError(t, f.dispatcher.Handle(context.Background(), event))

	rows := f.inbox(t, f.retailer.ID)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Message, "SHIPPED")
	assert.Empty(t, f.inbox(t, f.wholesaler.ID))
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, f.retailer.Email, f.sender.sent[0].To)
}

func TestInvoiceEventsStayInApp(t *testing.T) {
	f := newDispatchFixture(t)
	invoiceID := uuid.New()
	ctx := context.Background()

	require.NoError(t, f.dispatcher.Handle(ctx, &registry.ResolvedEvent{Payload: &payloads.InvoiceIssuedEvent{
		InvoiceID:     invoiceID,
		InvoiceNumber: "INV-20250109-00000042-6",
		OrderID:       uuid.New(),
		IssuedTo:      f.retailer.ID,
		IssuedBy:      f.wholesaler.ID,
		Amount:        decimal.RequireFromString("150"),
		Currency:      "INR",
	}}))
	require.NoError(t, f.dispatcher.Handle(ctx, &registry.ResolvedEvent{Payload: &payloads.InvoicePaidEvent{
		InvoiceID:     invoiceID,
		InvoiceNumber: "INV-20250109-00000042-6",
		IssuedTo:      f.retailer.ID,
		IssuedBy:      f.wholesaler.ID,
		Amount:        decimal.RequireFromString("150"),
		Currency:      "INR",
	}}))

	issued := f.inbox(t, f.retailer.ID)
	require.Len(t, issued, 1)
	assert.Equal(t, enums.NotificationTypeInvoiceIssued, issued[0].Type)
	assert.Contains(t, issued[0].Message, "150.00 INR")

	paid := f.inbox(t, f.wholesaler.ID)
	require.Len(t, paid, 1)
	assert.Equal(t, enums.NotificationTypePaymentDone, paid[0].Type)
	assert.Empty(t, f.sender.sent)
}

func TestEmailFailureDoesNotFailHandling(t *testing.T) {
	f := newDispatchFixture(t)
	f.sender.err = errors.New("smtp down")

	event := &registry.ResolvedEvent{Payload: &payloads.OrderCreatedEvent{
		OrderID:      uuid.New(),
		RetailerID:   f.retailer.ID,
		WholesalerID: f.wholesaler.ID,
		Total:        decimal.RequireFromString("10"),
		ItemCount:    1,
	}}
	require.NoError(t, f.dispatcher.Handle(context.Background(), event))
	assert.Len(t, f.inbox(t, f.retailer.ID), 1)
	assert.Len(t, f.inbox(t, f.wholesaler.ID), 1)
}

func TestUnhandledEventIsIgnored(t *testing.T) {
	f := newDispatchFixture(t)
	event := &registry.ResolvedEvent{Payload: &payloads.PaymentIntentCreatedEvent{InvoiceID: uuid.New()}}
	require.NoError(t, f.dispatcher.Handle(context.Background(), event))

	var count int64
	require.NoError(t, f.conn.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.sender.sent)
}
