package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/email"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
	"github.com/angelmondragon/wholesalehub-backend/pkg/money"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox/registry"
)

// Sender delivers an email notification.
type Sender interface {
	Send(ctx context.Context, msg email.Message) error
}

type userDirectory interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// delivery is one recipient's in-app entry plus an optional email subject.
type delivery struct {
	userID  uuid.UUID
	kind    enums.NotificationType
	title   string
	message string
	link    string
	subject string
}

// Dispatcher turns domain events into inbox rows and emails.
type Dispatcher struct {
	repo   Repository
	users  userDirectory
	tx     txRunner
	sender Sender
	logg   *logger.Logger
}

// NewDispatcher wires the fan-out dependencies.
func NewDispatcher(repo Repository, users userDirectory, tx txRunner, sender Sender, logg *logger.Logger) (*Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{repo: repo, users: users, tx: tx, sender: sender, logg: logg}, nil
}

// Handle stores in-app notifications atomically, then sends emails best-effort.
// Only storage failures are returned; email failures are logged.
func (d *Dispatcher) Handle(ctx context.Context, event *registry.ResolvedEvent) error {
	deliveries := plan(event.Payload)
	if len(deliveries) == 0 {
		return nil
	}

	err := d.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := d.repo.WithTx(tx)
		for _, dl := range deliveries {
			n := &models.Notification{
				UserID:  dl.userID,
				Type:    dl.kind,
				Title:   dl.title,
				Message: dl.message,
			}
			if dl.link != "" {
				link := dl.link
				n.Link = &link
			}
			if err := repo.Create(ctx, n); err != nil {
				return fmt.Errorf("store notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if sendErr := d.sendEmails(ctx, deliveries); sendErr != nil {
		d.logg.Warn(d.logg.WithField(ctx, "error", sendErr.Error()), "notification email failed")
	}
	return nil
}

func (d *Dispatcher) sendEmails(ctx context.Context, deliveries []delivery) error {
	ids := make([]uuid.UUID, 0, len(deliveries))
	for _, dl := range deliveries {
		if dl.subject != "" {
			ids = append(ids, dl.userID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	recipients, err := d.users.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load recipients: %w", err)
	}

	var errs error
	for _, dl := range deliveries {
		if dl.subject == "" {
			continue
		}
		user, ok := recipients[dl.userID]
		if !ok || strings.TrimSpace(user.Email) == "" {
			errs = multierr.Append(errs, fmt.Errorf("no email for user %s", dl.userID))
			continue
		}
		msg := email.Message{To: user.Email, Subject: dl.subject, Body: dl.message}
		if err := d.sender.Send(ctx, msg); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("send %q: %w", dl.subject, err))
		}
	}
	return errs
}

func plan(payload any) []delivery {
	switch p := payload.(type) {
	case *payloads.OrderCreatedEvent:
		link := "/orders/" + p.OrderID.String()
		return []delivery{
			{
				userID:  p.RetailerID,
				kind:    enums.NotificationTypeOrderPlaced,
				title:   "Order placed",
				message: fmt.Sprintf("Your order #%s with %d item(s) totalling %s has been placed.", p.OrderID, p.ItemCount, p.Total.StringFixed(2)),
				link:    link,
				subject: fmt.Sprintf("Order Confirmed: #%s", p.OrderID),
			},
			{
				userID:  p.WholesalerID,
				kind:    enums.NotificationTypeOrderReceived,
				title:   "New order received",
				message: fmt.Sprintf("You have received a new order #%s with %d item(s) totalling %s.", p.OrderID, p.ItemCount, p.Total.StringFixed(2)),
				link:    link,
				subject: fmt.Sprintf("New Order Received: #%s", p.OrderID),
			},
		}
	case *payloads.OrderStatusChangedEvent:
		return []delivery{{
			userID:  p.RetailerID,
			kind:    enums.NotificationTypeOrderStatus,
			title:   "Order status updated",
			message: fmt.Sprintf("The status of your order #%s has been updated to: %s.", p.OrderID, strings.ToUpper(p.To.String())),
			link:    "/orders/" + p.OrderID.String(),
			subject: fmt.Sprintf("Order Status Updated: #%s", p.OrderID),
		}}
	case *payloads.InvoiceIssuedEvent:
		return []delivery{{
			userID:  p.IssuedTo,
			kind:    enums.NotificationTypeInvoiceIssued,
			title:   "Invoice issued",
			message: fmt.Sprintf("Invoice %s for %s has been issued for order #%s.", p.InvoiceNumber, money.Format(p.Amount, enums.Currency(p.Currency)), p.OrderID),
			link:    "/invoices/" + p.InvoiceID.String(),
		}}
	case *payloads.InvoicePaidEvent:
		return []delivery{{
			userID:  p.IssuedBy,
			kind:    enums.NotificationTypePaymentDone,
			title:   "Payment received",
			message: fmt.Sprintf("Invoice %s for %s has been paid.", p.InvoiceNumber, money.Format(p.Amount, enums.Currency(p.Currency))),
			link:    "/invoices/" + p.InvoiceID.String(),
		}}
	default:
		return nil
	}
}
