package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/internal/invoices"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesalehub-backend/pkg/errors"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
	"github.com/angelmondragon/wholesalehub-backend/pkg/metrics"
	"github.com/angelmondragon/wholesalehub-backend/pkg/money"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox/payloads"
)

// Service reconciles invoices with gateway payments.
type Service interface {
	CreatePaymentIntent(ctx context.Context, requesterID, invoiceID uuid.UUID) (*IntentResult, error)
	VerifyPayment(ctx context.Context, requesterID uuid.UUID, input VerifyPaymentInput) (*VerifyResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams wires payment reconciliation.
type ServiceParams struct {
	Invoices *invoices.Repository
	TxRunner txRunner
	Outbox   outboxPublisher
	Gateway  Gateway
	Secret   string
	Logger   *logger.Logger
	Metrics  *metrics.Domain
	Now      func() time.Time
}

type service struct {
	invoices *invoices.Repository
	tx       txRunner
	outbox   outboxPublisher
	gateway  Gateway
	secret   string
	logg     *logger.Logger
	metrics  *metrics.Domain
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if strings.TrimSpace(params.Secret) == "" {
		return nil, fmt.Errorf("payment signing secret required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		invoices: params.Invoices,
		tx:       params.TxRunner,
		outbox:   params.Outbox,
		gateway:  params.Gateway,
		secret:   params.Secret,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

func (s *service) CreatePaymentIntent(ctx context.Context, requesterID, invoiceID uuid.UUID) (*IntentResult, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
	}
	if invoice.IssuedToID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the billed retailer can pay this invoice")
	}
	if invoice.Status == enums.InvoiceStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "invoice already paid")
	}

	amountMinor, err := money.ToMinorUnits(invoice.Amount, enums.Currency(invoice.Currency))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "convert invoice amount")
	}

	logCtx := s.logg.WithInvoiceID(ctx, invoice.ID.String())

	// Unpaid invoices keep their first gateway intent.
	if invoice.ExternalOrderRef != nil && *invoice.ExternalOrderRef != "" {
		s.logg.Info(logCtx, "reusing payment intent")
		return s.intentResult(invoice, *invoice.ExternalOrderRef, amountMinor), nil
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		AmountMinor: amountMinor,
		Currency:    invoice.Currency,
		Receipt:     invoice.InvoiceNumber,
		Notes:       map[string]string{"invoice_id": invoice.ID.String()},
	})
	if err != nil {
		s.logg.Error(logCtx, "payment gateway rejected intent", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
	}

	attached := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.invoices.WithTx(tx).AttachExternalOrderRef(ctx, invoice.ID, intent.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store payment intent")
		}
		if !ok {
			return nil
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentIntentCreated,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         &outbox.ActorRef{UserID: requesterID, Role: enums.RoleRetailer},
			Data: payloads.PaymentIntentCreatedEvent{
				InvoiceID:        invoice.ID,
				ExternalOrderRef: intent.ID,
				AmountMinor:      amountMinor,
				Currency:         invoice.Currency,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit payment intent created")
		}
		attached = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !attached {
		// A concurrent request stored its intent first; hand back the one callbacks will match.
		current, err := s.invoices.FindByID(ctx, invoice.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload invoice")
		}
		if current.Status == enums.InvoiceStatusPaid {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "invoice already paid")
		}
		if current.ExternalOrderRef == nil || *current.ExternalOrderRef == "" {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment intent could not be stored")
		}
		s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
			"discarded_intent_id": intent.ID,
			"intent_id":           *current.ExternalOrderRef,
		}), "payment intent lost attach race")
		return s.intentResult(current, *current.ExternalOrderRef, amountMinor), nil
	}

	s.logg.Info(s.logg.WithField(logCtx, "intent_id", intent.ID), "payment intent created")
	return s.intentResult(invoice, intent.ID, amountMinor), nil
}

func (s *service) intentResult(invoice *models.Invoice, intentID string, amountMinor int64) *IntentResult {
	return &IntentResult{
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		GatewayKeyID:  s.gateway.KeyID(),
		IntentID:      intentID,
		AmountMinor:   amountMinor,
		Amount:        invoice.Amount,
		Currency:      invoice.Currency,
		CheckoutURL:   s.gateway.CheckoutURL(intentID),
	}
}

func (s *service) VerifyPayment(ctx context.Context, requesterID uuid.UUID, input VerifyPaymentInput) (*VerifyResult, error) {
	orderRef := strings.TrimSpace(input.OrderRef)
	paymentRef := strings.TrimSpace(input.PaymentRef)
	signature := strings.TrimSpace(input.Signature)
	if orderRef == "" || paymentRef == "" || signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_ref, payment_ref and signature are required")
	}

	invoice, err := s.invoices.FindByExternalOrderRef(ctx, orderRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found for this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
	}

	logCtx := s.logg.WithInvoiceID(ctx, invoice.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"order_ref":   orderRef,
		"payment_ref": paymentRef,
	})

	if !validSignature(s.secret, orderRef, paymentRef, signature) {
		s.metrics.PaymentVerification("rejected")
		s.logg.Warn(logCtx, "payment signature mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "payment verification failed")
	}

	if invoice.Status == enums.InvoiceStatusPaid {
		return s.replayed(logCtx, invoice, paymentRef), nil
	}

	paidAt := s.now().UTC()
	settled := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.invoices.WithTx(tx)
		ok, err := repo.MarkPaid(ctx, invoice.ID, paymentRef, paidAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark invoice paid")
		}
		if !ok {
			return nil
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventInvoicePaid,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         &outbox.ActorRef{UserID: requesterID},
			Data: payloads.InvoicePaidEvent{
				InvoiceID:          invoice.ID,
				InvoiceNumber:      invoice.InvoiceNumber,
				OrderID:            invoice.OrderID,
				IssuedTo:           invoice.IssuedToID,
				IssuedBy:           invoice.IssuedByID,
				Amount:             invoice.Amount,
				Currency:           invoice.Currency,
				ExternalPaymentRef: paymentRef,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit invoice paid")
		}
		settled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !settled {
		current, err := s.invoices.FindByID(ctx, invoice.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload invoice")
		}
		return s.replayed(logCtx, current, paymentRef), nil
	}

	s.metrics.PaymentVerification("verified")
	s.logg.Info(logCtx, "invoice paid")
	return &VerifyResult{
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		Status:        enums.InvoiceStatusPaid,
		PaidAt:        &paidAt,
	}, nil
}

func (s *service) replayed(ctx context.Context, invoice *models.Invoice, paymentRef string) *VerifyResult {
	s.metrics.PaymentVerification("replayed")
	if invoice.ExternalPaymentRef != nil && *invoice.ExternalPaymentRef != paymentRef {
		s.logg.Warn(s.logg.WithField(ctx, "settled_payment_ref", *invoice.ExternalPaymentRef), "verified payment differs from settled payment")
	} else {
		s.logg.Info(ctx, "payment already processed")
	}
	return &VerifyResult{
		InvoiceID:        invoice.ID,
		InvoiceNumber:    invoice.InvoiceNumber,
		Status:           invoice.Status,
		AlreadyProcessed: true,
		PaidAt:           invoice.PaidAt,
	}
}
