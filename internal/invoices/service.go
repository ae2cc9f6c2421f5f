package invoices

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/internal/orders"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesalehub-backend/pkg/errors"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
	"github.com/angelmondragon/wholesalehub-backend/pkg/metrics"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/wholesalehub-backend/pkg/pagination"
)

const maxNumberAttempts = 3

var errNumberTaken = errors.New("invoice number taken")

// Service exposes the invoice workflow.
type Service interface {
	CreateForOrder(ctx context.Context, requesterID, orderID uuid.UUID) (*InvoiceDTO, error)
	GetInvoice(ctx context.Context, requesterID, invoiceID uuid.UUID) (*InvoiceDTO, error)
	ListForRetailer(ctx context.Context, input ListInput) (*ListResult, error)
	ListForWholesaler(ctx context.Context, input ListInput) (*ListResult, error)
	RenderPDF(ctx context.Context, requesterID, invoiceID uuid.UUID, w io.Writer) (*InvoiceDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams wires the invoice workflow.
type ServiceParams struct {
	Repo      *Repository
	Orders    orders.Repository
	TxRunner  txRunner
	Outbox    outboxPublisher
	Sequencer Sequencer
	Renderer  Renderer
	Currency  enums.Currency
	Logger    *logger.Logger
	Metrics   *metrics.Domain
	Now       func() time.Time
}

type service struct {
	repo      *Repository
	orders    orders.Repository
	tx        txRunner
	outbox    outboxPublisher
	sequencer Sequencer
	renderer  Renderer
	currency  enums.Currency
	logg      *logger.Logger
	metrics   *metrics.Domain
	now       func() time.Time
}

// NewService builds the invoice workflow. Renderer defaults to PDFRenderer.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Sequencer == nil {
		return nil, fmt.Errorf("invoice sequencer required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !params.Currency.IsValid() {
		return nil, fmt.Errorf("invalid invoice currency %q", params.Currency)
	}
	renderer := params.Renderer
	if renderer == nil {
		renderer = PDFRenderer{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		orders:    params.Orders,
		tx:        params.TxRunner,
		outbox:    params.Outbox,
		sequencer: params.Sequencer,
		renderer:  renderer,
		currency:  params.Currency,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

func (s *service) CreateForOrder(ctx context.Context, requesterID, orderID uuid.UUID) (*InvoiceDTO, error) {
	var (
		invoiceID uuid.UUID
		err       error
	)
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		invoiceID, err = s.issue(ctx, requesterID, orderID)
		if !errors.Is(err, errNumberTaken) {
			break
		}
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		logCtx = s.logg.WithField(logCtx, "attempt", attempt)
		s.logg.Warn(logCtx, "invoice number collision, retrying")
	}
	if errors.Is(err, errNumberTaken) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not allocate invoice number")
	}
	if err != nil {
		return nil, err
	}
	s.metrics.InvoiceIssued()

	logCtx := s.logg.WithInvoiceID(ctx, invoiceID.String())
	logCtx = s.logg.WithOrderID(logCtx, orderID.String())
	s.logg.Info(logCtx, "invoice issued")

	return s.loadDetail(ctx, invoiceID)
}

func (s *service) issue(ctx context.Context, requesterID, orderID uuid.UUID) (uuid.UUID, error) {
	var invoiceID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if order.WholesalerID != requesterID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the order's wholesaler can invoice it")
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "cannot invoice a cancelled order")
		}

		repo := s.repo.WithTx(tx)
		exists, err := repo.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing invoice")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "invoice already exists for this order")
		}

		seq, err := s.sequencer.Next(ctx, tx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "next invoice number")
		}
		invoice := &models.Invoice{
			OrderID:       order.ID,
			InvoiceNumber: FormatNumber(s.now(), seq),
			Amount:        order.Total,
			Currency:      s.currency.String(),
			IssuedToID:    order.RetailerID,
			IssuedByID:    order.WholesalerID,
			Status:        enums.InvoiceStatusUnpaid,
		}
		if err := repo.Create(ctx, invoice); err != nil {
			switch {
			case isUnique(err, orderIDConstraint, "invoices.order_id"):
				return pkgerrors.New(pkgerrors.CodeBusinessRule, "invoice already exists for this order")
			case isUnique(err, invoiceNumberConstraint, "invoices.invoice_number"):
				return errNumberTaken
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoice")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventInvoiceIssued,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         &outbox.ActorRef{UserID: requesterID, Role: enums.RoleWholesaler},
			Data: payloads.InvoiceIssuedEvent{
				InvoiceID:     invoice.ID,
				InvoiceNumber: invoice.InvoiceNumber,
				OrderID:       order.ID,
				IssuedTo:      invoice.IssuedToID,
				IssuedBy:      invoice.IssuedByID,
				Amount:        invoice.Amount,
				Currency:      invoice.Currency,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit invoice issued")
		}
		invoiceID = invoice.ID
		return nil
	})
	return invoiceID, err
}

func isUnique(err error, constraint, columns string) bool {
	return db.IsUniqueViolation(err, constraint) || db.IsUniqueViolation(err, columns)
}

func (s *service) GetInvoice(ctx context.Context, requesterID, invoiceID uuid.UUID) (*InvoiceDTO, error) {
	invoice, err := s.authorizedDetail(ctx, requesterID, invoiceID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*invoice)
	return &dto, nil
}

func (s *service) ListForRetailer(ctx context.Context, input ListInput) (*ListResult, error) {
	requester := input.RequesterID
	return s.list(ctx, input, ListQuery{IssuedToID: &requester})
}

func (s *service) ListForWholesaler(ctx context.Context, input ListInput) (*ListResult, error) {
	requester := input.RequesterID
	return s.list(ctx, input, ListQuery{IssuedByID: &requester})
}

func (s *service) list(ctx context.Context, input ListInput, q ListQuery) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	q.Limit = input.Pagination.Limit
	q.Cursor = cursor

	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list invoices")
	}
	rows, more := pagination.Trim(rows, input.Pagination.Limit)

	page := &ListResult{Items: make([]InvoiceDTO, 0, len(rows))}
	for _, row := range rows {
		page.Items = append(page.Items, FromModel(row))
	}
	if more {
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// RenderPDF writes the invoice document to w and returns the invoice it rendered.
func (s *service) RenderPDF(ctx context.Context, requesterID, invoiceID uuid.UUID, w io.Writer) (*InvoiceDTO, error) {
	invoice, err := s.authorizedDetail(ctx, requesterID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := s.renderer.Render(w, NewDocument(*invoice)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}
	dto := FromModel(*invoice)
	return &dto, nil
}

func (s *service) authorizedDetail(ctx context.Context, requesterID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindDetail(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
	}
	if invoice.IssuedToID != requesterID && invoice.IssuedByID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invoice not accessible")
	}
	return invoice, nil
}

func (s *service) loadDetail(ctx context.Context, invoiceID uuid.UUID) (*InvoiceDTO, error) {
	invoice, err := s.repo.FindDetail(ctx, invoiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload invoice")
	}
	dto := FromModel(*invoice)
	return &dto, nil
}
