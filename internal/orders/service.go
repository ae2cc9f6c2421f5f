package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/internal/products"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesalehub-backend/pkg/errors"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
	"github.com/angelmondragon/wholesalehub-backend/pkg/metrics"
	"github.com/angelmondragon/wholesalehub-backend/pkg/money"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/wholesalehub-backend/pkg/pagination"
)

// Service exposes the order workflow.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*ListOrdersResult, error)
	GetOrder(ctx context.Context, requesterID, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
}

// ServiceParams wires the order workflow.
type ServiceParams struct {
	Repo               Repository
	Products           *products.Repository
	TxRunner           txRunner
	Outbox             outboxPublisher
	Logger             *logger.Logger
	Metrics            *metrics.Domain
	AllowClientPricing bool
	RestockOnCancel    bool
}

type service struct {
	repo               Repository
	products           *products.Repository
	tx                 txRunner
	outbox             outboxPublisher
	logg               *logger.Logger
	metrics            *metrics.Domain
	allowClientPricing bool
	restockOnCancel    bool
}

// NewService builds the order workflow.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:               params.Repo,
		products:           params.Products,
		tx:                 params.TxRunner,
		outbox:             params.Outbox,
		logg:               params.Logger,
		metrics:            params.Metrics,
		allowClientPricing: params.AllowClientPricing,
		restockOnCancel:    params.RestockOnCancel,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	orderID, err := s.placeOrder(ctx, input)
	if err != nil {
		code := pkgerrors.CodeInternal
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		s.metrics.OrderRejected(string(code))
		return nil, err
	}
	s.metrics.OrderPlaced()

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":      orderID.String(),
		"retailer_id":   input.RetailerID.String(),
		"wholesaler_id": input.WholesalerID.String(),
	})
	s.logg.Info(logCtx, "order placed")

	return s.loadDetail(ctx, orderID)
}

func (s *service) placeOrder(ctx context.Context, input CreateOrderInput) (uuid.UUID, error) {
	if input.ActorRole != enums.RoleRetailer {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "only retailers can place orders")
	}
	if err := validateCreateInput(input); err != nil {
		return uuid.Nil, err
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalog := s.products.WithTx(tx)

		items := make([]models.OrderItem, 0, len(input.Items))
		names := make(map[uuid.UUID]string, len(input.Items))
		total := decimal.Zero
		for _, line := range input.Items {
			product, err := catalog.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product not found: %s", line.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}
			if product.OwnerID != input.WholesalerID {
				return pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("%s is not sold by this wholesaler", product.Name))
			}
			if line.Quantity < product.MOQ {
				return pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("Minimum order quantity for %s is %d", product.Name, product.MOQ))
			}
			if line.Quantity > product.Stock {
				return pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("Insufficient stock for %s", product.Name))
			}

			unitPrice := s.unitPrice(ctx, product, line)
			total = total.Add(money.LineTotal(unitPrice, line.Quantity))
			names[product.ID] = product.Name
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: unitPrice,
			})
		}

		order := &models.Order{
			RetailerID:   input.RetailerID,
			WholesalerID: input.WholesalerID,
			Total:        total,
			Status:       enums.OrderStatusPending,
			Items:        items,
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		// Reserve in product id order so concurrent orders lock rows consistently.
		reservations := append([]models.OrderItem(nil), items...)
		sort.Slice(reservations, func(i, j int) bool {
			return reservations[i].ProductID.String() < reservations[j].ProductID.String()
		})
		for _, item := range reservations {
			ok, err := catalog.Reserve(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("Insufficient stock for %s", names[item.ProductID]))
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.RetailerID, Role: input.ActorRole},
			Data: payloads.OrderCreatedEvent{
				OrderID:      order.ID,
				RetailerID:   order.RetailerID,
				WholesalerID: order.WholesalerID,
				Total:        order.Total,
				ItemCount:    len(items),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return orderID, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if input.WholesalerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "wholesaler_id is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].product_id is required", i))
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be greater than zero", i))
		}
		// Non-positive prices fall back to the catalog price in unitPrice.
		if item.UnitPrice != nil && item.UnitPrice.IsPositive() && !money.HasPriceScale(*item.UnitPrice) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].unit_price allows at most %d decimal places", i, money.PriceScale))
		}
	}
	return nil
}

func (s *service) unitPrice(ctx context.Context, product *models.Product, line CreateOrderItemInput) decimal.Decimal {
	if line.UnitPrice == nil || !line.UnitPrice.IsPositive() || !s.allowClientPricing {
		return product.Price
	}
	if !line.UnitPrice.Equal(product.Price) {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id":    product.ID.String(),
			"catalog_price": product.Price.String(),
			"client_price":  line.UnitPrice.String(),
		})
		s.logg.Warn(logCtx, "client price override accepted")
	}
	return *line.UnitPrice
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*ListOrdersResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	requester := input.RequesterID
	q := ListQuery{Limit: input.Pagination.Limit, Cursor: cursor}
	switch input.Role {
	case enums.RoleRetailer:
		q.RetailerID = &requester
	case enums.RoleWholesaler:
		q.WholesalerID = &requester
	default:
		q.RetailerID = &requester
		q.WholesalerID = &requester
	}
	if input.Status != "" {
		status, err := enums.ParseOrderStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		q.Status = &status
	}

	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	rows, more := pagination.Trim(rows, input.Pagination.Limit)

	page := &ListOrdersResult{Items: make([]OrderDTO, 0, len(rows))}
	for _, row := range rows {
		page.Items = append(page.Items, FromModel(row))
	}
	if more {
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *service) GetOrder(ctx context.Context, requesterID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.RetailerID != requesterID && order.WholesalerID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}

	var changed bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if order.WholesalerID != input.RequesterID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the order's wholesaler can update its status")
		}
		if order.Status == next {
			return nil
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("cannot move order from %s to %s", order.Status, next)).
				WithDetails(map[string]any{"from": order.Status, "to": next})
		}

		swapped, err := repo.CompareAndSetStatus(ctx, order.ID, order.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
		}

		restocked := false
		if next == enums.OrderStatusCancelled && s.restockOnCancel {
			catalog := s.products.WithTx(tx)
			for _, item := range order.Items {
				if err := catalog.Restock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restock cancelled order")
				}
			}
			restocked = true
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.RequesterID, Role: input.ActorRole},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:      order.ID,
				RetailerID:   order.RetailerID,
				WholesalerID: order.WholesalerID,
				From:         order.Status,
				To:           next,
				Restocked:    restocked,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order status changed")
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		logCtx := s.logg.WithOrderID(ctx, input.OrderID.String())
		logCtx = s.logg.WithField(logCtx, "status", next.String())
		s.logg.Info(logCtx, "order status updated")
	}
	return s.loadDetail(ctx, input.OrderID)
}

func (s *service) loadDetail(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	dto := FromModel(*order)
	return &dto, nil
}
