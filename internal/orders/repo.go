package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads the order with item products and both parties.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Retailer").
		Preload("Wholesaler").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListQuery filters orders by party. RetailerID and WholesalerID combine with OR.
type ListQuery struct {
	RetailerID   *uuid.UUID
	WholesalerID *uuid.UUID
	Status       *enums.OrderStatus
	Limit        int
	Cursor       *pagination.Cursor
}

// List returns up to Limit+1 orders newest first with items and products preloaded.
func (r *repository) List(ctx context.Context, q ListQuery) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	switch {
	case q.RetailerID != nil && q.WholesalerID != nil:
		query = query.Where("(retailer_id = ? OR wholesaler_id = ?)", *q.RetailerID, *q.WholesalerID)
	case q.RetailerID != nil:
		query = query.Where("retailer_id = ?", *q.RetailerID)
	case q.WholesalerID != nil:
		query = query.Where("wholesaler_id = ?", *q.WholesalerID)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.Cursor != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}

	var rows []models.Order
	err := query.
		Preload("Items.Product").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Limit)).
		Find(&rows).Error
	return rows, err
}

// CompareAndSetStatus moves the order to `to` only while it is still in `from`.
func (r *repository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// WholesalerStats aggregates the dashboard counters for one wholesaler.
type WholesalerStats struct {
	TotalOrders   int64
	PendingOrders int64
	Revenue       decimal.Decimal
	Customers     int64
}

func (r *repository) WholesalerStats(ctx context.Context, wholesalerID uuid.UUID) (*WholesalerStats, error) {
	var stats WholesalerStats
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(`COUNT(*) AS total_orders,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_orders,
			COALESCE(SUM(CASE WHEN status IN (?, ?) THEN total ELSE 0 END), 0) AS revenue,
			COUNT(DISTINCT retailer_id) AS customers`,
			enums.OrderStatusPending, enums.OrderStatusShipped, enums.OrderStatusDelivered).
		Where("wholesaler_id = ?", wholesalerID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *repository) CountForRetailer(ctx context.Context, retailerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("retailer_id = ?", retailerID).
		Count(&count).Error
	return count, err
}
