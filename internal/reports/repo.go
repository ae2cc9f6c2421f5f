package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
)

// Repository runs the read-only report aggregates.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SalesTotals is the order count and summed order totals in a window.
type SalesTotals struct {
	TotalOrders int64
	TotalSales  decimal.Decimal
}

// SalesTotals sums every order of the wholesaler created in [from, to). Nil bounds are open.
func (r *Repository) SalesTotals(ctx context.Context, wholesalerID uuid.UUID, from, to *time.Time) (*SalesTotals, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(total), 0) AS total_sales").
		Where("wholesaler_id = ?", wholesalerID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var totals SalesTotals
	if err := query.Scan(&totals).Error; err != nil {
		return nil, err
	}
	return &totals, nil
}

// Inventory lists the wholesaler's whole catalog by name.
func (r *Repository) Inventory(ctx context.Context, ownerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// CustomerTotals is one retailer's spend with a wholesaler.
type CustomerTotals struct {
	ID          uuid.UUID
	Name        string
	Email       string
	Company     *string
	Phone       *string
	TotalSpent  decimal.Decimal
	TotalOrders int64
}

// Customers groups the wholesaler's orders by retailer, biggest spender first.
func (r *Repository) Customers(ctx context.Context, wholesalerID uuid.UUID) ([]CustomerTotals, error) {
	var rows []CustomerTotals
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`u.id AS id, u.name AS name, u.email AS email, u.company AS company, u.phone AS phone,
			COALESCE(SUM(o.total), 0) AS total_spent, COUNT(o.id) AS total_orders`).
		Joins("JOIN users u ON u.id = o.retailer_id").
		Where("o.wholesaler_id = ?", wholesalerID).
		Group("u.id, u.name, u.email, u.company, u.phone").
		Order("total_spent DESC").
		Order("u.name ASC").
		Scan(&rows).Error
	return rows, err
}
