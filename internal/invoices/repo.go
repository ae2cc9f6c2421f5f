package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/pagination"
)

const (
	orderIDConstraint       = "uq_invoices_order_id"
	invoiceNumberConstraint = "uq_invoices_invoice_number"
)

// Repository persists invoices. Status only moves through the conditional updates below.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *Repository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindDetail loads the invoice with its order, item products and both parties.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Order.Items.Product").
		Preload("IssuedTo").
		Preload("IssuedBy").
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *Repository) FindByExternalOrderRef(ctx context.Context, ref string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "external_order_ref = ?", ref).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListQuery selects invoices by one party.
type ListQuery struct {
	IssuedToID *uuid.UUID
	IssuedByID *uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

// List returns up to Limit+1 invoices newest first with order details preloaded.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{})
	if q.IssuedToID != nil {
		query = query.Where("issued_to_id = ?", *q.IssuedToID)
	}
	if q.IssuedByID != nil {
		query = query.Where("issued_by_id = ?", *q.IssuedByID)
	}
	if q.Cursor != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}

	var rows []models.Invoice
	err := query.
		Preload("Order.Items.Product").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Limit)).
		Find(&rows).Error
	return rows, err
}

// AttachExternalOrderRef records the gateway order backing an unpaid invoice.
// The first ref wins; it reports false when the invoice is paid or already carries a ref.
func (r *Repository) AttachExternalOrderRef(ctx context.Context, id uuid.UUID, ref string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status = ? AND external_order_ref IS NULL", id, enums.InvoiceStatusUnpaid).
		Updates(map[string]any{
			"external_order_ref": ref,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkPaid settles an unpaid invoice. It reports false when the invoice was already paid.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, paymentRef string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, enums.InvoiceStatusUnpaid).
		Updates(map[string]any{
			"status":               enums.InvoiceStatusPaid,
			"external_payment_ref": paymentRef,
			"paid_at":              paidAt,
			"updated_at":           paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
