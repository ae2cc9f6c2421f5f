package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
)

// Invoice bills exactly one order. Amount is copied from the order total at issuance.
type Invoice struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_invoices_order_id"`
	InvoiceNumber      string              `gorm:"column:invoice_number;not null;uniqueIndex:uq_invoices_invoice_number"`
	Amount             decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency           string              `gorm:"column:currency;type:text;not null"`
	IssuedToID         uuid.UUID           `gorm:"column:issued_to_id;type:uuid;not null;index"`
	IssuedByID         uuid.UUID           `gorm:"column:issued_by_id;type:uuid;not null;index"`
	Status             enums.InvoiceStatus `gorm:"column:status;type:text;not null"`
	ExternalOrderRef   *string             `gorm:"column:external_order_ref;uniqueIndex:uq_invoices_external_order_ref"`
	ExternalPaymentRef *string             `gorm:"column:external_payment_ref"`
	PaidAt             *time.Time          `gorm:"column:paid_at"`
	Order              *Order              `gorm:"foreignKey:OrderID"`
	IssuedTo           *User               `gorm:"foreignKey:IssuedToID"`
	IssuedBy           *User               `gorm:"foreignKey:IssuedByID"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
