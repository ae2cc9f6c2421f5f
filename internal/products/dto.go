package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
)

// ProductDTO is the catalog view returned to clients.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Name        string          `json:"name"`
	Category    *string         `json:"category,omitempty"`
	SKU         *string         `json:"sku,omitempty"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	MOQ         int             `json:"moq"`
	CreatedAt   time.Time       `json:"created_at"`
}

func FromModel(p models.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Category:    p.Category,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		MOQ:         p.MOQ,
		CreatedAt:   p.CreatedAt,
	}
}
