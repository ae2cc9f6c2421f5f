package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
)

// SeedUser inserts an active user with the given role.
func SeedUser(t *testing.T, conn *gorm.DB, role enums.UserRole) models.User {
	t.Helper()
	id := uuid.New()
	user := models.User{
		ID:           id,
		Name:         string(role) + "-" + id.String()[:8],
		Email:        id.String()[:8] + "@" + string(role) + ".test",
		PasswordHash: "unused",
		Role:         role,
		IsActive:     true,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedProduct inserts a product owned by ownerID. price is a decimal string.
func SeedProduct(t *testing.T, conn *gorm.DB, ownerID uuid.UUID, name, price string, stock, moq int) models.Product {
	t.Helper()
	product := models.Product{
		OwnerID: ownerID,
		Name:    name,
		Price:   decimal.RequireFromString(price),
		Stock:   stock,
		MOQ:     moq,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// Stock reads the current stock of a product.
func Stock(t *testing.T, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := conn.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.Stock
}
