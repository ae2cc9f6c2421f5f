package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
)

// Sequencer hands out the numeric part of invoice numbers.
type Sequencer interface {
	Next(ctx context.Context, tx *gorm.DB) (int64, error)
}

// PostgresSequencer draws from the invoice_number_seq sequence.
type PostgresSequencer struct{}

func (PostgresSequencer) Next(ctx context.Context, tx *gorm.DB) (int64, error) {
	var next int64
	if err := tx.WithContext(ctx).Raw("SELECT nextval('invoice_number_seq')").Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// CountSequencer derives the next number from the invoice count. It is only
// suitable for single-writer sqlite databases; collisions are retried by the caller.
type CountSequencer struct{}

func (CountSequencer) Next(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&models.Invoice{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

// NewSequencer picks the sequencer matching the database driver.
func NewSequencer(sqlite bool) Sequencer {
	if sqlite {
		return CountSequencer{}
	}
	return PostgresSequencer{}
}

// FormatNumber renders INV-<YYYYMMDD>-<8 digit sequence>-<Luhn check digit>.
func FormatNumber(issuedAt time.Time, seq int64) string {
	date := issuedAt.UTC().Format("20060102")
	digits := fmt.Sprintf("%s%08d", date, seq)
	return fmt.Sprintf("INV-%s-%08d-%d", date, seq, luhnCheckDigit(digits))
}

// ValidNumber reports whether number carries a correct check digit.
func ValidNumber(number string) bool {
	parts := strings.Split(number, "-")
	if len(parts) != 4 || parts[0] != "INV" || len(parts[1]) != 8 || len(parts[3]) != 1 {
		return false
	}
	digits := parts[1] + parts[2]
	for _, r := range digits + parts[3] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return luhnCheckDigit(digits) == int(parts[3][0]-'0')
}

func luhnCheckDigit(digits string) int {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}
