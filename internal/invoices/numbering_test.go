package invoices

import (
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	day := time.Date(2025, 1, 9, 23, 0, 0, 0, time.UTC)
	got := FormatNumber(day, 42)
	// Luhn over 2025010900000042 gives check digit 6.
	if got != "INV-20250109-00000042-6" {
		t.Fatalf("unexpected number %q", got)
	}
	if !ValidNumber(got) {
		t.Fatalf("expected %q to validate", got)
	}
}

func TestValidNumberRejectsTampering(t *testing.T) {
	number := FormatNumber(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 1234)
	tampered := []byte(number)
	tampered[len("INV-20250601-0000")] = '9'

	cases := []string{
		string(tampered),
		"INV-20250601-00001234",
		"ORD-20250601-00001234-0",
		"INV-2025060-00001234-0",
		"INV-20250601-0000123x-0",
	}
	for _, c := range cases {
		if ValidNumber(c) {
			t.Fatalf("expected %q to be rejected", c)
		}
	}
}

func TestLuhnCheckDigit(t *testing.T) {
	// 7992739871 is the textbook example with check digit 3.
	if got := luhnCheckDigit("7992739871"); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}
