package pricing

import (
	"errors"

	"homestay/internal/domain/shared/money"
)

var (
	ErrInvalidNights = errors.New("pricing: nights must be a positive integer")
	ErrInvalidRate   = errors.New("pricing: nightly rate must be positive")
)

// DefaultCommissionBP is the platform commission in basis points (10%).
const DefaultCommissionBP = 1000

// Breakdown is the single source of truth for monetary rounding. Subtotal
// and service fee are rounded independently so the fee stays auditable as
// its own ledger line; the total is their exact sum.
type Breakdown struct {
	Nights     int
	Nightly    money.Money
	Subtotal   money.Money
	ServiceFee money.Money
	Total      money.Money
}

// TotalCents is the integer minor-unit amount the payment provider expects.
func (b Breakdown) TotalCents() int64 {
	return b.Total.Amount
}

// Quote derives the price of a stay from the nightly rate in minor units
// and the night count. Fee rounding is half-up on the cent boundary.
func Quote(nightlyRateCents int64, currency string, nights int, commissionBP int64) (Breakdown, error) {
	if nights <= 0 {
		return Breakdown{}, ErrInvalidNights
	}
	if nightlyRateCents <= 0 {
		return Breakdown{}, ErrInvalidRate
	}
	nightly, err := money.New(nightlyRateCents, currency)
	if err != nil {
		return Breakdown{}, err
	}
	subtotal := nightly.Multiply(int64(nights))
	fee := subtotal.PercentBP(commissionBP)
	total, err := subtotal.Add(fee)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		Nights:     nights,
		Nightly:    nightly,
		Subtotal:   subtotal,
		ServiceFee: fee,
		Total:      total,
	}, nil
}
