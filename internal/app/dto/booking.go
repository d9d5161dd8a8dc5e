package dto

import (
	"time"

	domainbooking "homestay/internal/domain/booking"
	"homestay/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

type BookingSummary struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	GuestID    string    `json:"guest_id,omitempty"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Guests     int       `json:"guests"`
	Status     string    `json:"status"`
	Subtotal   MoneyDTO  `json:"subtotal"`
	ServiceFee MoneyDTO  `json:"service_fee"`
	Total      MoneyDTO  `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
	CanReview  bool      `json:"can_review"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

func MapBookingSummary(b *domainbooking.Booking, canReview bool) BookingSummary {
	return BookingSummary{
		ID:         string(b.ID),
		ListingID:  string(b.ListingID),
		GuestID:    b.GuestID,
		CheckIn:    b.Range.CheckIn,
		CheckOut:   b.Range.CheckOut,
		Guests:     b.Guests,
		Status:     string(b.State),
		Subtotal:   MapMoney(b.Price.Subtotal),
		ServiceFee: MapMoney(b.Price.ServiceFee),
		Total:      MapMoney(b.Price.Total),
		CreatedAt:  b.CreatedAt,
		CanReview:  canReview,
	}
}
