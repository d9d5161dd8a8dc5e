package dto

import (
	domainpricing "homestay/internal/domain/pricing"
)

type PriceQuote struct {
	Nights     int      `json:"nights"`
	Nightly    MoneyDTO `json:"nightly"`
	Subtotal   MoneyDTO `json:"subtotal"`
	ServiceFee MoneyDTO `json:"service_fee"`
	Total      MoneyDTO `json:"total"`
	TotalCents int64    `json:"total_cents"`
}

func MapPriceQuote(b domainpricing.Breakdown) PriceQuote {
	return PriceQuote{
		Nights:     b.Nights,
		Nightly:    MapMoney(b.Nightly),
		Subtotal:   MapMoney(b.Subtotal),
		ServiceFee: MapMoney(b.ServiceFee),
		Total:      MapMoney(b.Total),
		TotalCents: b.TotalCents(),
	}
}
