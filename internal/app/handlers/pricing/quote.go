package pricing

import (
	"context"

	"homestay/internal/app/dto"
	"homestay/internal/app/queries"
	domainpricing "homestay/internal/domain/pricing"
)

const quoteKey = "pricing.quote"

type QuoteQuery struct {
	NightlyRateCents int64
	Currency         string
	Nights           int
}

func (q QuoteQuery) Key() string { return quoteKey }

// QuoteHandler is a pure computation behind the query bus; it touches no
// storage and needs no unit of work.
type QuoteHandler struct {
	CommissionBP int64
}

func (h *QuoteHandler) Handle(_ context.Context, q QuoteQuery) (dto.PriceQuote, error) {
	bp := h.CommissionBP
	if bp <= 0 {
		bp = domainpricing.DefaultCommissionBP
	}
	breakdown, err := domainpricing.Quote(q.NightlyRateCents, q.Currency, q.Nights, bp)
	if err != nil {
		return dto.PriceQuote{}, err
	}
	return dto.MapPriceQuote(breakdown), nil
}

var _ queries.Handler[QuoteQuery, dto.PriceQuote] = (*QuoteHandler)(nil)
