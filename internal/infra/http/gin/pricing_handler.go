package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"homestay/internal/app/dto"
	pricingapp "homestay/internal/app/handlers/pricing"
	"homestay/internal/app/queries"
)

type PricingHandler struct {
	Queries queries.Bus
}

func (h PricingHandler) Quote(c *gin.Context) {
	rate, err := strconv.ParseInt(c.Query("nightly_rate_cents"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", "nightly_rate_cents must be an integer")
		return
	}
	nights, err := strconv.Atoi(c.Query("nights"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", "nights must be an integer")
		return
	}
	currency := c.DefaultQuery("currency", "usd")

	query := pricingapp.QuoteQuery{NightlyRateCents: rate, Currency: currency, Nights: nights}
	result, err := queries.Ask[pricingapp.QuoteQuery, dto.PriceQuote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PricingHTTP = PricingHandler{}
