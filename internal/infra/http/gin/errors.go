package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	availabilityhandlers "homestay/internal/app/handlers/availability"
	bookinghandlers "homestay/internal/app/handlers/booking"
	"homestay/internal/app/policies"
	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainpayments "homestay/internal/domain/payments"
	domainpricing "homestay/internal/domain/pricing"
	domainrange "homestay/internal/domain/shared/daterange"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Message: message}})
}

// respondError maps sentinel errors onto stable error codes and HTTP
// statuses. Unmapped errors become an opaque 500 so internal details stay
// out of responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainpricing.ErrInvalidNights),
		errors.Is(err, domainpricing.ErrInvalidRate),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, bookinghandlers.ErrCheckInInPast),
		errors.Is(err, bookinghandlers.ErrUnknownTarget):
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domainlistings.ErrListingNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainpayments.ErrPaymentNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, bookinghandlers.ErrActorForbidden),
		errors.Is(err, availabilityhandlers.ErrNotListingHost):
		writeError(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domainavailability.ErrDateConflict),
		errors.Is(err, bookinghandlers.ErrListingNotBookable):
		writeError(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domainbooking.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domainbooking.ErrDeleteRequiresCancel),
		errors.Is(err, domainbooking.ErrReviewNotAllowed):
		writeError(c, http.StatusConflict, "invalid_operation", err.Error())
	case errors.Is(err, policies.ErrProviderUnavailable):
		writeError(c, http.StatusBadGateway, "upstream_unavailable", "payment provider unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
