package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	availabilityapp "homestay/internal/app/handlers/availability"
	"homestay/internal/app/queries"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Availability answers both shapes of GET /listings/:id/availability:
// with check_in and check_out it is an availability decision, without
// them it is the unavailable-dates expansion over the horizon.
func (h AvailabilityHandler) Availability(c *gin.Context) {
	listingID := c.Param("id")
	rawIn, rawOut := c.Query("check_in"), c.Query("check_out")
	if rawIn == "" && rawOut == "" {
		result, err := queries.Ask[availabilityapp.UnavailableDatesQuery, dto.UnavailableDates](c.Request.Context(), h.Queries,
			availabilityapp.UnavailableDatesQuery{ListingID: listingID})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	checkIn, err := time.Parse(dateLayout, rawIn)
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, rawOut)
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", "check_out must be YYYY-MM-DD")
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{ListingID: listingID, CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityDecision](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	query := availabilityapp.BookedRangesQuery{ListingID: c.Param("id"), ActorID: user.ID, From: from, To: to}
	result, err := queries.Ask[availabilityapp.BookedRangesQuery, dto.BookedRanges](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type blockedDatesRequest struct {
	Dates []string `json:"dates" binding:"required"`
}

func (h AvailabilityHandler) BlockDates(c *gin.Context) {
	h.mutateBlockedDates(c, true)
}

func (h AvailabilityHandler) UnblockDates(c *gin.Context) {
	h.mutateBlockedDates(c, false)
}

func (h AvailabilityHandler) mutateBlockedDates(c *gin.Context, block bool) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req blockedDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "validation_error", "dates entries must be YYYY-MM-DD")
			return
		}
		dates = append(dates, day)
	}

	var err error
	if block {
		cmd := availabilityapp.BlockDatesCommand{ListingID: c.Param("id"), ActorID: user.ID, Dates: dates}
		_, err = commands.Dispatch[availabilityapp.BlockDatesCommand, struct{}](c.Request.Context(), h.Commands, cmd)
	} else {
		cmd := availabilityapp.UnblockDatesCommand{ListingID: c.Param("id"), ActorID: user.ID, Dates: dates}
		_, err = commands.Dispatch[availabilityapp.UnblockDatesCommand, struct{}](c.Request.Context(), h.Commands, cmd)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
