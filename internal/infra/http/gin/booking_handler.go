package ginserver

import (
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	bookingapp "homestay/internal/app/handlers/booking"
	"homestay/internal/app/queries"
	domainbooking "homestay/internal/domain/booking"
)

const dateLayout = "2006-01-02"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	CheckIn   string `json:"check_in" binding:"required"`
	CheckOut  string `json:"check_out" binding:"required"`
	Guests    int    `json:"guests" binding:"required"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", "check_out must be YYYY-MM-DD")
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		GuestID:         user.ID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h BookingHandler) Transition(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	cmd := bookingapp.TransitionBookingCommand{
		BookingID: c.Param("id"),
		ActorID:   user.ID,
		Target:    domainbooking.State(strings.ToUpper(req.Status)),
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.TransitionBookingCommand, *bookingapp.TransitionBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Delete(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	cmd := bookingapp.DeleteBookingCommand{
		BookingID: c.Param("id"),
		ActorID:   user.ID,
	}
	if _, err := commands.Dispatch[bookingapp.DeleteBookingCommand, *bookingapp.DeleteBookingResult](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.GuestBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.GuestBookingsQuery{GuestID: user.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListForListing(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	q := bookingapp.HostListingBookingsQuery{
		ListingID: c.Param("id"),
		ActorID:   user.ID,
		From:      from,
		To:        to,
	}
	result, err := queries.Ask[bookingapp.HostListingBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseWindow reads optional from/to date query params; zero on absence.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "validation_error", "from must be YYYY-MM-DD")
			return from, to, false
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "validation_error", "to must be YYYY-MM-DD")
			return from, to, false
		}
		to = parsed
	}
	return from, to, true
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
