package dto

import (
	"time"

	domainavailability "homestay/internal/domain/availability"
)

const dateLayout = "2006-01-02"

type AvailabilityDecision struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type UnavailableDates struct {
	ListingID string   `json:"listing_id"`
	Dates     []string `json:"dates"`
}

type BookedRange struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
}

type BookedRanges struct {
	ListingID string        `json:"listing_id"`
	Ranges    []BookedRange `json:"ranges"`
}

func MapUnavailableDates(listingID string, days []time.Time) UnavailableDates {
	out := UnavailableDates{ListingID: listingID, Dates: make([]string, 0, len(days))}
	for _, day := range days {
		out.Dates = append(out.Dates, day.Format(dateLayout))
	}
	return out
}

func MapBookedRanges(listingID string, reserved []domainavailability.ReservedRange) BookedRanges {
	out := BookedRanges{ListingID: listingID, Ranges: make([]BookedRange, 0, len(reserved))}
	for _, r := range reserved {
		out.Ranges = append(out.Ranges, BookedRange{
			Start:  r.Range.CheckIn,
			End:    r.Range.CheckOut,
			Status: string(r.Status),
		})
	}
	return out
}
