package listings

import (
	"context"
	"errors"
)

var (
	ErrListingNotFound = errors.New("listings: not found")
	ErrNightlyRate     = errors.New("listings: nightly rate must be positive")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Listing carries the slice of listing data the booking engine needs.
// Content management (title, description, photos) lives elsewhere.
type Listing struct {
	ID               ListingID
	Host             HostID
	Title            string
	NightlyRateCents int64
	Currency         string
	GuestsLimit      int
	State            ListingState
}

func (l *Listing) Bookable() bool {
	return l.State == ListingActive && l.NightlyRateCents > 0
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}
