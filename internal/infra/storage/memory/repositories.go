package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainpayments "homestay/internal/domain/payments"
	"homestay/internal/domain/shared/daterange"
)

// ListingRepository is an in-memory implementation for tests and local runs.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

// NewListingRepository builds an empty repository.
func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

// ByID returns a listing or the domain's not-found sentinel.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	clone := *listing
	return &clone, nil
}

// Save stores/updates a listing entry.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *listing
	r.items[listing.ID] = &clone
	return nil
}

var _ domainlistings.Repository = (*ListingRepository)(nil)

// BookingRepository keeps bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	clone := *b
	clone.ClearEvents()
	return &clone, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *b
	clone.ClearEvents()
	b.Version++
	clone.Version = b.Version
	r.items[b.ID] = &clone
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainbooking.ErrBookingNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.GuestID == guestID {
			clone := *b
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID, from, to time.Time, states []domainbooking.State) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[domainbooking.State]struct{}, len(states))
	for _, s := range states {
		wanted[s] = struct{}{}
	}
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.ListingID != listingID {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[b.State]; !ok {
				continue
			}
		}
		if !to.IsZero() && !b.Range.CheckIn.Before(to) {
			continue
		}
		if !from.IsZero() && !b.Range.CheckOut.After(from) {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.CheckIn.Before(out[j].Range.CheckIn) })
	return out, nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)

// PaymentRepository keeps payments in memory.
type PaymentRepository struct {
	mu    sync.RWMutex
	items map[domainpayments.PaymentID]*domainpayments.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{items: make(map[domainpayments.PaymentID]*domainpayments.Payment)}
}

func (r *PaymentRepository) ByBookingID(ctx context.Context, id domainbooking.BookingID) (*domainpayments.Payment, error) {
	return r.find(func(p *domainpayments.Payment) bool { return p.BookingID == id })
}

func (r *PaymentRepository) BySessionID(ctx context.Context, sessionID string) (*domainpayments.Payment, error) {
	return r.find(func(p *domainpayments.Payment) bool { return p.SessionID == sessionID })
}

func (r *PaymentRepository) ByPaymentIntentID(ctx context.Context, intentID string) (*domainpayments.Payment, error) {
	return r.find(func(p *domainpayments.Payment) bool { return intentID != "" && p.PaymentIntentID == intentID })
}

func (r *PaymentRepository) find(match func(*domainpayments.Payment) bool) (*domainpayments.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.items {
		if match(p) {
			clone := *p
			clone.ClearEvents()
			return &clone, nil
		}
	}
	return nil, domainpayments.ErrPaymentNotFound
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayments.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	clone.ClearEvents()
	r.items[p.ID] = &clone
	return nil
}

func (r *PaymentRepository) DeleteByBookingID(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pid, p := range r.items {
		if p.BookingID == id {
			delete(r.items, pid)
		}
	}
	return nil
}

var _ domainpayments.Repository = (*PaymentRepository)(nil)

type calendarDay struct {
	listingID domainlistings.ListingID
	day       time.Time
}

// CalendarStore mirrors the durable ledger's semantics: at most one holder
// per (listing, day), conflict surfaced as ErrDateConflict.
type CalendarStore struct {
	mu       sync.Mutex
	reserved map[calendarDay]domainbooking.BookingID
	blocked  map[calendarDay]struct{}
}

func NewCalendarStore() *CalendarStore {
	return &CalendarStore{
		reserved: make(map[calendarDay]domainbooking.BookingID),
		blocked:  make(map[calendarDay]struct{}),
	}
}

func (s *CalendarStore) ReserveDays(ctx context.Context, listingID domainlistings.ListingID, bookingID domainbooking.BookingID, days []time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]calendarDay, 0, len(days))
	for _, day := range days {
		key := calendarDay{listingID: listingID, day: daterange.Day(day)}
		if holder, taken := s.reserved[key]; taken && holder != bookingID {
			return domainavailability.ErrDateConflict
		}
		keys = append(keys, key)
	}
	for _, key := range keys {
		s.reserved[key] = bookingID
	}
	return nil
}

func (s *CalendarStore) ReleaseDays(ctx context.Context, bookingID domainbooking.BookingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, holder := range s.reserved {
		if holder == bookingID {
			delete(s.reserved, key)
		}
	}
	return nil
}

func (s *CalendarStore) BlockDate(ctx context.Context, listingID domainlistings.ListingID, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked[calendarDay{listingID: listingID, day: daterange.Day(day)}] = struct{}{}
	return nil
}

func (s *CalendarStore) UnblockDate(ctx context.Context, listingID domainlistings.ListingID, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocked, calendarDay{listingID: listingID, day: daterange.Day(day)})
	return nil
}

func (s *CalendarStore) BlockedDates(ctx context.Context, listingID domainlistings.ListingID, from, to time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for key := range s.blocked {
		if key.listingID != listingID {
			continue
		}
		if !from.IsZero() && key.day.Before(daterange.Day(from)) {
			continue
		}
		if !to.IsZero() && !key.day.Before(daterange.Day(to)) {
			continue
		}
		out = append(out, key.day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

var _ domainavailability.CalendarStore = (*CalendarStore)(nil)
