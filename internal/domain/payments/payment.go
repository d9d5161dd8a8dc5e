package payments

import (
	"context"
	"errors"
	"time"

	"homestay/internal/domain/booking"
	"homestay/internal/domain/shared/events"
)

var (
	ErrPaymentNotFound = errors.New("payments: not found")
)

type PaymentID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

// Payment tracks the one provider charge attached to a booking. It is
// created alongside the pending booking and only the reconciliation flow
// mutates it afterwards.
type Payment struct {
	ID                PaymentID
	BookingID         booking.BookingID
	SessionID         string
	PaymentIntentID   string
	Status            Status
	AmountCents       int64
	Currency          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	events.EventRecorder
}

type Repository interface {
	ByBookingID(ctx context.Context, id booking.BookingID) (*Payment, error)
	BySessionID(ctx context.Context, sessionID string) (*Payment, error)
	ByPaymentIntentID(ctx context.Context, intentID string) (*Payment, error)
	// Save is an idempotent upsert keyed by payment id; the provider may
	// redeliver events, so re-saving the same state must be a no-op.
	Save(ctx context.Context, p *Payment) error
	DeleteByBookingID(ctx context.Context, id booking.BookingID) error
}

type CreateParams struct {
	ID          PaymentID
	BookingID   booking.BookingID
	SessionID   string
	AmountCents int64
	Currency    string
	CreatedAt   time.Time
}

func NewPayment(params CreateParams) *Payment {
	now := params.CreatedAt.UTC()
	return &Payment{
		ID:          params.ID,
		BookingID:   params.BookingID,
		SessionID:   params.SessionID,
		Status:      StatusPending,
		AmountCents: params.AmountCents,
		Currency:    params.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkSucceeded records a completed charge. Reapplying the same state is a
// no-op so redelivered provider events do not emit duplicate side effects.
func (p *Payment) MarkSucceeded(intentID string, now time.Time) {
	if p.Status == StatusSucceeded {
		return
	}
	p.Status = StatusSucceeded
	if intentID != "" {
		p.PaymentIntentID = intentID
	}
	p.UpdatedAt = now.UTC()
	p.Record(PaymentSucceeded{PaymentID: p.ID, BookingID: p.BookingID, IntentID: p.PaymentIntentID, At: p.UpdatedAt})
}

// MarkFailed records an expired or failed charge. The booking stays
// pending; the guest may retry paying for it.
func (p *Payment) MarkFailed(reason string, now time.Time) {
	if p.Status == StatusFailed || p.Status == StatusRefunded {
		return
	}
	p.Status = StatusFailed
	p.UpdatedAt = now.UTC()
	p.Record(PaymentFailed{PaymentID: p.ID, BookingID: p.BookingID, Reason: reason, At: p.UpdatedAt})
}

// MarkRefunded records a provider-side refund of a succeeded charge.
func (p *Payment) MarkRefunded(now time.Time) {
	if p.Status == StatusRefunded {
		return
	}
	p.Status = StatusRefunded
	p.UpdatedAt = now.UTC()
	p.Record(PaymentRefunded{PaymentID: p.ID, BookingID: p.BookingID, IntentID: p.PaymentIntentID, At: p.UpdatedAt})
}
