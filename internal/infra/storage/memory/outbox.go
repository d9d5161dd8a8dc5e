package memory

import (
	"context"
	"sync"

	appoutbox "homestay/internal/app/outbox"
)

// Outbox buffers recorded events in memory and discards them on Flush.
// In the memory storage mode there is no broker to drain into; the
// durable path lives in infra/outbox.
type Outbox struct {
	mu      sync.Mutex
	pending []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = nil
	return nil
}

var _ appoutbox.Outbox = (*Outbox)(nil)
