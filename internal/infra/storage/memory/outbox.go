package memory

import (
	"context"
	"log/slog"
	"sync"

	appoutbox "rentlona/internal/app/outbox"
)

// Outbox buffers records for the current process. Flush logs and discards
// them; there is no broker behind the memory driver.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	logger  *slog.Logger
	// OnFlush, when set, receives every record before it is discarded.
	OnFlush func(appoutbox.EventRecord)
}

func NewOutbox(logger *slog.Logger) *Outbox {
	return &Outbox{logger: logger}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.records
	o.records = nil
	o.mu.Unlock()
	for _, rec := range records {
		if o.logger != nil {
			o.logger.Debug("domain event", "event", rec.Name, "aggregate", rec.Aggregate, "id", rec.ID)
		}
		if o.OnFlush != nil {
			o.OnFlush(rec)
		}
	}
	return nil
}

// Pending reports how many records wait for Flush.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
