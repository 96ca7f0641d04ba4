package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"rentlona/internal/domain/shared/events"
)

// EventRecord is the serialized form of a domain event waiting for delivery.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox accepts records inside the command's unit of work. Flush runs after the
// handler returns; durable stores treat it as a no-op and relay asynchronously.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{"event-name": ev.EventName()},
	}, nil
}

// EventSource is an aggregate that buffers domain events.
type EventSource interface {
	Drain() []events.DomainEvent
}

// RecordDomainEvents drains every source into box. A nil box drops the events.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, sources ...EventSource) error {
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		evs := src.Drain()
		if box == nil {
			continue
		}
		for _, ev := range evs {
			rec, err := encoder.Encode(ev)
			if err != nil {
				return err
			}
			if err := box.Add(ctx, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// Events wraps already drained events so they can be recorded like a source.
type Events []events.DomainEvent

func (e Events) Drain() []events.DomainEvent { return e }
