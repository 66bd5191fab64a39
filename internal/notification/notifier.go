// Package notification delivers RFQ lifecycle events to staff and customers.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/pkg/logger"
)

type EventType string

const (
	EventCreated       EventType = "created"
	EventStatusChanged EventType = "status_changed"
)

// Event is a snapshot of an RFQ at the moment something happened to it.
type Event struct {
	Type           EventType
	RFQ            model.RFQ
	OldStatus      model.RFQStatus
	NewStatus      model.RFQStatus
	NotifyCustomer bool
	OccurredAt     time.Time
}

func NewCreatedEvent(rfq model.RFQ) Event {
	return Event{
		Type:           EventCreated,
		RFQ:            rfq,
		NewStatus:      rfq.Status,
		NotifyCustomer: true,
		OccurredAt:     time.Now(),
	}
}

func NewStatusChangedEvent(rfq model.RFQ, from, to model.RFQStatus) Event {
	return Event{
		Type:           EventStatusChanged,
		RFQ:            rfq,
		OldStatus:      from,
		NewStatus:      to,
		NotifyCustomer: from.NotifiesCustomer(to),
		OccurredAt:     time.Now(),
	}
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Dispatcher fans an event out to every notifier. Delivery failures are
// logged and never returned, so callers can treat dispatch as fire-and-forget.
type Dispatcher struct {
	notifiers []Notifier
}

func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	active := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &Dispatcher{notifiers: active}
}

func (d *Dispatcher) Notify(ctx context.Context, event Event) error {
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			logger.Error("Notification delivery failed", err, map[string]interface{}{
				"notifier":   fmt.Sprintf("%T", n),
				"event":      event.Type,
				"rfq_id":     event.RFQ.ID,
				"new_status": event.NewStatus,
			})
		}
	}
	return nil
}
