package ws

import (
	"context"

	"github.com/ignatzorin/escrow-backend/internal/events"
)

// EventSink доставляет события шины подключённым клиентам хаба.
type EventSink struct {
	hub *Hub
}

func NewEventSink(hub *Hub) *EventSink {
	return &EventSink{hub: hub}
}

// Deliver реализует events.Sink.
func (s *EventSink) Deliver(_ context.Context, e events.Event) error {
	return s.hub.BroadcastToUser(e.Recipient, e.Type, e.Data)
}
