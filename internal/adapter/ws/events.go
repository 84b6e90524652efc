package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sablehq/triagedesk/internal/service"
)

// Event type constants for WebSocket messages.
const (
	EventTicketCreated  = "ticket.created"
	EventTicketResolved = "ticket.resolved"
)

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// NotifyResolution pushes a resolved-ticket event to all connected clients.
// It satisfies the pipeline's notifier hook.
func (h *Hub) NotifyResolution(ctx context.Context, ev service.ResolutionEvent) {
	h.BroadcastEvent(ctx, EventTicketResolved, ev)
}
