// Package crm defines the customer record store port (interface).
package crm

import (
	"context"
	"time"

	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
)

// Resolution records the outcome of a processed ticket.
type Resolution struct {
	TicketID   string    `json:"ticket_id"`
	AgentRole  string    `json:"agent_role"`
	Response   string    `json:"response"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Store is the port interface for customer and ticket persistence.
type Store interface {
	// GetHistory returns the CRM record for a customer, or domain.ErrNotFound.
	GetHistory(ctx context.Context, customerID string) (*customer.History, error)

	// CreateTicket persists a new ticket.
	CreateTicket(ctx context.Context, t *ticket.Ticket) error

	// GetTicket returns a ticket by ID, or domain.ErrNotFound.
	GetTicket(ctx context.Context, id string) (*ticket.Ticket, error)

	// SaveResolution persists a resolution and marks its ticket resolved.
	SaveResolution(ctx context.Context, r *Resolution) error

	// GetResolution returns the resolution for a ticket, or domain.ErrNotFound.
	GetResolution(ctx context.Context, ticketID string) (*Resolution, error)
}
