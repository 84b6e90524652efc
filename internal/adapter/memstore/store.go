// Package memstore implements the CRM store port in memory, for the demo
// mode and for tests that do not need Postgres.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/sablehq/triagedesk/internal/domain"
	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
	"github.com/sablehq/triagedesk/internal/port/crm"
)

// Store keeps customers, tickets, and resolutions in maps.
type Store struct {
	mu          sync.RWMutex
	histories   map[string]*customer.History
	tickets     map[string]*ticket.Ticket
	resolutions map[string]*crm.Resolution
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		histories:   make(map[string]*customer.History),
		tickets:     make(map[string]*ticket.Ticket),
		resolutions: make(map[string]*crm.Resolution),
	}
}

// SeedHistory inserts or replaces a customer history record.
func (s *Store) SeedHistory(h *customer.History) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[h.CustomerID] = h
}

// GetHistory returns the history for a customer.
func (s *Store) GetHistory(_ context.Context, customerID string) (*customer.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.histories[customerID]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", customerID, domain.ErrNotFound)
	}
	cp := *h
	return &cp, nil
}

// CreateTicket persists a ticket.
func (s *Store) CreateTicket(_ context.Context, t *ticket.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}

// GetTicket returns a ticket by id.
func (s *Store) GetTicket(_ context.Context, id string) (*ticket.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

// SaveResolution persists a resolution and marks the ticket resolved.
func (s *Store) SaveResolution(_ context.Context, r *crm.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.resolutions[r.TicketID] = &cp
	if t, ok := s.tickets[r.TicketID]; ok {
		t.Status = ticket.StatusResolved
		t.UpdatedAt = r.ResolvedAt
	}
	return nil
}

// GetResolution returns the resolution for a ticket.
func (s *Store) GetResolution(_ context.Context, ticketID string) (*crm.Resolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resolutions[ticketID]
	if !ok {
		return nil, fmt.Errorf("resolution for %s: %w", ticketID, domain.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}
