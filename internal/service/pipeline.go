package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	tdotel "github.com/sablehq/triagedesk/internal/adapter/otel"
	"github.com/sablehq/triagedesk/internal/domain"
	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
	"github.com/sablehq/triagedesk/internal/metrics"
	"github.com/sablehq/triagedesk/internal/port/crm"
	"github.com/sablehq/triagedesk/internal/port/genai"
	"github.com/sablehq/triagedesk/internal/port/knowledge"
)

// EventPublisher publishes pipeline events to the message queue.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Notifier pushes resolution events to live subscribers (e.g. a dashboard).
type Notifier interface {
	NotifyResolution(ctx context.Context, ev ResolutionEvent)
}

// ResolutionEvent is emitted after a ticket has been resolved.
type ResolutionEvent struct {
	TicketID   string    `json:"ticket_id"`
	CustomerID string    `json:"customer_id"`
	Role       string    `json:"role"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// TriageService runs tickets through specialist response generation and
// persists the outcome. One agent exists per specialist category; agents
// are immutable after construction and shared across concurrent calls.
type TriageService struct {
	store       crm.Store
	agents      map[ticket.Category]*SpecialistAgent
	events      EventPublisher
	notify      Notifier
	maxParallel int
	logger      *slog.Logger
}

// NewTriageService creates the pipeline with one specialist agent per
// built-in role. client may be nil: every agent then answers with fallback
// responses, and ticket processing proceeds normally.
func NewTriageService(store crm.Store, client genai.TextGenerator, search knowledge.Searcher, logger *slog.Logger) *TriageService {
	if logger == nil {
		logger = slog.Default()
	}

	agents := make(map[ticket.Category]*SpecialistAgent, len(roleProfiles))
	for cat, profile := range roleProfiles {
		agents[cat] = NewSpecialistAgent(profile, client, search, logger)
	}

	return &TriageService{
		store:       store,
		agents:      agents,
		maxParallel: 4,
		logger:      logger,
	}
}

// SetEvents wires an event publisher for resolved-ticket events.
func (s *TriageService) SetEvents(p EventPublisher) { s.events = p }

// SetNotifier wires a live resolution notifier.
func (s *TriageService) SetNotifier(n Notifier) { s.notify = n }

// SetMaxParallel bounds concurrent ticket processing in ProcessBatch.
func (s *TriageService) SetMaxParallel(n int) {
	if n > 0 {
		s.maxParallel = n
	}
}

// ProcessTicket validates, persists, and resolves a single ticket.
// Persistence failures are returned as errors; generation never fails.
func (s *TriageService) ProcessTicket(ctx context.Context, t *ticket.Ticket) (*crm.Resolution, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = "TKT-" + uuid.NewString()
	}
	if t.Status == "" {
		t.Status = ticket.StatusOpen
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	ctx, span := tdotel.StartTicketSpan(ctx, t.ID, t.CustomerID, string(t.Category))
	defer span.End()

	if err := s.store.CreateTicket(ctx, t); err != nil {
		span.SetStatus(codes.Error, "create ticket failed")
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	history := s.lookupHistory(ctx, t)

	agent := s.agentFor(t.Category)
	span.SetAttributes(attribute.String("ticket.agent_role", agent.Profile().Name))
	response := agent.Process(ctx, t, history)

	res := &crm.Resolution{
		TicketID:   t.ID,
		AgentRole:  agent.Profile().Name,
		Response:   response,
		ResolvedAt: time.Now().UTC(),
	}
	if err := s.store.SaveResolution(ctx, res); err != nil {
		span.SetStatus(codes.Error, "save resolution failed")
		return nil, fmt.Errorf("save resolution: %w", err)
	}

	metrics.TicketsProcessed.WithLabelValues(agent.Profile().Name).Inc()
	s.emit(ctx, t, agent.Profile().Name, res.ResolvedAt)

	return res, nil
}

// ProcessBatch resolves tickets concurrently, bounded by maxParallel.
// The returned slice is ordered like the input; entries whose processing
// failed are nil and the first error is returned alongside.
func (s *TriageService) ProcessBatch(ctx context.Context, tickets []*ticket.Ticket) ([]*crm.Resolution, error) {
	results := make([]*crm.Resolution, len(tickets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	var mu sync.Mutex
	var firstErr error

	for i, t := range tickets {
		g.Go(func() error {
			res, err := s.ProcessTicket(gctx, t)
			if err != nil {
				s.logger.Error("ticket processing failed", "ticket_id", t.ID, "error", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil // keep processing the rest of the batch
			}
			results[i] = res
			return nil
		})
	}

	_ = g.Wait()
	return results, firstErr
}

// Resolution returns the stored resolution for a ticket.
func (s *TriageService) Resolution(ctx context.Context, ticketID string) (*crm.Resolution, error) {
	return s.store.GetResolution(ctx, ticketID)
}

// Ticket returns a stored ticket.
func (s *TriageService) Ticket(ctx context.Context, id string) (*ticket.Ticket, error) {
	return s.store.GetTicket(ctx, id)
}

// agentFor routes a category to its specialist, defaulting to general.
func (s *TriageService) agentFor(cat ticket.Category) *SpecialistAgent {
	if a, ok := s.agents[cat]; ok {
		return a
	}
	return s.agents[ticket.CategoryGeneral]
}

// lookupHistory fetches CRM history; a missing or failing record degrades
// to nil so the ticket still gets a response with default context.
func (s *TriageService) lookupHistory(ctx context.Context, t *ticket.Ticket) *customer.History {
	history, err := s.store.GetHistory(ctx, t.CustomerID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("customer history lookup failed", "customer_id", t.CustomerID, "error", err)
			metrics.Errors.WithLabelValues("crm").Inc()
		}
		return nil
	}
	return history
}

// emit publishes and broadcasts the resolution event; failures are logged only.
func (s *TriageService) emit(ctx context.Context, t *ticket.Ticket, role string, at time.Time) {
	ev := ResolutionEvent{
		TicketID:   t.ID,
		CustomerID: t.CustomerID,
		Role:       role,
		ResolvedAt: at,
	}

	if s.events != nil {
		data, err := json.Marshal(ev)
		if err == nil {
			err = s.events.Publish(ctx, "tickets.resolved."+t.ID, data)
		}
		if err != nil {
			s.logger.Error("resolution event publish failed", "ticket_id", t.ID, "error", err)
			metrics.Errors.WithLabelValues("events").Inc()
		}
	}

	if s.notify != nil {
		s.notify.NotifyResolution(ctx, ev)
	}
}
