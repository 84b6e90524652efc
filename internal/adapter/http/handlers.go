package http

import (
	"net/http"
	"strings"

	"github.com/sablehq/triagedesk/internal/domain/ticket"
	"github.com/sablehq/triagedesk/internal/port/crm"
	"github.com/sablehq/triagedesk/internal/resilience"
	"github.com/sablehq/triagedesk/internal/service"
)

const maxBatchSize = 50

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Triage  *service.TriageService
	Breaker *resilience.Breaker // nil when no remote generator is wired

	// Generator reports the model backing remote generation; empty when the
	// service runs in fallback-only mode.
	GeneratorModel   string
	GeneratorEnabled bool
}

type createTicketRequest struct {
	ID          string          `json:"id,omitempty"`
	CustomerID  string          `json:"customer_id"`
	Subject     string          `json:"subject"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Priority    string          `json:"priority,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

type resolutionResponse struct {
	TicketID   string `json:"ticket_id"`
	AgentRole  string `json:"agent_role"`
	Response   string `json:"response"`
	ResolvedAt string `json:"resolved_at"`
}

func toResolutionResponse(r *crm.Resolution) resolutionResponse {
	return resolutionResponse{
		TicketID:   r.TicketID,
		AgentRole:  r.AgentRole,
		Response:   r.Response,
		ResolvedAt: r.ResolvedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func (req createTicketRequest) toTicket() *ticket.Ticket {
	return &ticket.Ticket{
		ID:          req.ID,
		CustomerID:  req.CustomerID,
		Subject:     req.Subject,
		Description: req.Description,
		Category:    ticket.Category(strings.ToLower(req.Category)),
		Priority:    ticket.Priority(strings.ToLower(req.Priority)),
		Metadata:    req.Metadata,
	}
}

// CreateTicket runs a ticket through the triage pipeline and returns its
// resolution.
func (h *Handlers) CreateTicket(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[createTicketRequest](w, r)
	if !ok {
		return
	}

	t := req.toTicket()
	res, err := h.Triage.ProcessTicket(r.Context(), t)
	if err != nil {
		writeDomainError(w, err, "ticket not found")
		return
	}

	writeJSON(w, http.StatusCreated, toResolutionResponse(res))
}

// CreateBatch processes a batch of tickets concurrently. Tickets that fail
// processing come back as null entries; partial failure is reported with 207.
func (h *Handlers) CreateBatch(w http.ResponseWriter, r *http.Request) {
	reqs, ok := readJSON[[]createTicketRequest](w, r)
	if !ok {
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "empty batch")
		return
	}
	if len(reqs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "batch too large")
		return
	}

	tickets := make([]*ticket.Ticket, len(reqs))
	for i, req := range reqs {
		tickets[i] = req.toTicket()
	}

	results, err := h.Triage.ProcessBatch(r.Context(), tickets)

	out := make([]*resolutionResponse, len(results))
	for i, res := range results {
		if res == nil {
			continue
		}
		rr := toResolutionResponse(res)
		out[i] = &rr
	}

	status := http.StatusCreated
	if err != nil {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, out)
}

// GetTicket returns a stored ticket.
func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	t, err := h.Triage.Ticket(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GetResolution returns the resolution for a ticket.
func (h *Handlers) GetResolution(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	res, err := h.Triage.Resolution(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "resolution not found")
		return
	}
	writeJSON(w, http.StatusOK, toResolutionResponse(res))
}

// Health reports service liveness plus the state of the remote generator.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	gen := map[string]any{
		"enabled": h.GeneratorEnabled,
	}
	if h.GeneratorModel != "" {
		gen["model"] = h.GeneratorModel
	}
	if h.Breaker != nil {
		gen["breaker"] = string(h.Breaker.CurrentState())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"generator": gen,
	})
}
