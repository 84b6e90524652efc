// Package service implements ticket response generation and the triage pipeline.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/kb"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
	"github.com/sablehq/triagedesk/internal/port/genai"
	"github.com/sablehq/triagedesk/internal/port/knowledge"
)

// RoleProfile configures a specialist agent. The three built-in roles differ
// only in description and in whether billing-specific context is added.
type RoleProfile struct {
	Name                 string
	Description          string
	IncludeLifetimeValue bool
}

// Built-in specialist profiles, keyed by the ticket category they handle.
var roleProfiles = map[ticket.Category]RoleProfile{
	ticket.CategoryTechnical: {
		Name: "technical",
		Description: "Technical Support Specialist with expertise in software troubleshooting, " +
			"account access issues, and system debugging",
	},
	ticket.CategoryBilling: {
		Name: "billing",
		Description: "Billing Support Specialist with expertise in payment processing, " +
			"refunds, disputes, and account billing",
		IncludeLifetimeValue: true,
	},
	ticket.CategoryGeneral: {
		Name: "general",
		Description: "General Customer Support Specialist handling inquiries, " +
			"information requests, and general assistance",
	},
}

// ProfileFor returns the specialist profile for a ticket category.
// Unknown or unrecognized categories are handled by the general profile.
func ProfileFor(cat ticket.Category) RoleProfile {
	if p, ok := roleProfiles[cat]; ok {
		return p
	}
	return roleProfiles[ticket.CategoryGeneral]
}

// SpecialistAgent shapes pipeline-native ticket and customer objects into
// generation inputs and delegates to a ResponseGenerator. It is a data
// mapping layer; all generation and fallback logic lives in the generator.
type SpecialistAgent struct {
	profile RoleProfile
	gen     *ResponseGenerator
	search  knowledge.Searcher
	logger  *slog.Logger
}

// NewSpecialistAgent creates an agent for the given profile. client may be
// nil (fallback-only mode); search may be nil (no knowledge base lookup).
func NewSpecialistAgent(profile RoleProfile, client genai.TextGenerator, search knowledge.Searcher, logger *slog.Logger) *SpecialistAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpecialistAgent{
		profile: profile,
		gen:     NewResponseGenerator(profile.Description, client, logger.With("role", profile.Name)),
		search:  search,
		logger:  logger,
	}
}

// Profile returns the agent's role configuration.
func (a *SpecialistAgent) Profile() RoleProfile {
	return a.profile
}

// Process resolves a ticket: search the knowledge base with the ticket
// description, map ticket and history into generation inputs, and return
// the generated (or fallback) response text. Never fails.
func (a *SpecialistAgent) Process(ctx context.Context, t *ticket.Ticket, history *customer.History) string {
	a.logger.Info("processing ticket", "role", a.profile.Name, "ticket_id", t.ID)

	var findings *kb.Findings
	if a.search != nil {
		f, err := a.search.Search(ctx, t.Description)
		if err != nil {
			// Search failures degrade to no findings; the ticket still gets a response.
			a.logger.Warn("knowledge base search failed", "ticket_id", t.ID, "error", err)
		} else {
			findings = f
		}
	}

	sum := ticket.Summarize(t)
	cust := customer.ContextFromHistory(history, t.Tier())

	if a.profile.IncludeLifetimeValue {
		var ltv float64
		if history != nil {
			ltv = history.LifetimeValue
		}
		cust.Extras = map[string]string{
			"Lifetime Value": fmt.Sprintf("$%.2f", ltv),
		}
	}

	return a.gen.Generate(ctx, sum, cust, findings)
}
