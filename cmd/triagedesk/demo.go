package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sablehq/triagedesk/internal/adapter/kbindex"
	"github.com/sablehq/triagedesk/internal/adapter/memstore"
	"github.com/sablehq/triagedesk/internal/config"
	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
	"github.com/sablehq/triagedesk/internal/port/genai"
	"github.com/sablehq/triagedesk/internal/service"
)

// runDemo processes a few sample tickets against an in-memory store and
// prints the generated responses. No Postgres or NATS required; with
// GEMINI_API_KEY unset the responses come from the local fallback.
func runDemo(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	store := memstore.New()
	store.SeedHistory(&customer.History{
		CustomerID:    "CUST-001",
		AccountStatus: customer.StatusActive,
		LifetimeValue: 1250.00,
		PreviousTickets: []customer.TicketRef{
			{TicketID: "TKT-900", Subject: "Password reset"},
		},
	})
	store.SeedHistory(&customer.History{
		CustomerID:    "CUST-002",
		AccountStatus: customer.StatusActive,
		LifetimeValue: 89.99,
	})

	search, err := kbindex.Default()
	if err != nil {
		return fmt.Errorf("knowledge base: %w", err)
	}

	client, _, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	var gen genai.TextGenerator
	if client != nil {
		gen = client
	}

	triage := service.NewTriageService(store, gen, search, log)

	samples := []*ticket.Ticket{
		{
			CustomerID:  "CUST-001",
			Subject:     "App crashes on startup",
			Description: "The app crashes every time I open it. I've tried restarting my phone.",
			Category:    ticket.CategoryTechnical,
			Priority:    ticket.PriorityHigh,
			Metadata:    map[string]any{"customer_info": map[string]any{"tier": "premium"}},
		},
		{
			CustomerID:  "CUST-001",
			Subject:     "Refund for double charge",
			Description: "I was charged twice for my subscription this month.",
			Category:    ticket.CategoryBilling,
			Priority:    ticket.PriorityUrgent,
		},
		{
			CustomerID:  "CUST-002",
			Subject:     "How do I export my data?",
			Description: "I'd like to download all my account data.",
			Category:    ticket.CategoryGeneral,
		},
	}

	for _, t := range samples {
		res, err := triage.ProcessTicket(ctx, t)
		if err != nil {
			return fmt.Errorf("process ticket %q: %w", t.Subject, err)
		}

		fmt.Printf("=== %s [%s -> %s agent] ===\n", t.ID, t.Category, res.AgentRole)
		fmt.Println(res.Response)
		fmt.Println()
	}

	return nil
}
