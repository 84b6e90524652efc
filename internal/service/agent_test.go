package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/kb"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
	"github.com/sablehq/triagedesk/internal/service"
)

// mockSearcher records queries and returns a fixed result.
type mockSearcher struct {
	findings *kb.Findings
	err      error
	queries  []string
}

func (m *mockSearcher) Search(_ context.Context, query string) (*kb.Findings, error) {
	m.queries = append(m.queries, query)
	return m.findings, m.err
}

func crashTicket() *ticket.Ticket {
	return &ticket.Ticket{
		ID:          "TKT-100",
		CustomerID:  "CUST-7",
		Subject:     "App crashes on startup",
		Description: "Every time I open the mobile app, it crashes immediately.",
		Category:    ticket.CategoryTechnical,
		Priority:    ticket.PriorityHigh,
	}
}

func billingHistory() *customer.History {
	return &customer.History{
		CustomerID:    "CUST-7",
		AccountStatus: customer.StatusActive,
		PreviousTickets: []customer.TicketRef{
			{TicketID: "TKT-001", Subject: "Old issue", CreatedAt: time.Now().Add(-24 * time.Hour)},
		},
		LifetimeValue: 1250,
	}
}

func TestAgentSearchesWithDescription(t *testing.T) {
	search := &mockSearcher{}
	agent := service.NewSpecialistAgent(service.ProfileFor(ticket.CategoryTechnical), nil, search, nil)

	tk := crashTicket()
	_ = agent.Process(context.Background(), tk, nil)

	if len(search.queries) != 1 {
		t.Fatalf("expected one search, got %d", len(search.queries))
	}
	if search.queries[0] != tk.Description {
		t.Errorf("expected search with ticket description, got %q", search.queries[0])
	}
}

func TestBillingAgentIncludesLifetimeValue(t *testing.T) {
	client := &mockGenerator{text: "answer"}
	agent := service.NewSpecialistAgent(service.ProfileFor(ticket.CategoryBilling), client, nil, nil)

	tk := crashTicket()
	tk.Category = ticket.CategoryBilling
	_ = agent.Process(context.Background(), tk, billingHistory())

	if len(client.prompts) != 1 {
		t.Fatalf("expected one generation call, got %d", len(client.prompts))
	}
	if !strings.Contains(client.prompts[0], "Lifetime Value: $1250.00") {
		t.Errorf("billing prompt missing lifetime value:\n%s", client.prompts[0])
	}
}

func TestNonBillingAgentsOmitLifetimeValue(t *testing.T) {
	for _, cat := range []ticket.Category{ticket.CategoryTechnical, ticket.CategoryGeneral} {
		t.Run(string(cat), func(t *testing.T) {
			client := &mockGenerator{text: "answer"}
			agent := service.NewSpecialistAgent(service.ProfileFor(cat), client, nil, nil)

			_ = agent.Process(context.Background(), crashTicket(), billingHistory())

			if strings.Contains(client.prompts[0], "Lifetime Value") {
				t.Errorf("%s prompt should not include lifetime value", cat)
			}
		})
	}
}

func TestAgentTierFromMetadata(t *testing.T) {
	client := &mockGenerator{text: "answer"}
	agent := service.NewSpecialistAgent(service.ProfileFor(ticket.CategoryTechnical), client, nil, nil)

	tk := crashTicket()
	tk.Metadata = map[string]any{
		"customer_info": map[string]any{"tier": "premium"},
	}
	_ = agent.Process(context.Background(), tk, nil)

	if !strings.Contains(client.prompts[0], "Customer Tier: premium") {
		t.Errorf("expected premium tier from metadata:\n%s", client.prompts[0])
	}
}

func TestAgentDefaultsWithoutHistory(t *testing.T) {
	client := &mockGenerator{text: "answer"}
	agent := service.NewSpecialistAgent(service.ProfileFor(ticket.CategoryGeneral), client, nil, nil)

	_ = agent.Process(context.Background(), crashTicket(), nil)

	prompt := client.prompts[0]
	for _, want := range []string{
		"Account Status: active",
		"Previous Tickets: 0",
		"Customer Tier: standard",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing default %q:\n%s", want, prompt)
		}
	}
}

func TestAgentSearchFailureStillAnswers(t *testing.T) {
	search := &mockSearcher{err: errors.New("index offline")}
	agent := service.NewSpecialistAgent(service.ProfileFor(ticket.CategoryTechnical), nil, search, nil)

	out := agent.Process(context.Background(), crashTicket(), nil)
	if !strings.Contains(out, "App crashes on startup") {
		t.Errorf("expected fallback response despite search failure, got:\n%s", out)
	}
}

func TestProfileForUnknownCategory(t *testing.T) {
	p := service.ProfileFor(ticket.CategoryUnknown)
	if p.Name != "general" {
		t.Errorf("expected general profile for unknown category, got %s", p.Name)
	}
	p = service.ProfileFor(ticket.Category("gibberish"))
	if p.Name != "general" {
		t.Errorf("expected general profile for unrecognized category, got %s", p.Name)
	}
}
