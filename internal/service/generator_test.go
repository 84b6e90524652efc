package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/kb"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
	"github.com/sablehq/triagedesk/internal/service"
)

// mockGenerator is a scriptable genai.TextGenerator.
type mockGenerator struct {
	text    string
	err     error
	prompts []string
}

func (m *mockGenerator) Model() string { return "mock-model" }

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func loginSummary() ticket.Summary {
	return ticket.Summary{
		ID:          "T1",
		Subject:     "Login fails",
		Description: "Cannot sign in since this morning.",
		Category:    ticket.CategoryUnknown,
		Priority:    ticket.PriorityHigh,
	}
}

func defaultContext() customer.Context {
	return customer.ContextFromHistory(nil, "")
}

func TestGenerateDisabledReturnsFallbackWithSubject(t *testing.T) {
	g := service.NewResponseGenerator("Support Specialist", nil, nil)
	if g.Enabled() {
		t.Fatal("expected disabled generator for nil client")
	}

	out := g.Generate(context.Background(), loginSummary(), defaultContext(), nil)
	if out == "" {
		t.Fatal("expected non-empty response")
	}
	if !strings.Contains(out, "Login fails") {
		t.Errorf("expected subject in fallback, got:\n%s", out)
	}
	if !strings.HasPrefix(out, "Thank you for contacting support regarding: Login fails") {
		t.Errorf("expected acknowledgment line first, got:\n%s", out)
	}
	if !strings.HasSuffix(out, "If you need immediate assistance, please contact our support line.") {
		t.Errorf("expected contact line last, got:\n%s", out)
	}
}

func TestGenerateFallbackDeterministic(t *testing.T) {
	g := service.NewResponseGenerator("Support Specialist", nil, nil)
	findings := &kb.Findings{Steps: []string{"Clear cache", "Reinstall app"}}

	a := g.Generate(context.Background(), loginSummary(), defaultContext(), findings)
	b := g.Generate(context.Background(), loginSummary(), defaultContext(), findings)
	if a != b {
		t.Errorf("fallback not deterministic:\n%q\nvs\n%q", a, b)
	}
}

func TestGenerateFallbackEnumeratesSteps(t *testing.T) {
	g := service.NewResponseGenerator("Support Specialist", nil, nil)
	findings := &kb.Findings{Steps: []string{"Clear cache", "Reinstall app"}}

	out := g.Generate(context.Background(), loginSummary(), defaultContext(), findings)

	first := strings.Index(out, "1. Clear cache")
	second := strings.Index(out, "2. Reinstall app")
	if first == -1 || second == -1 {
		t.Fatalf("expected numbered steps, got:\n%s", out)
	}
	if first > second {
		t.Error("steps rendered out of order")
	}
	if strings.Contains(out, "reviewing your request") {
		t.Error("generic review line must not appear alongside steps")
	}
}

func TestGenerateFallbackWithoutSteps(t *testing.T) {
	g := service.NewResponseGenerator("Support Specialist", nil, nil)

	for name, findings := range map[string]*kb.Findings{
		"nil findings":   nil,
		"empty findings": {Query: "login"},
	} {
		t.Run(name, func(t *testing.T) {
			out := g.Generate(context.Background(), loginSummary(), defaultContext(), findings)
			if !strings.Contains(out, "Our team is reviewing your request and will respond within 24 hours.") {
				t.Errorf("expected generic review line, got:\n%s", out)
			}
			if strings.Contains(out, "1. ") {
				t.Errorf("expected no numbered list, got:\n%s", out)
			}
		})
	}
}

func TestGenerateRemoteSuccessReturnsVerbatim(t *testing.T) {
	client := &mockGenerator{text: "Here is your tailored answer."}
	g := service.NewResponseGenerator("Support Specialist", client, nil)
	if !g.Enabled() {
		t.Fatal("expected enabled generator")
	}

	out := g.Generate(context.Background(), loginSummary(), defaultContext(), nil)
	if out != "Here is your tailored answer." {
		t.Errorf("expected verbatim remote text, got %q", out)
	}
	if len(client.prompts) != 1 {
		t.Fatalf("expected one remote call, got %d", len(client.prompts))
	}
	if !strings.Contains(client.prompts[0], "Login fails") {
		t.Error("prompt does not carry the ticket subject")
	}
}

func TestGenerateRemoteFailureEqualsDisabledOutput(t *testing.T) {
	findings := &kb.Findings{Steps: []string{"Clear cache", "Reinstall app"}}

	failing := service.NewResponseGenerator("Support Specialist", &mockGenerator{err: errors.New("quota exceeded")}, nil)
	disabled := service.NewResponseGenerator("Support Specialist", nil, nil)

	got := failing.Generate(context.Background(), loginSummary(), defaultContext(), findings)
	want := disabled.Generate(context.Background(), loginSummary(), defaultContext(), findings)
	if got != want {
		t.Errorf("failure path diverges from disabled path:\n%q\nvs\n%q", got, want)
	}
}

func TestGenerateRemoteEmptyTextFallsBack(t *testing.T) {
	g := service.NewResponseGenerator("Support Specialist", &mockGenerator{text: ""}, nil)

	out := g.Generate(context.Background(), loginSummary(), defaultContext(), nil)
	if !strings.Contains(out, "Thank you for contacting support regarding: Login fails") {
		t.Errorf("expected fallback for empty remote text, got:\n%s", out)
	}
}

func TestGenerateFailureDoesNotPoisonSubsequentCalls(t *testing.T) {
	client := &mockGenerator{err: errors.New("transient")}
	g := service.NewResponseGenerator("Support Specialist", client, nil)

	_ = g.Generate(context.Background(), loginSummary(), defaultContext(), nil)

	client.err = nil
	client.text = "Recovered answer."
	out := g.Generate(context.Background(), loginSummary(), defaultContext(), nil)
	if out != "Recovered answer." {
		t.Errorf("expected remote path to recover, got %q", out)
	}
}
