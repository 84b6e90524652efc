package service

import (
	"bytes"
	"embed"
	"log/slog"
	"strings"
	"text/template"

	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/kb"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// resolutionTemplates is parsed once at package init.
var resolutionTemplates = template.Must(template.ParseFS(templateFS, "templates/resolution_*.tmpl"))

// resolutionTemplateDefs lists the prompt sections in render order.
var resolutionTemplateDefs = []string{
	"resolution_role.tmpl",
	"resolution_ticket.tmpl",
	"resolution_customer.tmpl",
	"resolution_kb.tmpl",
	"resolution_requirements.tmpl",
}

// resolutionPromptData carries all prompt inputs into the templates.
type resolutionPromptData struct {
	Role     string
	Ticket   ticket.Summary
	Customer customer.Context
	Findings *kb.Findings
}

// BuildResolutionPrompt renders the generation prompt from a role
// description, ticket summary, customer context, and optional knowledge
// base findings. Pure: identical inputs always produce identical output.
// Sections render in a fixed order; the knowledge base section is omitted
// entirely when findings are absent.
func BuildResolutionPrompt(role string, sum ticket.Summary, cust customer.Context, findings *kb.Findings) string {
	if sum.Category == "" {
		sum.Category = ticket.CategoryUnknown
	}

	data := resolutionPromptData{
		Role:     role,
		Ticket:   sum,
		Customer: cust,
		Findings: findings,
	}

	var assembled bytes.Buffer
	for _, name := range resolutionTemplateDefs {
		var buf bytes.Buffer
		if err := resolutionTemplates.ExecuteTemplate(&buf, name, data); err != nil {
			slog.Error("resolution template render failed", "template", name, "error", err)
			continue
		}
		text := strings.TrimSpace(buf.String())
		if text == "" {
			continue
		}
		if assembled.Len() > 0 {
			assembled.WriteString("\n\n")
		}
		assembled.WriteString(text)
	}

	return assembled.String()
}
