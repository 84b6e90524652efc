package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	tdotel "github.com/sablehq/triagedesk/internal/adapter/otel"
	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/kb"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
	"github.com/sablehq/triagedesk/internal/metrics"
	"github.com/sablehq/triagedesk/internal/port/genai"
)

// ResponseGenerator produces resolution text for a ticket, preferring the
// remote generation service and falling back to a deterministic local
// response when the service is unavailable or a call fails.
//
// Configuration is immutable after construction, so a generator is safe
// for concurrent use; whether the underlying client serializes calls is
// the client's concern.
type ResponseGenerator struct {
	role    string
	client  genai.TextGenerator
	enabled bool
	logger  *slog.Logger
}

// NewResponseGenerator creates a generator for the given specialist role.
// A nil client permanently disables remote generation for this instance;
// that is a degraded mode, not an error, and is logged once as a warning.
func NewResponseGenerator(role string, client genai.TextGenerator, logger *slog.Logger) *ResponseGenerator {
	if logger == nil {
		logger = slog.Default()
	}

	g := &ResponseGenerator{
		role:    role,
		client:  client,
		enabled: client != nil,
		logger:  logger,
	}

	if g.enabled {
		logger.Info("generation enabled", "role", role, "model", client.Model())
	} else {
		logger.Warn("generation service unavailable, using fallback responses", "role", role)
	}

	return g
}

// Enabled reports whether remote generation is configured. Exposed for
// diagnostics only; callers get a response either way.
func (g *ResponseGenerator) Enabled() bool {
	return g.enabled
}

// Role returns the specialist role description this generator answers as.
func (g *ResponseGenerator) Role() string {
	return g.role
}

// Generate returns resolution text for the ticket. It never fails: any
// remote error is logged, absorbed, and converted into the fallback
// response for this call only.
func (g *ResponseGenerator) Generate(ctx context.Context, sum ticket.Summary, cust customer.Context, findings *kb.Findings) string {
	start := time.Now()
	defer func() {
		metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}()

	if !g.enabled {
		metrics.Responses.WithLabelValues("fallback").Inc()
		return fallbackResponse(sum, findings)
	}

	prompt := BuildResolutionPrompt(g.role, sum, cust, findings)

	genCtx, span := tdotel.StartGenerationSpan(ctx, g.role, g.client.Model())
	text, err := g.client.Generate(genCtx, prompt)
	if err != nil {
		span.SetStatus(codes.Error, "generation failed")
	}
	span.End()
	if err != nil || text == "" {
		if err == nil {
			err = fmt.Errorf("empty generation result")
		}
		g.logger.Error("generation failed, falling back", "ticket_id", sum.ID, "error", err)
		metrics.Errors.WithLabelValues("generate").Inc()
		metrics.Responses.WithLabelValues("fallback").Inc()
		return fallbackResponse(sum, findings)
	}

	g.logger.Info("generated response", "ticket_id", sum.ID, "model", g.client.Model())
	metrics.Responses.WithLabelValues("remote").Inc()
	return text
}

// fallbackResponse builds the deterministic local response: an
// acknowledgment naming the subject, then either the numbered knowledge
// base steps or a generic review notice, then a contact line. Byte-for-byte
// identical for identical inputs.
func fallbackResponse(sum ticket.Summary, findings *kb.Findings) string {
	var sb strings.Builder

	sb.WriteString("Thank you for contacting support regarding: ")
	sb.WriteString(sum.Subject)
	sb.WriteString("\n\n")

	if findings.HasSteps() {
		sb.WriteString("Here's how to resolve your issue:\n\n")
		for i, step := range findings.Steps {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
		}
	} else {
		sb.WriteString("Our team is reviewing your request and will respond within 24 hours.\n")
	}

	sb.WriteString("\nIf you need immediate assistance, please contact our support line.")

	return sb.String()
}
