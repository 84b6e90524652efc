package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "triagedesk"

// StartTicketSpan starts a span covering the full processing of one ticket.
func StartTicketSpan(ctx context.Context, ticketID, customerID, category string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ticket.process",
		trace.WithAttributes(
			attribute.String("ticket.id", ticketID),
			attribute.String("ticket.customer_id", customerID),
			attribute.String("ticket.category", category),
		),
	)
}

// StartGenerationSpan starts a span for a remote text generation call.
func StartGenerationSpan(ctx context.Context, role, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "generation",
		trace.WithAttributes(
			attribute.String("generation.role", role),
			attribute.String("generation.model", model),
		),
	)
}

// StartKBSearchSpan starts a span for a knowledge base lookup.
func StartKBSearchSpan(ctx context.Context, query string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "kb.search",
		trace.WithAttributes(
			attribute.String("kb.query", query),
		),
	)
}
