// Package knowledge defines the knowledge base search port (interface).
package knowledge

import (
	"context"

	"github.com/sablehq/triagedesk/internal/domain/kb"
)

// Searcher is the port interface for knowledge base lookup.
// Search returns nil findings (with nil error) when nothing relevant exists.
type Searcher interface {
	Search(ctx context.Context, query string) (*kb.Findings, error)
}
