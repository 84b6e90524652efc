// Package ticket defines the support ticket domain types.
package ticket

import (
	"errors"
	"time"
)

// Category classifies a ticket for specialist routing.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryBilling   Category = "billing"
	CategoryGeneral   Category = "general"

	// CategoryUnknown is substituted whenever a ticket carries no category,
	// so downstream consumers never see an empty tag.
	CategoryUnknown Category = "unknown"
)

// ValidCategory reports whether c is a known routable category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryTechnical, CategoryBilling, CategoryGeneral:
		return true
	}
	return false
}

// Priority orders tickets by urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Status represents the lifecycle state of a ticket.
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
	StatusClosed   Status = "closed"
)

// Ticket is a customer support request as stored by the pipeline.
type Ticket struct {
	ID          string         `json:"id"`
	CustomerID  string         `json:"customer_id"`
	Subject     string         `json:"subject"`
	Description string         `json:"description"`
	Category    Category       `json:"category,omitempty"`
	Priority    Priority       `json:"priority"`
	Status      Status         `json:"status"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Validate checks that a ticket is well-formed enough to process.
func (t *Ticket) Validate() error {
	if t.CustomerID == "" {
		return errors.New("customer_id is required")
	}
	if t.Subject == "" && t.Description == "" {
		return errors.New("subject or description is required")
	}
	return nil
}

// Summary is the read-only view of a ticket handed to response generation.
// Subject and Description are always present as strings (empty if missing)
// and Category is never blank, so prompt text is always well-formed.
type Summary struct {
	ID          string
	Subject     string
	Description string
	Category    Category
	Priority    Priority
}

// Summarize builds a Summary from a ticket, substituting CategoryUnknown
// for an absent category.
func Summarize(t *Ticket) Summary {
	cat := t.Category
	if cat == "" {
		cat = CategoryUnknown
	}
	return Summary{
		ID:          t.ID,
		Subject:     t.Subject,
		Description: t.Description,
		Category:    cat,
		Priority:    t.Priority,
	}
}

// Tier extracts the customer tier from ticket metadata, defaulting to
// "standard". Intake systems nest it under metadata["customer_info"]["tier"].
func (t *Ticket) Tier() string {
	info, ok := t.Metadata["customer_info"].(map[string]any)
	if !ok {
		return "standard"
	}
	tier, ok := info["tier"].(string)
	if !ok || tier == "" {
		return "standard"
	}
	return tier
}
