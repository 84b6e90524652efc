// Package customer defines customer history and context domain types.
package customer

import "time"

// AccountStatus represents the standing of a customer account.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusUnknown   AccountStatus = "unknown"
)

// TicketRef is a prior ticket as recorded in the CRM.
type TicketRef struct {
	TicketID  string    `json:"ticket_id"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// History is the CRM record for a customer.
type History struct {
	CustomerID      string        `json:"customer_id"`
	AccountStatus   AccountStatus `json:"account_status"`
	PreviousTickets []TicketRef   `json:"previous_tickets"`
	LifetimeValue   float64       `json:"lifetime_value"`
}

// Context is the read-only customer view handed to response generation.
// Every field carries a default so prompt rendering never branches on
// missing data. Extras holds role-specific fields (e.g. lifetime value
// for billing) keyed by display label.
type Context struct {
	CustomerID    string
	AccountStatus AccountStatus
	TotalTickets  int
	Tier          string
	Extras        map[string]string
}

// ContextFromHistory builds a Context from a CRM history record, applying
// the defaults: active status, zero prior tickets, standard tier.
func ContextFromHistory(h *History, tier string) Context {
	cc := Context{
		CustomerID:    "",
		AccountStatus: StatusActive,
		TotalTickets:  0,
		Tier:          "standard",
	}
	if tier != "" {
		cc.Tier = tier
	}
	if h == nil {
		return cc
	}
	cc.CustomerID = h.CustomerID
	if h.AccountStatus != "" {
		cc.AccountStatus = h.AccountStatus
	}
	cc.TotalTickets = len(h.PreviousTickets)
	return cc
}
