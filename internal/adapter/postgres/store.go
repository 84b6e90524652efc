package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sablehq/triagedesk/internal/domain"
	"github.com/sablehq/triagedesk/internal/domain/customer"
	"github.com/sablehq/triagedesk/internal/domain/ticket"
	"github.com/sablehq/triagedesk/internal/port/crm"
)

// Store implements crm.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertCustomer inserts or updates a customer record.
func (s *Store) UpsertCustomer(ctx context.Context, id string, status customer.AccountStatus, lifetimeValue float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO customers (id, account_status, lifetime_value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET account_status = EXCLUDED.account_status, lifetime_value = EXCLUDED.lifetime_value`,
		id, string(status), lifetimeValue)
	if err != nil {
		return fmt.Errorf("upsert customer %s: %w", id, err)
	}
	return nil
}

// GetHistory returns the CRM record for a customer. Previous tickets cover
// completed work only, so a ticket currently being processed never counts
// against its own customer history.
func (s *Store) GetHistory(ctx context.Context, customerID string) (*customer.History, error) {
	var h customer.History
	err := s.pool.QueryRow(ctx,
		`SELECT id, account_status, lifetime_value FROM customers WHERE id = $1`, customerID,
	).Scan(&h.CustomerID, &h.AccountStatus, &h.LifetimeValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get history %s: %w", customerID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get history %s: %w", customerID, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, subject, created_at FROM tickets
		 WHERE customer_id = $1 AND status IN ('resolved', 'closed')
		 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list previous tickets for %s: %w", customerID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref customer.TicketRef
		if err := rows.Scan(&ref.TicketID, &ref.Subject, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket ref: %w", err)
		}
		h.PreviousTickets = append(h.PreviousTickets, ref)
	}
	return &h, rows.Err()
}

// CreateTicket persists a ticket.
func (s *Store) CreateTicket(ctx context.Context, t *ticket.Ticket) error {
	var metadataJSON []byte
	if t.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(t.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tickets (id, customer_id, subject, description, category, priority, status, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.CustomerID, t.Subject, t.Description, string(t.Category), string(t.Priority), string(t.Status),
		metadataJSON, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create ticket %s: %w", t.ID, err)
	}
	return nil
}

// GetTicket returns a ticket by id.
func (s *Store) GetTicket(ctx context.Context, id string) (*ticket.Ticket, error) {
	var t ticket.Ticket
	var metadataJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, customer_id, subject, description, category, priority, status, metadata, created_at, updated_at
		 FROM tickets WHERE id = $1`, id,
	).Scan(&t.ID, &t.CustomerID, &t.Subject, &t.Description, &t.Category, &t.Priority, &t.Status,
		&metadataJSON, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get ticket %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &t, nil
}

// SaveResolution persists a resolution and marks the ticket resolved, in one
// transaction.
func (s *Store) SaveResolution(ctx context.Context, r *crm.Resolution) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx,
		`INSERT INTO resolutions (ticket_id, agent_role, response, resolved_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (ticket_id) DO UPDATE SET agent_role = EXCLUDED.agent_role, response = EXCLUDED.response, resolved_at = EXCLUDED.resolved_at`,
		r.TicketID, r.AgentRole, r.Response, r.ResolvedAt)
	if err != nil {
		return fmt.Errorf("insert resolution for %s: %w", r.TicketID, err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE tickets SET status = $2, updated_at = $3 WHERE id = $1`,
		r.TicketID, string(ticket.StatusResolved), r.ResolvedAt)
	if err != nil {
		return fmt.Errorf("mark ticket %s resolved: %w", r.TicketID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark ticket %s resolved: %w", r.TicketID, domain.ErrNotFound)
	}

	return tx.Commit(ctx)
}

// GetResolution returns the resolution for a ticket.
func (s *Store) GetResolution(ctx context.Context, ticketID string) (*crm.Resolution, error) {
	var r crm.Resolution
	err := s.pool.QueryRow(ctx,
		`SELECT ticket_id, agent_role, response, resolved_at FROM resolutions WHERE ticket_id = $1`, ticketID,
	).Scan(&r.TicketID, &r.AgentRole, &r.Response, &r.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get resolution for %s: %w", ticketID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get resolution for %s: %w", ticketID, err)
	}
	return &r, nil
}
