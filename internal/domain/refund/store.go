package refund

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lessonhub/internal/docstore"
	"lessonhub/internal/pkg/identity"
	"lessonhub/internal/pkg/validator"
)

const ticketsDocument = "refund_tickets"

// Store owns refund tickets, persisted as one document.
type Store struct {
	docs  docstore.Store
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs, now: time.Now, newID: identity.New}
}

// Create opens a ticket for p.BookingID unless an active one already exists,
// in which case that ticket is returned with ModeExisting.
func (s *Store) Create(ctx context.Context, p CreatePayload) (*CreateResult, error) {
	if fields := validator.Validate(p); fields != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, fields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if t.BookingID == p.BookingID && t.Active() {
			return &CreateResult{Mode: ModeExisting, Item: t}, nil
		}
	}

	now := s.now().UTC()
	t := Ticket{
		ID:           s.newID(),
		BookingID:    p.BookingID,
		Invoice:      p.Invoice,
		StudentName:  p.StudentName,
		AmountRubles: p.AmountRubles,
		Reason:       p.Reason,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	tickets = append(tickets, t)
	if err := s.docs.Save(ctx, ticketsDocument, tickets); err != nil {
		return nil, fmt.Errorf("save refund tickets: %w", err)
	}
	return &CreateResult{Mode: ModeCreated, Item: t}, nil
}

// List returns tickets newest first.
func (s *Store) List(ctx context.Context) ([]Ticket, error) {
	tickets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Ticket, error) {
	tickets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateStatus resolves a pending ticket. Setting the status it already has
// is a no-op.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) (*Ticket, error) {
	if status != StatusApproved && status != StatusDeclined {
		return nil, fmt.Errorf("%w: status must be approved or declined", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		t := &tickets[i]
		if t.ID != id {
			continue
		}
		if t.Status == status {
			out := *t
			return &out, nil
		}
		if t.Status != StatusPending {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, t.Status, status)
		}
		t.Status = status
		t.UpdatedAt = s.now().UTC()
		if err := s.docs.Save(ctx, ticketsDocument, tickets); err != nil {
			return nil, fmt.Errorf("save refund tickets: %w", err)
		}
		out := *t
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *Store) load(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket
	if _, err := s.docs.Load(ctx, ticketsDocument, &tickets); err != nil {
		return nil, fmt.Errorf("load refund tickets: %w", err)
	}
	return tickets, nil
}
