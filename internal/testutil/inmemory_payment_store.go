package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

var _ payment.Repository = (*InMemoryPaymentStore)(nil)

// InMemoryPaymentStore implements payment.Repository. Payments are written by
// InMemorySubscriptionStore only, mirroring the postgres implementation.
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
	seq *sequence
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
		seq:           newSequence(),
	}
}

func (s *InMemoryPaymentStore) insert(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return fmt.Errorf("payment cannot be nil")
	}
	c := *p
	if err := s.InMemoryStore.Create(ctx, p.ID, &c); err != nil {
		return err
	}
	s.seq.record(p.ID)
	return nil
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Payment %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (s *InMemoryPaymentStore) ListByUser(ctx context.Context, userID string) ([]*payment.Payment, error) {
	payments, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, p *payment.Payment, _ interface{}) bool {
		return p.UserID == userID
	}, s.newestFirst)
	if err != nil {
		return nil, err
	}
	return copyPayments(payments), nil
}

func (s *InMemoryPaymentStore) GetLatestBySubscription(ctx context.Context, subscriptionID string) (*payment.Payment, error) {
	payments, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, p *payment.Payment, _ interface{}) bool {
		return p.SubscriptionID == subscriptionID
	}, s.newestFirst)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, ierr.NewError("payment not found").
			WithHint("Subscription has no payment").
			WithReportableDetails(map[string]any{"subscription_id": subscriptionID}).
			Mark(ierr.ErrNotFound)
	}
	c := *payments[0]
	return &c, nil
}

func (s *InMemoryPaymentStore) newestFirst(i, j *payment.Payment) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return s.seq.of(i.ID) > s.seq.of(j.ID)
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryPaymentStore) Clear() {
	s.InMemoryStore.Clear()
	s.seq.reset()
}

func copyPayments(payments []*payment.Payment) []*payment.Payment {
	out := make([]*payment.Payment, 0, len(payments))
	for _, p := range payments {
		c := *p
		out = append(out, &c)
	}
	return out
}

// sequence remembers insertion order so rows created at the same instant sort stably
type sequence struct {
	mu    sync.Mutex
	next  uint64
	order map[string]uint64
}

func newSequence() *sequence {
	return &sequence{order: make(map[string]uint64)}
}

func (q *sequence) record(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.order[id] = q.next
}

func (q *sequence) of(id string) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order[id]
}

func (q *sequence) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next = 0
	q.order = make(map[string]uint64)
}
