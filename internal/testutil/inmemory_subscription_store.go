package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

var _ subscription.Repository = (*InMemorySubscriptionStore)(nil)

// FailurePoint names a step of a store operation where a failure can be injected
type FailurePoint string

const (
	FailureActiveLookup FailurePoint = "active_lookup"
	FailureDeactivate   FailurePoint = "deactivate"
	// FailureBeforeSwitchInsert fires after a switch deactivated the old row
	// and before the new row is inserted
	FailureBeforeSwitchInsert FailurePoint = "before_switch_insert"
	FailurePaymentInsert      FailurePoint = "payment_insert"
)

// InMemorySubscriptionStore implements subscription.Repository. All writes are
// serialized by one lock, which is what makes the single active subscription
// check and the multi row writes atomic. A failed write restores the snapshot
// taken before it started.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
	payments *InMemoryPaymentStore
	seq      *sequence

	writeMu sync.Mutex

	failMu   sync.Mutex
	failures map[FailurePoint]error
}

func NewInMemorySubscriptionStore(payments *InMemoryPaymentStore) *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
		payments:      payments,
		seq:           newSequence(),
		failures:      make(map[FailurePoint]error),
	}
}

// InjectFailure makes the next operation reaching point fail with err
func (s *InMemorySubscriptionStore) InjectFailure(point FailurePoint, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[point] = err
}

func (s *InMemorySubscriptionStore) fail(point FailurePoint) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()

	err, ok := s.failures[point]
	if !ok {
		return nil
	}
	delete(s.failures, point)
	return ierr.WithError(err).
		WithHint("Database operation failed").
		Mark(ierr.ErrDatabase)
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Subscription %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) GetActiveByUser(ctx context.Context, userID string) (*subscription.Subscription, error) {
	if err := s.fail(FailureActiveLookup); err != nil {
		return nil, err
	}

	active, err := s.activeByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, subscription.NewNoActiveSubscriptionError(userID)
	}
	return copySubscription(active), nil
}

func (s *InMemorySubscriptionStore) ListByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	subs, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.UserID == userID
	}, s.newestFirst)
	if err != nil {
		return nil, err
	}

	out := make([]*subscription.Subscription, 0, len(subs))
	for _, sub := range subs {
		out = append(out, copySubscription(sub))
	}
	return out, nil
}

func (s *InMemorySubscriptionStore) CreateWithPayment(ctx context.Context, sub *subscription.Subscription, pay *payment.Payment) error {
	if sub == nil || pay == nil {
		return fmt.Errorf("subscription and payment are required")
	}
	if err := pay.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	restore := s.snapshot()

	if err := s.insert(ctx, sub); err != nil {
		restore()
		return err
	}
	if err := s.fail(FailurePaymentInsert); err != nil {
		restore()
		return err
	}
	if err := s.payments.insert(ctx, pay); err != nil {
		restore()
		return err
	}
	return nil
}

func (s *InMemorySubscriptionStore) Deactivate(ctx context.Context, id string, endDate time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.fail(FailureDeactivate); err != nil {
		return err
	}

	ok, err := s.deactivate(ctx, id, endDate)
	if err != nil {
		return err
	}
	if !ok {
		return ierr.NewErrorf("subscription %s is not active", id).
			WithHint("No active subscription found").
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemorySubscriptionStore) SwitchAtomic(
	ctx context.Context,
	deactivateID string,
	endDate time.Time,
	sub *subscription.Subscription,
	pay *payment.Payment,
) error {
	if sub == nil || pay == nil {
		return fmt.Errorf("subscription and payment are required")
	}
	if err := pay.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	restore := s.snapshot()

	ok, err := s.deactivate(ctx, deactivateID, endDate)
	if err != nil {
		restore()
		return err
	}
	if !ok {
		restore()
		return ierr.NewErrorf("subscription %s changed concurrently", deactivateID).
			WithHint("Subscription was modified by another request, please retry").
			WithReportableDetails(map[string]any{"subscription_id": deactivateID}).
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.fail(FailureBeforeSwitchInsert); err != nil {
		restore()
		return err
	}
	if err := s.insert(ctx, sub); err != nil {
		restore()
		return err
	}
	if err := s.fail(FailurePaymentInsert); err != nil {
		restore()
		return err
	}
	if err := s.payments.insert(ctx, pay); err != nil {
		restore()
		return err
	}
	return nil
}

// ReferencesPlan reports whether any subscription row, active or not, is on planID
func (s *InMemorySubscriptionStore) ReferencesPlan(planID string) bool {
	count, _ := s.InMemoryStore.Count(context.Background(), nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.PlanID == planID
	})
	return count > 0
}

// ActiveCount returns how many active subscriptions the user has, which must never exceed one
func (s *InMemorySubscriptionStore) ActiveCount(userID string) int {
	count, _ := s.InMemoryStore.Count(context.Background(), nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.UserID == userID && sub.Active
	})
	return count
}

func (s *InMemorySubscriptionStore) Clear() {
	s.InMemoryStore.Clear()
	s.seq.reset()

	s.failMu.Lock()
	s.failures = make(map[FailurePoint]error)
	s.failMu.Unlock()
}

// insert enforces the single active subscription rule, writeMu must be held
func (s *InMemorySubscriptionStore) insert(ctx context.Context, sub *subscription.Subscription) error {
	if sub.Active {
		active, err := s.activeByUser(ctx, sub.UserID)
		if err != nil {
			return err
		}
		if active != nil {
			return subscription.NewActiveSubscriptionExistsError(sub.UserID)
		}
	}

	if err := s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub)); err != nil {
		return err
	}
	s.seq.record(sub.ID)
	return nil
}

// deactivate ends id if it is active and reports whether it did, writeMu must be held
func (s *InMemorySubscriptionStore) deactivate(ctx context.Context, id string, endDate time.Time) (bool, error) {
	current, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !current.Active {
		return false, nil
	}

	updated := copySubscription(current)
	updated.Deactivate(endDate)
	return true, s.InMemoryStore.Update(ctx, id, updated)
}

func (s *InMemorySubscriptionStore) activeByUser(ctx context.Context, userID string) (*subscription.Subscription, error) {
	active, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.UserID == userID && sub.Active
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}
	return active[0], nil
}

// snapshot captures subscriptions and payments and returns the function restoring them
func (s *InMemorySubscriptionStore) snapshot() func() {
	subs := s.InMemoryStore.Snapshot()
	payments := s.payments.Snapshot()
	return func() {
		s.InMemoryStore.Restore(subs)
		s.payments.Restore(payments)
	}
}

func (s *InMemorySubscriptionStore) newestFirst(i, j *subscription.Subscription) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return s.seq.of(i.ID) > s.seq.of(j.ID)
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	c := *sub
	if sub.EndDate != nil {
		end := *sub.EndDate
		c.EndDate = &end
	}
	if sub.NextBillingDate != nil {
		next := *sub.NextBillingDate
		c.NextBillingDate = &next
	}
	return &c
}
