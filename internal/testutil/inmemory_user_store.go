package testutil

import (
	"context"
	"fmt"

	"github.com/flexprice/subscription-billing/internal/domain/user"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

var _ user.Repository = (*InMemoryUserStore)(nil)

// InMemoryUserStore implements user.Repository
type InMemoryUserStore struct {
	*InMemoryStore[*user.User]
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore[*user.User](),
	}
}

func (s *InMemoryUserStore) Create(ctx context.Context, u *user.User) error {
	if u == nil {
		return fmt.Errorf("user cannot be nil")
	}

	// the email check and insert must not interleave with another Create
	s.mu.Lock()
	defer s.mu.Unlock()

	email := user.NormalizeEmail(u.Email)
	for _, existing := range s.items {
		if existing.Email == email {
			return ierr.NewError("user already exists").
				WithHint("An account with this email already exists").
				WithReportableDetails(map[string]any{"email": email}).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	c := *u
	c.Email = email
	s.items[u.ID] = &c
	return nil
}

func (s *InMemoryUserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("User not found").
			Mark(ierr.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (s *InMemoryUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)

	users, err := s.InMemoryStore.List(ctx, email, func(_ context.Context, u *user.User, _ interface{}) bool {
		return u.Email == email
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ierr.NewError("user not found").
			WithHint("User not found").
			Mark(ierr.ErrNotFound)
	}

	c := *users[0]
	return &c, nil
}
