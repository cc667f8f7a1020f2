package postgres

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
)

const (
	subscriptionColumns = `id, user_id, plan_id, active, start_date, end_date, next_billing_date, created_at, updated_at`

	// partial unique index over active rows, see migrations
	activeSubscriptionIndex = "idx_subscriptions_user_active"
)

type subscriptionRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{client: client, logger: logger}
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	var sub subscription.Subscription
	if err := r.client.Querier(ctx).GetContext(ctx, &sub, query, id); err != nil {
		if postgres.IsNotFoundError(err) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetActiveByUser(ctx context.Context, userID string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 AND active`

	var sub subscription.Subscription
	if err := r.client.Querier(ctx).GetContext(ctx, &sub, query, userID); err != nil {
		if postgres.IsNotFoundError(err) {
			return nil, subscription.NewNoActiveSubscriptionError(userID)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	subs := []*subscription.Subscription{}
	if err := r.client.Querier(ctx).SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) CreateWithPayment(ctx context.Context, sub *subscription.Subscription, pay *payment.Payment) error {
	r.logger.Debugw("creating subscription",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"plan_id", sub.PlanID,
	)

	if err := pay.Validate(); err != nil {
		return err
	}

	return r.client.WithTx(ctx, func(ctx context.Context) error {
		if err := r.insert(ctx, sub); err != nil {
			return err
		}
		return r.insertPayment(ctx, pay)
	})
}

func (r *subscriptionRepository) Deactivate(ctx context.Context, id string, endDate time.Time) error {
	n, err := r.deactivate(ctx, id, endDate)
	if err != nil {
		return err
	}
	if n == 0 {
		return ierr.NewErrorf("subscription %s is not active", id).
			WithHint("No active subscription found").
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) SwitchAtomic(
	ctx context.Context,
	deactivateID string,
	endDate time.Time,
	sub *subscription.Subscription,
	pay *payment.Payment,
) error {
	r.logger.Debugw("switching subscription",
		"from_subscription_id", deactivateID,
		"to_subscription_id", sub.ID,
		"user_id", sub.UserID,
	)

	if err := pay.Validate(); err != nil {
		return err
	}

	return r.client.WithTx(ctx, func(ctx context.Context) error {
		n, err := r.deactivate(ctx, deactivateID, endDate)
		if err != nil {
			return err
		}
		// someone else ended it between our read and this write
		if n == 0 {
			return ierr.NewErrorf("subscription %s changed concurrently", deactivateID).
				WithHint("Subscription was modified by another request, please retry").
				WithReportableDetails(map[string]any{"subscription_id": deactivateID}).
				Mark(ierr.ErrAlreadyExists)
		}
		if err := r.insert(ctx, sub); err != nil {
			return err
		}
		return r.insertPayment(ctx, pay)
	})
}

func (r *subscriptionRepository) deactivate(ctx context.Context, id string, endDate time.Time) (int64, error) {
	query := `
		UPDATE subscriptions
		SET active = FALSE,
			end_date = $2,
			updated_at = $2
		WHERE id = $1 AND active
	`
	res, err := r.client.Querier(ctx).ExecContext(ctx, query, id, endDate)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to deactivate subscription").
			Mark(ierr.ErrDatabase)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to deactivate subscription").
			Mark(ierr.ErrDatabase)
	}
	return n, nil
}

func (r *subscriptionRepository) insert(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id,
			user_id,
			plan_id,
			active,
			start_date,
			end_date,
			next_billing_date,
			created_at,
			updated_at
		) VALUES (
			:id,
			:user_id,
			:plan_id,
			:active,
			:start_date,
			:end_date,
			:next_billing_date,
			:created_at,
			:updated_at
		)
	`
	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, sub); err != nil {
		if postgres.IsUniqueViolation(err, activeSubscriptionIndex) {
			return subscription.NewActiveSubscriptionExistsError(sub.UserID)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) insertPayment(ctx context.Context, pay *payment.Payment) error {
	if err := insertPayment(ctx, r.client.Querier(ctx), pay); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
