package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
)

const paymentColumns = `id, reference, user_id, subscription_id, amount, status, created_at`

type paymentRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) payment.Repository {
	return &paymentRepository{client: client, logger: logger}
}

// insertPayment writes p with q, used inside the subscription transactions
func insertPayment(ctx context.Context, q postgres.Querier, p *payment.Payment) error {
	query := `
		INSERT INTO payments (
			id,
			reference,
			user_id,
			subscription_id,
			amount,
			status,
			created_at
		) VALUES (
			:id,
			:reference,
			:user_id,
			:subscription_id,
			:amount,
			:status,
			:created_at
		)
	`
	_, err := q.NamedExecContext(ctx, query, p)
	return err
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var p payment.Payment
	if err := r.client.Querier(ctx).GetContext(ctx, &p, query, id); err != nil {
		if postgres.IsNotFoundError(err) {
			return nil, ierr.WithError(err).
				WithHintf("Payment %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID string) ([]*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	payments := []*payment.Payment{}
	if err := r.client.Querier(ctx).SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}

func (r *paymentRepository) GetLatestBySubscription(ctx context.Context, subscriptionID string) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE subscription_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	var p payment.Payment
	if err := r.client.Querier(ctx).GetContext(ctx, &p, query, subscriptionID); err != nil {
		if postgres.IsNotFoundError(err) {
			return nil, ierr.WithError(err).
				WithHint("Subscription has no payment").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}
