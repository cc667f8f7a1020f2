package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/plan"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type planRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) plan.Repository {
	return &planRepository{client: client, logger: logger}
}

// planRow is the scan target for plans, features live in a TEXT[] column
type planRow struct {
	ID           string             `db:"id"`
	Name         string             `db:"name"`
	Description  *string            `db:"description"`
	Price        decimal.Decimal    `db:"price"`
	BillingCycle types.BillingCycle `db:"billing_cycle"`
	Active       bool               `db:"active"`
	Features     pq.StringArray     `db:"features"`
	CreatedAt    time.Time          `db:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at"`
}

func (r planRow) toDomain() *plan.Plan {
	return &plan.Plan{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		BillingCycle: r.BillingCycle,
		Active:       r.Active,
		Features:     lo.Ternary(r.Features == nil, []string{}, []string(r.Features)),
		BaseModel: types.BaseModel{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
	}
}

const planColumns = `id, name, description, price, billing_cycle, active, features, created_at, updated_at`

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `
		INSERT INTO plans (
			id,
			name,
			description,
			price,
			billing_cycle,
			active,
			features,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	r.logger.Debugw("creating plan", "plan_id", p.ID, "name", p.Name)

	_, err := r.client.Querier(ctx).ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.BillingCycle,
		p.Active,
		pq.StringArray(p.Features),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	var row planRow
	if err := r.client.Querier(ctx).GetContext(ctx, &row, query, id); err != nil {
		if postgres.IsNotFoundError(err) {
			return nil, ierr.WithError(err).
				WithHintf("Plan %s was not found", id).
				WithReportableDetails(map[string]any{"plan_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}
	return row.toDomain(), nil
}

func (r *planRepository) ListByIDs(ctx context.Context, ids []string) ([]*plan.Plan, error) {
	if len(ids) == 0 {
		return []*plan.Plan{}, nil
	}

	query := `SELECT ` + planColumns + ` FROM plans WHERE id = ANY($1)`

	var rows []planRow
	if err := r.client.Querier(ctx).SelectContext(ctx, &rows, query, pq.StringArray(lo.Uniq(ids))); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return lo.Map(rows, func(row planRow, _ int) *plan.Plan { return row.toDomain() }), nil
}

// likeEscaper makes LIKE wildcards in user input match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// planFilterClause renders the WHERE clause shared by List and Count
func planFilterClause(filter *types.PlanFilter) (string, []interface{}) {
	conditions := []string{"1 = 1"}
	args := []interface{}{}

	if filter == nil {
		return strings.Join(conditions, " AND "), args
	}
	if filter.Name != nil && *filter.Name != "" {
		args = append(args, "%"+likeEscaper.Replace(*filter.Name)+"%")
		conditions = append(conditions, fmt.Sprintf(`name ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.BillingCycle != nil {
		args = append(args, *filter.BillingCycle)
		conditions = append(conditions, fmt.Sprintf("billing_cycle = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	return strings.Join(conditions, " AND "), args
}

func (r *planRepository) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, error) {
	if filter == nil {
		filter = types.NewPlanFilter()
	}

	where, args := planFilterClause(filter)
	args = append(args, filter.GetLimit(), filter.GetOffset())
	query := fmt.Sprintf(
		`SELECT %s FROM plans WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		planColumns, where, len(args)-1, len(args),
	)

	var rows []planRow
	if err := r.client.Querier(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return lo.Map(rows, func(row planRow, _ int) *plan.Plan { return row.toDomain() }), nil
}

func (r *planRepository) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	where, args := planFilterClause(filter)
	query := `SELECT COUNT(*) FROM plans WHERE ` + where

	var count int
	if err := r.client.Querier(ctx).GetContext(ctx, &count, query, args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count plans").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *planRepository) Update(ctx context.Context, p *plan.Plan) error {
	query := `
		UPDATE plans
		SET name = $2,
			description = $3,
			price = $4,
			billing_cycle = $5,
			active = $6,
			features = $7,
			updated_at = $8
		WHERE id = $1
	`

	r.logger.Debugw("updating plan", "plan_id", p.ID)

	res, err := r.client.Querier(ctx).ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.BillingCycle,
		p.Active,
		pq.StringArray(p.Features),
		p.UpdatedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update plan").
			Mark(ierr.ErrDatabase)
	}
	return requireAffected(res, ierr.NewErrorf("plan %s not found", p.ID).
		WithHintf("Plan %s was not found", p.ID).
		Mark(ierr.ErrNotFound))
}

func (r *planRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debugw("deleting plan", "plan_id", id)

	res, err := r.client.Querier(ctx).ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ierr.WithError(err).
				WithHint("Plan has subscriptions and cannot be deleted, deactivate it instead").
				WithReportableDetails(map[string]any{"plan_id": id}).
				Mark(ierr.ErrInvalidOperation)
		}
		return ierr.WithError(err).
			WithHint("Failed to delete plan").
			Mark(ierr.ErrDatabase)
	}
	return requireAffected(res, ierr.NewErrorf("plan %s not found", id).
		WithHintf("Plan %s was not found", id).
		Mark(ierr.ErrNotFound))
}
