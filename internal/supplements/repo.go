package supplements

import (
	"context"
	"errors"
	"fmt"

	"github.com/flexpro/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPlanNotFound    = errors.New("supplement plan not found")
	ErrItemNotFound    = errors.New("supplement item not found")
	ErrAthleteNotFound = errors.New("athlete not found")
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const planColumns = `id, athlete_id, name, description, general_notes, is_active, created_at, updated_at`

const itemColumns = `id, supplement_plan_id, supplement_id, item_order, custom_name, dose,
	timing, instructions, notes`

func (r *Repo) ListByAthlete(ctx context.Context, athleteID, coachID int, activeOnly bool) (_ []Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.listByAthlete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.athleteOwned(ctx, r.db, athleteID, coachID); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM supplement_plans WHERE athlete_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC;`

	rows, err := r.db.Query(ctx, query, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

func (r *Repo) GetActive(ctx context.Context, athleteID, coachID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.getActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.athleteOwned(ctx, r.db, athleteID, coachID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT `+planColumns+` FROM supplement_plans WHERE athlete_id = $1 AND is_active;`,
		athleteID,
	)
	if err != nil {
		return nil, err
	}
	plan, err := onePlan(rows)
	if err != nil {
		return nil, err
	}

	plan.Items, err = r.listItems(ctx, r.db, plan.ID)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *Repo) Get(ctx context.Context, planID, coachID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	plan, err := r.getPlan(ctx, r.db, planID, coachID)
	if err != nil {
		return nil, err
	}

	plan.Items, err = r.listItems(ctx, r.db, plan.ID)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Create stores a new plan as the athlete's active one. Any previously
// active plan is deactivated in the same transaction.
func (r *Repo) Create(ctx context.Context, plan Plan, coachID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if err = r.athleteOwned(ctx, tx, plan.AthleteID, coachID); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(
		ctx,
		`UPDATE supplement_plans SET is_active = FALSE, updated_at = NOW() WHERE athlete_id = $1 AND is_active;`,
		plan.AthleteID,
	); err != nil {
		return nil, err
	}

	if err = tx.QueryRow(
		ctx,
		`INSERT INTO supplement_plans (athlete_id, name, description, general_notes, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			RETURNING id, created_at, updated_at;`,
		plan.AthleteID, plan.Name, plan.Description, plan.GeneralNotes,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
		return nil, err
	}
	plan.IsActive = true

	for i := range plan.Items {
		item := &plan.Items[i]
		item.PlanID = plan.ID
		item.Order = i + 1
		if err = r.insertItem(ctx, tx, item); err != nil {
			return nil, err
		}
	}

	return &plan, nil
}

type PlanUpdate struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	GeneralNotes *string `json:"general_notes,omitempty"`
}

func (r *Repo) Update(ctx context.Context, planID, coachID int, update PlanUpdate) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE supplement_plans sp SET
			name = COALESCE($3, sp.name),
			description = COALESCE($4, sp.description),
			general_notes = COALESCE($5, sp.general_notes),
			updated_at = NOW()
		FROM athletes a
		WHERE sp.id = $1 AND sp.athlete_id = a.id AND a.coach_id = $2;`,
		planID, coachID, update.Name, update.Description, update.GeneralNotes,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrPlanNotFound
	}

	return r.Get(ctx, planID, coachID)
}

func (r *Repo) Delete(ctx context.Context, planID, coachID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM supplement_plans sp USING athletes a
			WHERE sp.id = $1 AND sp.athlete_id = a.id AND a.coach_id = $2;`,
		planID, coachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// Activate marks the plan active and deactivates the athlete's other
// plans in the same transaction.
func (r *Repo) Activate(ctx context.Context, planID, coachID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.activate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	plan, err := r.getPlan(ctx, tx, planID, coachID)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(
		ctx,
		`UPDATE supplement_plans SET is_active = FALSE, updated_at = NOW()
			WHERE athlete_id = $1 AND id != $2 AND is_active;`,
		plan.AthleteID, planID,
	); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(
		ctx,
		`UPDATE supplement_plans SET is_active = TRUE, updated_at = NOW() WHERE id = $1;`,
		planID,
	); err != nil {
		return nil, err
	}
	plan.IsActive = true

	plan.Items, err = r.listItems(ctx, tx, plan.ID)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// AddItem appends an item at the end of the plan's list.
func (r *Repo) AddItem(ctx context.Context, planID, coachID int, item Item) (_ *Item, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.addItem")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = r.getPlan(ctx, tx, planID, coachID); err != nil {
		return nil, err
	}

	if err = tx.QueryRow(
		ctx,
		`SELECT COALESCE(MAX(item_order), 0) + 1 FROM supplement_plan_items WHERE supplement_plan_id = $1;`,
		planID,
	).Scan(&item.Order); err != nil {
		return nil, err
	}

	item.PlanID = planID
	if err = r.insertItem(ctx, tx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

type ItemUpdate struct {
	SupplementID *int    `json:"supplement_id,omitempty"`
	CustomName   *string `json:"custom_name,omitempty"`
	Dose         *string `json:"dose,omitempty"`
	Timing       *string `json:"timing,omitempty"`
	Instructions *string `json:"instructions,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

func (r *Repo) UpdateItem(ctx context.Context, itemID, coachID int, update ItemUpdate) (_ *Item, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.updateItem")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE supplement_plan_items spi SET
			supplement_id = COALESCE($3, spi.supplement_id),
			custom_name = COALESCE($4, spi.custom_name),
			dose = COALESCE($5, spi.dose),
			timing = COALESCE($6, spi.timing),
			instructions = COALESCE($7, spi.instructions),
			notes = COALESCE($8, spi.notes)
		FROM supplement_plans sp, athletes a
		WHERE spi.id = $1 AND spi.supplement_plan_id = sp.id
			AND sp.athlete_id = a.id AND a.coach_id = $2;`,
		itemID, coachID,
		update.SupplementID, update.CustomName, update.Dose,
		update.Timing, update.Instructions, update.Notes,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrItemNotFound
	}

	return r.getItem(ctx, r.db, itemID, coachID)
}

func (r *Repo) DeleteItem(ctx context.Context, itemID, coachID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.deleteItem")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM supplement_plan_items spi USING supplement_plans sp, athletes a
			WHERE spi.id = $1 AND spi.supplement_plan_id = sp.id
			AND sp.athlete_id = a.id AND a.coach_id = $2;`,
		itemID, coachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ReorderItems rewrites each item's position to its index in itemIDs.
// IDs that do not belong to the plan are ignored.
func (r *Repo) ReorderItems(ctx context.Context, planID, coachID int, itemIDs []int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.reorderItems")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = r.getPlan(ctx, tx, planID, coachID); err != nil {
		return err
	}

	for order, itemID := range itemIDs {
		if _, err = tx.Exec(
			ctx,
			`UPDATE supplement_plan_items SET item_order = $1 WHERE id = $2 AND supplement_plan_id = $3;`,
			order, itemID, planID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) athleteOwned(ctx context.Context, q querier, athleteID, coachID int) error {
	var one int
	err := q.QueryRow(
		ctx,
		`SELECT 1 FROM athletes WHERE id = $1 AND coach_id = $2;`,
		athleteID, coachID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAthleteNotFound
	}
	return err
}

func (r *Repo) getPlan(ctx context.Context, q querier, planID, coachID int) (*Plan, error) {
	rows, err := q.Query(
		ctx,
		`SELECT `+qualifiedPlanColumns+` FROM supplement_plans sp
			JOIN athletes a ON sp.athlete_id = a.id
			WHERE sp.id = $1 AND a.coach_id = $2;`,
		planID, coachID,
	)
	if err != nil {
		return nil, err
	}
	return onePlan(rows)
}

const qualifiedPlanColumns = `sp.id, sp.athlete_id, sp.name, sp.description, sp.general_notes,
	sp.is_active, sp.created_at, sp.updated_at`

func (r *Repo) getItem(ctx context.Context, q querier, itemID, coachID int) (*Item, error) {
	var item Item
	err := q.QueryRow(
		ctx,
		`SELECT spi.id, spi.supplement_plan_id, spi.supplement_id, spi.item_order, spi.custom_name,
			spi.dose, spi.timing, spi.instructions, spi.notes
			FROM supplement_plan_items spi
			JOIN supplement_plans sp ON spi.supplement_plan_id = sp.id
			JOIN athletes a ON sp.athlete_id = a.id
			WHERE spi.id = $1 AND a.coach_id = $2;`,
		itemID, coachID,
	).Scan(
		&item.ID, &item.PlanID, &item.SupplementID, &item.Order, &item.CustomName,
		&item.Dose, &item.Timing, &item.Instructions, &item.Notes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repo) listItems(ctx context.Context, q querier, planID int) ([]Item, error) {
	rows, err := q.Query(
		ctx,
		`SELECT `+itemColumns+` FROM supplement_plan_items WHERE supplement_plan_id = $1 ORDER BY item_order;`,
		planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *Repo) insertItem(ctx context.Context, q querier, item *Item) error {
	return q.QueryRow(
		ctx,
		`INSERT INTO supplement_plan_items
			(supplement_plan_id, supplement_id, item_order, custom_name, dose, timing, instructions, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;`,
		item.PlanID, item.SupplementID, item.Order, item.CustomName,
		item.Dose, item.Timing, item.Instructions, item.Notes,
	).Scan(&item.ID)
}

func onePlan(rows pgx.Rows) (*Plan, error) {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrPlanNotFound
	}
	return scanPlan(rows)
}

func scanPlan(rows pgx.Rows) (*Plan, error) {
	var plan Plan
	if err := rows.Scan(
		&plan.ID, &plan.AthleteID, &plan.Name, &plan.Description, &plan.GeneralNotes,
		&plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &plan, nil
}

func scanItem(rows pgx.Rows) (*Item, error) {
	var item Item
	if err := rows.Scan(
		&item.ID, &item.PlanID, &item.SupplementID, &item.Order, &item.CustomName,
		&item.Dose, &item.Timing, &item.Instructions, &item.Notes,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &item, nil
}
