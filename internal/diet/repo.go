package diet

import (
	"context"
	"errors"
	"fmt"

	"github.com/flexpro/backend/internal/catalog"
	"github.com/flexpro/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPlanNotFound    = errors.New("diet plan not found")
	ErrItemNotFound    = errors.New("diet item not found")
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

const planColumns = `id, athlete_id, name, description, target_calories, target_protein,
	target_carbs, target_fat, general_notes, is_active, created_at, updated_at`

const itemColumns = `id, diet_plan_id, food_id, item_order, meal, custom_name, amount, unit,
	calculated_calories, calculated_protein, calculated_carbs, calculated_fat, notes`

func (r *Repo) ListByAthlete(ctx context.Context, athleteID, coachID int, activeOnly bool) (_ []Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.listByAthlete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.athleteOwned(ctx, r.db, athleteID, coachID); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM diet_plans WHERE athlete_id = $1`
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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.getActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.athleteOwned(ctx, r.db, athleteID, coachID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT `+planColumns+` FROM diet_plans WHERE athlete_id = $1 AND is_active;`,
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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.get")
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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.create")
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

	if err := r.athleteOwned(ctx, tx, plan.AthleteID, coachID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		ctx,
		`UPDATE diet_plans SET is_active = FALSE, updated_at = NOW() WHERE athlete_id = $1 AND is_active;`,
		plan.AthleteID,
	); err != nil {
		return nil, err
	}

	err = tx.QueryRow(
		ctx,
		`INSERT INTO diet_plans
				(athlete_id, name, description, target_calories, target_protein,
				target_carbs, target_fat, general_notes, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
			RETURNING id, created_at, updated_at;`,
		plan.AthleteID, plan.Name, plan.Description, plan.TargetCalories,
		plan.TargetProtein, plan.TargetCarbs, plan.TargetFat, plan.GeneralNotes,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	plan.IsActive = true

	for i := range plan.Items {
		item := &plan.Items[i]
		item.PlanID = plan.ID
		item.Order = i + 1
		if err := r.insertItem(ctx, tx, item); err != nil {
			return nil, err
		}
	}

	return &plan, nil
}

type PlanUpdate struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	TargetCalories *int    `json:"target_calories,omitempty"`
	TargetProtein  *int    `json:"target_protein,omitempty"`
	TargetCarbs    *int    `json:"target_carbs,omitempty"`
	TargetFat      *int    `json:"target_fat,omitempty"`
	GeneralNotes   *string `json:"general_notes,omitempty"`
}

func (r *Repo) Update(ctx context.Context, planID, coachID int, update PlanUpdate) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE diet_plans dp SET
				name = COALESCE($3, dp.name),
				description = COALESCE($4, dp.description),
				target_calories = COALESCE($5, dp.target_calories),
				target_protein = COALESCE($6, dp.target_protein),
				target_carbs = COALESCE($7, dp.target_carbs),
				target_fat = COALESCE($8, dp.target_fat),
				general_notes = COALESCE($9, dp.general_notes),
				updated_at = NOW()
			FROM athletes a
			WHERE dp.id = $1 AND dp.athlete_id = a.id AND a.coach_id = $2;`,
		planID, coachID, update.Name, update.Description, update.TargetCalories,
		update.TargetProtein, update.TargetCarbs, update.TargetFat, update.GeneralNotes,
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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM diet_plans dp USING athletes a
			WHERE dp.id = $1 AND dp.athlete_id = a.id AND a.coach_id = $2;`,
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

// Activate makes the plan the athlete's single active one, deactivating
// the others in the same transaction.
func (r *Repo) Activate(ctx context.Context, planID, coachID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.activate")
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

	if _, err := tx.Exec(
		ctx,
		`UPDATE diet_plans SET is_active = FALSE, updated_at = NOW()
			WHERE athlete_id = $1 AND is_active AND id != $2;`,
		plan.AthleteID, plan.ID,
	); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		`UPDATE diet_plans SET is_active = TRUE, updated_at = NOW() WHERE id = $1;`,
		plan.ID,
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

func (r *Repo) AddItem(ctx context.Context, planID, coachID int, item Item) (_ *Item, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.addItem")
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

	if _, err := r.getPlan(ctx, tx, planID, coachID); err != nil {
		return nil, err
	}

	item.PlanID = planID
	if err := tx.QueryRow(
		ctx,
		`SELECT COALESCE(MAX(item_order), 0) + 1 FROM diet_items WHERE diet_plan_id = $1;`,
		planID,
	).Scan(&item.Order); err != nil {
		return nil, err
	}

	if err := r.insertItem(ctx, tx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

type ItemUpdate struct {
	Meal       *MealType `json:"meal,omitempty"`
	FoodID     *int      `json:"food_id,omitempty"`
	CustomName *string   `json:"custom_name,omitempty"`
	Amount     *float64  `json:"amount,omitempty"`
	Unit       *string   `json:"unit,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
}

// UpdateItem applies the set fields and recomputes the cached macros
// whenever the food or the amount changed.
func (r *Repo) UpdateItem(ctx context.Context, itemID, coachID int, update ItemUpdate) (_ *Item, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.updateItem")
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

	item, err := r.getItem(ctx, tx, itemID, coachID)
	if err != nil {
		return nil, err
	}

	if update.Meal != nil {
		item.Meal = *update.Meal
	}
	if update.FoodID != nil {
		item.FoodID = update.FoodID
	}
	if update.CustomName != nil {
		item.CustomName = update.CustomName
	}
	if update.Amount != nil {
		item.Amount = *update.Amount
	}
	if update.Unit != nil {
		item.Unit = update.Unit
	}
	if update.Notes != nil {
		item.Notes = update.Notes
	}

	if update.FoodID != nil || update.Amount != nil {
		if err := r.cacheItemMacros(ctx, tx, item); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(
		ctx,
		`UPDATE diet_items SET
				food_id = $2, meal = $3, custom_name = $4, amount = $5, unit = $6,
				calculated_calories = $7, calculated_protein = $8,
				calculated_carbs = $9, calculated_fat = $10, notes = $11
			WHERE id = $1;`,
		item.ID, item.FoodID, item.Meal, item.CustomName, item.Amount, item.Unit,
		item.CalculatedCalories, item.CalculatedProtein, item.CalculatedCarbs,
		item.CalculatedFat, item.Notes,
	); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repo) DeleteItem(ctx context.Context, itemID, coachID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.deleteItem")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM diet_items di USING diet_plans dp, athletes a
			WHERE di.id = $1 AND di.diet_plan_id = dp.id
				AND dp.athlete_id = a.id AND a.coach_id = $2;`,
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

// ReorderItems sets each item's order to its index in itemIDs. Ids that
// do not belong to the plan are ignored.
func (r *Repo) ReorderItems(ctx context.Context, planID, coachID int, itemIDs []int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.reorderItems")
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

	if _, err := r.getPlan(ctx, tx, planID, coachID); err != nil {
		return err
	}

	for order, itemID := range itemIDs {
		if _, err := tx.Exec(
			ctx,
			`UPDATE diet_items SET item_order = $1 WHERE id = $2 AND diet_plan_id = $3;`,
			order, itemID, planID,
		); err != nil {
			return err
		}
	}
	return nil
}

// ItemPortions joins the plan's catalog-backed items with their foods,
// for balance analysis over fresh macro data.
func (r *Repo) ItemPortions(ctx context.Context, planID, coachID int) (_ []Portion, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diet.itemPortions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := r.getPlan(ctx, r.db, planID, coachID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT f.id, f.name, f.unit, f.base_amount, f.calories, f.protein,
				f.carbs, f.fat, f.fiber, di.amount
			FROM diet_items di
			JOIN foods f ON f.id = di.food_id
			WHERE di.diet_plan_id = $1
			ORDER BY di.item_order;`,
		planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var portions []Portion
	for rows.Next() {
		var p Portion
		if err := rows.Scan(
			&p.Food.ID, &p.Food.Name, &p.Food.Unit, &p.Food.BaseAmount,
			&p.Food.Calories, &p.Food.Protein, &p.Food.Carbs, &p.Food.Fat,
			&p.Food.Fiber, &p.Amount,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		portions = append(portions, p)
	}
	return portions, rows.Err()
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
		`SELECT dp.id, dp.athlete_id, dp.name, dp.description, dp.target_calories,
				dp.target_protein, dp.target_carbs, dp.target_fat, dp.general_notes,
				dp.is_active, dp.created_at, dp.updated_at
			FROM diet_plans dp
			JOIN athletes a ON a.id = dp.athlete_id
			WHERE dp.id = $1 AND a.coach_id = $2;`,
		planID, coachID,
	)
	if err != nil {
		return nil, err
	}
	return onePlan(rows)
}

func (r *Repo) getItem(ctx context.Context, q querier, itemID, coachID int) (*Item, error) {
	rows, err := q.Query(
		ctx,
		`SELECT di.id, di.diet_plan_id, di.food_id, di.item_order, di.meal,
				di.custom_name, di.amount, di.unit, di.calculated_calories,
				di.calculated_protein, di.calculated_carbs, di.calculated_fat, di.notes
			FROM diet_items di
			JOIN diet_plans dp ON dp.id = di.diet_plan_id
			JOIN athletes a ON a.id = dp.athlete_id
			WHERE di.id = $1 AND a.coach_id = $2;`,
		itemID, coachID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrItemNotFound
	}
	return scanItem(rows)
}

func (r *Repo) listItems(ctx context.Context, q querier, planID int) ([]Item, error) {
	rows, err := q.Query(
		ctx,
		`SELECT `+itemColumns+` FROM diet_items WHERE diet_plan_id = $1 ORDER BY item_order;`,
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
	if err := r.cacheItemMacros(ctx, q, item); err != nil {
		return err
	}

	return q.QueryRow(
		ctx,
		`INSERT INTO diet_items
				(diet_plan_id, food_id, item_order, meal, custom_name, amount, unit,
				calculated_calories, calculated_protein, calculated_carbs,
				calculated_fat, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id;`,
		item.PlanID, item.FoodID, item.Order, item.Meal, item.CustomName,
		item.Amount, item.Unit, item.CalculatedCalories, item.CalculatedProtein,
		item.CalculatedCarbs, item.CalculatedFat, item.Notes,
	).Scan(&item.ID)
}

// cacheItemMacros refreshes the cached macros from the catalog food.
// Custom items without a food keep whatever macros the coach supplied.
func (r *Repo) cacheItemMacros(ctx context.Context, q querier, item *Item) error {
	if item.FoodID == nil {
		return nil
	}

	var food catalog.Food
	err := q.QueryRow(
		ctx,
		`SELECT id, base_amount, calories, protein, carbs, fat FROM foods WHERE id = $1;`,
		*item.FoodID,
	).Scan(&food.ID, &food.BaseAmount, &food.Calories, &food.Protein, &food.Carbs, &food.Fat)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ErrFoodNotFound
	}
	if err != nil {
		return err
	}

	macros := food.CalculateMacros(item.Amount)
	item.CalculatedCalories = &macros.Calories
	item.CalculatedProtein = &macros.Protein
	item.CalculatedCarbs = &macros.Carbs
	item.CalculatedFat = &macros.Fat
	return nil
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
	var p Plan
	if err := rows.Scan(
		&p.ID, &p.AthleteID, &p.Name, &p.Description, &p.TargetCalories,
		&p.TargetProtein, &p.TargetCarbs, &p.TargetFat, &p.GeneralNotes,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &p, nil
}

func scanItem(rows pgx.Rows) (*Item, error) {
	var i Item
	if err := rows.Scan(
		&i.ID, &i.PlanID, &i.FoodID, &i.Order, &i.Meal, &i.CustomName,
		&i.Amount, &i.Unit, &i.CalculatedCalories, &i.CalculatedProtein,
		&i.CalculatedCarbs, &i.CalculatedFat, &i.Notes,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &i, nil
}
