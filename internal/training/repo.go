package training

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
	ErrPlanNotFound    = errors.New("training plan not found")
	ErrDayNotFound     = errors.New("training day not found")
	ErrItemNotFound    = errors.New("workout item not found")
	ErrAthleteNotFound = errors.New("athlete not found")
)

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

const itemColumns = `id, training_day_id, exercise_id, item_order, set_type, custom_name,
	sets, reps, duration_minutes, intensity, rest_seconds, tempo, notes,
	superset_group_id, secondary_exercise_name, tertiary_exercise_name`

func (r *Repo) ListByAthlete(ctx context.Context, athleteID, coachID int, activeOnly bool) (_ []Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.listByAthlete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.athleteOwned(ctx, r.db, athleteID, coachID); err != nil {
		return nil, err
	}

	query := `SELECT id, athlete_id, name, description, duration_weeks, split_type,
			is_active, created_at, updated_at
		FROM training_plans WHERE athlete_id = $1`
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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.getActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.athleteOwned(ctx, r.db, athleteID, coachID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, athlete_id, name, description, duration_weeks, split_type,
				is_active, created_at, updated_at
			FROM training_plans WHERE athlete_id = $1 AND is_active;`,
		athleteID,
	)
	if err != nil {
		return nil, err
	}
	plan, err := onePlan(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadDays(ctx, r.db, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *Repo) Get(ctx context.Context, planID, coachID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	plan, err := r.getPlan(ctx, r.db, planID, coachID)
	if err != nil {
		return nil, err
	}

	if err := r.loadDays(ctx, r.db, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Create stores a new plan with its days and items as the athlete's
// active one. Any previously active plan is deactivated in the same
// transaction.
func (r *Repo) Create(ctx context.Context, plan Plan, coachID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.create")
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
		`UPDATE training_plans SET is_active = FALSE, updated_at = NOW() WHERE athlete_id = $1 AND is_active;`,
		plan.AthleteID,
	); err != nil {
		return nil, err
	}

	err = tx.QueryRow(
		ctx,
		`INSERT INTO training_plans
				(athlete_id, name, description, duration_weeks, split_type, is_active)
				VALUES ($1, $2, $3, $4, $5, TRUE)
			RETURNING id, created_at, updated_at;`,
		plan.AthleteID, plan.Name, plan.Description, plan.DurationWeeks, plan.SplitType,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	plan.IsActive = true

	for d := range plan.Days {
		day := &plan.Days[d]
		day.PlanID = plan.ID
		if err := r.insertDay(ctx, tx, day); err != nil {
			return nil, err
		}
		for i := range day.Items {
			item := &day.Items[i]
			item.DayID = day.ID
			item.Order = i + 1
			if item.SetType == "" {
				item.SetType = SetNormal
			}
			if err := r.insertItem(ctx, tx, item); err != nil {
				return nil, err
			}
		}
	}

	return &plan, nil
}

type PlanUpdate struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	DurationWeeks *int    `json:"duration_weeks,omitempty"`
	SplitType     *string `json:"split_type,omitempty"`
}

func (r *Repo) Update(ctx context.Context, planID, coachID int, update PlanUpdate) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE training_plans tp SET
				name = COALESCE($3, tp.name),
				description = COALESCE($4, tp.description),
				duration_weeks = COALESCE($5, tp.duration_weeks),
				split_type = COALESCE($6, tp.split_type),
				updated_at = NOW()
			FROM athletes a
			WHERE tp.id = $1 AND tp.athlete_id = a.id AND a.coach_id = $2;`,
		planID, coachID, update.Name, update.Description, update.DurationWeeks, update.SplitType,
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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM training_plans tp USING athletes a
			WHERE tp.id = $1 AND tp.athlete_id = a.id AND a.coach_id = $2;`,
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

// Activate makes the plan the athlete's single active one.
func (r *Repo) Activate(ctx context.Context, planID, coachID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.activate")
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
		`UPDATE training_plans SET is_active = FALSE, updated_at = NOW()
			WHERE athlete_id = $1 AND is_active AND id != $2;`,
		plan.AthleteID, plan.ID,
	); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		`UPDATE training_plans SET is_active = TRUE, updated_at = NOW() WHERE id = $1;`,
		plan.ID,
	); err != nil {
		return nil, err
	}
	plan.IsActive = true

	if err := r.loadDays(ctx, tx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *Repo) AddDay(ctx context.Context, planID, coachID int, day Day) (_ *Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.addDay")
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

	day.PlanID = planID
	if err := r.insertDay(ctx, tx, &day); err != nil {
		return nil, err
	}
	for i := range day.Items {
		item := &day.Items[i]
		item.DayID = day.ID
		item.Order = i + 1
		if item.SetType == "" {
			item.SetType = SetNormal
		}
		if err := r.insertItem(ctx, tx, item); err != nil {
			return nil, err
		}
	}
	return &day, nil
}

type DayUpdate struct {
	DayNumber *int    `json:"day_number,omitempty"`
	Name      *string `json:"name,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	IsRestDay *bool   `json:"is_rest_day,omitempty"`
}

func (r *Repo) UpdateDay(ctx context.Context, dayID, coachID int, update DayUpdate) (_ *Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.updateDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE training_days td SET
				day_number = COALESCE($3, td.day_number),
				name = COALESCE($4, td.name),
				notes = COALESCE($5, td.notes),
				is_rest_day = COALESCE($6, td.is_rest_day)
			FROM training_plans tp, athletes a
			WHERE td.id = $1 AND td.training_plan_id = tp.id
				AND tp.athlete_id = a.id AND a.coach_id = $2;`,
		dayID, coachID, update.DayNumber, update.Name, update.Notes, update.IsRestDay,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrDayNotFound
	}

	return r.getDay(ctx, r.db, dayID, coachID)
}

func (r *Repo) DeleteDay(ctx context.Context, dayID, coachID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.deleteDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM training_days td USING training_plans tp, athletes a
			WHERE td.id = $1 AND td.training_plan_id = tp.id
				AND tp.athlete_id = a.id AND a.coach_id = $2;`,
		dayID, coachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDayNotFound
	}
	return nil
}

func (r *Repo) AddItem(ctx context.Context, dayID, coachID int, item Item) (_ *Item, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.addItem")
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

	if _, err := r.getDay(ctx, tx, dayID, coachID); err != nil {
		return nil, err
	}

	item.DayID = dayID
	if item.SetType == "" {
		item.SetType = SetNormal
	}
	if err := tx.QueryRow(
		ctx,
		`SELECT COALESCE(MAX(item_order), 0) + 1 FROM workout_items WHERE training_day_id = $1;`,
		dayID,
	).Scan(&item.Order); err != nil {
		return nil, err
	}

	if err := r.insertItem(ctx, tx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

type ItemUpdate struct {
	ExerciseID      *int     `json:"exercise_id,omitempty"`
	SetType         *SetType `json:"set_type,omitempty"`
	CustomName      *string  `json:"custom_name,omitempty"`
	Sets            *int     `json:"sets,omitempty"`
	Reps            *string  `json:"reps,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Intensity       *string  `json:"intensity,omitempty"`
	RestSeconds     *int     `json:"rest_seconds,omitempty"`
	Tempo           *string  `json:"tempo,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

func (r *Repo) UpdateItem(ctx context.Context, itemID, coachID int, update ItemUpdate) (_ *Item, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.updateItem")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_items wi SET
				exercise_id = COALESCE($3, wi.exercise_id),
				set_type = COALESCE($4, wi.set_type),
				custom_name = COALESCE($5, wi.custom_name),
				sets = COALESCE($6, wi.sets),
				reps = COALESCE($7, wi.reps),
				duration_minutes = COALESCE($8, wi.duration_minutes),
				intensity = COALESCE($9, wi.intensity),
				rest_seconds = COALESCE($10, wi.rest_seconds),
				tempo = COALESCE($11, wi.tempo),
				notes = COALESCE($12, wi.notes)
			FROM training_days td, training_plans tp, athletes a
			WHERE wi.id = $1 AND wi.training_day_id = td.id
				AND td.training_plan_id = tp.id
				AND tp.athlete_id = a.id AND a.coach_id = $2;`,
		itemID, coachID, update.ExerciseID, update.SetType, update.CustomName,
		update.Sets, update.Reps, update.DurationMinutes, update.Intensity,
		update.RestSeconds, update.Tempo, update.Notes,
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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.deleteItem")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_items wi USING training_days td, training_plans tp, athletes a
			WHERE wi.id = $1 AND wi.training_day_id = td.id
				AND td.training_plan_id = tp.id
				AND tp.athlete_id = a.id AND a.coach_id = $2;`,
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

// ReorderItems sets each item's order to its index in itemIDs. Ids from
// other days are ignored.
func (r *Repo) ReorderItems(ctx context.Context, dayID, coachID int, itemIDs []int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.reorderItems")
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

	if _, err := r.getDay(ctx, tx, dayID, coachID); err != nil {
		return err
	}

	for order, itemID := range itemIDs {
		if _, err := tx.Exec(
			ctx,
			`UPDATE workout_items SET item_order = $1 WHERE id = $2 AND training_day_id = $3;`,
			order, itemID, dayID,
		); err != nil {
			return err
		}
	}
	return nil
}

// ActiveInjuryBodyParts lists the body parts of the athlete's unhealed
// injuries, for exercise restriction checks.
func (r *Repo) ActiveInjuryBodyParts(ctx context.Context, athleteID, coachID int) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.activeInjuryBodyParts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.athleteOwned(ctx, r.db, athleteID, coachID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT DISTINCT body_part FROM athlete_injuries
			WHERE athlete_id = $1 AND NOT is_healed;`,
		athleteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bodyParts []string
	for rows.Next() {
		var bodyPart string
		if err := rows.Scan(&bodyPart); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		bodyParts = append(bodyParts, bodyPart)
	}
	return bodyParts, rows.Err()
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
		`SELECT tp.id, tp.athlete_id, tp.name, tp.description, tp.duration_weeks,
				tp.split_type, tp.is_active, tp.created_at, tp.updated_at
			FROM training_plans tp
			JOIN athletes a ON a.id = tp.athlete_id
			WHERE tp.id = $1 AND a.coach_id = $2;`,
		planID, coachID,
	)
	if err != nil {
		return nil, err
	}
	return onePlan(rows)
}

func (r *Repo) getDay(ctx context.Context, q querier, dayID, coachID int) (*Day, error) {
	rows, err := q.Query(
		ctx,
		`SELECT td.id, td.training_plan_id, td.day_number, td.name, td.notes, td.is_rest_day
			FROM training_days td
			JOIN training_plans tp ON tp.id = td.training_plan_id
			JOIN athletes a ON a.id = tp.athlete_id
			WHERE td.id = $1 AND a.coach_id = $2;`,
		dayID, coachID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrDayNotFound
	}

	var day Day
	if err := rows.Scan(&day.ID, &day.PlanID, &day.DayNumber, &day.Name, &day.Notes, &day.IsRestDay); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &day, nil
}

func (r *Repo) getItem(ctx context.Context, q querier, itemID, coachID int) (*Item, error) {
	rows, err := q.Query(
		ctx,
		`SELECT wi.id, wi.training_day_id, wi.exercise_id, wi.item_order, wi.set_type,
				wi.custom_name, wi.sets, wi.reps, wi.duration_minutes, wi.intensity,
				wi.rest_seconds, wi.tempo, wi.notes, wi.superset_group_id,
				wi.secondary_exercise_name, wi.tertiary_exercise_name
			FROM workout_items wi
			JOIN training_days td ON td.id = wi.training_day_id
			JOIN training_plans tp ON tp.id = td.training_plan_id
			JOIN athletes a ON a.id = tp.athlete_id
			WHERE wi.id = $1 AND a.coach_id = $2;`,
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

// loadDays fills the plan's days and their items with two queries.
func (r *Repo) loadDays(ctx context.Context, q querier, plan *Plan) error {
	rows, err := q.Query(
		ctx,
		`SELECT id, training_plan_id, day_number, name, notes, is_rest_day
			FROM training_days WHERE training_plan_id = $1 ORDER BY day_number;`,
		plan.ID,
	)
	if err != nil {
		return err
	}

	var days []Day
	dayIdx := map[int]int{}
	for rows.Next() {
		var day Day
		if err := rows.Scan(&day.ID, &day.PlanID, &day.DayNumber, &day.Name, &day.Notes, &day.IsRestDay); err != nil {
			rows.Close()
			return fmt.Errorf("rows scan: %w", err)
		}
		dayIdx[day.ID] = len(days)
		days = append(days, day)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	itemRows, err := q.Query(
		ctx,
		`SELECT `+itemColumns+` FROM workout_items
			WHERE training_day_id = ANY(SELECT id FROM training_days WHERE training_plan_id = $1)
			ORDER BY item_order;`,
		plan.ID,
	)
	if err != nil {
		return err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item, err := scanItem(itemRows)
		if err != nil {
			return err
		}
		if idx, ok := dayIdx[item.DayID]; ok {
			days[idx].Items = append(days[idx].Items, *item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return err
	}

	plan.Days = days
	return nil
}

func (r *Repo) insertDay(ctx context.Context, q querier, day *Day) error {
	return q.QueryRow(
		ctx,
		`INSERT INTO training_days (training_plan_id, day_number, name, notes, is_rest_day)
				VALUES ($1, $2, $3, $4, $5)
			RETURNING id;`,
		day.PlanID, day.DayNumber, day.Name, day.Notes, day.IsRestDay,
	).Scan(&day.ID)
}

func (r *Repo) insertItem(ctx context.Context, q querier, item *Item) error {
	return q.QueryRow(
		ctx,
		`INSERT INTO workout_items
				(training_day_id, exercise_id, item_order, set_type, custom_name, sets,
				reps, duration_minutes, intensity, rest_seconds, tempo, notes,
				superset_group_id, secondary_exercise_name, tertiary_exercise_name)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id;`,
		item.DayID, item.ExerciseID, item.Order, item.SetType, item.CustomName,
		item.Sets, item.Reps, item.DurationMinutes, item.Intensity, item.RestSeconds,
		item.Tempo, item.Notes, item.SupersetGroupID, item.SecondaryExerciseName,
		item.TertiaryExerciseName,
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
	var p Plan
	if err := rows.Scan(
		&p.ID, &p.AthleteID, &p.Name, &p.Description, &p.DurationWeeks,
		&p.SplitType, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &p, nil
}

func scanItem(rows pgx.Rows) (*Item, error) {
	var i Item
	if err := rows.Scan(
		&i.ID, &i.DayID, &i.ExerciseID, &i.Order, &i.SetType, &i.CustomName,
		&i.Sets, &i.Reps, &i.DurationMinutes, &i.Intensity, &i.RestSeconds,
		&i.Tempo, &i.Notes, &i.SupersetGroupID, &i.SecondaryExerciseName,
		&i.TertiaryExerciseName,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &i, nil
}
