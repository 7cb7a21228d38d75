package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/flexpro/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrExerciseNotFound = errors.New("exercise not found")

type ExercisesRepo struct {
	db *pgxpool.Pool
}

func NewExercisesRepo(db *pgxpool.Pool) *ExercisesRepo {
	return &ExercisesRepo{
		db: db,
	}
}

const exerciseColumns = `id, muscle_group_id, name, type, equipment, difficulty,
	is_compound, is_unilateral, is_risky, secondary_muscles, description,
	instructions, tips, video_url, image_url, is_custom, is_active`

func (r *ExercisesRepo) MuscleGroups(ctx context.Context) (_ []MuscleGroup, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.muscleGroups")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, icon, body_region, sort_order FROM muscle_groups ORDER BY sort_order, name;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []MuscleGroup
	for rows.Next() {
		var g MuscleGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Icon, &g.BodyRegion, &g.SortOrder); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *ExercisesRepo) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1 AND is_active;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrExerciseNotFound
	}
	return scanExercise(rows)
}

func (r *ExercisesRepo) Search(ctx context.Context, query string, page, pageSize int) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+exerciseColumns+` FROM exercises
			WHERE is_active AND name ILIKE '%' || $1 || '%'
			ORDER BY name OFFSET $2 LIMIT $3;`,
		query, (page-1)*pageSize, pageSize,
	)
	if err != nil {
		return nil, err
	}
	return rows2exercises(rows)
}

func (r *ExercisesRepo) ByMuscleGroup(ctx context.Context, muscleGroupID int) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.byMuscleGroup")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+exerciseColumns+` FROM exercises
			WHERE muscle_group_id = $1 AND is_active ORDER BY name;`,
		muscleGroupID,
	)
	if err != nil {
		return nil, err
	}
	return rows2exercises(rows)
}

func (r *ExercisesRepo) ByType(ctx context.Context, exerciseType ExerciseType, limit int) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.byType")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+exerciseColumns+` FROM exercises
			WHERE type = $1 AND is_active ORDER BY name LIMIT $2;`,
		exerciseType, limit,
	)
	if err != nil {
		return nil, err
	}
	return rows2exercises(rows)
}

func (r *ExercisesRepo) Compound(ctx context.Context, limit int) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.compound")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+exerciseColumns+` FROM exercises
			WHERE is_compound AND is_active ORDER BY name LIMIT $1;`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return rows2exercises(rows)
}

func (r *ExercisesRepo) CreateCustom(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.createCustom")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO exercises
				(muscle_group_id, name, type, equipment, difficulty, is_compound,
				is_unilateral, is_risky, secondary_muscles, description, instructions,
				tips, video_url, image_url, is_custom, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, TRUE, TRUE)
			RETURNING id;`,
		exercise.MuscleGroupID, exercise.Name, exercise.Type, exercise.Equipment,
		exercise.Difficulty, exercise.IsCompound, exercise.IsUnilateral, exercise.IsRisky,
		exercise.SecondaryMuscles, exercise.Description, exercise.Instructions,
		exercise.Tips, exercise.VideoURL, exercise.ImageURL,
	).Scan(&exercise.ID)
	if err != nil {
		return nil, err
	}

	exercise.IsCustom = true
	exercise.IsActive = true
	return &exercise, nil
}

func rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	defer rows.Close()

	var exercises []Exercise
	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *exercise)
	}
	return exercises, rows.Err()
}

func scanExercise(rows pgx.Rows) (*Exercise, error) {
	var e Exercise
	if err := rows.Scan(
		&e.ID, &e.MuscleGroupID, &e.Name, &e.Type, &e.Equipment, &e.Difficulty,
		&e.IsCompound, &e.IsUnilateral, &e.IsRisky, &e.SecondaryMuscles,
		&e.Description, &e.Instructions, &e.Tips, &e.VideoURL, &e.ImageURL,
		&e.IsCustom, &e.IsActive,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &e, nil
}
