package athletes

import (
	"context"
	"errors"
	"fmt"

	"github.com/flexpro/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrAthleteNotFound     = errors.New("athlete not found")
	ErrInjuryNotFound      = errors.New("injury not found")
	ErrMeasurementNotFound = errors.New("measurement not found")
)

type ListParams struct {
	CoachID    int
	ActiveOnly bool
	Skip       int
	Limit      int
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const athleteColumns = `id, coach_id, name, age, gender, height, weight, phone, email,
	goal, activity_level, experience_level, job, sleep_quality, allergies,
	medical_conditions, notes, subscription_start, subscription_months,
	subscription_amount, is_active, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, athlete Athlete) (_ *Athlete, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO athletes
				(coach_id, name, age, gender, height, weight, phone, email,
				goal, activity_level, experience_level, job, sleep_quality, allergies,
				medical_conditions, notes, subscription_start, subscription_months,
				subscription_amount, is_active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, TRUE, NOW(), NOW())
			RETURNING id, is_active, created_at, updated_at;`,
		athlete.CoachID, athlete.Name, athlete.Age, athlete.Gender, athlete.Height,
		athlete.Weight, athlete.Phone, athlete.Email, athlete.Goal, athlete.ActivityLevel,
		athlete.ExperienceLevel, athlete.Job, athlete.SleepQuality, athlete.Allergies,
		athlete.MedicalConditions, athlete.Notes, athlete.SubscriptionStart,
		athlete.SubscriptionMonths, athlete.SubscriptionAmount,
	).Scan(&athlete.ID, &athlete.IsActive, &athlete.CreatedAt, &athlete.UpdatedAt)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("athlete.id", athlete.ID))
	return &athlete, nil
}

// Get returns the athlete only when it belongs to the given coach.
func (r *Repo) Get(ctx context.Context, id, coachID int) (_ *Athlete, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+athleteColumns+` FROM athletes WHERE id = $1 AND coach_id = $2;`,
		id, coachID,
	)
	if err != nil {
		return nil, err
	}
	return rows2athlete(rows)
}

func (r *Repo) List(ctx context.Context, params ListParams) (_ []Athlete, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	query := `SELECT ` + athleteColumns + ` FROM athletes WHERE coach_id = $1`
	if params.ActiveOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC OFFSET $2 LIMIT $3;`

	rows, err := r.db.Query(ctx, query, params.CoachID, params.Skip, params.Limit)
	if err != nil {
		return nil, err
	}
	return rows2athletes(rows)
}

func (r *Repo) Search(ctx context.Context, coachID int, query string, limit int) (_ []Athlete, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+athleteColumns+` FROM athletes
			WHERE coach_id = $1 AND (name ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%')
			ORDER BY name LIMIT $3;`,
		coachID, query, limit,
	)
	if err != nil {
		return nil, err
	}
	return rows2athletes(rows)
}

func (r *Repo) Update(ctx context.Context, athlete *Athlete) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", athlete.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE athletes SET
				name = $1, age = $2, gender = $3, height = $4, weight = $5, phone = $6,
				email = $7, goal = $8, activity_level = $9, experience_level = $10,
				job = $11, sleep_quality = $12, allergies = $13, medical_conditions = $14,
				notes = $15, subscription_start = $16, subscription_months = $17,
				subscription_amount = $18, updated_at = NOW()
			WHERE id = $19 AND coach_id = $20;`,
		athlete.Name, athlete.Age, athlete.Gender, athlete.Height, athlete.Weight,
		athlete.Phone, athlete.Email, athlete.Goal, athlete.ActivityLevel,
		athlete.ExperienceLevel, athlete.Job, athlete.SleepQuality, athlete.Allergies,
		athlete.MedicalConditions, athlete.Notes, athlete.SubscriptionStart,
		athlete.SubscriptionMonths, athlete.SubscriptionAmount,
		athlete.ID, athlete.CoachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAthleteNotFound
	}
	return nil
}

// Delete removes the athlete. Injuries, measurements, plans and progress
// records go with it through ON DELETE CASCADE.
func (r *Repo) Delete(ctx context.Context, id, coachID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM athletes WHERE id = $1 AND coach_id = $2;`, id, coachID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAthleteNotFound
	}
	return nil
}

func (r *Repo) ToggleActive(ctx context.Context, id, coachID int) (_ *Athlete, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.toggleActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`UPDATE athletes SET is_active = NOT is_active, updated_at = NOW()
			WHERE id = $1 AND coach_id = $2
			RETURNING `+athleteColumns+`;`,
		id, coachID,
	)
	if err != nil {
		return nil, err
	}
	return rows2athlete(rows)
}

func (r *Repo) AddInjury(ctx context.Context, injury Injury) (_ *Injury, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.addInjury")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO athlete_injuries
				(athlete_id, body_part, description, severity, is_healed, injury_date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING id, created_at;`,
		injury.AthleteID, injury.BodyPart, injury.Description, injury.Severity,
		injury.IsHealed, injury.InjuryDate,
	).Scan(&injury.ID, &injury.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &injury, nil
}

func (r *Repo) ListInjuries(ctx context.Context, athleteID int) (_ []Injury, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.listInjuries")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, athlete_id, body_part, description, severity, is_healed, injury_date, created_at
			FROM athlete_injuries WHERE athlete_id = $1 ORDER BY created_at DESC;`,
		athleteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var injuries []Injury
	for rows.Next() {
		var injury Injury
		if err := rows.Scan(
			&injury.ID, &injury.AthleteID, &injury.BodyPart, &injury.Description,
			&injury.Severity, &injury.IsHealed, &injury.InjuryDate, &injury.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		injuries = append(injuries, injury)
	}
	return injuries, rows.Err()
}

// UpdateInjury flips the healed flag, scoped through the athletes
// table so a coach cannot touch another coach's injury records.
func (r *Repo) UpdateInjury(ctx context.Context, injuryID, coachID int, isHealed bool) (_ *Injury, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.updateInjury")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var injury Injury
	err = r.db.QueryRow(
		ctx,
		`UPDATE athlete_injuries ai SET is_healed = $3
			FROM athletes a
			WHERE ai.id = $1 AND ai.athlete_id = a.id AND a.coach_id = $2
			RETURNING ai.id, ai.athlete_id, ai.body_part, ai.description, ai.severity,
				ai.is_healed, ai.injury_date, ai.created_at;`,
		injuryID, coachID, isHealed,
	).Scan(
		&injury.ID, &injury.AthleteID, &injury.BodyPart, &injury.Description,
		&injury.Severity, &injury.IsHealed, &injury.InjuryDate, &injury.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInjuryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &injury, nil
}

// DeleteInjury is scoped through the athletes table so a coach cannot
// remove another coach's injury records.
func (r *Repo) DeleteInjury(ctx context.Context, injuryID, coachID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.deleteInjury")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM athlete_injuries ai USING athletes a
			WHERE ai.id = $1 AND ai.athlete_id = a.id AND a.coach_id = $2;`,
		injuryID, coachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInjuryNotFound
	}
	return nil
}

// AddMeasurement stores a new snapshot. A measurement with a weight
// also refreshes the weight on the athlete's profile.
func (r *Repo) AddMeasurement(ctx context.Context, m Measurement) (_ *Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.addMeasurement")
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

	err = tx.QueryRow(
		ctx,
		`INSERT INTO athlete_measurements
				(athlete_id, recorded_at, weight, body_fat, neck, chest, shoulders, waist, hip,
				thigh_right, thigh_left, arm_right, arm_left, forearm_right, forearm_left,
				calf_right, calf_left, wrist, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			RETURNING id;`,
		m.AthleteID, m.RecordedAt, m.Weight, m.BodyFat, m.Neck, m.Chest, m.Shoulders,
		m.Waist, m.Hip, m.ThighRight, m.ThighLeft, m.ArmRight, m.ArmLeft,
		m.ForearmRight, m.ForearmLeft, m.CalfRight, m.CalfLeft, m.Wrist, m.Notes,
	).Scan(&m.ID)
	if err != nil {
		return nil, err
	}

	if m.Weight != nil {
		if _, err = tx.Exec(
			ctx,
			`UPDATE athletes SET weight = $1, updated_at = NOW() WHERE id = $2;`,
			*m.Weight, m.AthleteID,
		); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// ListMeasurements returns newest first, so index 0 is the latest snapshot.
func (r *Repo) ListMeasurements(ctx context.Context, athleteID, limit int) (_ []Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athletes.listMeasurements")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, athlete_id, recorded_at, weight, body_fat, neck, chest, shoulders, waist, hip,
				thigh_right, thigh_left, arm_right, arm_left, forearm_right, forearm_left,
				calf_right, calf_left, wrist, notes
			FROM athlete_measurements WHERE athlete_id = $1
			ORDER BY recorded_at DESC, id DESC LIMIT $2;`,
		athleteID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var measurements []Measurement
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(
			&m.ID, &m.AthleteID, &m.RecordedAt, &m.Weight, &m.BodyFat, &m.Neck, &m.Chest,
			&m.Shoulders, &m.Waist, &m.Hip, &m.ThighRight, &m.ThighLeft, &m.ArmRight,
			&m.ArmLeft, &m.ForearmRight, &m.ForearmLeft, &m.CalfRight, &m.CalfLeft,
			&m.Wrist, &m.Notes,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		measurements = append(measurements, m)
	}
	return measurements, rows.Err()
}

func rows2athlete(rows pgx.Rows) (*Athlete, error) {
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrAthleteNotFound
	}
	return scanAthlete(rows)
}

func rows2athletes(rows pgx.Rows) ([]Athlete, error) {
	defer rows.Close()

	var athletes []Athlete
	for rows.Next() {
		athlete, err := scanAthlete(rows)
		if err != nil {
			return nil, err
		}
		athletes = append(athletes, *athlete)
	}
	return athletes, rows.Err()
}

func scanAthlete(rows pgx.Rows) (*Athlete, error) {
	var a Athlete
	if err := rows.Scan(
		&a.ID, &a.CoachID, &a.Name, &a.Age, &a.Gender, &a.Height, &a.Weight,
		&a.Phone, &a.Email, &a.Goal, &a.ActivityLevel, &a.ExperienceLevel,
		&a.Job, &a.SleepQuality, &a.Allergies, &a.MedicalConditions, &a.Notes,
		&a.SubscriptionStart, &a.SubscriptionMonths, &a.SubscriptionAmount,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &a, nil
}
