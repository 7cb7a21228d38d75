package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/flexpro/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrRecordNotFound  = errors.New("progress record not found")
	ErrAthleteNotFound = errors.New("athlete not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const recordColumns = `id, athlete_id, recorded_at, weight, body_fat_percentage, muscle_mass,
	squat_1rm, bench_1rm, deadlift_1rm, ohp_1rm,
	cardio_time, cardio_distance, resting_heart_rate,
	energy_level, sleep_quality, stress_level, soreness_level,
	training_adherence, diet_adherence, notes, photo_url, created_at`

func (r *Repo) Add(ctx context.Context, record Record, coachID int) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.athleteOwned(ctx, record.AthleteID, coachID); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO progress_records
			(athlete_id, recorded_at, weight, body_fat_percentage, muscle_mass,
			squat_1rm, bench_1rm, deadlift_1rm, ohp_1rm,
			cardio_time, cardio_distance, resting_heart_rate,
			energy_level, sleep_quality, stress_level, soreness_level,
			training_adherence, diet_adherence, notes, photo_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			RETURNING id, created_at;`,
		record.AthleteID, record.RecordedAt, record.Weight, record.BodyFatPercentage, record.MuscleMass,
		record.Squat1RM, record.Bench1RM, record.Deadlift1RM, record.OHP1RM,
		record.CardioTimeMinutes, record.CardioDistanceKM, record.RestingHeartRate,
		record.EnergyLevel, record.SleepQuality, record.StressLevel, record.SorenessLevel,
		record.TrainingAdherence, record.DietAdherence, record.Notes, record.PhotoURL,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return nil, err
	}

	return &record, nil
}

// ListByAthlete returns the athlete's records newest first, up to limit
// when limit is positive.
func (r *Repo) ListByAthlete(ctx context.Context, athleteID, coachID, limit int) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.listByAthlete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.athleteOwned(ctx, athleteID, coachID); err != nil {
		return nil, err
	}

	query := `SELECT ` + recordColumns + ` FROM progress_records
		WHERE athlete_id = $1 ORDER BY recorded_at DESC, id DESC`
	args := []any{athleteID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	query += `;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (r *Repo) Get(ctx context.Context, recordID, coachID int) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+qualifiedRecordColumns+` FROM progress_records pr
			JOIN athletes a ON pr.athlete_id = a.id
			WHERE pr.id = $1 AND a.coach_id = $2;`,
		recordID, coachID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrRecordNotFound
	}
	return scanRecord(rows)
}

func (r *Repo) Delete(ctx context.Context, recordID, coachID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM progress_records pr USING athletes a
			WHERE pr.id = $1 AND pr.athlete_id = a.id AND a.coach_id = $2;`,
		recordID, coachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

const qualifiedRecordColumns = `pr.id, pr.athlete_id, pr.recorded_at, pr.weight, pr.body_fat_percentage,
	pr.muscle_mass, pr.squat_1rm, pr.bench_1rm, pr.deadlift_1rm, pr.ohp_1rm,
	pr.cardio_time, pr.cardio_distance, pr.resting_heart_rate,
	pr.energy_level, pr.sleep_quality, pr.stress_level, pr.soreness_level,
	pr.training_adherence, pr.diet_adherence, pr.notes, pr.photo_url, pr.created_at`

func (r *Repo) athleteOwned(ctx context.Context, athleteID, coachID int) error {
	var one int
	err := r.db.QueryRow(
		ctx,
		`SELECT 1 FROM athletes WHERE id = $1 AND coach_id = $2;`,
		athleteID, coachID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAthleteNotFound
	}
	return err
}

func scanRecord(rows pgx.Rows) (*Record, error) {
	var record Record
	if err := rows.Scan(
		&record.ID, &record.AthleteID, &record.RecordedAt, &record.Weight, &record.BodyFatPercentage,
		&record.MuscleMass, &record.Squat1RM, &record.Bench1RM, &record.Deadlift1RM, &record.OHP1RM,
		&record.CardioTimeMinutes, &record.CardioDistanceKM, &record.RestingHeartRate,
		&record.EnergyLevel, &record.SleepQuality, &record.StressLevel, &record.SorenessLevel,
		&record.TrainingAdherence, &record.DietAdherence, &record.Notes, &record.PhotoURL, &record.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &record, nil
}
