package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flexpro/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Create(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	err = r.db.QueryRow(
		ctx,
		`INSERT INTO users
				(email, hashed_password, full_name, phone_number, gym_name, bio, theme, language, is_active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $9)
			RETURNING id;`,
		user.Email, user.HashedPassword, user.FullName, user.PhoneNumber, user.GymName, user.Bio,
		user.Theme, user.Language, now,
	).Scan(&user.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))

	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, email, hashed_password, full_name, phone_number, gym_name, bio, theme, language, is_active, created_at, updated_at
			FROM users WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	return rows2user(rows)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByEmail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, email, hashed_password, full_name, phone_number, gym_name, bio, theme, language, is_active, created_at, updated_at
			FROM users WHERE email = $1;`,
		email,
	)
	if err != nil {
		return nil, err
	}
	return rows2user(rows)
}

func (r *Repo) UpdateProfile(ctx context.Context, user *User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updateProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", user.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE users
			SET full_name = $1, phone_number = $2, gym_name = $3, bio = $4, theme = $5, language = $6, updated_at = NOW()
			WHERE id = $7;`,
		user.FullName, user.PhoneNumber, user.GymName, user.Bio, user.Theme, user.Language, user.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repo) UpdatePassword(ctx context.Context, id int, hashedPassword string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updatePassword")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE users SET hashed_password = $1, updated_at = NOW() WHERE id = $2;`,
		hashedPassword, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IsActive is used by the auth middleware on every request.
func (r *Repo) IsActive(ctx context.Context, id int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.isActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var isActive bool
	err = r.db.QueryRow(ctx, `SELECT is_active FROM users WHERE id = $1;`, id).Scan(&isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, err
	}
	return isActive, nil
}

func (r *Repo) Stats(ctx context.Context, userID int) (_ *Stats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.stats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	stats := &Stats{}
	err = r.db.QueryRow(
		ctx,
		`SELECT
			(SELECT COUNT(*) FROM athletes WHERE coach_id = $1),
			(SELECT COUNT(*) FROM athletes WHERE coach_id = $1 AND is_active),
			(SELECT COUNT(*) FROM training_plans tp JOIN athletes a ON a.id = tp.athlete_id
				WHERE a.coach_id = $1 AND tp.is_active),
			(SELECT COUNT(*) FROM diet_plans dp JOIN athletes a ON a.id = dp.athlete_id
				WHERE a.coach_id = $1 AND dp.is_active);`,
		userID,
	).Scan(
		&stats.TotalAthletes,
		&stats.ActiveAthletes,
		&stats.ActiveTrainingPlans,
		&stats.ActiveDietPlans,
	)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}

func rows2user(rows pgx.Rows) (*User, error) {
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrUserNotFound
	}

	var user User
	if err := rows.Scan(
		&user.ID, &user.Email, &user.HashedPassword, &user.FullName,
		&user.PhoneNumber, &user.GymName, &user.Bio, &user.Theme, &user.Language, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &user, nil
}
