package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/flexpro/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSupplementNotFound = errors.New("supplement not found")

type SupplementsRepo struct {
	db *pgxpool.Pool
}

func NewSupplementsRepo(db *pgxpool.Pool) *SupplementsRepo {
	return &SupplementsRepo{
		db: db,
	}
}

const supplementColumns = `id, category_id, name, brand, default_dose, dose_unit,
	suggested_time, description, benefits, side_effects, contraindications,
	is_prescription, is_custom, is_active`

func (r *SupplementsRepo) Categories(ctx context.Context) (_ []SupplementCategory, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.categories")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, icon, description, sort_order
			FROM supplement_categories ORDER BY sort_order, name;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []SupplementCategory
	for rows.Next() {
		var c SupplementCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Description, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SupplementsRepo) Get(ctx context.Context, id int) (_ *Supplement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `SELECT `+supplementColumns+` FROM supplements WHERE id = $1 AND is_active;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrSupplementNotFound
	}
	return scanSupplement(rows)
}

func (r *SupplementsRepo) Search(ctx context.Context, query string, limit int) (_ []Supplement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+supplementColumns+` FROM supplements
			WHERE is_active AND (name ILIKE '%' || $1 || '%' OR brand ILIKE '%' || $1 || '%')
			ORDER BY name LIMIT $2;`,
		query, limit,
	)
	if err != nil {
		return nil, err
	}
	return rows2supplements(rows)
}

func (r *SupplementsRepo) ByCategory(ctx context.Context, categoryID int) (_ []Supplement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.supplements.byCategory")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+supplementColumns+` FROM supplements
			WHERE category_id = $1 AND is_active ORDER BY name;`,
		categoryID,
	)
	if err != nil {
		return nil, err
	}
	return rows2supplements(rows)
}

func rows2supplements(rows pgx.Rows) ([]Supplement, error) {
	defer rows.Close()

	var supplements []Supplement
	for rows.Next() {
		supplement, err := scanSupplement(rows)
		if err != nil {
			return nil, err
		}
		supplements = append(supplements, *supplement)
	}
	return supplements, rows.Err()
}

func scanSupplement(rows pgx.Rows) (*Supplement, error) {
	var s Supplement
	if err := rows.Scan(
		&s.ID, &s.CategoryID, &s.Name, &s.Brand, &s.DefaultDose, &s.DoseUnit,
		&s.SuggestedTime, &s.Description, &s.Benefits, &s.SideEffects,
		&s.Contraindications, &s.IsPrescription, &s.IsCustom, &s.IsActive,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &s, nil
}
