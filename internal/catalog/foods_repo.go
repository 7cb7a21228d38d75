package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/flexpro/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrFoodNotFound = errors.New("food not found")

type FoodsRepo struct {
	db *pgxpool.Pool
}

func NewFoodsRepo(db *pgxpool.Pool) *FoodsRepo {
	return &FoodsRepo{
		db: db,
	}
}

const foodColumns = `id, category_id, name, unit, base_amount, calories, protein, carbs, fat,
	fiber, sugar, sodium, description, is_custom, is_active`

func (r *FoodsRepo) Categories(ctx context.Context) (_ []FoodCategory, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.foods.categories")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, icon, description, sort_order, is_active
			FROM food_categories WHERE is_active ORDER BY sort_order, name;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []FoodCategory
	for rows.Next() {
		var c FoodCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Description, &c.SortOrder, &c.IsActive); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *FoodsRepo) Get(ctx context.Context, id int) (_ *Food, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.foods.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = $1 AND is_active;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrFoodNotFound
	}
	return scanFood(rows)
}

func (r *FoodsRepo) Search(ctx context.Context, query string, page, pageSize int) (_ []Food, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.foods.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+foodColumns+` FROM foods
			WHERE is_active AND name ILIKE '%' || $1 || '%'
			ORDER BY name OFFSET $2 LIMIT $3;`,
		query, (page-1)*pageSize, pageSize,
	)
	if err != nil {
		return nil, err
	}
	return rows2foods(rows)
}

func (r *FoodsRepo) ByCategory(ctx context.Context, categoryID int) (_ []Food, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.foods.byCategory")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+foodColumns+` FROM foods WHERE category_id = $1 AND is_active ORDER BY name;`,
		categoryID,
	)
	if err != nil {
		return nil, err
	}
	return rows2foods(rows)
}

// HighProtein returns foods sorted by protein density per base amount.
func (r *FoodsRepo) HighProtein(ctx context.Context, minProtein float64, limit int) (_ []Food, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.foods.highProtein")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+foodColumns+` FROM foods
			WHERE is_active AND protein >= $1
			ORDER BY protein DESC LIMIT $2;`,
		minProtein, limit,
	)
	if err != nil {
		return nil, err
	}
	return rows2foods(rows)
}

func (r *FoodsRepo) LowCalorie(ctx context.Context, maxCalories float64, limit int) (_ []Food, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.foods.lowCalorie")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+foodColumns+` FROM foods
			WHERE is_active AND calories <= $1
			ORDER BY calories ASC LIMIT $2;`,
		maxCalories, limit,
	)
	if err != nil {
		return nil, err
	}
	return rows2foods(rows)
}

func (r *FoodsRepo) CreateCustom(ctx context.Context, food Food) (_ *Food, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.foods.createCustom")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO foods
				(category_id, name, unit, base_amount, calories, protein, carbs, fat,
				fiber, sugar, sodium, description, is_custom, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, TRUE)
			RETURNING id;`,
		food.CategoryID, food.Name, food.Unit, food.BaseAmount, food.Calories,
		food.Protein, food.Carbs, food.Fat, food.Fiber, food.Sugar, food.Sodium,
		food.Description,
	).Scan(&food.ID)
	if err != nil {
		return nil, err
	}

	food.IsCustom = true
	food.IsActive = true
	return &food, nil
}

func rows2foods(rows pgx.Rows) ([]Food, error) {
	defer rows.Close()

	var foods []Food
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		foods = append(foods, *food)
	}
	return foods, rows.Err()
}

func scanFood(rows pgx.Rows) (*Food, error) {
	var f Food
	if err := rows.Scan(
		&f.ID, &f.CategoryID, &f.Name, &f.Unit, &f.BaseAmount, &f.Calories,
		&f.Protein, &f.Carbs, &f.Fat, &f.Fiber, &f.Sugar, &f.Sodium,
		&f.Description, &f.IsCustom, &f.IsActive,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return &f, nil
}
