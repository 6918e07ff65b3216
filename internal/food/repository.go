package food

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Food, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, calories, protein, carbohydrates, fats, created_at, updated_at
		FROM foods
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query foods: %w", err)
	}
	defer rows.Close()

	foods := make([]Food, 0)
	for rows.Next() {
		var f Food
		if err := rows.Scan(&f.ID, &f.Name, &f.Calories, &f.Protein, &f.Carbohydrates, &f.Fats, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		foods = append(foods, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foods: %w", err)
	}

	return foods, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Food, error) {
	var f Food
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, calories, protein, carbohydrates, fats, created_at, updated_at
		FROM foods
		WHERE id = $1
	`, id).Scan(&f.ID, &f.Name, &f.Calories, &f.Protein, &f.Carbohydrates, &f.Fats, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Food{}, ErrNotFound
		}
		return Food{}, fmt.Errorf("query food: %w", err)
	}

	return f, nil
}

func (r *Repository) Create(ctx context.Context, input FoodInput) (Food, error) {
	now := time.Now().UTC()
	f := Food{
		Name:          input.Name,
		Calories:      input.Calories,
		Protein:       input.Protein,
		Carbohydrates: input.Carbohydrates,
		Fats:          input.Fats,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO foods (name, calories, protein, carbohydrates, fats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, f.Name, f.Calories, f.Protein, f.Carbohydrates, f.Fats, f.CreatedAt, f.UpdatedAt).Scan(&f.ID)
	if err != nil {
		return Food{}, fmt.Errorf("insert food: %w", err)
	}

	return f, nil
}

func (r *Repository) Update(ctx context.Context, id int64, input FoodInput) (Food, error) {
	var f Food
	err := r.db.QueryRowContext(ctx, `
		UPDATE foods
		SET name = $2, calories = $3, protein = $4, carbohydrates = $5, fats = $6, updated_at = $7
		WHERE id = $1
		RETURNING id, name, calories, protein, carbohydrates, fats, created_at, updated_at
	`, id, input.Name, input.Calories, input.Protein, input.Carbohydrates, input.Fats, time.Now().UTC()).
		Scan(&f.ID, &f.Name, &f.Calories, &f.Protein, &f.Carbohydrates, &f.Fats, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Food{}, ErrNotFound
		}
		return Food{}, fmt.Errorf("update food: %w", err)
	}

	return f, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM foods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete food: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
