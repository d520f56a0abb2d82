package store

import (
	"context"
	"database/sql"
	"errors"
)

// AnimalRepo handles animals.
type AnimalRepo struct {
	db *sql.DB
}

func NewAnimalRepo(db *sql.DB) *AnimalRepo {
	return &AnimalRepo{db: db}
}

func (r *AnimalRepo) Insert(ctx context.Context, a Animal) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = Now()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO animals(animal_id, animal_name, animal_type, date_of_birth, created_at)
	VALUES (?, ?, ?, ?, ?);
	`, a.ID, a.Name, a.Type, a.DateOfBirth, a.CreatedAt)
	return err
}

func (r *AnimalRepo) List(ctx context.Context) ([]Animal, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT animal_id, animal_name, animal_type, date_of_birth, created_at
	FROM animals ORDER BY created_at, animal_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Animal
	for rows.Next() {
		var a Animal
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.DateOfBirth, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnimalRepo) Get(ctx context.Context, id string) (Animal, error) {
	var a Animal
	err := r.db.QueryRowContext(ctx, `
	SELECT animal_id, animal_name, animal_type, date_of_birth, created_at
	FROM animals WHERE animal_id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Type, &a.DateOfBirth, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Animal{}, ErrNotFound
	}
	return a, err
}

// Delete removes the animal and reports ErrNotFound if it did not exist.
func (r *AnimalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE animal_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
