package store

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
)

// EngineRepo handles engines and their metadata.
type EngineRepo struct {
	db *sql.DB
}

func NewEngineRepo(db *sql.DB) *EngineRepo {
	return &EngineRepo{db: db}
}

func (r *EngineRepo) Upsert(ctx context.Context, e Engine) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = Now()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO engines(engine_id, engine_name, engine_type, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(engine_id) DO UPDATE SET
	 engine_name=excluded.engine_name,
	 engine_type=excluded.engine_type;
	`, e.ID, e.Name, e.Type, e.CreatedAt)
	return err
}

func (r *EngineRepo) Get(ctx context.Context, id string) (Engine, error) {
	var e Engine
	err := r.db.QueryRowContext(ctx, `
	SELECT engine_id, engine_name, engine_type, created_at FROM engines WHERE engine_id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Type, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Engine{}, ErrNotFound
	}
	return e, err
}

// AddMeta attaches key=value to the engine. Adding the same pair twice is a
// no-op.
func (r *EngineRepo) AddMeta(ctx context.Context, engineID, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO engine_meta(engine_id, meta_key, meta_value) VALUES (?, ?, ?)
	ON CONFLICT DO NOTHING;
	`, engineID, key, value)
	return err
}

// List returns engines of the given types (all types when empty) carrying
// every key=value pair in meta, ordered by name.
func (r *EngineRepo) List(ctx context.Context, types []string, meta map[string]string) ([]Engine, error) {
	var (
		where []string
		args  []any
	)
	if len(types) > 0 {
		where = append(where, "e.engine_type IN (?"+strings.Repeat(", ?", len(types)-1)+")")
		for _, t := range types {
			args = append(args, t)
		}
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		where = append(where, "EXISTS (SELECT 1 FROM engine_meta m WHERE m.engine_id = e.engine_id AND m.meta_key = ? AND m.meta_value = ?)")
		args = append(args, k, meta[k])
	}

	query := `SELECT e.engine_id, e.engine_name, e.engine_type, e.created_at FROM engines e`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.engine_name, e.engine_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Engine
	for rows.Next() {
		var e Engine
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
