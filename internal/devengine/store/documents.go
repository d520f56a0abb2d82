package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// UploadRepo handles uploaded files waiting to be embedded.
type UploadRepo struct {
	db *sql.DB
}

func NewUploadRepo(db *sql.DB) *UploadRepo {
	return &UploadRepo{db: db}
}

func (r *UploadRepo) Save(ctx context.Context, u Upload) error {
	if u.UploadedAt.IsZero() {
		u.UploadedAt = Now()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO uploads(insight_id, location, file_name, content, uploaded_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(insight_id, location) DO UPDATE SET
	 file_name=excluded.file_name,
	 content=excluded.content,
	 uploaded_at=excluded.uploaded_at;
	`, u.InsightID, u.Location, u.FileName, u.Content, u.UploadedAt)
	return err
}

func (r *UploadRepo) Get(ctx context.Context, insightID, location string) (Upload, error) {
	var u Upload
	err := r.db.QueryRowContext(ctx, `
	SELECT insight_id, location, file_name, content, uploaded_at
	FROM uploads WHERE insight_id = ? AND location = ?`, insightID, location).
		Scan(&u.InsightID, &u.Location, &u.FileName, &u.Content, &u.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Upload{}, ErrNotFound
	}
	return u, err
}

// DocumentRepo handles documents embedded in vector engines.
type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert stores documents in one transaction.
func (r *DocumentRepo) Upsert(ctx context.Context, docs ...Document) error {
	return WithTx(r.db, func(tx *sql.Tx) error {
		for _, d := range docs {
			if d.LastModified.IsZero() {
				d.LastModified = Now()
			}
			_, err := tx.ExecContext(ctx, `
			INSERT INTO vector_documents(engine_id, file_name, file_size, content, last_modified)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(engine_id, file_name) DO UPDATE SET
			 file_size=excluded.file_size,
			 content=excluded.content,
			 last_modified=excluded.last_modified;
			`, d.EngineID, d.FileName, d.Size, d.Content, d.LastModified)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *DocumentRepo) List(ctx context.Context, engineID string) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT engine_id, file_name, file_size, content, last_modified
	FROM vector_documents WHERE engine_id = ? ORDER BY file_name`, engineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.EngineID, &d.FileName, &d.Size, &d.Content, &d.LastModified); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete removes the named documents and returns how many existed.
func (r *DocumentRepo) Delete(ctx context.Context, engineID string, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	args := []any{engineID}
	for _, n := range names {
		args = append(args, n)
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM vector_documents WHERE engine_id = ? AND file_name IN (?`+strings.Repeat(", ?", len(names)-1)+`)`,
		args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
