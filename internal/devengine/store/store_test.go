package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*sql.DB, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	db, err := Open(filepath.Join(t.TempDir(), "dev.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return db, ctx
}

func TestMigrate_IsIdempotent(t *testing.T) {
	t.Parallel()
	db, _ := setupStore(t)
	require.NoError(t, Migrate(db))
}

func TestAnimalRepo(t *testing.T) {
	t.Parallel()
	db, ctx := setupStore(t)
	repo := NewAnimalRepo(db)

	require.NoError(t, repo.Insert(ctx, Animal{ID: "a1", Name: "Rex", Type: "Dog", DateOfBirth: "2020-01-02"}))
	require.NoError(t, repo.Insert(ctx, Animal{ID: "a2", Name: "Tom", Type: "Cat", DateOfBirth: "2019-05-06", CreatedAt: Now().Add(time.Second)}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Rex", list[0].Name)

	got, err := repo.Get(ctx, "a2")
	require.NoError(t, err)
	require.Equal(t, "Cat", got.Type)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "a1"))
	require.ErrorIs(t, repo.Delete(ctx, "a1"), ErrNotFound)
}

func TestEngineRepo_ListFilters(t *testing.T) {
	t.Parallel()
	db, ctx := setupStore(t)
	require.NoError(t, SeedDefaults(ctx, db))
	require.NoError(t, SeedDefaults(ctx, db))
	repo := NewEngineRepo(db)

	all, err := repo.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	models, err := repo.List(ctx, []string{"MODEL"}, map[string]string{"tag": "text-generation"})
	require.NoError(t, err)
	require.Len(t, models, 1)
	require.Equal(t, EngineID("Dev Text Model"), models[0].ID)

	dbs, err := repo.List(ctx, []string{"DATABASE", "VECTOR"}, nil)
	require.NoError(t, err)
	require.Len(t, dbs, 1)

	require.NoError(t, repo.Upsert(ctx, Engine{ID: "v1", Name: "notes", Type: "VECTOR"}))
	require.NoError(t, repo.AddMeta(ctx, "v1", "tag", "pro-code-training"))
	require.NoError(t, repo.AddMeta(ctx, "v1", "tag", "pro-code-training"))
	vectors, err := repo.List(ctx, []string{"VECTOR"}, map[string]string{"tag": "pro-code-training"})
	require.NoError(t, err)
	require.Equal(t, []string{"v1"}, ids(vectors))

	_, err = repo.Get(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func ids(engines []Engine) []string {
	out := make([]string, 0, len(engines))
	for _, e := range engines {
		out = append(out, e.ID)
	}
	return out
}

func TestDocumentRepo(t *testing.T) {
	t.Parallel()
	db, ctx := setupStore(t)
	require.NoError(t, NewEngineRepo(db).Upsert(ctx, Engine{ID: "v1", Name: "notes", Type: "VECTOR"}))
	uploads := NewUploadRepo(db)
	docs := NewDocumentRepo(db)

	require.NoError(t, uploads.Save(ctx, Upload{InsightID: "i1", Location: "/a.txt", FileName: "a.txt", Content: []byte("alpha")}))
	up, err := uploads.Get(ctx, "i1", "/a.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("alpha"), up.Content)
	_, err = uploads.Get(ctx, "i2", "/a.txt")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, docs.Upsert(ctx,
		Document{EngineID: "v1", FileName: "b.txt", Size: 4, Content: []byte("beta")},
		Document{EngineID: "v1", FileName: "a.txt", Size: 5, Content: up.Content}))
	list, err := docs.List(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a.txt", list[0].FileName)

	n, err := docs.Delete(ctx, "v1", []string{"a.txt", "zzz.txt"})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = docs.Delete(ctx, "v1", nil)
	require.NoError(t, err)
	require.Zero(t, n)
}
