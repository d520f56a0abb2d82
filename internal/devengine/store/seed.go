package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type seedEngine struct {
	name string
	kind string
	tags []string
}

var defaultEngines = []seedEngine{
	{name: "Dev Text Model", kind: "MODEL", tags: []string{"text-generation"}},
	{name: "Dev Embedder", kind: "MODEL", tags: []string{"embeddings"}},
	{name: "Dev Animals Database", kind: "DATABASE"},
}

// EngineID returns the stable id of a seeded engine.
func EngineID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("engine:"+name)).String()
}

// SeedDefaults ensures the baseline engines exist. It is idempotent and safe
// to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	repo := NewEngineRepo(db)
	for _, e := range defaultEngines {
		id := EngineID(e.name)
		if err := repo.Upsert(ctx, Engine{ID: id, Name: e.name, Type: e.kind}); err != nil {
			return err
		}
		for _, tag := range e.tags {
			if err := repo.AddMeta(ctx, id, "tag", tag); err != nil {
				return err
			}
		}
	}
	return nil
}
