package devengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SEMOSS/procode-training/internal/devengine/store"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// request is what a reactor knows about the caller.
type request struct {
	User    pixel.User
	Insight string
}

type reactor func(ctx context.Context, req request, call pixel.Call) (any, error)

func (s *Server) registerReactors() {
	s.reactors = map[string]reactor{
		"GetAnimals":                       s.getAnimals,
		"GetAnimalById":                    s.getAnimalByID,
		"AddAnimal":                        s.addAnimal,
		"DeleteAnimal":                     s.deleteAnimal,
		"HelloUser":                        s.helloUser,
		"MyEngines":                        s.myEngines,
		"CreateVectorDatabaseEngine":       s.createVectorDatabase,
		"SetEngineMetadata":                s.setEngineMetadata,
		"ListDocumentsInVectorDatabase":    s.listDocuments,
		"CreateEmbeddingsFromDocuments":    s.createEmbeddings,
		"RemoveDocumentFromVectorDatabase": s.removeDocuments,
	}
}

// text reads a string argument by name. A lone positional argument is
// accepted in its place.
func text(call pixel.Call, key string) (string, error) {
	if _, ok := call.Named[key]; ok {
		v, err := call.Text(key)
		if err != nil {
			return "", pixel.NewError(pixel.CodeBadRequest, "%v", err)
		}
		return strings.TrimSpace(v), nil
	}
	if len(call.Named) == 0 && len(call.Positional) == 1 {
		var v string
		if err := json.Unmarshal(call.Positional[0], &v); err != nil {
			return "", pixel.NewError(pixel.CodeBadRequest, "%s: positional argument: %v", call.Reactor, err)
		}
		return strings.TrimSpace(v), nil
	}
	return "", nil
}

func required(call pixel.Call, key string) (string, error) {
	v, err := text(call, key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", pixel.NewError(pixel.CodeBadRequest, "%s is required", key)
	}
	return v, nil
}

func list(call pixel.Call, key string) ([]string, error) {
	var out []string
	if _, err := call.Decode(key, &out); err != nil {
		return nil, pixel.NewError(pixel.CodeBadRequest, "%v", err)
	}
	return out, nil
}

func (s *Server) getAnimals(ctx context.Context, _ request, _ pixel.Call) (any, error) {
	rows, err := s.animals.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]pixel.Animal, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAnimal(a))
	}
	return out, nil
}

func (s *Server) getAnimalByID(ctx context.Context, _ request, call pixel.Call) (any, error) {
	id, err := required(call, "animalId")
	if err != nil {
		return nil, err
	}
	a, err := s.animals.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, pixel.NewError(pixel.CodeNotFound, "Animal not found")
	}
	if err != nil {
		return nil, err
	}
	return toAnimal(a), nil
}

func (s *Server) addAnimal(ctx context.Context, _ request, call pixel.Call) (any, error) {
	var fields [3]string
	for i, key := range []string{"animalName", "animalType", "dateOfBirth"} {
		v, err := text(call, key)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	name, kind, born := fields[0], fields[1], fields[2]
	if name == "" || kind == "" || born == "" {
		return nil, pixel.NewError(pixel.CodeBadRequest, "Animal name, type, and date of birth cannot be empty")
	}
	if _, err := time.Parse(dateLayout, born); err != nil {
		return nil, pixel.NewError(pixel.CodeBadRequest, "Date of birth must be formatted as YYYY-MM-DD")
	}
	err := s.animals.Insert(ctx, store.Animal{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        kind,
		DateOfBirth: born,
		CreatedAt:   store.Now(),
	})
	if err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) deleteAnimal(ctx context.Context, _ request, call pixel.Call) (any, error) {
	id, err := required(call, "animalId")
	if err != nil {
		return nil, err
	}
	err = s.animals.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, pixel.NewError(pixel.CodeNotFound, "Animal not found")
	}
	if err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) helloUser(_ context.Context, req request, call pixel.Call) (any, error) {
	name, err := text(call, "name")
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = req.User.Name
	}
	return fmt.Sprintf("Hello, %s! Welcome to SEMOSS.", name), nil
}

func (s *Server) myEngines(ctx context.Context, _ request, call pixel.Call) (any, error) {
	types, err := list(call, "engineTypes")
	if err != nil {
		return nil, err
	}
	meta := map[string]string{}
	if _, err := call.Object("metaFilters", &meta); err != nil {
		return nil, pixel.NewError(pixel.CodeBadRequest, "%v", err)
	}
	rows, err := s.engines.List(ctx, types, meta)
	if err != nil {
		return nil, err
	}
	out := make([]pixel.Engine, 0, len(rows))
	for _, e := range rows {
		out = append(out, pixel.Engine{ID: e.ID, Name: e.Name, Type: e.Type})
	}
	return out, nil
}

func (s *Server) createVectorDatabase(ctx context.Context, _ request, call pixel.Call) (any, error) {
	name, err := required(call, "database")
	if err != nil {
		return nil, err
	}
	var cfg pixel.VectorConfig
	if ok, err := call.Object("conDetails", &cfg); err != nil {
		return nil, pixel.NewError(pixel.CodeBadRequest, "%v", err)
	} else if !ok {
		return nil, pixel.NewError(pixel.CodeBadRequest, "conDetails is required")
	}
	if cfg.EmbedderEngineID == "" {
		return nil, pixel.NewError(pixel.CodeBadRequest, "An embedding model is required")
	}
	if _, err := s.engines.Get(ctx, cfg.EmbedderEngineID); errors.Is(err, store.ErrNotFound) {
		return nil, pixel.NewError(pixel.CodeNotFound, "Embedding model %s not found", cfg.EmbedderEngineID)
	} else if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if err := s.engines.Upsert(ctx, store.Engine{ID: id, Name: name, Type: string(pixel.EngineVector), CreatedAt: store.Now()}); err != nil {
		return nil, err
	}
	return pixel.CreatedEngine{ID: id, Name: name}, nil
}

func (s *Server) setEngineMetadata(ctx context.Context, _ request, call pixel.Call) (any, error) {
	engine, err := s.engine(ctx, call, "")
	if err != nil {
		return nil, err
	}
	meta := map[string]string{}
	if _, err := call.Object("meta", &meta); err != nil {
		return nil, pixel.NewError(pixel.CodeBadRequest, "%v", err)
	}
	for k, v := range meta {
		if err := s.engines.AddMeta(ctx, engine.ID, k, v); err != nil {
			return nil, err
		}
	}
	return true, nil
}

func (s *Server) listDocuments(ctx context.Context, _ request, call pixel.Call) (any, error) {
	engine, err := s.engine(ctx, call, pixel.EngineVector)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.List(ctx, engine.ID)
	if err != nil {
		return nil, err
	}
	out := make([]pixel.VectorFile, 0, len(docs))
	for _, d := range docs {
		out = append(out, pixel.VectorFile{
			Name:         d.FileName,
			Size:         math.Round(float64(d.Size)/1024*100) / 100,
			LastModified: d.LastModified.Format(timestampLayout),
		})
	}
	return out, nil
}

func (s *Server) createEmbeddings(ctx context.Context, req request, call pixel.Call) (any, error) {
	engine, err := s.engine(ctx, call, pixel.EngineVector)
	if err != nil {
		return nil, err
	}
	paths, err := list(call, "filePaths")
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, pixel.NewError(pixel.CodeBadRequest, "filePaths is required")
	}

	docs := make([]store.Document, 0, len(paths))
	for _, p := range paths {
		up, err := s.uploads.Get(ctx, req.Insight, "/"+strings.TrimPrefix(p, "/"))
		if errors.Is(err, store.ErrNotFound) {
			return nil, pixel.NewError(pixel.CodeNotFound, "File %s was not uploaded", p)
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, store.Document{
			EngineID:     engine.ID,
			FileName:     up.FileName,
			Size:         int64(len(up.Content)),
			Content:      up.Content,
			LastModified: store.Now(),
		})
	}
	if err := s.documents.Upsert(ctx, docs...); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) removeDocuments(ctx context.Context, _ request, call pixel.Call) (any, error) {
	engine, err := s.engine(ctx, call, pixel.EngineVector)
	if err != nil {
		return nil, err
	}
	names, err := list(call, "fileNames")
	if err != nil {
		return nil, err
	}
	n, err := s.documents.Delete(ctx, engine.ID, names)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, pixel.NewError(pixel.CodeNotFound, "Document not found")
	}
	return true, nil
}

// engine loads the engine named by the "engine" argument. kind, when set,
// must match its type.
func (s *Server) engine(ctx context.Context, call pixel.Call, kind pixel.EngineType) (store.Engine, error) {
	id, err := required(call, "engine")
	if err != nil {
		return store.Engine{}, err
	}
	e, err := s.engines.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Engine{}, pixel.NewError(pixel.CodeNotFound, "Engine %s not found", id)
	}
	if err != nil {
		return store.Engine{}, err
	}
	if kind != "" && e.Type != string(kind) {
		return store.Engine{}, pixel.NewError(pixel.CodeBadRequest, "Engine %s is not a %s engine", id, kind)
	}
	return e, nil
}

func toAnimal(a store.Animal) pixel.Animal {
	return pixel.Animal{ID: a.ID, Name: a.Name, Type: a.Type, DateOfBirth: a.DateOfBirth}
}
