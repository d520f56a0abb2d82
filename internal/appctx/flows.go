package appctx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SEMOSS/procode-training/internal/pixel"
)

const (
	summaryQuery  = "What are the main points of this document?"
	summaryPrompt = "Write an executive summary of the following content. Use short paragraphs and keep the key facts.\n\n%s"
)

// ErrNoEmbedder is returned when no embedder engine is configured.
var ErrNoEmbedder = errors.New("no embedder engine configured (set vector.embedder_engine)")

// CreateVector creates a vector database with the configured defaults and
// tags it so it shows up in the vector picker.
func (c *Context) CreateVector(ctx context.Context, name string) (pixel.Engine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return pixel.Engine{}, errors.New("vector database name cannot be empty")
	}
	s := c.Settings()
	if s.EmbedderEngine == "" {
		return pixel.Engine{}, ErrNoEmbedder
	}

	created, err := pixel.RunAs[pixel.CreatedEngine](ctx, c, pixel.CreateVectorDatabaseEngine{
		Name: name,
		Config: pixel.VectorConfig{
			Name:                name,
			VectorType:          s.VectorType,
			EmbedderEngineID:    s.EmbedderEngine,
			IndexClasses:        "default",
			ChunkingStrategy:    s.ChunkingStrategy,
			ContentLength:       s.ContentLength,
			ContentOverlap:      s.ContentOverlap,
			DistanceMethod:      s.DistanceMethod,
			RetainExtractedText: "false",
		},
	})
	if err != nil {
		return pixel.Engine{}, fmt.Errorf("create vector database %q: %w", name, err)
	}
	if created.ID == "" {
		return pixel.Engine{}, fmt.Errorf("create vector database %q: backend returned no id", name)
	}

	if _, err := pixel.RunAs[any](ctx, c, pixel.SetEngineMetadata{
		Engine: created.ID,
		Meta:   map[string]string{"tag": s.TrainingTag},
	}); err != nil {
		return pixel.Engine{}, fmt.Errorf("tag vector database %q: %w", name, err)
	}
	return created.Engine(pixel.EngineVector), nil
}

// EmbedFiles uploads files and embeds them into the vector database. It
// returns the uploaded file names.
func (c *Context) EmbedFiles(ctx context.Context, vectorID string, files ...pixel.File) ([]string, error) {
	if vectorID == "" {
		return nil, errors.New("no vector database selected")
	}
	if len(files) == 0 {
		return nil, errors.New("no files to embed")
	}
	uploaded, err := c.Upload(ctx, c.Settings().UploadPath, files...)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(uploaded))
	names := make([]string, 0, len(uploaded))
	for _, u := range uploaded {
		paths = append(paths, strings.TrimPrefix(u.Location, "/"))
		names = append(names, u.Name)
	}
	if _, err := pixel.RunAs[any](ctx, c, pixel.CreateEmbeddingsFromDocuments{Engine: vectorID, FilePaths: paths}); err != nil {
		return nil, fmt.Errorf("embed %s: %w", strings.Join(names, ", "), err)
	}
	return names, nil
}

// Summarize pulls the main points out of a vector database and asks the
// model for an executive summary of them.
func (c *Context) Summarize(ctx context.Context, vectorID, modelID string) (string, error) {
	if vectorID == "" || modelID == "" {
		return "", errors.New("select a vector database and a model first")
	}
	chunks, err := pixel.RunAs[[]pixel.VectorChunk](ctx, c, pixel.VectorDatabaseQuery{
		Engine: vectorID,
		Query:  summaryQuery,
		Limit:  c.Settings().QueryLimit,
	})
	if err != nil {
		return "", fmt.Errorf("query vector database: %w", err)
	}
	if len(chunks) == 0 {
		return "", errors.New("the vector database returned no content")
	}
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}

	resp, err := pixel.RunAs[pixel.LLMResponse](ctx, c, pixel.LLM{
		Engine: modelID,
		Prompt: fmt.Sprintf(summaryPrompt, strings.Join(parts, "\n\n")),
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return resp.Response, nil
}
