package pixel

// GetAnimals lists every animal.
type GetAnimals struct{}

func (GetAnimals) Reactor() string { return "GetAnimals" }
func (GetAnimals) Args() []Arg     { return nil }

// GetAnimalByID fetches one animal.
type GetAnimalByID struct {
	AnimalID string
}

func (GetAnimalByID) Reactor() string { return "GetAnimalById" }
func (c GetAnimalByID) Args() []Arg   { return []Arg{{Key: "animalId", Value: c.AnimalID}} }

// AddAnimal creates an animal. DateOfBirth is YYYY-MM-DD.
type AddAnimal struct {
	Name        string
	Type        string
	DateOfBirth string
}

func (AddAnimal) Reactor() string { return "AddAnimal" }
func (c AddAnimal) Args() []Arg {
	return []Arg{
		{Key: "animalName", Value: c.Name},
		{Key: "animalType", Value: c.Type},
		{Key: "dateOfBirth", Value: c.DateOfBirth},
	}
}

// DeleteAnimal removes an animal by id.
type DeleteAnimal struct {
	AnimalID string
}

func (DeleteAnimal) Reactor() string { return "DeleteAnimal" }
func (c DeleteAnimal) Args() []Arg   { return []Arg{{Key: "animalId", Value: c.AnimalID}} }

// HelloUser greets Name, or the logged in user when Name is empty.
type HelloUser struct {
	Name string
}

func (HelloUser) Reactor() string { return "HelloUser" }
func (c HelloUser) Args() []Arg {
	if c.Name == "" {
		return nil
	}
	return []Arg{{Key: "name", Value: c.Name}}
}

// EngineType is the kind of a registered engine.
type EngineType string

const (
	EngineModel    EngineType = "MODEL"
	EngineDatabase EngineType = "DATABASE"
	EngineVector   EngineType = "VECTOR"
	EngineStorage  EngineType = "STORAGE"
	EngineFunction EngineType = "FUNCTION"
)

// MyEngines lists the engines the user can access, optionally filtered by type
// and metadata.
type MyEngines struct {
	Types       []EngineType
	MetaFilters map[string]string
}

func (MyEngines) Reactor() string { return "MyEngines" }
func (c MyEngines) Args() []Arg {
	var args []Arg
	if len(c.MetaFilters) > 0 {
		args = append(args, Arg{Key: "metaFilters", Value: c.MetaFilters})
	}
	if len(c.Types) > 0 {
		args = append(args, Arg{Key: "engineTypes", Value: c.Types})
	}
	return args
}

// QueryDatabase asks Model to answer Question with SQL run against Database.
type QueryDatabase struct {
	Model    string
	Question string
	Database string
}

func (QueryDatabase) Reactor() string { return "QueryDatabase" }
func (c QueryDatabase) Args() []Arg {
	return []Arg{
		{Key: "engine", Value: c.Model},
		{Key: "command", Value: c.Question},
		{Key: "database", Value: c.Database},
	}
}

// VectorConfig holds the connection details of a new vector database.
type VectorConfig struct {
	Name                string `json:"NAME"`
	VectorType          string `json:"VECTOR_TYPE"`
	EmbedderEngineID    string `json:"EMBEDDER_ENGINE_ID"`
	IndexClasses        string `json:"INDEX_CLASSES"`
	ChunkingStrategy    string `json:"CHUNKING_STRATEGY"`
	ContentLength       int    `json:"CONTENT_LENGTH"`
	ContentOverlap      int    `json:"CONTENT_OVERLAP"`
	DistanceMethod      string `json:"DISTANCE_METHOD"`
	RetainExtractedText string `json:"RETAIN_EXTRACTED_TEXT"`
}

// CreateVectorDatabaseEngine registers a new vector database.
type CreateVectorDatabaseEngine struct {
	Name   string
	Config VectorConfig
}

func (CreateVectorDatabaseEngine) Reactor() string { return "CreateVectorDatabaseEngine" }
func (c CreateVectorDatabaseEngine) Args() []Arg {
	cfg := c.Config
	if cfg.Name == "" {
		cfg.Name = c.Name
	}
	return []Arg{
		{Key: "database", Value: c.Name},
		{Key: "conDetails", Value: cfg},
	}
}

// SetEngineMetadata attaches metadata (such as a tag) to an engine.
type SetEngineMetadata struct {
	Engine string
	Meta   map[string]string
}

func (SetEngineMetadata) Reactor() string { return "SetEngineMetadata" }
func (c SetEngineMetadata) Args() []Arg {
	return []Arg{
		{Key: "engine", Value: c.Engine},
		{Key: "meta", Value: c.Meta},
	}
}

// ListDocumentsInVectorDatabase lists the files embedded in a vector database.
type ListDocumentsInVectorDatabase struct {
	Engine string
}

func (ListDocumentsInVectorDatabase) Reactor() string { return "ListDocumentsInVectorDatabase" }
func (c ListDocumentsInVectorDatabase) Args() []Arg {
	return []Arg{{Key: "engine", Value: c.Engine}}
}

// CreateEmbeddingsFromDocuments embeds previously uploaded files. FilePaths
// are upload locations relative to the insight, without a leading slash.
type CreateEmbeddingsFromDocuments struct {
	Engine    string
	FilePaths []string
}

func (CreateEmbeddingsFromDocuments) Reactor() string { return "CreateEmbeddingsFromDocuments" }
func (c CreateEmbeddingsFromDocuments) Args() []Arg {
	return []Arg{
		{Key: "engine", Value: c.Engine},
		{Key: "filePaths", Value: c.FilePaths},
	}
}

// RemoveDocumentFromVectorDatabase deletes embedded files by name.
type RemoveDocumentFromVectorDatabase struct {
	Engine    string
	FileNames []string
}

func (RemoveDocumentFromVectorDatabase) Reactor() string { return "RemoveDocumentFromVectorDatabase" }
func (c RemoveDocumentFromVectorDatabase) Args() []Arg {
	return []Arg{
		{Key: "engine", Value: c.Engine},
		{Key: "fileNames", Value: c.FileNames},
	}
}

// VectorDatabaseQuery returns the chunks closest to Query.
type VectorDatabaseQuery struct {
	Engine string
	Query  string
	Limit  int
}

func (VectorDatabaseQuery) Reactor() string { return "VectorDatabaseQuery" }
func (c VectorDatabaseQuery) Args() []Arg {
	args := []Arg{
		{Key: "engine", Value: c.Engine},
		{Key: "command", Value: c.Query},
	}
	if c.Limit > 0 {
		args = append(args, Arg{Key: "limit", Value: c.Limit})
	}
	return args
}

// LLM sends Prompt to a model engine.
type LLM struct {
	Engine string
	Prompt string
	Params map[string]any
}

func (LLM) Reactor() string { return "LLM" }
func (c LLM) Args() []Arg {
	args := []Arg{
		{Key: "engine", Value: c.Engine},
		{Key: "command", Value: c.Prompt},
	}
	if len(c.Params) > 0 {
		args = append(args, Arg{Key: "paramValues", Value: c.Params})
	}
	return args
}
