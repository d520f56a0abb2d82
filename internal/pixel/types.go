package pixel

// Engine is a model, database or vector store registered with the backend.
type Engine struct {
	ID   string `json:"app_id"`
	Name string `json:"app_name"`
	Type string `json:"app_type"`
}

// CreatedEngine is what CreateVectorDatabaseEngine returns.
type CreatedEngine struct {
	ID   string `json:"database_id"`
	Name string `json:"database_name"`
}

// Engine converts the creation result into an Engine of the given type.
func (c CreatedEngine) Engine(kind EngineType) Engine {
	return Engine{ID: c.ID, Name: c.Name, Type: string(kind)}
}

type Animal struct {
	ID          string `json:"animalId"`
	Name        string `json:"animalName"`
	Type        string `json:"animalType"`
	DateOfBirth string `json:"dateOfBirth"`
}

// VectorFile is a document stored in a vector database. Size is in KB and
// LastModified is "YYYY-MM-DD HH:MM:SS".
type VectorFile struct {
	Name         string  `json:"fileName"`
	Size         float64 `json:"fileSize"`
	LastModified string  `json:"lastModified"`
}

// UploadedFile is one entry of an upload response.
type UploadedFile struct {
	Name     string `json:"fileName"`
	Location string `json:"fileLocation"`
}

type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type ResultSet struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// QueryResponse is what QueryDatabase returns.
type QueryResponse struct {
	Question    string    `json:"question"`
	Explanation string    `json:"explanation"`
	SQL         string    `json:"sql"`
	ResultSet   ResultSet `json:"result_set"`
}

type VectorChunk struct {
	Source  string  `json:"Source"`
	Content string  `json:"Content"`
	Score   float64 `json:"Score"`
}

type LLMResponse struct {
	Response       string `json:"response"`
	MessageID      string `json:"messageId"`
	RoomID         string `json:"roomId"`
	PromptTokens   int    `json:"numberOfTokensInPrompt"`
	ResponseTokens int    `json:"numberOfTokensInResponse"`
}

// User is the logged in account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
