package store

import "time"

type Animal struct {
	ID          string
	Name        string
	Type        string
	DateOfBirth string
	CreatedAt   time.Time
}

type Engine struct {
	ID        string
	Name      string
	Type      string
	CreatedAt time.Time
}

// Upload is a file received through the upload endpoint, kept until it is
// embedded.
type Upload struct {
	InsightID  string
	Location   string
	FileName   string
	Content    []byte
	UploadedAt time.Time
}

// Document is a file embedded in a vector engine. Size is in bytes.
type Document struct {
	EngineID     string
	FileName     string
	Size         int64
	Content      []byte
	LastModified time.Time
}
