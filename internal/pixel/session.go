package pixel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// File is one file to upload.
type File struct {
	Name    string
	Content io.Reader
}

// FileFromPath reads a local file into a File named after its base name.
func FileFromPath(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Content: bytes.NewReader(data)}, nil
}

// Upload stores files in the insight's space under path (may be empty).
func (c *Client) Upload(ctx context.Context, path string, files ...File) ([]UploadedFile, error) {
	if len(files) == 0 {
		return nil, nil
	}
	insight, err := c.Open(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("file", filepath.Base(f.Name))
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("buffer %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	query := url.Values{"insightId": {insight}}
	if path != "" {
		query.Set("path", path)
	}
	body, err := c.send(ctx, http.MethodPost, uploadPath, query, mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	var out []UploadedFile
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return out, nil
}

// Login starts a session with native credentials and returns the user.
func (c *Client) Login(ctx context.Context, username, password string) (User, error) {
	form := url.Values{"username": {username}, "password": {password}}
	if _, err := c.send(ctx, http.MethodPost, loginPath, nil, formContentType, []byte(form.Encode())); err != nil {
		return User{}, fmt.Errorf("login: %w", err)
	}
	return c.UserInfo(ctx)
}

// UserInfo returns the user behind the current session, or ErrUnauthorized.
func (c *Client) UserInfo(ctx context.Context) (User, error) {
	body, err := c.send(ctx, http.MethodGet, userPath, nil, "", nil)
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	if u.Name == "" && u.ID == "" {
		return User{}, ErrUnauthorized
	}
	return u, nil
}

// Logout ends the session and forgets the insight.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.send(ctx, http.MethodGet, logoutPath, nil, "", nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.mu.Lock()
	c.insight = ""
	c.mu.Unlock()
	return nil
}
