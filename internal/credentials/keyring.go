// Package credentials keeps backend logins in the OS keyring, one entry per
// backend URL.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "procode"

// ErrNotFound indicates that no login is stored for the backend.
var ErrNotFound = errors.New("credentials not found")

// Login is a native username and password.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func account(server string) string {
	return strings.TrimRight(strings.TrimSpace(server), "/")
}

// Save stores l for server, replacing any previous entry.
func Save(server string, l Login) error {
	if account(server) == "" {
		return errors.New("server url required")
	}
	if strings.TrimSpace(l.Username) == "" || l.Password == "" {
		return errors.New("username and password cannot be empty")
	}
	data, err := json.Marshal(Login{Username: strings.TrimSpace(l.Username), Password: l.Password})
	if err != nil {
		return err
	}
	if err := keyring.Set(serviceName, account(server), string(data)); err != nil {
		return fmt.Errorf("store credentials for %s: %w", account(server), err)
	}
	return nil
}

// Load returns the login stored for server.
func Load(server string) (Login, error) {
	secret, err := keyring.Get(serviceName, account(server))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Login{}, ErrNotFound
		}
		return Login{}, fmt.Errorf("read credentials for %s: %w", account(server), err)
	}
	var l Login
	if err := json.Unmarshal([]byte(secret), &l); err != nil {
		return Login{}, fmt.Errorf("decode credentials for %s: %w", account(server), err)
	}
	return l, nil
}

// Delete removes the login stored for server.
func Delete(server string) error {
	if err := keyring.Delete(serviceName, account(server)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete credentials for %s: %w", account(server), err)
	}
	return nil
}
