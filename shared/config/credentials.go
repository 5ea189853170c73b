package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Environment variables that override the credentials file.
const (
	EnvUsername = "LEADSUITE_USERNAME"
	EnvPassword = "LEADSUITE_PASSWORD"
)

// ErrNoCredentials is returned when neither the file nor the environment supplies a login.
var ErrNoCredentials = errors.New("no credentials configured")

// Credentials is the login used by every scenario.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoadCredentials reads the JSON file at path and applies environment overrides.
// A missing file is not an error when both overrides are set.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &creds); err != nil {
				return Credentials{}, fmt.Errorf("failed to parse credentials %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Credentials{}, fmt.Errorf("failed to read credentials %s: %w", path, err)
		}
	}

	if u := os.Getenv(EnvUsername); u != "" {
		creds.Username = u
	}
	if p := os.Getenv(EnvPassword); p != "" {
		creds.Password = p
	}

	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("%w: set username and password in %s or %s/%s", ErrNoCredentials, path, EnvUsername, EnvPassword)
	}
	return creds, nil
}
