// Package settings stores the credentials used to reach the object store.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrIncompleteCredentials is returned when a required credential is empty.
var ErrIncompleteCredentials = errors.New("AWS credentials and region must be set in the settings")

// Settings holds the access parameters of the object store.
type Settings struct {
	AccessKeyID     string `json:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"AWS_ACCESS_SECRET_KEY"`
	SessionToken    string `json:"AWS_SESSION_TOKEN"`
	Region          string `json:"AWS_REGION"`
}

// Store loads and persists Settings.
type Store interface {
	Load() (Settings, error)
	Save(s Settings) error
}

// Validate returns ErrIncompleteCredentials listing every missing field.
func (s Settings) Validate() error {
	var missing []string
	if s.AccessKeyID == "" {
		missing = append(missing, "access key id")
	}
	if s.SecretAccessKey == "" {
		missing = append(missing, "secret access key")
	}
	if s.SessionToken == "" {
		missing = append(missing, "session token")
	}
	if s.Region == "" {
		missing = append(missing, "region")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Merge returns s with every non-empty field of override applied.
func (s Settings) Merge(override Settings) Settings {
	if override.AccessKeyID != "" {
		s.AccessKeyID = override.AccessKeyID
	}
	if override.SecretAccessKey != "" {
		s.SecretAccessKey = override.SecretAccessKey
	}
	if override.SessionToken != "" {
		s.SessionToken = override.SessionToken
	}
	if override.Region != "" {
		s.Region = override.Region
	}
	return s
}

// Masked returns a copy safe to print: secrets keep their last 4 characters.
func (s Settings) Masked() Settings {
	s.SecretAccessKey = mask(s.SecretAccessKey)
	s.SessionToken = mask(s.SessionToken)
	return s
}

// EnvSettings reads the standard AWS environment variables.
func EnvSettings() Settings {
	return Settings{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Region:          os.Getenv("AWS_REGION"),
	}
}

func mask(v string) string {
	const visible = 4
	if v == "" {
		return ""
	}
	if len(v) <= visible {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-visible) + v[len(v)-visible:]
}
