package config

import (
	"fmt"
	"os"
)

// Environment variable names for the account credentials. They are
// normally populated from a .env dotfile loaded by the root command.
const (
	EnvUsername = "CARDFLOW_USERNAME"
	EnvPassword = "CARDFLOW_PASSWORD"
)

// Credentials holds the remote account identifier and secret. The
// secret must never appear in logs; String redacts both fields.
type Credentials struct {
	Username string
	Password string
}

// String implements fmt.Stringer with both fields redacted so that
// accidental logging cannot leak the secret.
func (c Credentials) String() string {
	return "credentials{username:<redacted>, password:<redacted>}"
}

// LoadCredentials reads the credential pair from the environment.
// Both values are required; a missing value is a fatal configuration
// error reported before any browser session starts.
func LoadCredentials() (Credentials, error) {
	username := os.Getenv(EnvUsername)
	password := os.Getenv(EnvPassword)

	if username == "" || password == "" {
		return Credentials{}, fmt.Errorf(
			"missing credentials: set %s and %s in the environment or a .env file",
			EnvUsername, EnvPassword)
	}

	return Credentials{Username: username, Password: password}, nil
}
