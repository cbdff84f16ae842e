package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultSecretsDir = "/run/secrets"

// ReadSecret reads a Docker secret. The directory defaults to /run/secrets
// and can be overridden with SECRETS_DIR.
func ReadSecret(secretName string) (string, error) {
	dir := os.Getenv("SECRETS_DIR")
	if dir == "" {
		dir = defaultSecretsDir
	}
	filePath := filepath.Join(dir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadOptionalSecret is ReadSecret returning fallback when the file is missing.
func ReadOptionalSecret(secretName, fallback string) string {
	secret, err := ReadSecret(secretName)
	if err != nil {
		return fallback
	}
	return secret
}
