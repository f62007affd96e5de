package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// UsesPrivateKey reports whether ssh targets authenticate with a key file.
// A non-empty key path wins over a password.
func (c Credentials) UsesPrivateKey() bool {
	return c.PrivateKey != ""
}

// CheckPrivateKey verifies that path holds a private key ssh can parse.
// Passphrase-protected keys are accepted.
func CheckPrivateKey(path string) error {
	expanded, err := expandHome(path)
	if err != nil {
		return err
	}

	// #nosec G304
	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}

	if _, err := ssh.ParsePrivateKey(data); err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil
		}
		return fmt.Errorf("parse private key %s: %w", path, err)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
