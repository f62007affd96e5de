package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoToken is returned when no token is configured for a service.
var ErrNoToken = errors.New("no auth token configured")

// TokenProvider supplies the auth token of a named service profile.
type TokenProvider interface {
	Token(service string) (string, error)
}

// FogFile reads tokens from a fog credentials file:
//
//	:default:
//	  :abs_token: 0123abcd
type FogFile struct {
	Path string
}

// Token returns the <service>_token entry of the default section.
func (f FogFile) Token(service string) (string, error) {
	// #nosec G304
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read fog file: %w", err)
	}

	var sections map[string]map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return "", fmt.Errorf("parse fog file %s: %w", f.Path, err)
	}

	section := sections[":default"]
	if section == nil {
		section = sections["default"]
	}

	key := service + "_token"
	for _, k := range []string{":" + key, key} {
		if v, ok := section[k]; ok && v != nil {
			if token := strings.TrimSpace(fmt.Sprint(v)); token != "" {
				return token, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s has no %s entry in its default section", ErrNoToken, f.Path, key)
}

// StaticToken always returns the same token.
type StaticToken string

// Token implements TokenProvider.
func (s StaticToken) Token(string) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// TokenProvider returns the provider selected by the configuration: ABS_TOKEN
// when set, the fog file otherwise.
func (c *Config) TokenProvider() TokenProvider {
	if c.Token != "" {
		return StaticToken(c.Token)
	}
	return FogFile{Path: c.FogFile}
}

func fogPath(override string) string {
	if override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fog"
	}
	return filepath.Join(home, ".fog")
}
