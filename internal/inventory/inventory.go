// Package inventory reads and rewrites the YAML inventory consumed by the
// downstream test runner.
//
// Only the fields the provisioner touches are typed. Every other key at any
// level is kept in an inline map and written back unchanged.
package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Group names used by the provisioner.
const (
	GroupDocker = "docker_nodes"
	GroupSSH    = "ssh_nodes"
	GroupWinRM  = "winrm_nodes"
)

// DefaultFile is the inventory path relative to a project directory.
var DefaultFile = filepath.Join("spec", "fixtures", "litmus_inventory.yaml")

// Inventory is the whole inventory document.
type Inventory struct {
	Version int            `yaml:"version,omitempty"`
	Groups  []Group        `yaml:"groups"`
	Extra   map[string]any `yaml:",inline"`
}

// Group is a named list of targets.
type Group struct {
	Name    string         `yaml:"name"`
	Targets []Target       `yaml:"targets"`
	Extra   map[string]any `yaml:",inline"`
}

// Target is one machine in the inventory.
type Target struct {
	URI    string         `yaml:"uri,omitempty"`
	Name   string         `yaml:"name,omitempty"`
	Config *Config        `yaml:"config,omitempty"`
	Facts  map[string]any `yaml:"facts,omitempty"`
	Vars   map[string]any `yaml:"vars,omitempty"`
	Extra  map[string]any `yaml:",inline"`

	// bare is set for targets written as a plain string.
	bare bool
}

// UnmarshalYAML accepts the mapping form and a bare string, which names the
// target.
func (t *Target) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*t = Target{Name: node.Value, bare: true}
		return nil
	}

	type plain Target
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = Target(p)
	return nil
}

// MarshalYAML writes an unchanged bare target back as a string.
func (t Target) MarshalYAML() (any, error) {
	if t.bare && t.URI == "" && t.Config == nil && len(t.Facts) == 0 && len(t.Vars) == 0 && len(t.Extra) == 0 {
		return t.Name, nil
	}

	type plain Target
	return plain(t), nil
}

// Config is a target's connection configuration.
type Config struct {
	Transport string         `yaml:"transport,omitempty"`
	SSH       *SSHConfig     `yaml:"ssh,omitempty"`
	WinRM     *WinRMConfig   `yaml:"winrm,omitempty"`
	Extra     map[string]any `yaml:",inline"`
}

// SSHConfig holds ssh transport options.
type SSHConfig struct {
	User           string         `yaml:"user,omitempty"`
	Password       string         `yaml:"password,omitempty"`
	PrivateKey     string         `yaml:"private-key,omitempty"`
	HostKeyCheck   *bool          `yaml:"host-key-check,omitempty"`
	ConnectTimeout int            `yaml:"connect-timeout,omitempty"`
	Extra          map[string]any `yaml:",inline"`
}

// WinRMConfig holds winrm transport options.
type WinRMConfig struct {
	User           string         `yaml:"user,omitempty"`
	Password       string         `yaml:"password,omitempty"`
	SSL            *bool          `yaml:"ssl,omitempty"`
	ConnectTimeout int            `yaml:"connect-timeout,omitempty"`
	Extra          map[string]any `yaml:",inline"`
}

// ID returns the identifier the target is addressed by: its uri, or its name
// when it has no uri.
func (t *Target) ID() string {
	if t.URI != "" {
		return t.URI
	}
	return t.Name
}

// Fact returns a fact as a string. Missing facts yield "".
func (t *Target) Fact(key string) string {
	v, ok := t.Facts[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// New returns an empty inventory with the default groups.
func New() *Inventory {
	return &Inventory{
		Version: 2,
		Groups: []Group{
			{Name: GroupDocker, Targets: []Target{}},
			{Name: GroupSSH, Targets: []Target{}},
			{Name: GroupWinRM, Targets: []Target{}},
		},
	}
}

// ResolvePath turns a caller-supplied location into the inventory file path.
// A path ending in .yaml or .yml is used as-is; anything else is treated as a
// project directory. An empty location means the working directory.
func ResolvePath(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		location = wd
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".yaml", ".yml":
		return filepath.Clean(location), nil
	}
	return filepath.Join(location, DefaultFile), nil
}

// Load reads the inventory at path. A missing file yields fs.ErrNotExist.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	inv := &Inventory{}
	if err := yaml.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("parse inventory %s: %w", path, err)
	}
	return inv, nil
}

// LoadOrNew reads the inventory at path, or returns a fresh one when the file
// does not exist yet.
func LoadOrNew(path string) (*Inventory, error) {
	inv, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	return inv, err
}

// defaultMode is the permission of a newly created inventory file.
const defaultMode fs.FileMode = 0o644

// Save writes the whole inventory to path. The document is written to a
// temporary file in the same directory and renamed into place, so readers
// never see a partial file. An existing file keeps its permissions.
func Save(path string, inv *Inventory) error {
	mode := defaultMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat inventory %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create inventory directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".inventory-*.yaml")
	if err != nil {
		return fmt.Errorf("create temporary inventory: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	enc := yaml.NewEncoder(tmp)
	enc.SetIndent(2)
	if err := enc.Encode(inv); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode inventory: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode inventory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace inventory %s: %w", path, err)
	}
	return nil
}
