package provisioning

import (
	"maps"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imamik/abspool/internal/abs"
	"github.com/imamik/abspool/internal/config"
	"github.com/imamik/abspool/internal/inventory"
	"github.com/imamik/abspool/internal/metrics"
	"github.com/imamik/abspool/internal/util/ptr"
)

// ProvisionerName is recorded in the provisioner fact of every target.
const ProvisionerName = "abs"

// connectTimeout is the transport connect timeout written for new targets, in seconds.
const connectTimeout = 120

// UsesSSH reports whether targets of platform are reached over ssh.
// Windows platforms, named win-<version>-<arch>, use winrm.
func UsesSSH(platform string) bool {
	return !strings.HasPrefix(strings.ToLower(platform), "win-")
}

// ParseVars parses caller-supplied YAML into the vars mapping attached to new
// targets. Blank input yields nil.
func ParseVars(text string) (map[string]any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var vars map[string]any
	if err := yaml.Unmarshal([]byte(text), &vars); err != nil {
		return nil, abs.Wrap(abs.KindValidation, "vars must be a YAML mapping", err)
	}
	return vars, nil
}

// Translator turns provisioned hosts into inventory targets.
type Translator struct {
	creds   config.Credentials
	usesSSH func(platform string) bool
	metrics *metrics.Recorder
}

// NewTranslator creates a translator that writes creds into target configs.
func NewTranslator(creds config.Credentials, rec *metrics.Recorder) *Translator {
	return &Translator{creds: creds, usesSSH: UsesSSH, metrics: rec}
}

// Node builds the target for host and returns it with its group name.
func (t *Translator) Node(host abs.ProvisionedHost, jobID string, vars map[string]any) (inventory.Target, string) {
	target := inventory.Target{
		URI: host.Hostname,
		Facts: map[string]any{
			"provisioner":       ProvisionerName,
			"platform":          host.Type,
			inventory.FactJobID: jobID,
		},
	}
	if vars != nil {
		target.Vars = maps.Clone(vars)
	}

	if t.usesSSH(host.Type) {
		ssh := &inventory.SSHConfig{
			User:           t.creds.User,
			HostKeyCheck:   ptr.To(false),
			ConnectTimeout: connectTimeout,
		}
		if t.creds.UsesPrivateKey() {
			ssh.PrivateKey = t.creds.PrivateKey
		} else {
			ssh.Password = t.creds.Password
		}
		target.Config = &inventory.Config{Transport: "ssh", SSH: ssh}
		return target, inventory.GroupSSH
	}

	target.Config = &inventory.Config{
		Transport: "winrm",
		WinRM: &inventory.WinRMConfig{
			User:           t.creds.User,
			Password:       t.creds.Password,
			SSL:            ptr.To(false),
			ConnectTimeout: connectTimeout,
		},
	}
	return target, inventory.GroupWinRM
}

// RecordedNode names a host added to the inventory and the group it went to.
type RecordedNode struct {
	Hostname string
	Group    string
}

// Record appends a target for every host to inv, in the order ABS returned them.
func (t *Translator) Record(inv *inventory.Inventory, hosts []abs.ProvisionedHost, jobID string, vars map[string]any) []RecordedNode {
	recorded := make([]RecordedNode, 0, len(hosts))
	for _, host := range hosts {
		target, group := t.Node(host, jobID, vars)
		inv.AddTarget(group, target)
		t.metrics.NodeRecorded(group)
		recorded = append(recorded, RecordedNode{Hostname: target.URI, Group: group})
	}
	return recorded
}
