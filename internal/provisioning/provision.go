package provisioning

import (
	"context"
	"strings"
	"time"

	"github.com/imamik/abspool/internal/abs"
	"github.com/imamik/abspool/internal/inventory"
)

const phaseProvision = "provision"

// StatusOK is the status of every successful result.
const StatusOK = "ok"

// ProvisionClient submits a job and waits for its hosts.
type ProvisionClient interface {
	Provision(ctx context.Context, req *abs.ProvisionRequest) ([]abs.ProvisionedHost, error)
}

// ProvisionInput describes one provisioning run.
type ProvisionInput struct {
	Platforms     abs.PlatformSpec
	InventoryPath string
	// Vars is optional YAML attached to every new target.
	Vars string
}

// ProvisionResult is printed on success.
type ProvisionResult struct {
	Status string `json:"status"`
	Nodes  int    `json:"nodes"`
}

// Provisioner runs Built → Submitted → Polling → Provisioned and records the hosts.
type Provisioner struct {
	Builder    *abs.Builder
	Client     ProvisionClient
	Translator *Translator
	Observer   Observer
}

// Provision requests hosts from ABS and records them in the inventory.
// Either every returned host is recorded or the run fails.
func (p *Provisioner) Provision(ctx context.Context, in ProvisionInput) (*ProvisionResult, error) {
	start := time.Now()
	LogPhaseStart(p.Observer, phaseProvision)

	result, err := p.provision(ctx, in)
	if err != nil {
		LogPhaseFailed(p.Observer, phaseProvision, err)
		return nil, err
	}

	LogPhaseComplete(p.Observer, phaseProvision, time.Since(start))
	return result, nil
}

func (p *Provisioner) provision(ctx context.Context, in ProvisionInput) (*ProvisionResult, error) {
	vars, err := ParseVars(in.Vars)
	if err != nil {
		return nil, err
	}

	req, err := p.Builder.Provision(in.Platforms)
	if err != nil {
		return nil, err
	}
	obs := p.Observer.WithFields(map[string]string{"job": req.Job.ID})

	// Read the inventory before submitting so a broken file fails the run
	// before any host is allocated.
	inv, err := inventory.LoadOrNew(in.InventoryPath)
	if err != nil {
		return nil, abs.Wrap(abs.KindFailure, "load inventory", err)
	}

	obs.Event(Event{
		Type:    EventJobSubmitted,
		Phase:   phaseProvision,
		Message: "requesting hosts",
		Fields:  map[string]string{"platforms": strings.Join(in.Platforms.Names(), ",")},
	})
	hosts, err := p.Client.Provision(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, node := range p.Translator.Record(inv, hosts, req.Job.ID, vars) {
		LogNodeRecorded(obs, phaseProvision, node.Hostname, node.Group)
	}

	if err := inventory.Save(in.InventoryPath, inv); err != nil {
		return nil, abs.Wrap(abs.KindFailure, "save inventory", err)
	}

	return &ProvisionResult{Status: StatusOK, Nodes: len(hosts)}, nil
}
