package provisioning

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/imamik/abspool/internal/abs"
	"github.com/imamik/abspool/internal/inventory"
	"github.com/imamik/abspool/internal/metrics"
)

const phaseTeardown = "teardown"

// ReturnClient releases a job's hosts back to ABS.
type ReturnClient interface {
	Return(ctx context.Context, req *abs.TeardownRequest) error
}

// TeardownInput describes one teardown run.
type TeardownInput struct {
	Node          string
	InventoryPath string
}

// TeardownResult is printed on success. Removed is never nil.
type TeardownResult struct {
	Status  string   `json:"status"`
	Removed []string `json:"removed"`
}

// TeardownPlan is what a teardown will release and remove.
type TeardownPlan struct {
	Node     string
	JobID    string
	Platform string
	// Targets are the inventory entries removed after the release succeeds.
	Targets []string

	path string
	inv  *inventory.Inventory
}

// Resolver releases hosts and prunes them from the inventory.
type Resolver struct {
	Builder  *abs.Builder
	Client   ReturnClient
	Observer Observer
	Metrics  *metrics.Recorder
}

// Plan looks node up in the inventory at path. A missing inventory yields a
// plan with no job and nothing to remove.
func (r *Resolver) Plan(path, node string) (*TeardownPlan, error) {
	plan := &TeardownPlan{Node: node, Targets: []string{}, path: path}

	inv, err := inventory.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return plan, nil
	}
	if err != nil {
		return nil, abs.Wrap(abs.KindFailure, "load inventory", err)
	}

	target, err := inv.Find(node)
	if err != nil {
		return nil, abs.Wrap(abs.KindLookup, "look up node in "+path, err)
	}

	plan.inv = inv
	plan.JobID = target.Fact(inventory.FactJobID)
	plan.Platform = target.Fact("platform")
	if plan.JobID == "" {
		plan.Targets = []string{target.ID()}
	} else {
		plan.Targets = inv.IndexByJob().Targets(plan.JobID)
	}
	return plan, nil
}

// Execute releases the plan's job and removes its targets from the inventory.
// The inventory is only rewritten after ABS accepted the release.
func (r *Resolver) Execute(ctx context.Context, plan *TeardownPlan) (*TeardownResult, error) {
	start := time.Now()
	LogPhaseStart(r.Observer, phaseTeardown)

	result, err := r.execute(ctx, plan)
	if err != nil {
		LogPhaseFailed(r.Observer, phaseTeardown, err)
		return nil, err
	}

	LogPhaseComplete(r.Observer, phaseTeardown, time.Since(start))
	return result, nil
}

func (r *Resolver) execute(ctx context.Context, plan *TeardownPlan) (*TeardownResult, error) {
	obs := r.Observer.WithFields(map[string]string{"job": plan.JobID})

	req := r.Builder.Teardown(plan.JobID, plan.Node, plan.Platform)
	if err := r.Client.Return(ctx, req); err != nil {
		return nil, err
	}
	obs.Event(Event{
		Type:     EventJobReleased,
		Phase:    phaseTeardown,
		Resource: plan.Node,
		Message:  "hosts released",
	})

	if plan.inv == nil {
		return &TeardownResult{Status: StatusOK, Removed: []string{}}, nil
	}

	removed := plan.inv.RemoveTargets(plan.Targets...)
	if err := inventory.Save(plan.path, plan.inv); err != nil {
		return nil, abs.Wrap(abs.KindFailure, "save inventory", err)
	}
	r.Metrics.NodesRemoved(removed)
	for _, id := range plan.Targets {
		LogNodeRemoved(obs, phaseTeardown, id)
	}

	return &TeardownResult{Status: StatusOK, Removed: append([]string{}, plan.Targets...)}, nil
}

// Teardown releases the job that created node and removes all of that job's
// targets from the inventory.
func (r *Resolver) Teardown(ctx context.Context, in TeardownInput) (*TeardownResult, error) {
	plan, err := r.Plan(in.InventoryPath, in.Node)
	if err != nil {
		LogPhaseFailed(r.Observer, phaseTeardown, err)
		return nil, err
	}
	return r.Execute(ctx, plan)
}
