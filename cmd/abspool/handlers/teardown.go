package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/abspool/internal/abs"
	"github.com/imamik/abspool/internal/provisioning"
)

// TeardownArgs are the arguments of the teardown command.
type TeardownArgs struct {
	Node      string
	Inventory string
	// Confirm asks before releasing anything.
	Confirm bool
}

// confirmTeardown asks the user to approve a plan. Replaced in tests.
var confirmTeardown = func(plan *provisioning.TeardownPlan) (bool, error) {
	description := "No inventory entries will be removed."
	if len(plan.Targets) > 0 {
		description = "Removes from the inventory:\n  " + strings.Join(plan.Targets, "\n  ")
	}

	approved := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Release job %q of %s?", plan.JobID, plan.Node)).
				Description(description).
				Affirmative("Release").
				Negative("Cancel").
				Value(&approved),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return approved, nil
}

// Teardown handles the teardown command.
//
// It releases the ABS job that created the node and removes every inventory
// entry of that job.
func Teardown(ctx context.Context, opts Options, args TeardownArgs) error {
	rt, err := start(opts)
	if err != nil {
		return err
	}
	return rt.finish(rt.teardown(ctx, args.Node, args.Inventory, args.Confirm))
}

func (r *runtime) teardown(ctx context.Context, node, location string, confirm bool) (*provisioning.TeardownResult, error) {
	if strings.TrimSpace(node) == "" {
		return nil, abs.Errorf(abs.KindValidation, "specify a node_name when tearing down")
	}

	path, err := inventoryPath(location)
	if err != nil {
		return nil, err
	}

	client, err := r.client()
	if err != nil {
		return nil, err
	}

	resolver := &provisioning.Resolver{
		Builder:  r.builder(),
		Client:   client,
		Observer: r.observer(),
		Metrics:  r.metrics,
	}
	input := provisioning.TeardownInput{Node: node, InventoryPath: path}
	if !confirm {
		return resolver.Teardown(ctx, input)
	}

	plan, err := resolver.Plan(input.InventoryPath, input.Node)
	if err != nil {
		return nil, err
	}
	approved, err := confirmTeardown(plan)
	if err != nil {
		return nil, abs.Wrap(abs.KindFailure, "confirm teardown", err)
	}
	if !approved {
		return nil, abs.Errorf(abs.KindFailure, "teardown of %s cancelled", node)
	}
	return resolver.Execute(ctx, plan)
}
