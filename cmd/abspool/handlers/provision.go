package handlers

import (
	"context"

	"github.com/imamik/abspool/internal/abs"
	"github.com/imamik/abspool/internal/provisioning"
)

// ProvisionArgs are the arguments of the provision command.
type ProvisionArgs struct {
	// Platforms are "name" or "name=count" entries.
	Platforms []string
	Inventory string
	Vars      string
}

// Provision handles the provision command.
//
// It requests hosts from ABS, waits until they are allocated and records them
// in the inventory.
func Provision(ctx context.Context, opts Options, args ProvisionArgs) error {
	rt, err := start(opts)
	if err != nil {
		return err
	}

	platforms, err := abs.ParsePlatformArgs(args.Platforms)
	if err != nil {
		return rt.finish(nil, err)
	}
	return rt.finish(rt.provision(ctx, platforms, args.Inventory, args.Vars))
}

func (r *runtime) provision(ctx context.Context, platforms abs.PlatformSpec, location, vars string) (*provisioning.ProvisionResult, error) {
	if len(platforms) == 0 {
		return nil, abs.Errorf(abs.KindValidation, "specify a platform when provisioning")
	}
	if _, err := provisioning.ParseVars(vars); err != nil {
		return nil, err
	}

	path, err := inventoryPath(location)
	if err != nil {
		return nil, err
	}
	r.checkCredentials()

	client, err := r.client()
	if err != nil {
		return nil, err
	}

	p := &provisioning.Provisioner{
		Builder:    r.builder(),
		Client:     client,
		Translator: provisioning.NewTranslator(r.cfg.Credentials, r.metrics),
		Observer:   r.observer(),
	}
	return p.Provision(ctx, provisioning.ProvisionInput{
		Platforms:     platforms,
		InventoryPath: path,
		Vars:          vars,
	})
}

// checkCredentials warns when the configured private key cannot be used.
// The key is still recorded; the test runner reports the real failure.
func (r *runtime) checkCredentials() {
	creds := r.cfg.Credentials
	if !creds.UsesPrivateKey() {
		return
	}
	if err := checkPrivateKey(creds.PrivateKey); err != nil {
		r.log.Error(err, "ssh private key looks unusable", "path", creds.PrivateKey)
	}
}
