package handlers

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/imamik/abspool/internal/abs"
)

// Task actions.
const (
	ActionProvision = "provision"
	ActionTearDown  = "tear_down"
)

// TaskParams are the parameters a task runner passes on stdin, as JSON or YAML.
type TaskParams struct {
	Action    string           `json:"action"`
	Platform  abs.PlatformSpec `json:"platform,omitempty"`
	NodeName  string           `json:"node_name,omitempty"`
	Inventory string           `json:"inventory,omitempty"`
	Vars      VarsText         `json:"vars,omitempty"`
}

// VarsText is YAML text for target vars. A structured value is kept as its
// JSON encoding, which is valid YAML.
type VarsText string

// UnmarshalJSON accepts a string or any JSON value.
func (v *VarsText) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*v = VarsText(text)
		return nil
	}
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}
	*v = VarsText(data)
	return nil
}

// Validate checks that exactly one of the two argument modes is used.
func (p *TaskParams) Validate() error {
	switch p.Action {
	case ActionTearDown:
		if p.NodeName == "" {
			return abs.Errorf(abs.KindValidation, "specify a node_name when tearing down")
		}
		if len(p.Platform) > 0 {
			return abs.Errorf(abs.KindValidation, "specify only a node_name, not platform, when tearing down")
		}
	case ActionProvision:
		if len(p.Platform) == 0 {
			return abs.Errorf(abs.KindValidation, "specify a platform when provisioning")
		}
		if p.NodeName != "" {
			return abs.Errorf(abs.KindValidation, "specify only a platform, not node_name, when provisioning")
		}
	default:
		return abs.Errorf(abs.KindValidation, "unknown action %q: expected %s or %s", p.Action, ActionProvision, ActionTearDown)
	}
	return nil
}

// ReadTaskParams decodes task parameters from r.
func ReadTaskParams(r io.Reader) (*TaskParams, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, abs.Wrap(abs.KindFailure, "read task parameters", err)
	}

	params := &TaskParams{}
	if strings.TrimSpace(string(data)) == "" {
		return params, nil
	}
	if err := yaml.Unmarshal(data, params); err != nil {
		return nil, abs.Wrap(abs.KindValidation, "parse task parameters", err)
	}
	return params, nil
}

// Task handles the task command: one provision or tear_down driven by
// parameters on stdin.
func Task(ctx context.Context, opts Options) error {
	rt, err := start(opts)
	if err != nil {
		return err
	}

	params, err := ReadTaskParams(stdin)
	if err != nil {
		return rt.finish(nil, err)
	}
	if err := params.Validate(); err != nil {
		return rt.finish(nil, err)
	}

	if params.Action == ActionProvision {
		return rt.finish(rt.provision(ctx, params.Platform, params.Inventory, string(params.Vars)))
	}
	return rt.finish(rt.teardown(ctx, params.NodeName, params.Inventory, false))
}
