package handlers

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/abspool/internal/abs"
	"github.com/imamik/abspool/internal/inventory"
)

func TestTaskParams_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		params  TaskParams
		wantErr string
	}{
		{
			name:   "provision",
			params: TaskParams{Action: ActionProvision, Platform: abs.Single("centos-7-x86_64")},
		},
		{
			name:   "tear down",
			params: TaskParams{Action: ActionTearDown, NodeName: "a.example.com"},
		},
		{
			name:    "tear down without node",
			params:  TaskParams{Action: ActionTearDown},
			wantErr: "specify a node_name when tearing down",
		},
		{
			name:    "provision without platform",
			params:  TaskParams{Action: ActionProvision},
			wantErr: "specify a platform when provisioning",
		},
		{
			name:    "tear down with platform",
			params:  TaskParams{Action: ActionTearDown, NodeName: "a", Platform: abs.Single("centos-7-x86_64")},
			wantErr: "specify only a node_name, not platform, when tearing down",
		},
		{
			name:    "provision with node",
			params:  TaskParams{Action: ActionProvision, NodeName: "a", Platform: abs.Single("centos-7-x86_64")},
			wantErr: "specify only a platform, not node_name, when provisioning",
		},
		{
			name:    "unknown action",
			params:  TaskParams{Action: "reboot"},
			wantErr: "unknown action",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.params.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, abs.IsKind(err, abs.KindValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadTaskParams(t *testing.T) {
	t.Parallel()

	params, err := ReadTaskParams(strings.NewReader(`{"action":"provision","platform":"centos-7-x86_64","inventory":"/work"}`))
	require.NoError(t, err)
	assert.Equal(t, &TaskParams{Action: "provision", Platform: abs.PlatformSpec{"centos-7-x86_64": 1}, Inventory: "/work"}, params)

	params, err = ReadTaskParams(strings.NewReader("action: provision\nplatform:\n  centos-7-x86_64: 2\nvars:\n  role: agent\n"))
	require.NoError(t, err)
	assert.Equal(t, abs.PlatformSpec{"centos-7-x86_64": 2}, params.Platform)
	assert.JSONEq(t, `{"role":"agent"}`, string(params.Vars))

	params, err = ReadTaskParams(strings.NewReader(`{"action":"provision","platform":"x","vars":"role: agent"}`))
	require.NoError(t, err)
	assert.Equal(t, VarsText("role: agent"), params.Vars)

	params, err = ReadTaskParams(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, params.Action)

	_, err = ReadTaskParams(strings.NewReader(`{"action": [`))
	require.Error(t, err)
	assert.True(t, abs.IsKind(err, abs.KindValidation))
}

func TestTask_Provision(t *testing.T) {
	f := &fakeABS{hosts: centosHosts}
	out := setupHandlers(t, f)
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	stdin = strings.NewReader(`{"action":"provision","platform":"centos-7-x86_64","inventory":"` + path + `","vars":{"role":"agent"}}`)

	err := Task(context.Background(), Options{})
	require.NoError(t, err)
	assertGolden(t, "provision_ok", out.Bytes())

	inv, err := inventory.Load(path)
	require.NoError(t, err)
	node, err := inv.Find("abc123.example.com")
	require.NoError(t, err)
	assert.Equal(t, "agent", node.Vars["role"])
}

func TestTask_TearDown(t *testing.T) {
	f := &fakeABS{}
	out := setupHandlers(t, f)
	path := writeInventory(t)
	stdin = strings.NewReader("action: tear_down\nnode_name: a.example.com\ninventory: " + path + "\n")

	err := Task(context.Background(), Options{})
	require.NoError(t, err)
	assertGolden(t, "teardown_ok", out.Bytes())
}

func TestTask_ContradictoryParams(t *testing.T) {
	f := &fakeABS{}
	out := setupHandlers(t, f)
	stdin = strings.NewReader(`{"action":"tear_down","node_name":"a.example.com","platform":"centos-7-x86_64"}`)

	err := Task(context.Background(), Options{})
	requireReported(t, err, abs.KindValidation)
	assertGolden(t, "task_contradictory", out.Bytes())
	assert.Zero(t, f.callCount())
}

func TestTask_UnknownAction(t *testing.T) {
	f := &fakeABS{}
	out := setupHandlers(t, f)
	stdin = strings.NewReader(`{"action":"reboot"}`)

	err := Task(context.Background(), Options{})
	requireReported(t, err, abs.KindValidation)
	assertGolden(t, "task_unknown_action", out.Bytes())
}
