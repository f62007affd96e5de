package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	t.Parallel()
	r := NewRecorder()

	r.Request("request", 202)
	r.Request("request", 200)
	r.Request("request", 200)
	r.Request("return", 0)
	r.PollAttempt()
	r.PollAttempt()
	r.NodeRecorded("ssh_nodes")
	r.NodesRemoved(3)
	r.Provisioned(4 * time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.requests.WithLabelValues("request", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("request", "202")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("return", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.pollAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.nodesProvisioned.WithLabelValues("ssh_nodes")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.nodesRemoved))
	assert.Equal(t, 1, testutil.CollectAndCount(r.provisionDuration))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()
	var r *Recorder

	assert.NotPanics(t, func() {
		r.Request("request", 500)
		r.PollAttempt()
		r.Provisioned(time.Second)
		r.NodeRecorded("winrm_nodes")
		r.NodesRemoved(1)
	})
	assert.NoError(t, r.WriteTextfile("/nonexistent/abs.prom"))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	r.Request("return", 200)

	path := filepath.Join(t.TempDir(), "abs.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `abs_requests_total{code="200",endpoint="return"} 1`), string(data))
}

func TestRecorder_WriteTextfileEmptyPath(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewRecorder().WriteTextfile(""))
}
