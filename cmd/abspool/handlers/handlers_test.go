package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/imamik/abspool/internal/abs"
	"github.com/imamik/abspool/internal/config"
	"github.com/imamik/abspool/internal/metrics"
)

type instantClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *instantClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *instantClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return nil
}

// fakeABS answers /request with 202 once, then with the configured status.
type fakeABS struct {
	mu         sync.Mutex
	status     int
	hosts      string
	seen       map[string]bool
	calls      int
	released   []abs.TeardownRequest
	returnCode int
}

func (f *fakeABS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	body, _ := io.ReadAll(r.Body)

	switch r.URL.Path {
	case abs.RequestPath:
		var req abs.ProvisionRequest
		_ = json.Unmarshal(body, &req)
		if !f.seen[req.Job.ID] {
			f.seen[req.Job.ID] = true
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.hosts)
	case abs.ReturnPath:
		var req abs.TeardownRequest
		_ = json.Unmarshal(body, &req)
		f.released = append(f.released, req)
		w.WriteHeader(f.returnCode)
	}
}

func (f *fakeABS) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeABS) releases() []abs.TeardownRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]abs.TeardownRequest(nil), f.released...)
}

const centosHosts = `[{"hostname":"abc123.example.com","type":"centos-7-x86_64"}]`

// setupHandlers points the handlers at a fake ABS and captures stdout.
// Tests using it must not run in parallel.
func setupHandlers(t *testing.T, f *fakeABS) *bytes.Buffer {
	t.Helper()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.status == 0 {
		f.status = http.StatusOK
	}
	if f.returnCode == 0 {
		f.returnCode = http.StatusOK
	}
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)

	origLoad, origToken, origClient, origKey := loadConfig, newTokenProvider, newClient, checkPrivateKey
	origIn, origOut, origErr, origConfirm := stdin, stdout, stderr, confirmTeardown
	t.Cleanup(func() {
		loadConfig, newTokenProvider, newClient, checkPrivateKey = origLoad, origToken, origClient, origKey
		stdin, stdout, stderr, confirmTeardown = origIn, origOut, origErr, origConfirm
	})

	loadConfig = func() *config.Config {
		return &config.Config{
			Endpoint:         ts.URL,
			Timeout:          30 * time.Second,
			RetryMaxAttempts: 1,
			BuildURL:         config.ManualBuildURL,
			Requester:        "jdoe",
			Credentials:      config.Credentials{User: "root", Password: "pw"},
		}
	}
	newTokenProvider = func(*config.Config) config.TokenProvider { return config.StaticToken("token") }
	newClient = func(cfg *config.Config, token string, log logr.Logger, rec *metrics.Recorder) absClient {
		return abs.NewClient(cfg.Endpoint, token,
			abs.WithHTTPClient(ts.Client()),
			abs.WithClock(&instantClock{}),
			abs.WithTimeout(cfg.Timeout),
			abs.WithMaxAttempts(cfg.RetryMaxAttempts),
			abs.WithMetrics(rec),
			abs.WithLogger(log))
	}

	out := &bytes.Buffer{}
	stdout = out
	stderr = io.Discard
	return out
}

func assertGolden(t *testing.T, name string, got []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, got)
}

func requireReported(t *testing.T, err error, kind abs.Kind) {
	t.Helper()
	require.Error(t, err)
	require.True(t, IsReported(err), "error must already be on stdout: %v", err)
	require.Equal(t, kind, abs.KindOf(err))
}
