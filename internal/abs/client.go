package abs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/abspool/internal/metrics"
	"github.com/imamik/abspool/internal/util/retry"
)

const (
	// RequestPath accepts and polls provisioning jobs.
	RequestPath = "/api/v2/request"
	// ReturnPath releases the hosts of a job.
	ReturnPath = "/api/v2/return"

	// DefaultTimeout bounds the poll loop of a provisioning job.
	DefaultTimeout = 600 * time.Second

	authHeader       = "X-AUTH-TOKEN"
	maxResponseBytes = 5 << 20
)

// Client talks to the ABS HTTP API.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	clock       Clock
	metrics     *metrics.Recorder
	log         logr.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client (TLS settings, test servers).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets how long a provisioning job may stay pending.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxAttempts sets how often a single POST is attempted when no response
// arrives at all.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		c.maxAttempts = n
	}
}

// WithClock replaces the time source of the poll loop.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithMetrics records every exchange in rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = rec
	}
}

// WithLogger logs polls at V(1).
func WithLogger(log logr.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the ABS instance at baseURL.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		timeout:     DefaultTimeout,
		maxAttempts: 3,
		clock:       realClock{},
		log:         logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the configured poll window.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Provision submits req and waits until ABS hands out the hosts.
//
// The initial POST must be answered with 202. After that the identical
// request is re-sent on the PollDelay schedule: 200 carries the hosts, 404
// means they will never be available, anything else keeps the loop going
// until the deadline passes.
func (c *Client) Provision(ctx context.Context, req *ProvisionRequest) ([]ProvisionedHost, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, Wrap(KindFailure, "encode provisioning request", err)
	}

	start := c.clock.Now()
	deadline := start.Add(c.timeout)
	log := c.log.WithValues("job", req.Job.ID)

	status, body, err := c.post(ctx, RequestPath, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusAccepted {
		return nil, Errorf(KindTransport, "provisioning request for job %s was not accepted (HTTP %d): %s",
			req.Job.ID, status, strings.TrimSpace(string(body)))
	}
	log.V(1).Info("provisioning request accepted")

	for attempt := 1; ; attempt++ {
		remaining := deadline.Sub(c.clock.Now())
		if remaining <= 0 {
			return nil, Errorf(KindTimeout, "timeout: no 200 response for job %s within %d seconds",
				req.Job.ID, int(c.timeout.Seconds()))
		}

		if err := c.clock.Sleep(ctx, min(PollDelay(attempt), remaining)); err != nil {
			return nil, Wrap(KindFailure, "polling interrupted", err)
		}

		c.metrics.PollAttempt()
		status, body, err = c.post(ctx, RequestPath, payload)
		if err != nil {
			return nil, err
		}
		log.V(1).Info("polled job", "attempt", attempt, "status", status)

		switch status {
		case http.StatusOK:
			var hosts []ProvisionedHost
			if err := json.Unmarshal(body, &hosts); err != nil {
				return nil, Wrap(KindFailure, "decode provisioned hosts", err)
			}
			c.metrics.Provisioned(c.clock.Now().Sub(start))
			return hosts, nil
		case http.StatusNotFound:
			return nil, Errorf(KindNotProvisionable, "hosts for job %s will never become available (HTTP 404): %s",
				req.Job.ID, strings.TrimSpace(string(body)))
		}
	}
}

// Return releases the hosts named in req. Only 200 counts as success.
func (c *Client) Return(ctx context.Context, req *TeardownRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return Wrap(KindFailure, "encode return request", err)
	}

	status, body, err := c.post(ctx, ReturnPath, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return Errorf(KindTransport, "returning job %q failed (HTTP %d): %s",
			req.JobID, status, strings.TrimSpace(string(body)))
	}
	return nil
}

// post sends one JSON body. Failures before a response arrives are retried;
// any response, whatever its status, is returned to the caller.
func (c *Client) post(ctx context.Context, path string, payload []byte) (int, []byte, error) {
	endpoint := strings.TrimPrefix(path, "/api/v2/")

	var status int
	var body []byte
	err := retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return retry.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set(authHeader, c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.metrics.Request(endpoint, 0)
			if ctx.Err() != nil {
				return retry.Permanent(err)
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		status = resp.StatusCode
		c.metrics.Request(endpoint, status)

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return retry.Permanent(fmt.Errorf("read response: %w", err))
		}
		return nil
	}, retry.WithMaxAttempts(c.maxAttempts))
	if err != nil {
		return 0, nil, Wrap(KindTransport, fmt.Sprintf("POST %s", path), err)
	}
	return status, body, nil
}
