package abs

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Engine is the pooling backend named in every release record.
const Engine = "vmpooler"

// Priorities understood by ABS. CI jobs jump the manual queue.
const (
	PriorityCI     = 1
	PriorityManual = 2
)

// PlatformSpec maps a platform name to the number of hosts requested.
//
// It decodes from either a bare platform string, meaning one host, or an
// explicit mapping which is kept as given.
type PlatformSpec map[string]int

// UnmarshalJSON accepts "centos-7-x86_64" as well as {"centos-7-x86_64": 2}.
func (p *PlatformSpec) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = Single(name)
		return nil
	}

	var counts map[string]int
	if err := json.Unmarshal(data, &counts); err != nil {
		return fmt.Errorf("platform must be a name or a mapping of name to count: %w", err)
	}
	*p = counts
	return nil
}

// Single returns a PlatformSpec for one host of the given platform.
func Single(platform string) PlatformSpec {
	return PlatformSpec{platform: 1}
}

// ParsePlatformArgs parses command-line platform arguments of the form
// "name" or "name=count". A lone bare name yields a count of 1.
func ParsePlatformArgs(args []string) (PlatformSpec, error) {
	spec := PlatformSpec{}
	for _, arg := range args {
		name, count, hasCount := strings.Cut(strings.TrimSpace(arg), "=")
		if name == "" {
			return nil, Errorf(KindValidation, "invalid platform %q: empty name", arg)
		}
		n := 1
		if hasCount {
			parsed, err := strconv.Atoi(count)
			if err != nil || parsed < 1 {
				return nil, Errorf(KindValidation, "invalid platform %q: count must be a positive integer", arg)
			}
			n = parsed
		}
		spec[name] += n
	}
	return spec, nil
}

// Names returns the requested platform names in sorted order.
func (p PlatformSpec) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProvisionRequest is the body of POST /api/v2/request.
// The same value is re-sent on every poll.
type ProvisionRequest struct {
	Resources PlatformSpec `json:"resources"`
	Priority  int          `json:"priority"`
	Job       Job          `json:"job"`
}

// Job identifies one provisioning request.
type Job struct {
	ID   string            `json:"id"`
	Tags map[string]string `json:"tags"`
}

// ProvisionedHost is one entry of the array ABS returns once a job is filled.
type ProvisionedHost struct {
	Hostname string `json:"hostname"`
	Type     string `json:"type"`
}

// TeardownRequest is the body of POST /api/v2/return.
type TeardownRequest struct {
	JobID string       `json:"job_id"`
	Hosts []ReturnHost `json:"hosts"`
}

// ReturnHost names one host being released.
type ReturnHost struct {
	Hostname string `json:"hostname"`
	Type     string `json:"type"`
	Engine   string `json:"engine"`
}

// BuildConfig carries the environment-derived request inputs.
type BuildConfig struct {
	Requester string
	BuildURL  string
	CI        bool
}

// Builder constructs request payloads.
type Builder struct {
	cfg   BuildConfig
	jobID func() string
}

// NewBuilder creates a builder that stamps requests with cfg.
func NewBuilder(cfg BuildConfig) *Builder {
	return &Builder{cfg: cfg, jobID: NewJobID}
}

// Provision builds a provisioning request with a fresh job id.
func (b *Builder) Provision(platforms PlatformSpec) (*ProvisionRequest, error) {
	if len(platforms) == 0 {
		return nil, Errorf(KindValidation, "specify a platform when provisioning")
	}
	for name := range platforms {
		if strings.TrimSpace(name) == "" {
			return nil, Errorf(KindValidation, "platform name must not be empty")
		}
	}

	priority := PriorityManual
	if b.cfg.CI {
		priority = PriorityCI
	}

	return &ProvisionRequest{
		Resources: maps.Clone(platforms),
		Priority:  priority,
		Job: Job{
			ID: b.jobID(),
			Tags: map[string]string{
				"user":              b.cfg.Requester,
				"jenkins_build_url": b.cfg.BuildURL,
			},
		},
	}, nil
}

// Teardown builds the release payload for one representative host of a job.
func (b *Builder) Teardown(jobID, hostname, platform string) *TeardownRequest {
	return &TeardownRequest{
		JobID: jobID,
		Hosts: []ReturnHost{{Hostname: hostname, Type: platform, Engine: Engine}},
	}
}

var jobSeq atomic.Uint64

// NewJobID returns an id unique to this process and call: the pid, the wall
// clock in milliseconds and a per-process sequence number.
func NewJobID() string {
	return fmt.Sprintf("iac-task-pid-%d-%d-%d", os.Getpid(), time.Now().UnixMilli(), jobSeq.Add(1))
}
