package config

import (
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"
)

const (
	// DefaultHost is the production ABS instance.
	DefaultHost = "abs-prod.k8s.infracore.puppet.net"
	// hostDomain is appended to ABS_SUBDOMAIN.
	hostDomain = "k8s.infracore.puppet.net"

	defaultTimeout          = 600 * time.Second
	defaultRetryMaxAttempts = 3
)

// Lookup returns the value of an environment variable and whether it is set.
type Lookup func(key string) (string, bool)

// Credentials are written into the connection config of recorded targets.
type Credentials struct {
	User       string
	Password   string
	PrivateKey string
}

// Config holds all environment-derived settings of one invocation.
type Config struct {
	// Endpoint is the ABS base URL, without a trailing slash.
	Endpoint string
	// Token overrides the fog file when set (ABS_TOKEN).
	Token string
	// FogFile is the token file path.
	FogFile string
	// Timeout bounds the poll loop of a provisioning job.
	Timeout time.Duration
	// RetryMaxAttempts bounds attempts of one POST that got no response.
	RetryMaxAttempts int

	// CI is true when the CI variable is set; CI jobs get priority 1.
	CI bool
	// BuildURL tags the job with the build that requested it.
	BuildURL string
	// Requester tags the job with who requested it.
	Requester string

	Credentials Credentials

	// MetricsTextfile receives the run's metrics when set.
	MetricsTextfile string
}

// FromEnv loads the configuration from the process environment.
func FromEnv() *Config {
	return Load(os.LookupEnv)
}

// Load resolves the configuration through lookup. Unset or unparsable values
// fall back to defaults.
//
// Environment Variables:
//   - ABS_ENDPOINT: full base URL, wins over ABS_SUBDOMAIN
//   - ABS_SUBDOMAIN: use https://<subdomain>.k8s.infracore.puppet.net
//   - ABS_TOKEN, FOG_RC: auth token, or the fog file to read it from
//   - ABS_TIMEOUT (default: 600 seconds; plain seconds or a Go duration)
//   - ABS_RETRY_MAX_ATTEMPTS (default: 3)
//   - ABS_USER, ABS_PASSWORD, ABS_SSH_PRIVATE_KEY: target credentials
//   - ABS_REQUESTER, USER, USERNAME: requester tag
//   - ABS_METRICS_TEXTFILE: metrics output path
//   - CI and the CI-system variables read by DetectBuildURL
func Load(lookup Lookup) *Config {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	_, ci := lookup("CI")

	return &Config{
		Endpoint:         endpoint(get("ABS_ENDPOINT"), get("ABS_SUBDOMAIN")),
		Token:            get("ABS_TOKEN"),
		FogFile:          fogPath(get("FOG_RC")),
		Timeout:          parseSeconds(get("ABS_TIMEOUT"), defaultTimeout),
		RetryMaxAttempts: parseInt(get("ABS_RETRY_MAX_ATTEMPTS"), defaultRetryMaxAttempts),
		CI:               ci,
		BuildURL:         DetectBuildURL(lookup),
		Requester:        requester(get),
		Credentials: Credentials{
			User:       get("ABS_USER"),
			Password:   get("ABS_PASSWORD"),
			PrivateKey: get("ABS_SSH_PRIVATE_KEY"),
		},
		MetricsTextfile: get("ABS_METRICS_TEXTFILE"),
	}
}

func endpoint(override, subdomain string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	if subdomain != "" {
		return fmt.Sprintf("https://%s.%s", subdomain, hostDomain)
	}
	return "https://" + DefaultHost
}

func requester(get func(string) string) string {
	for _, key := range []string{"ABS_REQUESTER", "USER", "USERNAME"} {
		if v := get(key); v != "" {
			return v
		}
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}
