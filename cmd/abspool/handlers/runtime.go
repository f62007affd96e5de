// Package handlers implements the business logic for CLI commands.
//
// Each handler resolves the environment configuration, runs one operation and
// prints exactly one JSON object on stdout. Progress logs go to stderr.
package handlers

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/imamik/abspool/internal/abs"
	"github.com/imamik/abspool/internal/config"
	"github.com/imamik/abspool/internal/inventory"
	"github.com/imamik/abspool/internal/metrics"
	"github.com/imamik/abspool/internal/provisioning"
)

// Options are the global flags shared by all commands.
type Options struct {
	Format          string
	Verbose         bool
	MetricsTextfile string
}

// absClient is the part of abs.Client the handlers use.
type absClient interface {
	provisioning.ProvisionClient
	provisioning.ReturnClient
}

// Factory function variables - can be replaced in tests.
var (
	loadConfig = config.FromEnv

	newTokenProvider = func(cfg *config.Config) config.TokenProvider {
		return cfg.TokenProvider()
	}

	newClient = func(cfg *config.Config, token string, log logr.Logger, rec *metrics.Recorder) absClient {
		return abs.NewClient(cfg.Endpoint, token,
			abs.WithTimeout(cfg.Timeout),
			abs.WithMaxAttempts(cfg.RetryMaxAttempts),
			abs.WithMetrics(rec),
			abs.WithLogger(log))
	}

	checkPrivateKey = config.CheckPrivateKey

	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// runtime bundles what one command invocation needs.
type runtime struct {
	cfg      *config.Config
	log      logr.Logger
	metrics  *metrics.Recorder
	out      *output
	textfile string
}

func newRuntime(opts Options) (*runtime, error) {
	out, err := newOutput(stdout, opts.Format)
	if err != nil {
		return nil, err
	}

	cfg := loadConfig()
	textfile := opts.MetricsTextfile
	if textfile == "" {
		textfile = cfg.MetricsTextfile
	}

	return &runtime{
		cfg:      cfg,
		log:      newLogger(stderr, opts.Verbose),
		metrics:  metrics.NewRecorder(),
		out:      out,
		textfile: textfile,
	}, nil
}

func newLogger(w io.Writer, verbose bool) logr.Logger {
	verbosity := 0
	if verbose {
		verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity}).WithName("abspool")
}

func (r *runtime) observer() provisioning.Observer {
	return provisioning.NewLogObserver(r.log)
}

func (r *runtime) builder() *abs.Builder {
	return abs.NewBuilder(abs.BuildConfig{
		Requester: r.cfg.Requester,
		BuildURL:  r.cfg.BuildURL,
		CI:        r.cfg.CI,
	})
}

func (r *runtime) client() (absClient, error) {
	token, err := newTokenProvider(r.cfg).Token("abs")
	if err != nil {
		return nil, abs.Wrap(abs.KindFailure, "resolve ABS token", err)
	}
	return newClient(r.cfg, token, r.log, r.metrics), nil
}

// finish prints the outcome and flushes metrics.
func (r *runtime) finish(result any, err error) error {
	if werr := r.metrics.WriteTextfile(r.textfile); werr != nil {
		r.log.Error(werr, "writing metrics textfile failed", "path", r.textfile)
	}
	if err != nil {
		return r.out.fail(err)
	}
	if err := r.out.result(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// start prepares a runtime or reports why it could not.
func start(opts Options) (*runtime, error) {
	rt, err := newRuntime(opts)
	if err != nil {
		WriteError(stdout, err)
		return nil, &reportedError{err: err}
	}
	return rt, nil
}

func inventoryPath(location string) (string, error) {
	path, err := inventory.ResolvePath(location)
	if err != nil {
		return "", abs.Wrap(abs.KindFailure, "resolve inventory location", err)
	}
	return path, nil
}
