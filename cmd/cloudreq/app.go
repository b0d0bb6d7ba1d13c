package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/kbukum/cloudreq/config"
	"github.com/kbukum/cloudreq/httpclient"
	"github.com/kbukum/cloudreq/logger"
	"github.com/kbukum/cloudreq/observability"
	"github.com/kbukum/cloudreq/request"
	"github.com/kbukum/cloudreq/token"
	"github.com/kbukum/cloudreq/version"
)

const serviceName = "cloudreq"

var errUsage = errors.New("usage")

type app struct {
	cfg    *config.Config
	client *request.Client
	tokens *token.Manager
	stdout io.Writer
	stderr io.Writer

	shutdown []func(context.Context) error
}

func usage(fs *pflag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `Usage: cloudreq [flags] <command> [args]

Commands:
  get <path>               Send a GET request and print the body
  download <path>          Stream a resource to a file (-o) or stdout
  login <token>            Store an API token
  whoami                   Refresh the token and print its claims
  version                  Print build information

Flags:
%s`, fs.FlagUsages())
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "config file (default: search ./config.yml and the user config dir)")
	envFile := fs.String("env-file", "", ".env file to load")
	fs.String("api-url", "", "base URL of the API")
	fs.String("token-file", "", "file the token is stored in")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Bool("http2", false, "force HTTP/2")
	fs.Bool("tracing", false, "export traces and metrics over OTLP")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if fs.NArg() == 0 {
		usage(fs, stderr)
		return errUsage
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	if cmd == "version" {
		v := version.GetVersionInfo()
		fmt.Fprintf(stdout, "%s %s (commit %s, built %s, %s)\n", serviceName, v.Version, v.GitCommit, v.BuildTime, v.GoVersion)
		return nil
	}

	opts := []config.LoaderOption{
		config.WithFlag(config.KeyAPIURL, fs.Lookup("api-url")),
		config.WithFlag("token.file", fs.Lookup("token-file")),
		config.WithFlag("logging.level", fs.Lookup("log-level")),
		config.WithFlag("http2", fs.Lookup("http2")),
		config.WithFlag("tracing.enabled", fs.Lookup("tracing")),
	}
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}

	a, err := newApp(ctx, opts, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd {
	case "get":
		return a.get(ctx, cmdArgs)
	case "download":
		return a.download(ctx, cmdArgs)
	case "login":
		return a.login(ctx, cmdArgs)
	case "whoami":
		return a.whoami(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(fs, stderr)
		return errUsage
	}
}

func newApp(ctx context.Context, opts []config.LoaderOption, stdout, stderr io.Writer) (*app, error) {
	cfg, settings, err := config.Load(serviceName, opts...)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	log := logger.NewWithWriter(&logCfg, serviceName, stderr)
	logger.SetGlobalLogger(log)

	a := &app{cfg: cfg, stdout: stdout, stderr: stderr}
	if err := a.wire(ctx, settings, log); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// startTelemetry is swapped in tests.
var startTelemetry = (*app).initTelemetry

func (a *app) wire(ctx context.Context, settings *config.Settings, log *logger.Logger) error {
	cfg := a.cfg

	var (
		metrics *observability.Metrics
		err     error
	)
	if cfg.Tracing.Enabled {
		if metrics, err = startTelemetry(a, ctx); err != nil {
			return err
		}
	}

	transport, err := httpclient.New(cfg.Config)
	if err != nil {
		return err
	}

	var backend token.Backend = token.NewMemoryBackend()
	if cfg.Token.File != "" {
		var fileOpts []token.FileOption
		if cfg.Token.Key != "" {
			fileOpts = append(fileOpts, token.WithEncryptionKey(cfg.Token.Key))
		}
		if backend, err = token.NewFileBackend(cfg.Token.File, fileOpts...); err != nil {
			return err
		}
	}
	a.tokens = token.NewManager(backend, token.WithRefreshInterval(cfg.Token.RefreshInterval))

	a.client = request.New(transport, settings, a.tokens,
		request.WithLogger(log.WithComponent("request")),
		request.WithMetrics(metrics),
		request.WithWhoamiPath(cfg.WhoamiPath),
	)
	return nil
}

func (a *app) initTelemetry(ctx context.Context) (*observability.Metrics, error) {
	tp, err := observability.InitTracer(ctx, a.cfg.Tracing.Tracer(serviceName, version.Version))
	if err != nil {
		return nil, err
	}
	a.shutdown = append(a.shutdown, tp.Shutdown)

	mp, err := observability.InitMeter(ctx, a.cfg.Tracing.Meter(serviceName, version.Version))
	if err != nil {
		return nil, err
	}
	a.shutdown = append(a.shutdown, mp.Shutdown)

	return observability.NewMetrics(observability.Meter())
}

func (a *app) close() {
	fns := a.shutdown
	a.shutdown = nil
	for _, fn := range fns {
		if err := fn(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}
}
