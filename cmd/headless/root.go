package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/GriffinCanCode/headless/internal/conversation"
	"github.com/GriffinCanCode/headless/internal/cookies"
	"github.com/GriffinCanCode/headless/internal/infrastructure/config"
	"github.com/GriffinCanCode/headless/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/headless/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/headless/internal/logging"
	"github.com/GriffinCanCode/headless/internal/shared/paths"
	"github.com/GriffinCanCode/headless/internal/transport"
	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

type globalFlags struct {
	configPath string
	harPath    string
	harBody    int
	metrics    bool
	verbose    bool
	trace      bool
	insecure   bool
	strict     bool
}

// session is everything one command invocation shares
type session struct {
	cfg      *config.Config
	logger   *logging.Logger
	conv     *conversation.WebConversation
	store    *cookies.Store
	recorder *conversation.Recorder
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer

	flags  *globalFlags
	stderr io.Writer

	// transport overrides the HTTP client in tests
	transport transport.Transport
}

func newRootCmd(s *session) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "headless",
		Short: "Drive web pages without a browser",
		Long: `headless fetches pages, fills in and submits their forms and keeps
cookies between requests the way a browser does, validating every form
change against what the page allows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			s.flags, s.stderr = flags, cmd.ErrOrStderr()
			return s.open(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML or TOML configuration file")
	pf.StringVar(&flags.harPath, "har", "", "Record every exchange to this HAR file")
	pf.IntVar(&flags.harBody, "har-body-limit", conversation.DefaultMaxBodySize, "Request body bytes kept per HAR entry")
	pf.BoolVar(&flags.metrics, "metrics", false, "Print exchange metrics on exit")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&flags.trace, "trace", false, "Log a timed span for every exchange (implies --verbose)")
	pf.BoolVarP(&flags.insecure, "insecure", "k", false, "Skip TLS certificate verification")
	pf.BoolVar(&flags.strict, "strict", false, "Fail on 404 and 5xx responses")

	root.AddCommand(
		newFetchCmd(s),
		newFormsCmd(s),
		newSubmitCmd(s),
		newCookiesCmd(s),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads path, or the user's config file when path is empty
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		found, ok := paths.ConfigFile()
		if !ok {
			return config.Load()
		}
		path = found
	}
	return config.LoadFile(paths.Expand(path))
}

func (s *session) open(ctx context.Context, flags *globalFlags) error {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.insecure {
		cfg.Transport.InsecureSkipVerify = true
	}
	if flags.strict {
		cfg.Conversation.StrictStatus = true
	}
	s.cfg = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	logCfg.File = cfg.Logging.File
	if flags.verbose || flags.trace {
		logCfg.Level = "debug"
	}
	if s.logger, err = logging.New(logCfg); err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	if s.transport == nil {
		s.transport = transport.New(transport.Config{
			Timeout:            cfg.Transport.Timeout,
			RateLimit:          cfg.Transport.RateLimit,
			Burst:              cfg.Transport.Burst,
			UserAgent:          cfg.Conversation.UserAgent,
			InsecureSkipVerify: cfg.Transport.InsecureSkipVerify,
			BreakerFailures:    cfg.Transport.BreakerFailures,
			BreakerTimeout:     cfg.Transport.BreakerTimeout,
		}, s.logger.Logger)
	}

	s.metrics = monitoring.NewMetrics(prometheus.NewRegistry())
	opts := []conversation.Option{
		conversation.WithOptions(conversation.OptionsFromConfig(cfg)),
		conversation.WithLogger(s.logger.Logger),
		conversation.WithMetrics(s.metrics),
	}
	if flags.harPath != "" {
		s.recorder = conversation.NewRecorder("headless", Version)
		s.recorder.SetMaxBodySize(flags.harBody)
		opts = append(opts, conversation.WithRecorder(s.recorder))
	}
	if flags.trace {
		s.tracer = tracing.New(s.logger.Logger, 0)
		opts = append(opts, conversation.WithTracer(s.tracer))
	}
	s.conv = conversation.New(s.transport, opts...)

	if cfg.Store.Path != "" {
		cfg.Store.Path = paths.Expand(cfg.Store.Path)
		if s.store, err = cookies.OpenStore(cfg.Store.Path, s.logger.Logger); err != nil {
			return err
		}
		n, err := s.store.Load(ctx, s.conv.Jar())
		if err != nil {
			// a partly loaded jar must not overwrite the store on close
			s.store.Close()
			s.store = nil
			return err
		}
		s.logger.Debug("Loaded cookies", zap.Int("count", n), zap.String("path", cfg.Store.Path))
	}
	return nil
}

// execute runs root and then releases the session, whether or not the
// command failed
func execute(ctx context.Context, root *cobra.Command, s *session) error {
	err := root.ExecuteContext(ctx)
	return errors.Join(err, s.close(ctx))
}

// close saves cookies, writes the HAR file and prints metrics. It runs
// once; every step is attempted even when an earlier one fails.
func (s *session) close(ctx context.Context) error {
	if s.conv == nil {
		return nil
	}
	conv := s.conv
	s.conv = nil
	defer s.logger.Close()
	conv.Close()
	s.tracer.Close()

	// an interrupted command still saves its cookies
	ctx = context.WithoutCancel(ctx)
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Save(ctx, conv.Jar()), s.store.Close())
		s.store = nil
	}
	if s.recorder != nil {
		errs = append(errs, s.writeHAR())
	}
	if s.flags.metrics {
		data, err := sonic.ConfigStd.MarshalIndent(s.metrics.Snapshot(), "", "  ")
		if err == nil {
			fmt.Fprintln(s.stderr, string(data))
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *session) writeHAR() error {
	f, err := os.Create(s.flags.harPath)
	if err != nil {
		return fmt.Errorf("failed to create HAR file: %w", err)
	}
	defer f.Close()
	if _, err := s.recorder.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write HAR file: %w", err)
	}
	s.logger.Debug("Wrote HAR", zap.String("path", s.flags.harPath), zap.Int("entries", s.recorder.Len()))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "headless %s\n", Version)
		},
	}
}
