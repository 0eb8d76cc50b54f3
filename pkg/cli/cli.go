package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/defeedco/prefetch/pkg/config"
	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/lib/log"
	"github.com/defeedco/prefetch/pkg/snapshot"
	"github.com/defeedco/prefetch/pkg/sources"
	"github.com/morikuni/failure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Version information, set at build time
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type options struct {
	envFile     string
	outputDir   string
	sourcesFile string
}

// Run executes the command line with args, excluding the program name.
// Logs go to stderr and the run report to stdout.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "prefetch [all | source,source,...]",
		Short: "Fetch public API snapshots for the site",
		Long: `prefetch polls a fixed set of public APIs and feeds, normalizes each
response and writes it as a JSON snapshot with expiry metadata.

Without arguments, or with "all", every enabled source is fetched.
A comma separated list fetches exactly the named sources, enabled or not.

The process exits with status 0 only when every fetched source succeeded.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return failure.New(InvalidArguments,
					failure.Message(fmt.Sprintf("accepts at most one selection argument, but received %d", len(args))),
					failure.Context{"args": fmt.Sprint(args)},
				)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			selection := sources.All()
			if len(args) == 1 {
				selection = sources.ParseSelection(args[0])
			}
			return runFetch(cmd.Context(), opts, selection, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "Path to an optional .env file")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "Snapshot directory (overrides SNAPSHOT_DIR)")
	flags.StringVar(&opts.sourcesFile, "sources-file", "", "YAML file overriding the source catalog (overrides SOURCES_FILE)")

	root.AddCommand(newListCommand(opts, stdout, stderr))
	root.AddCommand(newVersionCommand(stdout))

	return root
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(stdout, "prefetch version %s\n", Version)
			_, _ = fmt.Fprintf(stdout, "  commit: %s\n", Commit)
			_, _ = fmt.Fprintf(stdout, "  built:  %s\n", Date)
		},
	}
}

// app is everything a command needs, built from the environment and flags.
type app struct {
	config   *config.Config
	logger   *zerolog.Logger
	store    *snapshot.FileStore
	registry *sources.Registry
}

func setup(opts *options, stderr io.Writer) (*app, error) {
	if err := config.LoadEnvFiles(opts.envFile); err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ConfigInvalid),
			failure.Message(fmt.Sprintf("Failed to load env file: %v", err)))
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ConfigInvalid),
			failure.Message(fmt.Sprintf("Invalid configuration: %v", err)))
	}
	if opts.outputDir != "" {
		cfg.Snapshots.Dir = opts.outputDir
	}
	if opts.sourcesFile != "" {
		cfg.SourcesFile = opts.sourcesFile
	}

	logger, err := log.NewLogger(&cfg.Log, stderr)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ConfigInvalid),
			failure.Message(fmt.Sprintf("Invalid log configuration: %v", err)))
	}

	catalog, err := sources.LoadCatalog(cfg.SourcesFile)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ConfigInvalid),
			failure.Message(fmt.Sprintf("Invalid source catalog: %v", err)),
			failure.Context{"sources_file": cfg.SourcesFile})
	}

	httpClient := lib.NewHTTPClient(&cfg.HTTP, logger)

	registry, err := sources.NewDefaultRegistry(catalog, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}

	return &app{
		config:   cfg,
		logger:   logger,
		store:    snapshot.NewFileStore(&cfg.Snapshots, logger),
		registry: registry,
	}, nil
}

func runFetch(ctx context.Context, opts *options, selection sources.Selection, stdout, stderr io.Writer) error {
	a, err := setup(opts, stderr)
	if err != nil {
		return err
	}

	schedule, err := sources.NewSchedule(a.config.Schedule.Cron, a.config.Schedule.NextFetch)
	if err != nil {
		return failure.Wrap(err, failure.WithCode(ConfigInvalid),
			failure.Message(fmt.Sprintf("Invalid SCHEDULE_CRON: %v", err)))
	}

	unlock, err := a.store.Lock()
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to release run lock")
		}
	}()

	orchestrator := sources.NewOrchestrator(a.logger, a.registry, a.store, schedule)

	summary, err := orchestrator.Run(ctx, selection)
	if err != nil {
		return fmt.Errorf("run sources: %w", err)
	}

	if err := writeSummary(stdout, summary, a.registry); err != nil {
		return fmt.Errorf("print summary: %w", err)
	}

	if !summary.OK() {
		return failure.New(RunFailed,
			failure.Message(fmt.Sprintf("%d of %d sources failed", summary.Total-summary.SuccessCount, summary.Total)),
			failure.Context{"failed": fmt.Sprint(summary.Failed())},
		)
	}

	return nil
}
