package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"strings-sync/internal/audit"
	"strings-sync/internal/cache"
	"strings-sync/internal/config"
	"strings-sync/internal/extract"
	"strings-sync/internal/filewalker"
	"strings-sync/internal/keygraph"
	"strings-sync/internal/report"
	"strings-sync/internal/updater"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const dryRunNotice = "This is a dry run. No files are actually changed even if the logs say so."

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "strings-sync",
		Short: "Keep translated .strings files in sync with their reference",
		Long: `Reconciles the .strings files of an Xcode project with freshly extracted reference
text: missing keys are inserted, translator comments are refreshed, translated values
are never touched and keys that are no longer referenced are kept at the end.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(mergeCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(orphansCmd())

	return rootCmd
}

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Extract reference strings and reconcile every localization group",
		Long: `Finds every Interface Builder file and the source code strings table of the
repository, extracts their reference strings with Xcode's tools and reconciles every
translation. Without --wet-run nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := applyFlags(cmd, cfg); err != nil {
				return err
			}
			ib, _ := cmd.Flags().GetBool("ib")
			sourceCode, _ := cmd.Flags().GetBool("sourcecode")
			if !ib && !sourceCode {
				ib, sourceCode = true, true
			}
			return runUpdate(cmd, cfg, ib, sourceCode)
		},
	}

	cmd.Flags().Bool("wet-run", false, "Write the reconciled files")
	cmd.Flags().Bool("ib", false, "Only update Interface Builder files")
	cmd.Flags().Bool("sourcecode", false, "Only update the source code strings table")
	cmd.Flags().String("repo", "", "Repository root (default: current directory)")
	cmd.Flags().String("temp-dir", "", "Parent directory for extractor output")
	cmd.Flags().String("dev-language", "", "Development language of the source code strings table")
	cmd.Flags().StringSlice("exclude", nil, "Directories to skip")
	cmd.Flags().Int("workers", 0, "Documents reconciled concurrently per group")
	cmd.Flags().Bool("key-order-diff", false, "Show a diff when the key order changed")
	cmd.Flags().Bool("no-cache", false, "Always run the extractors, ignoring cached references")

	return cmd
}

// applyFlags overrides configuration with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("wet-run") {
		cfg.WetRun, err = flags.GetBool("wet-run")
	}
	if err == nil && flags.Changed("repo") {
		cfg.RepoRoot, err = flags.GetString("repo")
	}
	if err == nil && flags.Changed("temp-dir") {
		cfg.TempDir, err = flags.GetString("temp-dir")
	}
	if err == nil && flags.Changed("dev-language") {
		cfg.DevelopmentLanguage, err = flags.GetString("dev-language")
	}
	if err == nil && flags.Changed("exclude") {
		cfg.ExcludeDirs, err = flags.GetStringSlice("exclude")
	}
	if err == nil && flags.Changed("workers") {
		cfg.WorkerCount, err = flags.GetInt("workers")
	}
	if err == nil && flags.Changed("key-order-diff") {
		cfg.KeyOrderDiff, err = flags.GetBool("key-order-diff")
	}
	if err == nil && flags.Changed("no-cache") {
		var noCache bool
		noCache, err = flags.GetBool("no-cache")
		cfg.CacheReferences = !noCache
	}
	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}

	if cfg.RepoRoot == "" {
		if cfg.RepoRoot, err = os.Getwd(); err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}
	return nil
}

// runUpdate handles the `update` command.
func runUpdate(cmd *cobra.Command, cfg *config.Config, ib, sourceCode bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	w, err := filewalker.NewWalker(cfg.RepoRoot, cfg.ExcludeDirs)
	if err != nil {
		return err
	}

	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	var groups []filewalker.Group
	extractors := make(map[filewalker.Kind]extract.Extractor)

	if ib {
		ibGroups, err := w.FindIBGroups()
		if err != nil {
			return fmt.Errorf("find IB files: %w", err)
		}
		groups = append(groups, ibGroups...)
		extractors[filewalker.KindIB] = deps.cached(
			extract.NewIBExtractor(cfg.TempDir, extract.ExecRunner),
			func(g filewalker.Group) []string { return []string{g.Base} })
	}

	if sourceCode {
		g, err := w.SourceCodeGroup(cfg.DevelopmentLanguage, cfg.SourceTable)
		if err != nil {
			return err
		}
		files, err := w.FindSourceFiles(cfg.SourceExtensions)
		if err != nil {
			return fmt.Errorf("find source files: %w", err)
		}
		groups = append(groups, g)
		extractors[filewalker.KindSourceCode] = deps.cached(
			extract.NewSourceCodeExtractor(files, cfg.SourceTable, cfg.TempDir, extract.ExecRunner),
			func(filewalker.Group) []string { return files })
	}

	log.Info().
		Int("groups", len(groups)).
		Bool("wet_run", cfg.WetRun).
		Int("workers", cfg.WorkerCount).
		Msg("Starting update")

	u := updater.New(extractors, updater.Options{
		WetRun:  cfg.WetRun,
		Workers: cfg.WorkerCount,
		Root:    w.Root(),
	}, deps.recorders...)

	docs, runErr := u.Run(ctx, groups)

	out := cmd.OutOrStdout()
	fmt.Fprint(out, report.Format(docs, report.Options{KeyOrderDiff: cfg.KeyOrderDiff}))
	if !cfg.WetRun {
		fmt.Fprintln(out, dryRunNotice)
	}

	if runErr != nil {
		return fmt.Errorf("update failed: %w", runErr)
	}

	log.Info().Int("documents", len(docs)).Msg("Update complete")
	return nil
}

// dependencies holds the optional services of an update run. Each one is
// enabled by its connection setting.
type dependencies struct {
	references *cache.ReferenceCache
	recorders  []updater.Recorder
	closers    []func()
}

func (d *dependencies) close() {
	for _, c := range d.closers {
		c()
	}
}

// cached wraps ext with the reference cache when one is configured.
func (d *dependencies) cached(ext extract.Extractor, inputs cache.InputsFunc) extract.Extractor {
	if d.references == nil {
		return ext
	}
	return cache.NewExtractor(ext, d.references, inputs)
}

// initDependencies connects PostgreSQL and Neo4j when configured and ensures
// their schemas.
func initDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	d := &dependencies{}

	if cfg.DatabaseURL != "" {
		pool, err := audit.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)

		store := audit.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			d.close()
			return nil, err
		}
		d.recorders = append(d.recorders, store)

		if cfg.CacheReferences {
			d.references = cache.NewReferenceCache(pool)
			if err := d.references.EnsureSchema(ctx); err != nil {
				d.close()
				return nil, err
			}
		}
	}

	if cfg.Neo4jURI != "" {
		driver, err := keygraph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			d.close()
			return nil, err
		}
		d.closers = append(d.closers, func() { driver.Close(context.Background()) })

		graph := keygraph.NewRecorder(driver)
		if err := graph.EnsureSchema(ctx); err != nil {
			d.close()
			return nil, err
		}
		d.recorders = append(d.recorders, graph)
	}

	return d, nil
}

var errNotConfigured = errors.New("not configured")

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
