package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"unicode/utf8"

	"strings-sync/internal/audit"
	"strings-sync/internal/config"
	"strings-sync/internal/extract"
	"strings-sync/internal/keygraph"
	"strings-sync/internal/reconcile"
	"strings-sync/internal/report"
	"strings-sync/internal/stringsfile"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func mergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <target> <reference>",
		Short: "Reconcile one .strings file with an already extracted reference",
		Long: `Reconciles <target> with <reference>, a .strings file produced by ibtool or
extractLocStrings (UTF-16 or UTF-8). Prints what would change; writes <target> only
with --write.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			write, _ := cmd.Flags().GetBool("write")
			keyOrderDiff, _ := cmd.Flags().GetBool("key-order-diff")
			return runMerge(cmd, args[0], args[1], write, keyOrderDiff)
		},
	}

	cmd.Flags().Bool("write", false, "Write the reconciled target")
	cmd.Flags().Bool("key-order-diff", false, "Show a diff when the key order changed")

	return cmd
}

// runMerge handles the `merge` command.
func runMerge(cmd *cobra.Command, targetPath, referencePath string, write, keyOrderDiff bool) error {
	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}
	target, err := os.ReadFile(targetPath)
	if err != nil {
		return fmt.Errorf("read target: %w", err)
	}
	if !utf8.Valid(target) {
		return fmt.Errorf("%s is not valid UTF-8", targetPath)
	}

	rawReference, err := os.ReadFile(referencePath)
	if err != nil {
		return fmt.Errorf("read reference: %w", err)
	}
	reference, err := extract.Decode(rawReference)
	if err != nil {
		return err
	}

	res, err := reconcile.Update(string(target), reference)
	if err != nil {
		return fmt.Errorf("%s: %w", targetPath, err)
	}

	docs := []report.Document{{Path: targetPath, Merge: res.Merge}}
	fmt.Fprint(cmd.OutOrStdout(), report.Format(docs, report.Options{KeyOrderDiff: keyOrderDiff}))

	if !write {
		if res.Changed {
			fmt.Fprintln(cmd.OutOrStdout(), dryRunNotice)
		}
		return nil
	}
	if !res.Changed {
		return nil
	}
	if err := os.WriteFile(targetPath, []byte(res.Text), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write target: %w", err)
	}
	log.Info().Str("path", targetPath).Msg("Wrote reconciled strings file")
	return nil
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Verify that .strings files parse and round-trip unchanged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
}

// runCheck handles the `check` command.
func runCheck(cmd *cobra.Command, paths []string) error {
	var errs *multierror.Error
	out := cmd.OutOrStdout()

	for _, path := range paths {
		n, err := checkFile(path)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(out, "%s: ok (%d keys)\n", path, n)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	return nil
}

func checkFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if !utf8.Valid(data) {
		return 0, errors.New("not valid UTF-8")
	}

	text := string(data)
	doc, err := stringsfile.Parse(text)
	if err != nil {
		return 0, err
	}
	if doc.String() != text {
		return 0, errors.New("does not round-trip")
	}
	if err := reconcile.Validate(doc); err != nil {
		return 0, err
	}
	return doc.Len(), nil
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [path-pattern]",
		Short: "List recorded reconciliations from the audit database",
		Long:  "Lists the latest recorded runs whose path matches a SQL LIKE pattern (default: all).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "%"
			if len(args) == 1 {
				pattern = args[0]
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return runHistory(cmd, pattern, limit)
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")

	return cmd
}

// runHistory handles the `history` command.
func runHistory(cmd *cobra.Command, pattern string, limit int) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("audit database: DATABASE_URL %w", errNotConfigured)
	}

	pool, err := audit.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	runs, err := audit.NewStore(pool).History(ctx, pattern, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tPATH\tINSERTED\tCOMMENTS\tSUPERFLUOUS\tORDER\tWRITTEN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%t\t%t\n",
			r.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			r.Path, r.Inserted, r.CommentChanges, len(r.Superfluous), r.OrderChanged, r.Written)
	}
	return tw.Flush()
}

func orphansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List keys no longer present in their reference, from the key graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("base")
			return runOrphans(cmd, base)
		},
	}

	cmd.Flags().String("base", "", "Only list keys of the group with this base file")

	return cmd
}

// runOrphans handles the `orphans` command.
func runOrphans(cmd *cobra.Command, base string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if cfg.Neo4jURI == "" {
		return fmt.Errorf("key graph: NEO4J_URI %w", errNotConfigured)
	}

	driver, err := keygraph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return err
	}
	defer driver.Close(context.Background())

	orphans, err := keygraph.NewRecorder(driver).Orphans(ctx, base)
	if err != nil {
		return err
	}

	for _, o := range orphans {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", o.Path, o.Key)
	}
	log.Info().Int("count", len(orphans)).Msg("Listed orphaned keys")
	return nil
}
