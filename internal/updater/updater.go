// Package updater keeps the .strings files of localization groups in sync
// with freshly extracted reference text.
package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"strings-sync/internal/extract"
	"strings-sync/internal/filewalker"
	"strings-sync/internal/reconcile"
	"strings-sync/internal/report"
	"strings-sync/internal/worker"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

// Record describes the outcome for one document, handed to every Recorder.
type Record struct {
	Group   filewalker.Group
	Path    string
	WetRun  bool
	Written bool
	// Before is the document as read, After the reconciled text.
	Before string
	After  string
	Merge  *reconcile.MergeResult
}

// Recorder keeps a history of reconciled documents. Failures are logged and
// never fail the document.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Options configures an Updater.
type Options struct {
	// WetRun enables writing. Without it documents are only reconciled and
	// reported.
	WetRun bool
	// Workers bounds how many documents of a group are processed at once.
	Workers int
	// Root, when set, makes reported paths relative to it.
	Root string
}

// Updater reconciles localization groups.
type Updater struct {
	extractors map[filewalker.Kind]extract.Extractor
	opts       Options
	recorders  []Recorder
}

// New creates an Updater using one extractor per group kind.
func New(extractors map[filewalker.Kind]extract.Extractor, opts Options, recorders ...Recorder) *Updater {
	return &Updater{
		extractors: extractors,
		opts:       opts,
		recorders:  recorders,
	}
}

// Run extracts the reference of every group and reconciles its documents.
// A failing group or document is skipped and never written; the failures are
// returned together once every other document has been processed.
func (u *Updater) Run(ctx context.Context, groups []filewalker.Group) ([]report.Document, error) {
	var errs *multierror.Error
	var docs []report.Document

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}

		ext, ok := u.extractors[g.Kind]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("%s: no extractor for %s files", g.Base, g.Kind))
			continue
		}

		log.Info().Str("group", g.Name()).Str("kind", string(g.Kind)).Int("documents", len(g.Targets())).Msg("Updating strings files")

		reference, err := ext.Extract(ctx, g)
		if err != nil {
			log.Error().Err(err).Str("base", g.Base).Msg("Extraction failed")
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", g.Base, err))
			continue
		}

		groupDocs, err := u.UpdateGroup(ctx, g, reference)
		docs = append(docs, groupDocs...)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return docs, errs.ErrorOrNil()
}

// UpdateGroup reconciles every target of g with reference. Documents are
// independent and processed concurrently.
func (u *Updater) UpdateGroup(ctx context.Context, g filewalker.Group, reference string) ([]report.Document, error) {
	pool := worker.NewPool(u.opts.Workers, func(ctx context.Context, path string) (report.Document, error) {
		return u.UpdateFile(ctx, g, path, reference)
	})

	var errs *multierror.Error
	var docs []report.Document
	for _, r := range pool.Execute(ctx, g.Targets()) {
		if r.Err != nil {
			log.Error().Err(r.Err).Str("path", u.displayPath(r.Input)).Msg("Document not processed")
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", r.Input, r.Err))
			continue
		}
		docs = append(docs, r.Output)
	}
	return docs, errs.ErrorOrNil()
}

// UpdateFile reconciles the document at path with reference and, on a wet
// run, writes it back if it changed.
func (u *Updater) UpdateFile(ctx context.Context, g filewalker.Group, path, reference string) (report.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return report.Document{}, fmt.Errorf("stat strings file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return report.Document{}, fmt.Errorf("read strings file: %w", err)
	}
	if !utf8.Valid(data) {
		return report.Document{}, errors.New("strings file is not valid UTF-8")
	}
	content := string(data)

	res, err := reconcile.Update(content, reference)
	if err != nil {
		return report.Document{}, err
	}

	written := false
	if u.opts.WetRun && res.Changed {
		if err := os.WriteFile(path, []byte(res.Text), info.Mode().Perm()); err != nil {
			return report.Document{}, fmt.Errorf("write strings file: %w", err)
		}
		written = true
	}

	summary := report.Summarize(res.Merge)
	log.Info().
		Str("path", u.displayPath(path)).
		Int("inserted", summary.Inserted).
		Int("comment_changes", summary.CommentChanges).
		Int("superfluous", len(res.Merge.Superfluous)).
		Bool("order_changed", summary.OrderChanged).
		Bool("written", written).
		Msg("Reconciled strings file")

	u.record(ctx, Record{
		Group:   g,
		Path:    path,
		WetRun:  u.opts.WetRun,
		Written: written,
		Before:  content,
		After:   res.Text,
		Merge:   res.Merge,
	})

	return report.Document{Path: u.displayPath(path), Merge: res.Merge}, nil
}

func (u *Updater) record(ctx context.Context, rec Record) {
	var wg sync.WaitGroup
	for _, r := range u.recorders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Record(ctx, rec); err != nil {
				log.Warn().Err(err).Str("path", rec.Path).Msg("Failed to record reconciliation")
			}
		}()
	}
	wg.Wait()
}

func (u *Updater) displayPath(path string) string {
	if u.opts.Root == "" {
		return path
	}
	rel, err := filepath.Rel(u.opts.Root, path)
	if err != nil {
		return path
	}
	return rel
}
