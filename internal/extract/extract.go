// Package extract runs Apple's string extraction tools and returns their
// output as reference .strings text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"strings-sync/internal/filewalker"

	"github.com/rs/zerolog/log"
)

// Extractor produces the reference text for a localization group.
type Extractor interface {
	Extract(ctx context.Context, group filewalker.Group) (string, error)
}

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command with os/exec and includes its combined output
// in the returned error.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// SourceCodeExtractor extracts NSLocalizedString and SwiftUI strings from
// source files with `xcrun extractLocStrings`.
type SourceCodeExtractor struct {
	files   []string
	table   string
	tempDir string
	run     Runner
}

// NewSourceCodeExtractor creates an extractor for the given source files.
// table is the .strings table the tool writes, e.g. "Localizable".
func NewSourceCodeExtractor(files []string, table, tempDir string, run Runner) *SourceCodeExtractor {
	if run == nil {
		run = ExecRunner
	}
	return &SourceCodeExtractor{files: files, table: table, tempDir: tempDir, run: run}
}

func (e *SourceCodeExtractor) Extract(ctx context.Context, group filewalker.Group) (string, error) {
	if len(e.files) == 0 {
		return "", errors.New("no source files to extract strings from")
	}

	return withTempDir(e.tempDir, func(dir string) (string, error) {
		args := append([]string{"extractLocStrings"}, e.files...)
		args = append(args, "-SwiftUI", "-o", dir)

		log.Debug().Int("files", len(e.files)).Str("group", group.Name()).Msg("Running extractLocStrings")
		if err := e.run(ctx, "xcrun", args...); err != nil {
			return "", fmt.Errorf("extract source code strings: %w", err)
		}
		return readOutput(filepath.Join(dir, e.table+".strings"))
	})
}

// IBExtractor exports the strings of a .xib or .storyboard file with ibtool.
type IBExtractor struct {
	tempDir string
	run     Runner
}

// NewIBExtractor creates an IB extractor.
func NewIBExtractor(tempDir string, run Runner) *IBExtractor {
	if run == nil {
		run = ExecRunner
	}
	return &IBExtractor{tempDir: tempDir, run: run}
}

func (e *IBExtractor) Extract(ctx context.Context, group filewalker.Group) (string, error) {
	return withTempDir(e.tempDir, func(dir string) (string, error) {
		out := filepath.Join(dir, group.Name()+".strings")

		log.Debug().Str("base", group.Base).Msg("Running ibtool")
		if err := e.run(ctx, "xcrun", "ibtool", "--export-strings-file", out, group.Base); err != nil {
			return "", fmt.Errorf("extract IB strings from %s: %w", group.Base, err)
		}
		return readOutput(out)
	})
}

// withTempDir runs fn with a fresh directory under parent and removes it
// afterwards.
func withTempDir(parent string, fn func(dir string) (string, error)) (string, error) {
	dir, err := os.MkdirTemp(parent, "strings-sync-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Failed to remove temp dir")
		}
	}()
	return fn(dir)
}

func readOutput(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read extractor output: %w", err)
	}
	return Decode(data)
}
