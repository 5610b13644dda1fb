package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// IBExtensions lists the interface builder files strings are extracted from.
var IBExtensions = []string{".xib", ".storyboard"}

const (
	lprojExt  = ".lproj"
	baseLproj = "Base" + lprojExt
)

// Kind is the kind of file a group's reference is extracted from.
type Kind string

const (
	KindIB         Kind = "IB"
	KindSourceCode Kind = "sourcecode"
)

// Group is a base document and the .strings files that translate it.
type Group struct {
	Kind Kind
	// Base is the file the reference is extracted from for IB groups, and the
	// development language .strings file for source code groups.
	Base string
	// Translations are the other languages' .strings files, sorted.
	Translations []string
}

// Targets returns the .strings files to reconcile. A source code group's base
// is a .strings file itself and is updated too.
func (g Group) Targets() []string {
	if g.Kind == KindSourceCode {
		return append(slices.Clone(g.Translations), g.Base)
	}
	return slices.Clone(g.Translations)
}

// Name is the base file name without directory and extension, which is also
// the .strings table name of the group.
func (g Group) Name() string {
	return strings.TrimSuffix(filepath.Base(g.Base), filepath.Ext(g.Base))
}

// CardinalityError reports a number of base documents other than the one
// expected.
type CardinalityError struct {
	Kind  Kind
	Name  string
	Count int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("expected exactly one base %s file %s, found %d", e.Kind, e.Name, e.Count)
}

// Walker traverses a repository and finds localization files.
type Walker struct {
	root    string
	exclude []string
}

// NewWalker creates a Walker for root. Paths containing one of the exclude
// directories (e.g. "venv/" or "./Test/") are skipped.
func NewWalker(root string, exclude []string) (*Walker, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	normalized := lo.FilterMap(exclude, func(e string, _ int) (string, bool) {
		e = strings.Trim(strings.TrimPrefix(filepath.ToSlash(e), "./"), "/")
		return "/" + e + "/", e != ""
	})

	return &Walker{root: root, exclude: normalized}, nil
}

// Root returns the absolute repository root.
func (w *Walker) Root() string {
	return w.root
}

func (w *Walker) excluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = "/" + filepath.ToSlash(rel) + "/"
	return lo.SomeBy(w.exclude, func(e string) bool {
		return strings.Contains(rel, e)
	})
}

// walk calls fn for every regular file outside the excluded directories.
func (w *Walker) walk(fn func(path string)) error {
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if w.excluded(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		fn(path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk directory: %w", err)
	}
	return nil
}

// FindIBGroups returns a group for every Base.lproj/<name>.xib or .storyboard
// file, translated by the sibling <lang>.lproj/<name>.strings files.
func (w *Walker) FindIBGroups() ([]Group, error) {
	var groups []Group

	err := w.walk(func(path string) {
		ext := strings.ToLower(filepath.Ext(path))
		if !lo.Contains(IBExtensions, ext) || filepath.Base(filepath.Dir(path)) != baseLproj {
			return
		}

		g := Group{Kind: KindIB, Base: path}
		g.Translations = w.siblingTables(filepath.Dir(filepath.Dir(path)), g.Name(), "")
		groups = append(groups, g)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("count", len(groups)).Str("root", w.root).Msg("Discovered IB localization groups")
	return groups, nil
}

// FindSourceCodeGroups returns a group for every <devLanguage>.lproj/<table>.strings
// file, translated by the sibling <lang>.lproj/<table>.strings files.
func (w *Walker) FindSourceCodeGroups(devLanguage, table string) ([]Group, error) {
	baseDir := devLanguage + lprojExt
	var groups []Group

	err := w.walk(func(path string) {
		if filepath.Base(path) != table+".strings" || filepath.Base(filepath.Dir(path)) != baseDir {
			return
		}

		groups = append(groups, Group{
			Kind:         KindSourceCode,
			Base:         path,
			Translations: w.siblingTables(filepath.Dir(filepath.Dir(path)), table, path),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("count", len(groups)).Str("table", table).Msg("Discovered source code localization groups")
	return groups, nil
}

// SourceCodeGroup returns the single source code group of the repository.
func (w *Walker) SourceCodeGroup(devLanguage, table string) (Group, error) {
	groups, err := w.FindSourceCodeGroups(devLanguage, table)
	if err != nil {
		return Group{}, err
	}
	if len(groups) != 1 {
		return Group{}, &CardinalityError{Kind: KindSourceCode, Name: table + ".strings", Count: len(groups)}
	}
	return groups[0], nil
}

// siblingTables lists <dir>/*.lproj/<table>.strings, except Base.lproj and skip.
func (w *Walker) siblingTables(dir, table, skip string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+lprojExt, table+".strings"))
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Glob .strings files")
		return nil
	}

	matches = lo.Filter(matches, func(p string, _ int) bool {
		return p != skip && filepath.Base(filepath.Dir(p)) != baseLproj && !w.excluded(p)
	})
	slices.Sort(matches)
	return matches
}

// FindSourceFiles returns the source files strings are extracted from, sorted.
func (w *Walker) FindSourceFiles(extensions []string) ([]string, error) {
	var files []string

	err := w.walk(func(path string) {
		if lo.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	log.Debug().Int("count", len(files)).Msg("Discovered source files")
	return files, nil
}
