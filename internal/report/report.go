// Package report renders the modifications of reconciled documents for
// humans. Rendering never influences what is written to disk.
package report

import (
	"cmp"
	"slices"
	"strings"

	"strings-sync/internal/reconcile"
	"strings-sync/internal/textutil"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Document pairs a file path with the merge computed for it.
type Document struct {
	Path  string
	Merge *reconcile.MergeResult
}

// Options controls rendering.
type Options struct {
	// KeyOrderDiff adds a line diff of the key order when it changed.
	KeyOrderDiff bool
	// NoColor disables colored headings even on a terminal.
	NoColor bool
}

// Summary holds the counts logged for a document.
type Summary struct {
	Inserted       int
	CommentChanges int
	WhitespaceOnly int
	OrderChanged   bool
}

// Summarize counts the modifications of m.
func Summarize(m *reconcile.MergeResult) Summary {
	s := Summary{OrderChanged: m.OrderChanged()}
	for _, mod := range m.Modifications {
		switch mod.Kind {
		case reconcile.Insert:
			s.Inserted++
		case reconcile.CommentChange:
			s.CommentChanges++
			if mod.WhitespaceOnly() {
				s.WhitespaceOnly++
			}
		}
	}
	return s
}

type palette struct {
	path     *color.Color
	inserted *color.Color
	changed  *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		path:     color.New(color.Bold),
		inserted: color.New(color.FgGreen),
		changed:  color.New(color.FgYellow),
	}
	if noColor {
		p.path.DisableColor()
		p.inserted.DisableColor()
		p.changed.DisableColor()
	}
	return p
}

// Format renders one block per document: whether its key order changed, then
// every insert and every comment change.
func Format(docs []Document, opts Options) string {
	p := newPalette(opts.NoColor)

	var b strings.Builder
	for _, doc := range docs {
		body := formatModifications(doc.Merge, opts, p)
		if body == "" {
			b.WriteString(p.path.Sprint(doc.Path))
			b.WriteString(" was not modified\n")
			continue
		}
		b.WriteString(p.path.Sprint(doc.Path))
		b.WriteString(" was modified:\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

func formatModifications(m *reconcile.MergeResult, opts Options, p palette) string {
	var parts []string

	if m.OrderChanged() {
		part := "    The order of keys changed."
		if opts.KeyOrderDiff {
			part += "\n" + textutil.Indent(KeyOrderDiff(m.OrderBefore, m.OrderAfter), 8)
			part = strings.TrimRight(part, "\n")
		}
		parts = append(parts, part)
	}

	// Inserts first, each kind in reference order.
	mods := slices.Clone(m.Modifications)
	slices.SortStableFunc(mods, func(a, b reconcile.Modification) int {
		return cmp.Compare(a.Kind, b.Kind)
	})

	for _, mod := range mods {
		switch mod.Kind {
		case reconcile.Insert:
			parts = append(parts, "    "+p.inserted.Sprintf("%s was inserted:", mod.Key)+"\n"+
				textutil.Indent(strings.TrimRight(mod.Payload, "\r\n"), 8))
		case reconcile.CommentChange:
			if mod.WhitespaceOnly() {
				parts = append(parts, "    "+p.changed.Sprintf("%s's comment whitespace changed", mod.Key))
				continue
			}
			before := textutil.Indent(strings.TrimSpace(mod.Before), 8)
			after := textutil.Indent(strings.TrimSpace(mod.After), 8)
			parts = append(parts, "    "+p.changed.Sprintf("%s comment changed:", mod.Key)+"\n"+
				before+"\n        ->\n"+after)
		}
	}

	return strings.Join(parts, "\n\n")
}

// KeyOrderDiff renders a line diff between two key orders, one key per line,
// prefixed with "- ", "+ " or "  ".
func KeyOrderDiff(before, after []string) string {
	dmp := diffpatch.New()
	from, to, lines := dmp.DiffLinesToChars(joinLines(before), joinLines(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(from, to, false), lines)

	var b strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix = "+ "
		case diffpatch.DiffDelete:
			prefix = "- "
		}
		for line := range strings.Lines(d.Text) {
			b.WriteString(prefix)
			b.WriteString(line)
		}
	}
	return b.String()
}

func joinLines(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return strings.Join(keys, "\n") + "\n"
}
