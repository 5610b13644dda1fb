package stringsfile

import (
	"regexp"
	"strings"
)

// StatementPattern returns the expression a whole line must match to be a
// statement: `"<key>" = "<value>";`, optionally indented and optionally
// followed by an inline comment. A byte order mark may precede the first
// statement. Group 1 is the key, group 2 the value.
//
// The pattern is anchored at both ends so a line missing its terminator never
// matches partially.
func StatementPattern() *regexp.Regexp {
	return regexp.MustCompile(`^\x{FEFF}?[ \t]*"((?:[^"\\\n]|\\.)*)"[ \t]*=[ \t]*"((?:[^"\\\n]|\\.)*)"[ \t]*;[ \t]*(?:/\*.*?\*/[ \t]*|//[^\n]*)?\r?\n?$`)
}

// statementPrefixPattern matches the start of anything that looks like a
// statement. Outside a block comment, a line matching it but not
// StatementPattern is malformed.
func statementPrefixPattern() *regexp.Regexp {
	return regexp.MustCompile(`^\x{FEFF}?[ \t]*"(?:[^"\\\n]|\\.)*"[ \t]*=`)
}

type parseOptions struct {
	stripValues bool
}

// ParseOption configures Parse.
type ParseOption func(*parseOptions)

// WithStrippedValues removes the value from every stored statement line,
// leaving `"<key>" = "";`. Used for generated files whose values are
// placeholders.
func WithStrippedValues() ParseOption {
	return func(o *parseOptions) {
		o.stripValues = true
	}
}

// Parse splits a .strings file into entries. Every line that is not a
// statement is accumulated into the comment of the next statement.
//
// Lines are split on '\n' only. Values may contain U+2028 and other
// separators that a generic line splitter would break on.
func Parse(text string, opts ...ParseOption) (*Document, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	statement := StatementPattern()
	prefix := statementPrefixPattern()

	doc := NewDocument()
	var pending strings.Builder
	lastKey := ""
	lineNum := 0
	inComment := false

	for line := range strings.Lines(text) {
		lineNum++

		loc := statement.FindStringSubmatchIndex(line)
		if loc == nil {
			if !inComment && prefix.MatchString(line) {
				return nil, &MalformedStatementError{
					Line: lineNum,
					Text: strings.TrimRight(line, "\r\n"),
				}
			}
			inComment = blockCommentOpen(inComment, line)
			pending.WriteString(line)
			continue
		}

		key := line[loc[2]:loc[3]]
		if doc.Has(key) {
			return nil, &DuplicateKeyError{Key: key, Line: lineNum}
		}

		if o.stripValues {
			line = line[:loc[4]] + line[loc[5]:]
		}

		doc.Set(&Entry{Key: key, Comment: pending.String(), Line: line})
		pending.Reset()
		lastKey = key
	}

	if strings.TrimSpace(pending.String()) != "" {
		return nil, &TrailingContentError{LastKey: lastKey}
	}
	doc.Trailer = pending.String()

	return doc, nil
}

// blockCommentOpen reports whether a /* */ comment is still open at the end
// of line, given whether one was open at its start.
func blockCommentOpen(open bool, line string) bool {
	for {
		token := "/*"
		if open {
			token = "*/"
		}
		i := strings.Index(line, token)
		if i < 0 {
			return open
		}
		line = line[i+2:]
		open = !open
	}
}
