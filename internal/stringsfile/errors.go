package stringsfile

import (
	"fmt"

	"strings-sync/internal/textutil"
)

// TrailingContentError reports non-whitespace text after the last statement
// line. Such text usually means a truncated or malformed file.
type TrailingContentError struct {
	// LastKey is the last key recognised before the trailing text, empty if
	// the file declares no key at all.
	LastKey string
}

func (e *TrailingContentError) Error() string {
	if e.LastKey == "" {
		return "content found but no key declared"
	}
	return fmt.Sprintf("content found under the last key %q", e.LastKey)
}

// DuplicateKeyError reports a key declared twice in the same file.
type DuplicateKeyError struct {
	Key  string
	Line int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q on line %d", e.Key, e.Line)
}

// MalformedStatementError reports a line that starts like a statement but is
// not one, e.g. a missing semicolon or closing quote.
type MalformedStatementError struct {
	Line int
	Text string
}

func (e *MalformedStatementError) Error() string {
	return fmt.Sprintf("malformed statement on line %d: %s", e.Line, textutil.Truncate(e.Text, 80))
}
