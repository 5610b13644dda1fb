package reconcile

import (
	"fmt"
	"strings"

	"strings-sync/internal/stringsfile"
)

// CorruptionError reports a key literal found inside another key's comment.
// A correct parse never attributes statement text to a comment, so this
// points at a tokenizer boundary error.
type CorruptionError struct {
	// Key owns the comment.
	Key string
	// FoundKey is the key whose literal appears in the comment.
	FoundKey string
	Comment  string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("key %q appears in the comment of key %q, parsing is probably broken:\n\n%s",
		e.FoundKey, e.Key, e.Comment)
}

// Validate checks that no entry's comment contains the quoted literal of any
// other key of doc. It is run on the merged document, whose keys are the
// union of the target and reference keys.
func Validate(doc *stringsfile.Document) error {
	entries := doc.Entries()
	for _, e := range entries {
		if e.Comment == "" {
			continue
		}
		for _, other := range entries {
			if other.Key == e.Key {
				continue
			}
			if strings.Contains(e.Comment, other.Literal()) {
				return &CorruptionError{Key: e.Key, FoundKey: other.Key, Comment: e.Comment}
			}
		}
	}
	return nil
}
