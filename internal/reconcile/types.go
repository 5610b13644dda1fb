package reconcile

import (
	"slices"
	"strings"

	"strings-sync/internal/stringsfile"

	"github.com/samber/lo"
)

// Kind classifies a Modification.
type Kind int

const (
	// Insert means a key from the reference was missing in the target.
	Insert Kind = iota
	// CommentChange means a key's comment was replaced by the reference's.
	CommentChange
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case CommentChange:
		return "comment"
	default:
		return "unknown"
	}
}

// Modification is a single change a merge applied to the target document.
type Modification struct {
	Key  string
	Kind Kind
	// Payload is the inserted comment followed by the inserted line. Insert only.
	Payload string
	// Before and After hold the replaced and the new comment. CommentChange only.
	Before string
	After  string
}

// WhitespaceOnly reports whether a comment change differs only in leading or
// trailing whitespace.
func (m Modification) WhitespaceOnly() bool {
	return m.Kind == CommentChange && strings.TrimSpace(m.Before) == strings.TrimSpace(m.After)
}

// MergeResult is the outcome of reconciling a target with a reference.
type MergeResult struct {
	// Document holds every entry of the merge: target entries with refreshed
	// comments plus entries inserted from the reference.
	Document *stringsfile.Document
	// OrderBefore is the target's key order.
	OrderBefore []string
	// OrderAfter is the final key order: reference keys, then superfluous keys.
	OrderAfter []string
	// Superfluous lists target keys absent from the reference, in target order.
	Superfluous []string
	// Modifications lists inserts and comment changes in reference order.
	Modifications []Modification
}

// Text serializes the merged document in its final order.
func (r *MergeResult) Text() string {
	return stringsfile.Serialize(r.OrderAfter, r.Document)
}

// OrderChanged reports whether the key sequence differs before and after the
// merge. Inserted keys change it too.
func (r *MergeResult) OrderChanged() bool {
	return !slices.Equal(r.OrderBefore, r.OrderAfter)
}

// Count returns how many modifications of kind k the merge recorded.
func (r *MergeResult) Count(k Kind) int {
	return lo.CountBy(r.Modifications, func(m Modification) bool {
		return m.Kind == k
	})
}
