// Package reconcile merges a human-edited .strings document with a freshly
// generated reference document.
//
// The reference decides which keys exist, their order and their comments.
// The target's statement lines, and therefore its values and inline
// comments, are never modified. Target keys the reference no longer
// declares are kept at the end of the document.
package reconcile

import (
	"strings-sync/internal/stringsfile"

	"github.com/samber/lo"
)

// Reconcile merges target with reference. The reference is expected to be
// parsed with stringsfile.WithStrippedValues. Neither input is modified.
func Reconcile(target, reference *stringsfile.Document) *MergeResult {
	merged := target.Clone()
	var mods []Modification

	for _, ref := range reference.Entries() {
		cur, ok := merged.Get(ref.Key)
		if !ok {
			inserted := *ref
			merged.Set(&inserted)
			mods = append(mods, Modification{
				Key:     ref.Key,
				Kind:    Insert,
				Payload: ref.Comment + ref.Line,
			})
			continue
		}

		if cur.Comment != ref.Comment {
			mods = append(mods, Modification{
				Key:    ref.Key,
				Kind:   CommentChange,
				Before: cur.Comment,
				After:  ref.Comment,
			})
			cur.Comment = ref.Comment
		}
	}

	before := target.Keys()
	superfluous := lo.Filter(before, func(k string, _ int) bool {
		return !reference.Has(k)
	})
	after := append(reference.Keys(), superfluous...)

	return &MergeResult{
		Document:      merged,
		OrderBefore:   before,
		OrderAfter:    after,
		Superfluous:   superfluous,
		Modifications: mods,
	}
}
