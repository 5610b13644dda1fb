package reconcile

import (
	"fmt"

	"strings-sync/internal/stringsfile"
)

// Result is the outcome of Update.
type Result struct {
	// Text is the updated document.
	Text string
	// Changed reports whether Text differs from the target text.
	Changed bool
	Merge   *MergeResult
}

// Update parses both texts, reconciles them, validates the merge and
// serializes it. referenceText is freshly extracted text whose values are
// placeholders; they are stripped before comparison.
//
// On error nothing is returned and the caller must leave the target as is.
func Update(targetText, referenceText string) (*Result, error) {
	target, err := stringsfile.Parse(targetText)
	if err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}

	reference, err := stringsfile.Parse(referenceText, stringsfile.WithStrippedValues())
	if err != nil {
		return nil, fmt.Errorf("parse reference: %w", err)
	}

	merge := Reconcile(target, reference)
	if err := Validate(merge.Document); err != nil {
		return nil, fmt.Errorf("validate merge: %w", err)
	}

	text := merge.Text()
	return &Result{
		Text:    text,
		Changed: text != targetText,
		Merge:   merge,
	}, nil
}
