package reconcile

import (
	"testing"

	"strings-sync/internal/stringsfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, text string) *stringsfile.Document {
	t.Helper()
	doc, err := stringsfile.Parse(text)
	require.NoError(t, err)
	return doc
}

func parseReference(t *testing.T, text string) *stringsfile.Document {
	t.Helper()
	doc, err := stringsfile.Parse(text, stringsfile.WithStrippedValues())
	require.NoError(t, err)
	return doc
}

func TestUpdate_Scenario(t *testing.T) {
	t.Parallel()

	target := "/* old note */\n\"A\" = \"Hello\";\n/* old note */\n\"B\" = \"World\";\n"
	reference := "/* new note */\n\"A\" = \"A\";\n/* new note */\n\"C\" = \"C\";\n"

	res, err := Update(target, reference)
	require.NoError(t, err)

	assert.Equal(t,
		"/* new note */\n\"A\" = \"Hello\";\n/* new note */\n\"C\" = \"\";\n/* old note */\n\"B\" = \"World\";\n",
		res.Text)
	assert.True(t, res.Changed)

	require.Len(t, res.Merge.Modifications, 2)
	assert.Equal(t, Modification{
		Key:    "A",
		Kind:   CommentChange,
		Before: "/* old note */\n",
		After:  "/* new note */\n",
	}, res.Merge.Modifications[0])
	assert.Equal(t, Modification{
		Key:     "C",
		Kind:    Insert,
		Payload: "/* new note */\n\"C\" = \"\";\n",
	}, res.Merge.Modifications[1])

	assert.Equal(t, []string{"A", "B"}, res.Merge.OrderBefore)
	assert.Equal(t, []string{"A", "C", "B"}, res.Merge.OrderAfter)
	assert.Equal(t, []string{"B"}, res.Merge.Superfluous)
	assert.True(t, res.Merge.OrderChanged())
}

func TestUpdate_SharedCommentBlock(t *testing.T) {
	t.Parallel()

	// The second reference entry has no comment of its own, so the inserted
	// entry gets none and B keeps its (empty) comment.
	target := "/* old note */\n\"A\" = \"Hello\";\n\"B\" = \"World\";\n"
	reference := "/* new note */\n\"A\" = \"\";\n\"C\" = \"\";\n"

	res, err := Update(target, reference)
	require.NoError(t, err)
	assert.Equal(t, "/* new note */\n\"A\" = \"Hello\";\n\"C\" = \"\";\n\"B\" = \"World\";\n", res.Text)
}

func TestUpdate_Idempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		target    string
		reference string
	}{
		{
			name:      "scenario",
			target:    "/* old note */\n\"A\" = \"Hello\";\n\"B\" = \"World\";\n",
			reference: "/* new note */\n\"A\" = \"A\";\n\"C\" = \"C\";\n",
		},
		{
			name:      "empty target",
			target:    "",
			reference: "/* a */\n\"A\" = \"A\";\n\n/* b */\n\"B\" = \"B\";\n",
		},
		{
			name:      "empty reference",
			target:    "/* a */\n\"A\" = \"Hallo\";\n",
			reference: "",
		},
		{
			name:      "reordered with trailer",
			target:    "/* c */\n\"C\" = \"3\";\n/* x */\n\"X\" = \"x\";\n/* a */\n\"A\" = \"1\";\n\n\n",
			reference: "/* a */\n\"A\" = \"A\";\n/* b */\n\"B\" = \"B\";\n/* c */\n\"C\" = \"C\";\n",
		},
		{
			name:      "missing final newlines",
			target:    "\"B\" = \"2\";\n\"A\" = \"1\";",
			reference: "\"A\" = \"A\";\n\"B\" = \"B\";\n\"C\" = \"C\";",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			first, err := Update(tc.target, tc.reference)
			require.NoError(t, err)

			second, err := Update(first.Text, tc.reference)
			require.NoError(t, err)

			assert.Empty(t, second.Merge.Modifications)
			assert.False(t, second.Changed)
			assert.Equal(t, first.Text, second.Text)
			assert.Equal(t, second.Merge.OrderBefore, second.Merge.OrderAfter)
			assert.False(t, second.Merge.OrderChanged())
		})
	}
}

func TestReconcile_PreservesValues(t *testing.T) {
	t.Parallel()

	target := parse(t, "\"A\" = \"Übersetzt\"; // !IS_OK\n  \"B\"  =  \"manually\u2028edited\" ;\n")
	reference := parseReference(t, "/* a */\n\"A\" = \"A\";\n/* b */\n\"B\" = \"B\";\n")

	res := Reconcile(target, reference)

	for _, key := range []string{"A", "B"} {
		before, _ := target.Get(key)
		after, ok := res.Document.Get(key)
		require.True(t, ok)
		assert.Equal(t, before.Line, after.Line, key)
	}
	assert.Equal(t, 2, res.Count(CommentChange))
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	targetText := "/* old */\n\"A\" = \"1\";\n"
	referenceText := "/* new */\n\"A\" = \"\";\n\"B\" = \"\";\n"
	target := parse(t, targetText)
	reference := parseReference(t, referenceText)

	res := Reconcile(target, reference)
	inserted, _ := res.Document.Get("B")
	inserted.Comment = "/* edited later */\n"

	assert.Equal(t, targetText, target.String())
	assert.Equal(t, referenceText, reference.String())
}

func TestReconcile_Insertion(t *testing.T) {
	t.Parallel()

	target := parse(t, "\"A\" = \"1\";\n")
	reference := parseReference(t, "/* new key */\n\"N\" = \"N\";\n\"A\" = \"A\";\n")

	res := Reconcile(target, reference)

	e, ok := res.Document.Get("N")
	require.True(t, ok)
	assert.Equal(t, "/* new key */\n", e.Comment)
	assert.Equal(t, "\"N\" = \"\";\n", e.Line)
	assert.Equal(t, []string{"N", "A"}, res.OrderAfter)
	assert.Equal(t, 1, res.Count(Insert))
	assert.True(t, res.OrderChanged())
}

func TestReconcile_OrderChanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		target    string
		reference string
		want      bool
	}{
		{name: "same keys", target: "\"A\" = \"1\";\n\"B\" = \"2\";\n", reference: "\"A\" = \"A\";\n\"B\" = \"B\";\n", want: false},
		{name: "insert only", target: "\"A\" = \"1\";\n\"B\" = \"2\";\n", reference: "\"A\" = \"A\";\n\"C\" = \"C\";\n\"B\" = \"B\";\n", want: true},
		{name: "swapped", target: "\"B\" = \"2\";\n\"A\" = \"1\";\n", reference: "\"A\" = \"A\";\n\"B\" = \"B\";\n", want: true},
		{name: "superfluous already last", target: "\"A\" = \"1\";\n\"X\" = \"x\";\n", reference: "\"A\" = \"A\";\n", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := Reconcile(parse(t, tc.target), parseReference(t, tc.reference))
			assert.Equal(t, tc.want, res.OrderChanged())
		})
	}
}

func TestReconcile_SuperfluousKeys(t *testing.T) {
	t.Parallel()

	target := parse(t, "/* z */\n\"Z\" = \"z\";\n\"A\" = \"1\";\n/* y */\n\"Y\" = \"y\";\n\"B\" = \"2\";\n\"X\" = \"x\";\n")
	reference := parseReference(t, "\"B\" = \"B\";\n\"A\" = \"A\";\n")

	res := Reconcile(target, reference)

	assert.Equal(t, []string{"B", "A", "Z", "Y", "X"}, res.OrderAfter)
	assert.Equal(t, []string{"Z", "Y", "X"}, res.Superfluous)
	assert.True(t, res.OrderChanged())
	assert.Equal(t,
		"\"B\" = \"2\";\n\"A\" = \"1\";\n/* z */\n\"Z\" = \"z\";\n/* y */\n\"Y\" = \"y\";\n\"X\" = \"x\";\n",
		res.Text())
}

func TestModification_WhitespaceOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mod  Modification
		want bool
	}{
		{
			name: "trailing blank line",
			mod:  Modification{Kind: CommentChange, Before: "/* a */\n\n", After: "/* a */\n"},
			want: true,
		},
		{
			name: "leading blank line",
			mod:  Modification{Kind: CommentChange, Before: "/* a */\n", After: "\n/* a */\n"},
			want: true,
		},
		{
			name: "text changed",
			mod:  Modification{Kind: CommentChange, Before: "/* a */\n", After: "/* b */\n"},
			want: false,
		},
		{
			name: "insert",
			mod:  Modification{Kind: Insert, Payload: "\"A\" = \"\";\n"},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.mod.WhitespaceOnly())
		})
	}
}
