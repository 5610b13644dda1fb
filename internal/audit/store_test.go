package audit

import (
	"context"
	"os"
	"testing"

	"strings-sync/internal/filewalker"
	"strings-sync/internal/reconcile"
	"strings-sync/internal/updater"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(t *testing.T, path string) updater.Record {
	t.Helper()

	before := "/* old */\n\"A\" = \"Hallo\";\n\"B\" = \"Welt\";\n"
	res, err := reconcile.Update(before, "/* new */\n\"A\" = \"A\";\n\"C\" = \"C\";\n")
	require.NoError(t, err)

	return updater.Record{
		Group:  filewalker.Group{Kind: filewalker.KindIB, Base: "/repo/Base.lproj/Main.storyboard"},
		Path:   path,
		WetRun: true,
		Before: before,
		After:  res.Text,
		Merge:  res.Merge,
	}
}

func TestModificationRows(t *testing.T) {
	t.Parallel()

	rows := modificationRows(7, sampleRecord(t, "de.lproj/Main.strings"))

	assert.Equal(t, [][]any{
		{int64(7), int32(0), "A", "comment", "", "/* old */\n", "/* new */\n"},
		{int64(7), int32(1), "C", "insert", "\"C\" = \"\";\n", "", ""},
	}, rows)
	for _, row := range rows {
		assert.Len(t, row, len(modificationColumns))
	}
}

// TestStore_PostgreSQL runs against a real database when
// STRINGS_SYNC_TEST_DATABASE_URL is set.
func TestStore_PostgreSQL(t *testing.T) {
	url := os.Getenv("STRINGS_SYNC_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("STRINGS_SYNC_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	path := "test/" + t.Name() + "/de.lproj/Main.strings"
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DELETE FROM strings_sync_documents WHERE path = $1", path)
	})

	require.NoError(t, store.Record(ctx, sampleRecord(t, path)))

	runs, err := store.History(ctx, path, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, path, runs[0].Path)
	assert.EqualValues(t, 1, runs[0].Inserted)
	assert.EqualValues(t, 1, runs[0].CommentChanges)
	assert.Equal(t, []string{"B"}, runs[0].Superfluous)
	assert.True(t, runs[0].WetRun)
	assert.False(t, runs[0].Written)
}
