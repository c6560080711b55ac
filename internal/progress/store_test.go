package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sqlmaster/internal/sqlite"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// registryLen matches the default curriculum.
const registryLen = 4

// setupStore opens an empty dataset and returns it with a store over it.
func setupStore(t *testing.T) (*sqlite.Dataset, *Store) {
	t.Helper()

	ds, err := sqlite.Open(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds, NewStore(ds.DB(), nil)
}

func historyOf(n int) []string {
	h := make([]string, n)
	for i := range h {
		h[i] = fmt.Sprintf("SELECT %d;", i)
	}
	return h
}

func TestSaveRestore_RoundTrip(t *testing.T) {
	for level := 0; level <= registryLen; level++ {
		for _, n := range []int{0, 1, 3, types.HistoryLimit} {
			t.Run(fmt.Sprintf("level %d history %d", level, n), func(t *testing.T) {
				_, store := setupStore(t)
				want := types.NewProgress(level, historyOf(n))

				require.NoError(t, store.Save(context.Background(), want))
				got, ok := store.Restore(context.Background(), registryLen)
				require.True(t, ok)
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestSave_KeepsOnlyRecentHistory(t *testing.T) {
	_, store := setupStore(t)
	p := types.NewProgress(2, historyOf(types.HistoryLimit+20))

	require.NoError(t, store.Save(context.Background(), p))
	got, ok := store.Restore(context.Background(), registryLen)
	require.True(t, ok)
	assert.Equal(t, p.RecentHistory(types.HistoryLimit), got.History)
	assert.Equal(t, "SELECT 20;", got.History[0])
}

func TestSave_Idempotent(t *testing.T) {
	ds, store := setupStore(t)
	p := types.NewProgress(3, []string{"CREATE TABLE korisnici (id INTEGER, ime TEXT);", "SELECT 1;"})

	require.NoError(t, store.Save(context.Background(), p))
	once, ok := store.Restore(context.Background(), registryLen)
	require.True(t, ok)

	require.NoError(t, store.Save(context.Background(), p))
	twice, ok := store.Restore(context.Background(), registryLen)
	require.True(t, ok)

	assert.Equal(t, once, twice)

	var rows int
	require.NoError(t, ds.DB().QueryRow("SELECT count(*) FROM __app_state__").Scan(&rows))
	assert.Equal(t, 2, rows, "saves replace rows instead of adding them")
}

func TestSave_OverwritesPreviousSave(t *testing.T) {
	_, store := setupStore(t)

	require.NoError(t, store.Save(context.Background(), types.NewProgress(1, []string{"a"})))
	require.NoError(t, store.Save(context.Background(), types.NewProgress(2, []string{"b"})))

	got, ok := store.Restore(context.Background(), registryLen)
	require.True(t, ok)
	assert.Equal(t, types.NewProgress(2, []string{"b"}), got)
}

func TestSave_WritesDocumentedFormat(t *testing.T) {
	ds, store := setupStore(t)
	require.NoError(t, store.Save(context.Background(), types.NewProgress(2, []string{"SELECT 1;"})))

	var level, history string
	require.NoError(t, ds.DB().QueryRow("SELECT value FROM __app_state__ WHERE key = 'level'").Scan(&level))
	require.NoError(t, ds.DB().QueryRow("SELECT value FROM __app_state__ WHERE key = 'history'").Scan(&history))
	assert.Equal(t, "2", level)

	var decoded []string
	require.NoError(t, json.Unmarshal([]byte(history), &decoded))
	assert.Equal(t, []string{"SELECT 1;"}, decoded)

	tables, err := ds.Tables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables, "reserved table is hidden from the learner")
}

func TestSave_InsideOpenTransaction(t *testing.T) {
	ctx := context.Background()
	ds, store := setupStore(t)
	require.NoError(t, ds.Exec(ctx, "BEGIN;").Err)

	p := types.NewProgress(2, []string{"BEGIN;"})
	require.NoError(t, store.Save(ctx, p))
	got, ok := store.Restore(ctx, registryLen)
	require.True(t, ok)
	assert.Equal(t, p, got)

	// The rows belong to the learner's transaction and go with it.
	require.NoError(t, ds.Exec(ctx, "ROLLBACK;").Err)
	_, ok = store.Restore(ctx, registryLen)
	assert.False(t, ok)
}

func TestRestore_Degrades(t *testing.T) {
	tests := []struct {
		name    string
		setup   string
		wantErr error
	}{
		{
			name:    "no reserved table",
			setup:   "CREATE TABLE korisnici (id INTEGER, ime TEXT);",
			wantErr: types.ErrStateNotFound,
		},
		{
			name:    "reserved table without level row",
			setup:   `CREATE TABLE __app_state__ (key TEXT PRIMARY KEY, value TEXT); INSERT INTO __app_state__ VALUES ('history', '[]');`,
			wantErr: types.ErrStateNotFound,
		},
		{
			name:    "non-numeric level",
			setup:   `CREATE TABLE __app_state__ (key TEXT PRIMARY KEY, value TEXT); INSERT INTO __app_state__ VALUES ('level', 'three');`,
			wantErr: types.ErrStateCorrupt,
		},
		{
			name:    "negative level",
			setup:   `CREATE TABLE __app_state__ (key TEXT PRIMARY KEY, value TEXT); INSERT INTO __app_state__ VALUES ('level', '-1');`,
			wantErr: types.ErrStateCorrupt,
		},
		{
			name:    "null level",
			setup:   `CREATE TABLE __app_state__ (key TEXT PRIMARY KEY, value TEXT); INSERT INTO __app_state__ VALUES ('level', NULL);`,
			wantErr: types.ErrStateCorrupt,
		},
		{
			name: "history is not JSON",
			setup: `CREATE TABLE __app_state__ (key TEXT PRIMARY KEY, value TEXT);
				INSERT INTO __app_state__ VALUES ('level', '1'), ('history', '[unterminated');`,
			wantErr: types.ErrStateCorrupt,
		},
		{
			name: "history is not a list of strings",
			setup: `CREATE TABLE __app_state__ (key TEXT PRIMARY KEY, value TEXT);
				INSERT INTO __app_state__ VALUES ('level', '1'), ('history', '[1, 2]');`,
			wantErr: types.ErrStateCorrupt,
		},
		{
			name:    "reserved table with another layout",
			setup:   `CREATE TABLE __app_state__ (something INTEGER);`,
			wantErr: types.ErrStateCorrupt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, store := setupStore(t)
			res := ds.Exec(context.Background(), tt.setup)
			require.NoError(t, res.Err)

			_, err := store.Load(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)

			var got types.Progress
			var ok bool
			assert.NotPanics(t, func() {
				got, ok = store.Restore(context.Background(), registryLen)
			})
			assert.False(t, ok)
			assert.Equal(t, types.Progress{}, got)
		})
	}
}

func TestRestore_CorruptedLevelAfterSave(t *testing.T) {
	ds, store := setupStore(t)
	require.NoError(t, store.Save(context.Background(), types.NewProgress(2, []string{"SELECT 1;"})))

	res := ds.Exec(context.Background(), "UPDATE __app_state__ SET value = 'two' WHERE key = 'level'")
	require.NoError(t, res.Err)

	_, ok := store.Restore(context.Background(), registryLen)
	assert.False(t, ok)
}

func TestRestore_LevelWithoutHistory(t *testing.T) {
	ds, store := setupStore(t)
	res := ds.Exec(context.Background(),
		`CREATE TABLE __app_state__ (key TEXT PRIMARY KEY, value TEXT); INSERT INTO __app_state__ VALUES ('level', '2');`)
	require.NoError(t, res.Err)

	got, ok := store.Restore(context.Background(), registryLen)
	require.True(t, ok)
	assert.Equal(t, types.NewProgress(2, nil), got)
}

func TestRestore_ClampsLevelBeyondRegistry(t *testing.T) {
	_, store := setupStore(t)
	require.NoError(t, store.Save(context.Background(), types.NewProgress(17, nil)))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 17, loaded.MissionIndex, "Load returns the stored value")

	got, ok := store.Restore(context.Background(), registryLen)
	require.True(t, ok)
	assert.Equal(t, registryLen, got.MissionIndex)
}

func TestSave_SurvivesExportImport(t *testing.T) {
	ctx := context.Background()
	ds, store := setupStore(t)
	want := types.NewProgress(1, []string{"CREATE TABLE korisnici (id INTEGER, ime TEXT);"})
	require.NoError(t, store.Save(ctx, want))

	data, err := ds.Export(ctx)
	require.NoError(t, err)

	imported, err := sqlite.Import(ctx, t.TempDir(), data, nil)
	require.NoError(t, err)
	t.Cleanup(func() { imported.Close() })

	got, ok := NewStore(imported.DB(), nil).Restore(ctx, registryLen)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
