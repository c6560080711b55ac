package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sqlmaster/internal/artifact"
	"github.com/mesh-intelligence/sqlmaster/internal/sqlite"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// recorder keeps every event it receives as a short string.
type recorder struct {
	events []string
	tables []string
}

func (r *recorder) OnCheckRequested() { r.events = append(r.events, "check") }
func (r *recorder) OnMissionPassed(m types.Mission) {
	r.events = append(r.events, fmt.Sprintf("passed %d", m.ID))
}
func (r *recorder) OnMissionAdvanced(i int) { r.events = append(r.events, fmt.Sprintf("advanced %d", i)) }
func (r *recorder) OnValidationFailed(hint string) {
	r.events = append(r.events, "failed "+hint)
}
func (r *recorder) OnLoadCompleted(i int, restored bool) {
	r.events = append(r.events, fmt.Sprintf("loaded %d %v", i, restored))
}
func (r *recorder) OnTablesChanged(tables []string) {
	r.events = append(r.events, "tables")
	r.tables = tables
}

func (r *recorder) reset() { r.events = nil }

func newTestSession(t *testing.T) (*Session, *recorder, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	rec := &recorder{}
	s, err := New(context.Background(), Options{
		ScratchDir: t.TempDir(),
		Artifacts:  artifact.NewStore(fs, "/saves"),
		Listener:   rec,
		Now:        func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, rec, fs
}

func submit(t *testing.T, s *Session, cmd string) types.ExecutionResult {
	t.Helper()
	res := s.Submit(context.Background(), cmd)
	require.NoError(t, res.Err, cmd)
	return res
}

func TestNew_StartsAtFirstMission(t *testing.T) {
	s, _, _ := newTestSession(t)

	assert.Equal(t, 0, s.Progress().MissionIndex)
	assert.Equal(t, 0, s.Focus())
	assert.False(t, s.IsComplete())
	m, ok := s.Mission()
	require.True(t, ok)
	assert.Equal(t, 0, m.ID)
}

func TestNew_EngineFailure(t *testing.T) {
	_, err := New(context.Background(), Options{ScratchDir: "/dev/null/scratch"})
	assert.ErrorIs(t, err, types.ErrEngineInit)
}

func TestSubmit_RecordsHistoryAndLastResult(t *testing.T) {
	s, rec, _ := newTestSession(t)

	submit(t, s, "CREATE TABLE korisnici (id INTEGER, ime TEXT);")
	assert.Equal(t, []string{"tables"}, rec.events)
	assert.Equal(t, []string{"korisnici"}, rec.tables)

	res := s.Submit(context.Background(), "SELEKT nothing")
	assert.True(t, res.Failed())
	assert.True(t, s.LastResult().Failed())

	assert.Equal(t, []string{
		"CREATE TABLE korisnici (id INTEGER, ime TEXT);",
		"SELEKT nothing",
	}, s.Progress().History)
	assert.Equal(t, 0, s.Progress().MissionIndex, "statements never move progress")
}

func TestSubmit_NormalizesToNFC(t *testing.T) {
	s, _, _ := newTestSession(t)

	// "e" followed by a combining acute accent.
	submit(t, s, "SELECT 'cafe\u0301' AS word;")
	assert.Equal(t, "SELECT 'caf\u00e9' AS word;", s.Progress().History[0])

	set, ok := s.LastResult().First()
	require.True(t, ok)
	assert.Equal(t, "caf\u00e9", set.Rows[0][0])
}

func TestCheck_Events(t *testing.T) {
	s, rec, _ := newTestSession(t)

	out := s.Check(context.Background())
	assert.Equal(t, types.OutcomeFailed, out.Status)
	assert.Equal(t, []string{"check", "failed CREATE TABLE korisnici (id INTEGER, ime TEXT);"}, rec.events)

	submit(t, s, "CREATE TABLE korisnici (id INTEGER, ime TEXT);")
	rec.reset()
	out = s.Check(context.Background())
	assert.True(t, out.Passed())
	assert.Equal(t, []string{"check", "passed 0", "advanced 1"}, rec.events)
	assert.Equal(t, 1, s.Progress().MissionIndex)
}

func TestCheck_FailedStatementDoesNotPass(t *testing.T) {
	s, _, _ := newTestSession(t)
	submit(t, s, "CREATE TABLE korisnici (id INTEGER, ime TEXT);")
	s.Check(context.Background())
	submit(t, s, "INSERT INTO korisnici VALUES (1, 'Ana');")
	s.Check(context.Background())

	s.Submit(context.Background(), "SELECT * FROM nowhere;")
	out := s.Check(context.Background())
	assert.Equal(t, types.OutcomeFailed, out.Status)
	assert.Equal(t, 2, s.Progress().MissionIndex)
}

func TestJumpTo(t *testing.T) {
	s, _, _ := newTestSession(t)
	submit(t, s, "CREATE TABLE korisnici (id INTEGER, ime TEXT);")
	require.True(t, s.Check(context.Background()).Passed())

	assert.ErrorIs(t, s.JumpTo(2), types.ErrMissionLocked)
	assert.ErrorIs(t, s.JumpTo(-1), types.ErrMissionOutOfRange)
	assert.Equal(t, 1, s.Focus())

	require.NoError(t, s.JumpTo(0))
	m, ok := s.Mission()
	require.True(t, ok)
	assert.Equal(t, 0, m.ID)
	assert.Equal(t, 1, s.Progress().MissionIndex)
}

// TestScenario plays the full curriculum, saves, and loads the artifact into
// a fresh session.
func TestScenario(t *testing.T) {
	ctx := context.Background()
	s, rec, fs := newTestSession(t)

	steps := []struct {
		cmd      string
		wantPass bool
	}{
		{cmd: "SELECT 1;", wantPass: false},
		{cmd: "CREATE TABLE korisnici (id INTEGER, ime TEXT);", wantPass: true},
		{cmd: "INSERT INTO korisnici VALUES (1, 'Petar');", wantPass: true},
		{cmd: "SELECT id FROM korisnici;", wantPass: false},
		{cmd: "SELECT * FROM korisnici;", wantPass: true},
		{cmd: "CREATE TABLE automobili (id INTEGER PRIMARY KEY, marka TEXT, cena INTEGER);", wantPass: true},
	}
	for _, step := range steps {
		submit(t, s, step.cmd)
		out := s.Check(ctx)
		assert.Equal(t, step.wantPass, out.Passed(), step.cmd)
	}

	require.True(t, s.IsComplete())
	_, ok := s.Mission()
	assert.False(t, ok)
	assert.Equal(t, types.OutcomeComplete, s.Check(ctx).Status)

	path, err := s.Save(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, path, "sqlmaster_level4_")

	other, err := New(ctx, Options{
		ScratchDir: t.TempDir(),
		Artifacts:  artifact.NewStore(fs, "/saves"),
		Listener:   rec,
	})
	require.NoError(t, err)
	t.Cleanup(func() { other.Close() })

	rec.reset()
	restored, err := other.Load(ctx, path)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.True(t, other.IsComplete())
	assert.Equal(t, s.Progress(), other.Progress())
	assert.Equal(t, []string{"loaded 4 true", "tables"}, rec.events)
	assert.Equal(t, []string{"automobili", "korisnici"}, rec.tables)

	res := other.Submit(ctx, "SELECT ime FROM korisnici;")
	require.NoError(t, res.Err)
	set, ok := res.First()
	require.True(t, ok)
	assert.Equal(t, [][]any{{"Petar"}}, set.Rows)
}

func TestSave_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	submit(t, s, "CREATE TABLE korisnici (id INTEGER, ime TEXT);")
	require.True(t, s.Check(ctx).Passed())

	_, err := s.Save(ctx, "one")
	require.NoError(t, err)
	_, err = s.Save(ctx, "two")
	require.NoError(t, err)

	for _, name := range []string{"one", "two"} {
		restored, err := s.Load(ctx, name)
		require.NoError(t, err)
		assert.True(t, restored)
		assert.Equal(t, 1, s.Progress().MissionIndex)
	}
}

func TestSave_OpenTransaction(t *testing.T) {
	ctx := context.Background()
	s, _, fs := newTestSession(t)
	submit(t, s, "CREATE TABLE korisnici (id INTEGER, ime TEXT);")
	submit(t, s, "BEGIN;")
	submit(t, s, "INSERT INTO korisnici VALUES (1, 'Ana');")

	path, err := s.Save(ctx, "snap")
	assert.ErrorIs(t, err, types.ErrTransactionOpen)
	assert.Empty(t, path)
	exists, err := afero.Exists(fs, "/saves/snap.sqlite")
	require.NoError(t, err)
	assert.False(t, exists, "nothing is written while the transaction is open")

	// The learner's transaction is still open and can be committed.
	submit(t, s, "COMMIT;")
	path, err = s.Save(ctx, "snap")
	require.NoError(t, err)
	assert.Equal(t, "/saves/snap.sqlite", path)

	restored, err := s.Load(ctx, "snap")
	require.NoError(t, err)
	assert.True(t, restored)
	res := submit(t, s, "SELECT ime FROM korisnici;")
	assert.Equal(t, [][]any{{"Ana"}}, res.Sets[0].Rows)
}

func TestLoad_WithoutSavedProgressKeepsState(t *testing.T) {
	ctx := context.Background()
	s, rec, fs := newTestSession(t)
	submit(t, s, "CREATE TABLE korisnici (id INTEGER, ime TEXT);")
	require.True(t, s.Check(ctx).Passed())
	before := s.Progress()

	// A database file exported by a plain dataset, with no progress rows.
	plain, err := sqlite.Open(ctx, t.TempDir(), nil)
	require.NoError(t, err)
	defer plain.Close()
	require.NoError(t, plain.Exec(ctx, "CREATE TABLE gradovi (ime TEXT);").Err)
	data, err := plain.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/saves/plain.sqlite", data, 0o644))

	rec.reset()
	restored, err := s.Load(ctx, "plain")
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Equal(t, before, s.Progress())
	assert.Equal(t, []string{"loaded 1 false", "tables"}, rec.events)
	assert.Equal(t, []string{"gradovi"}, rec.tables, "dataset was replaced")
}

func TestLoad_CorruptLevelKeepsState(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	submit(t, s, "CREATE TABLE korisnici (id INTEGER, ime TEXT);")
	require.True(t, s.Check(ctx).Passed())

	_, err := s.Save(ctx, "lesson")
	require.NoError(t, err)

	// Overwrite the saved level in the live dataset, then export it.
	require.NoError(t, s.ds.Exec(ctx, "UPDATE __app_state__ SET value = 'not a number' WHERE key = 'level';").Err)
	data, err := s.ds.Export(ctx)
	require.NoError(t, err)

	restored, err := s.LoadBytes(ctx, data)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Equal(t, 1, s.Progress().MissionIndex)
	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"korisnici"}, tables)
}

func TestLoad_FailureLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	s, rec, fs := newTestSession(t)
	submit(t, s, "CREATE TABLE korisnici (id INTEGER, ime TEXT);")
	require.True(t, s.Check(ctx).Passed())
	before := s.Progress()

	require.NoError(t, afero.WriteFile(fs, "/saves/notes.sqlite", []byte("just some text, not a database"), 0o644))

	rec.reset()
	_, err := s.Load(ctx, "notes")
	assert.ErrorIs(t, err, types.ErrInvalidArtifact)
	_, err = s.Load(ctx, "missing")
	assert.Error(t, err)

	assert.Empty(t, rec.events)
	assert.Equal(t, before, s.Progress())
	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"korisnici"}, tables)
}

func TestLoad_ClampsLevelBeyondRegistry(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	require.NoError(t, s.ds.Exec(ctx, `CREATE TABLE __app_state__ (key TEXT PRIMARY KEY, value TEXT);
		INSERT INTO __app_state__ VALUES ('level', '42'), ('history', '["SELECT 1;"]');`).Err)
	data, err := s.ds.Export(ctx)
	require.NoError(t, err)

	restored, err := s.LoadBytes(ctx, data)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.True(t, s.IsComplete())
	assert.Equal(t, 4, s.Progress().MissionIndex)
	assert.Equal(t, []string{"SELECT 1;"}, s.Progress().History)
}

func TestLoadDemo(t *testing.T) {
	ctx := context.Background()
	s, rec, _ := newTestSession(t)

	require.NoError(t, s.LoadDemo(ctx))
	assert.Equal(t, []string{"tables"}, rec.events)
	assert.Equal(t, sqlite.DemoTables, rec.tables)

	res := submit(t, s, "SELECT count(*) FROM studenti;")
	set, ok := res.First()
	require.True(t, ok)
	assert.Positive(t, set.Rows[0][0])
}
