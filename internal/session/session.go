// Package session ties a learner's working dataset to their progress
// through the mission curriculum. A Session owns the dataset, the mission
// state and the result of the last statement; the presentation layer drives
// it and is told about changes through a types.Listener.
//
// A Session serves one learner and is not safe for concurrent use.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/mesh-intelligence/sqlmaster/internal/artifact"
	"github.com/mesh-intelligence/sqlmaster/internal/mission"
	"github.com/mesh-intelligence/sqlmaster/internal/progress"
	"github.com/mesh-intelligence/sqlmaster/internal/sqlite"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// Options configures New. Zero values select defaults.
type Options struct {
	// ScratchDir holds working dataset files. Empty means the system
	// temporary directory.
	ScratchDir string

	// Registry is the curriculum. Nil means mission.Default().
	Registry *mission.Registry

	// Artifacts reads and writes exported datasets. Nil means a store on
	// the OS filesystem relative to the working directory.
	Artifacts *artifact.Store

	// Listener receives session events. Nil means types.NopListener.
	Listener types.Listener

	Logger *slog.Logger

	// Now returns the current time for default artifact names.
	Now func() time.Time
}

// Session is one learner's working session.
type Session struct {
	machine   *mission.Machine
	ds        *sqlite.Dataset
	state     mission.State
	last      types.ExecutionResult
	artifacts *artifact.Store
	listener  types.Listener
	logger    *slog.Logger
	scratch   string
	now       func() time.Time
}

// New opens an empty working dataset and starts at the first mission. A
// dataset that cannot be opened is reported as types.ErrEngineInit.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Registry == nil {
		opts.Registry = mission.Default()
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.NewStore(nil, "")
	}
	if opts.Listener == nil {
		opts.Listener = types.NopListener{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ds, err := sqlite.Open(ctx, opts.ScratchDir, opts.Logger)
	if err != nil {
		return nil, err
	}

	machine := mission.NewMachine(opts.Registry, opts.Logger)
	s := &Session{
		machine:   machine,
		ds:        ds,
		state:     machine.NewState(types.Progress{}),
		artifacts: opts.Artifacts,
		listener:  opts.Listener,
		logger:    opts.Logger,
		scratch:   opts.ScratchDir,
		now:       opts.Now,
	}
	s.logger.Info("session started", "missions", opts.Registry.Len())
	return s, nil
}

// Submit records cmd in the history and runs it against the dataset. The
// result becomes the last result seen by Check. Listeners are told about the
// table list when the command may have changed the schema.
func (s *Session) Submit(ctx context.Context, cmd string) types.ExecutionResult {
	cmd = norm.NFC.String(cmd)
	s.last = types.ExecutionResult{}
	s.state.Progress = s.state.Progress.Record(cmd)

	res := s.ds.Exec(ctx, cmd)
	s.last = res
	s.logger.Debug("statement executed", "elapsed", res.Elapsed, "sets", len(res.Sets), "failed", res.Failed())

	if res.SchemaChanged {
		s.notifyTables(ctx)
	}
	return res
}

// Check validates the mission in focus against the last result and the
// live dataset, moving on when it passes.
func (s *Session) Check(ctx context.Context) types.Outcome {
	s.listener.OnCheckRequested()

	checked, _ := s.machine.Current(s.state)
	next, out := s.machine.Check(ctx, s.state, s.last, s.ds)
	s.state = next

	switch out.Status {
	case types.OutcomePassed:
		s.listener.OnMissionPassed(checked)
		s.listener.OnMissionAdvanced(next.Focus)
	case types.OutcomeFailed:
		s.listener.OnValidationFailed(out.Hint)
	}
	return out
}

// JumpTo opens mission index for review. Missions after the current one are
// locked.
func (s *Session) JumpTo(index int) error {
	next, err := s.machine.JumpTo(s.state, index)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Focus returns the index of the mission on display.
func (s *Session) Focus() int {
	return s.state.Focus
}

// Progress returns a copy of the learner's progress.
func (s *Session) Progress() types.Progress {
	return types.NewProgress(s.state.Progress.MissionIndex, s.state.Progress.History)
}

// Mission returns the mission on display. ok is false once every mission
// is complete.
func (s *Session) Mission() (types.Mission, bool) {
	return s.machine.Current(s.state)
}

// Registry returns the curriculum.
func (s *Session) Registry() *mission.Registry {
	return s.machine.Registry()
}

// IsComplete reports whether every mission has been passed.
func (s *Session) IsComplete() bool {
	return s.machine.IsComplete(s.state)
}

// LastResult returns the result of the most recent statement.
func (s *Session) LastResult() types.ExecutionResult {
	return s.last
}

// Tables returns the learner's tables.
func (s *Session) Tables(ctx context.Context) ([]string, error) {
	return s.ds.Tables(ctx)
}

// Save writes progress into the dataset and exports it as an artifact
// called name, returning the path written. An empty name picks a default
// carrying the mission index. While the learner has a transaction open,
// Save returns types.ErrTransactionOpen and writes nothing.
func (s *Session) Save(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = artifact.DefaultName(s.state.Progress.MissionIndex, s.now())
	}

	open, err := s.ds.InTransaction(ctx)
	if err != nil {
		return "", fmt.Errorf("checking transaction state: %w", err)
	}
	if open {
		return "", types.ErrTransactionOpen
	}

	if err := progress.NewStore(s.ds.DB(), s.logger).Save(ctx, s.state.Progress); err != nil {
		return "", fmt.Errorf("saving progress: %w", err)
	}
	data, err := s.ds.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("exporting dataset: %w", err)
	}
	path, err := s.artifacts.Write(name, data)
	if err != nil {
		return "", err
	}

	s.logger.Info("dataset saved", "path", path, "level", s.state.Progress.MissionIndex, "bytes", len(data))
	return path, nil
}

// Load replaces the working dataset with the artifact called name and
// restores the progress saved in it. restored is false when the artifact
// carries no usable progress; the current progress is then kept. When the
// artifact cannot be read or is not a database, Load returns an error and
// the session is unchanged.
func (s *Session) Load(ctx context.Context, name string) (bool, error) {
	data, err := s.artifacts.Read(name)
	if err != nil {
		return false, err
	}
	return s.LoadBytes(ctx, data)
}

// LoadBytes is Load for an artifact already in memory.
func (s *Session) LoadBytes(ctx context.Context, data []byte) (bool, error) {
	incoming, err := sqlite.Import(ctx, s.scratch, data, s.logger)
	if err != nil {
		return false, err
	}

	p, restored := progress.NewStore(incoming.DB(), s.logger).Restore(ctx, s.Registry().Len())

	old := s.ds
	s.ds = incoming
	s.last = types.ExecutionResult{}
	if restored {
		s.state = s.machine.NewState(p)
	}
	if err := old.Close(); err != nil {
		s.logger.Warn("closing previous dataset", "error", err)
	}

	s.logger.Info("dataset loaded", "restored", restored, "level", s.state.Progress.MissionIndex)
	s.listener.OnLoadCompleted(s.state.Progress.MissionIndex, restored)
	s.notifyTables(ctx)
	return restored, nil
}

// LoadDemo adds the demo tables to the working dataset.
func (s *Session) LoadDemo(ctx context.Context) error {
	if err := s.ds.SeedDemo(ctx); err != nil {
		return err
	}
	s.notifyTables(ctx)
	return nil
}

// Close releases the working dataset.
func (s *Session) Close() error {
	return s.ds.Close()
}

func (s *Session) notifyTables(ctx context.Context) {
	tables, err := s.ds.Tables(ctx)
	if err != nil {
		s.logger.Warn("listing tables", "error", err)
		return
	}
	s.listener.OnTablesChanged(tables)
}
