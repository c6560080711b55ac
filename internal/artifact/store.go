// Package artifact reads and writes exported dataset files.
package artifact

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
)

// Ext is the extension given to artifact names that have none.
const Ext = ".sqlite"

// ErrNameEmpty is returned when an artifact name is blank.
var ErrNameEmpty = errors.New("artifact name is empty")

// Store resolves artifact names against a directory on an afero filesystem.
// Absolute names are used as given.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a store rooted at dir. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs, dir string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, dir: dir}
}

// Dir returns the directory relative names resolve against.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file a name refers to. A name without an extension gets
// Ext appended.
func (s *Store) Path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameEmpty
	}
	if filepath.Ext(name) == "" {
		name += Ext
	}
	if filepath.IsAbs(name) || s.dir == "" {
		return filepath.Clean(name), nil
	}
	return filepath.Join(s.dir, name), nil
}

// Write stores data under name and returns the path written. The file is
// written to a temporary sibling and renamed into place, so a reader never
// sees a partial artifact.
func (s *Store) Write(name string, data []byte) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".sqlmaster-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return path, nil
}

// Read returns the contents of the artifact called name. A missing file
// is reported with an error matching os.ErrNotExist.
func (s *Store) Read(name string) ([]byte, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return data, nil
}

// Exists reports whether the artifact called name is present.
func (s *Store) Exists(name string) (bool, error) {
	path, err := s.Path(name)
	if err != nil {
		return false, err
	}
	_, err = s.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// DefaultName returns a file name for an export made at the given mission
// index. Names sort by creation time.
func DefaultName(level int, now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0))
	return fmt.Sprintf("sqlmaster_level%d_%s%s", level, id, Ext)
}
