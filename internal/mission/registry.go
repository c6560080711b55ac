// Package mission holds the curriculum and the rules for moving through it:
// the registry of missions, the evaluator for mission checks, and the state
// machine that advances a learner when a check passes.
package mission

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

//go:embed missions.yaml
var defaultCatalog []byte

// Registry is the ordered, read-only catalog of missions. A mission's ID is
// its position in the catalog, and the catalog length is the index at which
// the curriculum is complete.
type Registry struct {
	missions []types.Mission
}

// catalogFile is the YAML layout of a mission catalog.
type catalogFile struct {
	Missions []types.Mission `yaml:"missions"`
}

// NewRegistry builds a registry from missions, which must be non-empty,
// ordered by ID starting at zero, and carry valid checks. Returns an error
// wrapping ErrRegistryInvalid otherwise. The slice is copied.
func NewRegistry(missions []types.Mission) (*Registry, error) {
	if len(missions) == 0 {
		return nil, fmt.Errorf("%w: no missions", types.ErrRegistryInvalid)
	}
	for i, m := range missions {
		if m.ID != i {
			return nil, fmt.Errorf("%w: mission at position %d has id %d", types.ErrRegistryInvalid, i, m.ID)
		}
		if m.Title == "" {
			return nil, fmt.Errorf("%w: mission %d has no title", types.ErrRegistryInvalid, i)
		}
		if err := m.Check.Validate(); err != nil {
			return nil, fmt.Errorf("%w: mission %d: %w", types.ErrRegistryInvalid, i, err)
		}
	}
	cp := make([]types.Mission, len(missions))
	copy(cp, missions)
	return &Registry{missions: cp}, nil
}

// Parse builds a registry from a YAML catalog.
func Parse(data []byte) (*Registry, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrRegistryInvalid, err)
	}
	return NewRegistry(f.Missions)
}

// Default returns the built-in curriculum. It panics if the embedded
// catalog is invalid, which only a broken build can cause.
func Default() *Registry {
	r, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded mission catalog: %v", err))
	}
	return r
}

// Len returns the number of missions.
func (r *Registry) Len() int {
	return len(r.missions)
}

// At returns the mission at index i.
func (r *Registry) At(i int) (types.Mission, bool) {
	if i < 0 || i >= len(r.missions) {
		return types.Mission{}, false
	}
	return r.missions[i], true
}

// All returns a copy of every mission in order.
func (r *Registry) All() []types.Mission {
	cp := make([]types.Mission, len(r.missions))
	copy(cp, r.missions)
	return cp
}
