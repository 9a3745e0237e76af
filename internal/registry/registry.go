// internal/registry/registry.go
package registry

import (
	"fmt"
	"sort"

	"github.com/jason-s-yu/crazyeights/internal/game"
	"github.com/jason-s-yu/crazyeights/internal/models"
)

// Module describes one playable game: how many seats it takes, the settings a new room starts
// with and how to build its rules engine.
type Module struct {
	ID         string
	Name       string
	MinPlayers int
	MaxPlayers int

	DefaultSettings func() models.Settings
	NewEngine       func(opts ...game.Option) *game.Engine
}

// Registry is the table of game modules a server was built with. It is constructed once at
// startup and handed to whatever composes rooms; nothing registers into it afterwards.
type Registry struct {
	modules map[string]Module
}

// New builds a registry from mods. IDs must be unique and every module must be complete.
func New(mods ...Module) (*Registry, error) {
	r := &Registry{modules: make(map[string]Module, len(mods))}
	for _, m := range mods {
		if m.ID == "" || m.NewEngine == nil || m.DefaultSettings == nil {
			return nil, fmt.Errorf("module %q is incomplete", m.ID)
		}
		if m.MinPlayers < 1 || m.MaxPlayers < m.MinPlayers {
			return nil, fmt.Errorf("module %q: invalid player range %d..%d", m.ID, m.MinPlayers, m.MaxPlayers)
		}
		if _, dup := r.modules[m.ID]; dup {
			return nil, fmt.Errorf("module %q registered twice", m.ID)
		}
		r.modules[m.ID] = m
	}
	return r, nil
}

// Lookup returns the module registered under id.
func (r *Registry) Lookup(id string) (Module, bool) {
	m, ok := r.modules[id]
	return m, ok
}

// Modules lists every module ordered by ID.
func (r *Registry) Modules() []Module {
	out := make([]Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CrazyEightsID identifies the Crazy Eights module.
const CrazyEightsID = "crazyeights"

// CrazyEights is the Crazy Eights module: two to eight players on the default house rules.
func CrazyEights() Module {
	return Module{
		ID:              CrazyEightsID,
		Name:            "Crazy Eights",
		MinPlayers:      2,
		MaxPlayers:      8,
		DefaultSettings: models.DefaultSettings,
		NewEngine:       game.NewEngine,
	}
}

// Default is the registry the server ships with.
func Default() *Registry {
	r, err := New(CrazyEights())
	if err != nil {
		panic(err)
	}
	return r
}
