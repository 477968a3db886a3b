package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/specialistvlad/chainrun/internal/chaindef"
	"github.com/specialistvlad/chainrun/internal/stage"
)

// ErrUnknownStage is returned when no factory is registered for an identifier.
var ErrUnknownStage = errors.New("unknown stage")

// Factory builds a new, unconfigured stage instance.
type Factory func() stage.Stage

// Module is the interface that all stage packages must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the stage factories for a single application instance.
type Registry struct {
	factories map[string]Factory
}

// New creates and initializes a new Registry instance.
func New(modules ...Module) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
	}
	for _, mod := range modules {
		mod.Register(r)
	}
	return r
}

// RegisterStage registers the factory for a stage identifier.
func (r *Registry) RegisterStage(id string, factory Factory) {
	if _, exists := r.factories[id]; exists {
		panic(fmt.Sprintf("stage with id '%s' already registered", id))
	}
	if factory == nil {
		panic(fmt.Sprintf("stage with id '%s' registered with a nil factory", id))
	}
	slog.Debug("Registering stage.", "id", id)
	r.factories[id] = factory
}

// Resolve returns a fresh instance of the stage registered under id.
func (r *Registry) Resolve(id string) (stage.Stage, error) {
	factory, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownStage, id)
	}
	return factory(), nil
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Validate checks that every stage of def is registered.
func (r *Registry) Validate(def *chaindef.Definition) error {
	var errs []string
	for i, d := range def.Stages {
		if _, ok := r.factories[d.ID]; !ok {
			errs = append(errs, fmt.Sprintf("stage %d: no stage registered for id '%s'", i, d.ID))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: chain '%s' cannot be resolved:\n- %s\nregistered stages: %s",
			ErrUnknownStage, def.Name, strings.Join(errs, "\n- "), strings.Join(r.IDs(), ", "))
	}
	return nil
}
