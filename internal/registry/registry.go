package registry

import (
	"fmt"
	"sync"

	"mcpbase/internal/api"
)

// Registry stores the domain tools of one server. Registration happens while
// the server is starting; once the server is ready the registry is frozen
// and serves lookups without further mutation.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]api.ToolDefinition
	order  []string
	frozen bool
}

// New creates an empty tool registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]api.ToolDefinition),
	}
}

// Register adds a tool definition to the registry
func (r *Registry) Register(def api.ToolDefinition) error {
	if err := api.ValidateDefinition(def); err != nil {
		return err
	}

	for _, reserved := range api.BuiltinToolNames {
		if def.Name == reserved {
			return fmt.Errorf("tool name %s is reserved for builtin tools", def.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return api.ErrRegistryFrozen
	}

	if _, exists := r.byName[def.Name]; exists {
		return api.NewDuplicateToolError(def.Name)
	}

	r.byName[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Resolve returns a tool definition by name
func (r *Registry) Resolve(name string) (api.ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.byName[name]
	return def, exists
}

// List returns all registered tools in registration order
func (r *Registry) List() []api.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]api.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.byName[name])
	}
	return defs
}

// Freeze fixes the tool set. Called once when the server transitions to
// ready; Register returns api.ErrRegistryFrozen afterwards.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frozen = true
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
