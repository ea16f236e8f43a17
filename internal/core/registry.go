package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/roledash/internal/roles"
)

var (
	registry   = make(map[roles.ViewKey]ViewDefinition)
	registryMu sync.RWMutex
)

// RegisterView adds a view definition to the registry.
// Panics if a view with the same key is already registered.
func RegisterView(def ViewDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("view already registered: %s", def.Info.Key))
	}

	registry[def.Info.Key] = def
}

// GetView returns a view definition by key.
// Returns false if not found.
func GetView(key roles.ViewKey) (ViewDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// ViewFor returns the view a role renders, as chosen by roles.Dispatch.
func ViewFor(r roles.Role) (ViewDefinition, bool) {
	return GetView(roles.Dispatch(r))
}

// AllViews returns all registered view definitions.
// Sorted by order then by key for consistent ordering.
func AllViews() []ViewDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ViewDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Order != result[j].Info.Order {
			return result[i].Info.Order < result[j].Info.Order
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ViewCount returns the number of registered views.
func ViewCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
