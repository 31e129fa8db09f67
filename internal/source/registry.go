package source

import (
	"context"
	"sort"
	"sync"
)

// Constructor opens a Reader for the given configuration.
type Constructor func(ctx context.Context, cfg Config) (Reader, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

func init() {
	Register(KindCSV, openCSV)
	Register(KindDatabase, openDatabase)
}

// Register registers a source constructor by kind.
// Registering an existing kind overwrites the previous constructor.
//
// This function is safe for concurrent use and is typically called from
// init() functions.
func Register(kind string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = constructor
}

// Lookup returns the constructor registered for kind, or nil.
func Lookup(kind string) Constructor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[kind]
}

// Kinds returns the registered kinds in sorted order.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
