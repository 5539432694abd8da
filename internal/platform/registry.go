package platform

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Marketplace)
	mu       sync.RWMutex
)

func init() {
	for _, m := range builtin() {
		Register(m)
	}
}

// Register adds or replaces a marketplace. Names are case-insensitive.
func Register(m Marketplace) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(m.Name)] = m
}

// Get returns the named marketplace or an error when it is unknown.
func Get(name string) (Marketplace, error) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := registry[strings.ToLower(name)]
	if !ok {
		return Marketplace{}, fmt.Errorf("platform %q not registered", name)
	}
	return m, nil
}

// Lookup is Get with a fallback: unknown names resolve to the default
// marketplace. The second result reports whether the name was known.
func Lookup(name string) (Marketplace, bool) {
	if m, err := Get(name); err == nil {
		return m, true
	}
	m, _ := Get(DefaultName)
	return m, false
}

func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
