package moves

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownMove is returned by Create for an unregistered ID.
var ErrUnknownMove = errors.New("moves: unknown move")

// ErrDuplicateMove is returned by Add when the ID is taken.
var ErrDuplicateMove = errors.New("moves: duplicate move")

// Factory creates a fresh move definition.
type Factory func() Move

// Listing describes a registered move.
type Listing struct {
	ID     string
	Title  string
	Check  string // Skill check kind, empty when the move has none
	Source string // "builtin" or the script path
}

type entry struct {
	factory Factory
	listing Listing
}

var (
	entries = make(map[string]entry)
	mu      sync.RWMutex
)

// Register adds a built-in move. It is called from init() and panics on a
// duplicate ID.
func Register(id string, f Factory) {
	if err := add(id, f, "builtin"); err != nil {
		panic(err.Error())
	}
}

// Add registers a move loaded at runtime, such as a script.
func Add(id string, f Factory, source string) error {
	return add(id, f, source)
}

func add(id string, f Factory, source string) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := entries[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateMove, id)
	}

	m := f()
	l := Listing{ID: id, Title: m.Title(), Source: source}
	if cfg := m.Check(); cfg != nil {
		l.Check = cfg.Kind.String()
	}
	entries[id] = entry{factory: f, listing: l}
	return nil
}

// List returns every registered move sorted by ID.
func List() []Listing {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Listing, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.listing)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Create instantiates the move registered under id.
func Create(id string) (Move, error) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMove, id)
	}
	return e.factory(), nil
}

// Exists reports whether id is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := entries[id]
	return ok
}

func unregister(id string) {
	mu.Lock()
	defer mu.Unlock()
	delete(entries, id)
}
