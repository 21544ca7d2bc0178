package mpolymul

import (
	"fmt"
	"sort"
	"sync"
)

// MultiplierFactory creates Multiplier instances by name.
type MultiplierFactory interface {
	// Get returns the Multiplier registered under name.
	Get(name string) (Multiplier, error)

	// List returns a sorted list of registered names.
	List() []string

	// Register adds or replaces a multiplier.
	Register(name string, creator func() Multiplier) error

	// GetAll returns every registered multiplier.
	GetAll() map[string]Multiplier
}

// DefaultFactory is the default implementation of MultiplierFactory. It keeps
// a thread-safe registry of creators and caches the instances it builds.
type DefaultFactory struct {
	mu          sync.RWMutex
	creators    map[string]func() Multiplier
	multipliers map[string]Multiplier
}

// NewDefaultFactory returns a factory with the built-in multipliers:
//   - "auto": the dispatcher
//   - "dense", "array", "heap": one forced strategy each
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{
		creators:    make(map[string]func() Multiplier),
		multipliers: make(map[string]Multiplier),
	}
	_ = f.Register("auto", func() Multiplier { return autoMultiplier{} })
	for _, s := range []Strategy{StrategyDense, StrategyArray, StrategyHeap} {
		_ = f.Register(string(s), func() Multiplier { return forcedMultiplier{strategy: s} })
	}
	return f
}

// Register adds a multiplier under name, replacing any previous one. The
// creator is called lazily on first use.
func (f *DefaultFactory) Register(name string, creator func() Multiplier) error {
	if name == "" || creator == nil {
		return fmt.Errorf("invalid multiplier registration %q", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creators[name] = creator
	delete(f.multipliers, name)
	return nil
}

// Create returns a fresh, uncached instance of the multiplier name.
func (f *DefaultFactory) Create(name string) (Multiplier, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown multiplier: %s", name)
	}
	return creator(), nil
}

// Get returns the cached multiplier name, creating it on first use.
//
// Parameters:
//   - name: The name of the multiplier to retrieve.
//
// Returns:
//   - Multiplier: The Multiplier instance.
//   - error: An error if name is not registered.
func (f *DefaultFactory) Get(name string) (Multiplier, error) {
	f.mu.RLock()
	if m, exists := f.multipliers[name]; exists {
		f.mu.RUnlock()
		return m, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if m, exists := f.multipliers[name]; exists {
		return m, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, fmt.Errorf("unknown multiplier: %s", name)
	}
	m := creator()
	f.multipliers[name] = m
	return m, nil
}

// List returns the registered names in alphabetical order.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns a copy of the registry, creating every multiplier that has
// not been requested yet.
func (f *DefaultFactory) GetAll() map[string]Multiplier {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, creator := range f.creators {
		if _, exists := f.multipliers[name]; !exists {
			f.multipliers[name] = creator()
		}
	}
	result := make(map[string]Multiplier, len(f.multipliers))
	for name, m := range f.multipliers {
		result[name] = m
	}
	return result
}

// MustGet is like Get but panics if name is not registered.
func (f *DefaultFactory) MustGet(name string) Multiplier {
	m, err := f.Get(name)
	if err != nil {
		panic(fmt.Sprintf("mpolymul: required multiplier not found: %s", name))
	}
	return m
}

// Has reports whether name is registered.
func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, exists := f.creators[name]
	return exists
}

var globalFactory = NewDefaultFactory()

// GlobalFactory returns the process-wide factory.
func GlobalFactory() *DefaultFactory {
	return globalFactory
}

// RegisterMultiplier registers a multiplier in the global factory.
func RegisterMultiplier(name string, creator func() Multiplier) error {
	return globalFactory.Register(name, creator)
}
