package connect

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Locator finds the connection factory of a provider.
type Locator struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewLocator returns a locator holding the given factories.
func NewLocator(factories ...Factory) (*Locator, error) {
	l := &Locator{factories: make(map[string]Factory, len(factories))}
	for _, f := range factories {
		if err := l.Register(f); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Register adds a factory. Each provider can be registered once.
func (l *Locator) Register(f Factory) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := f.ProviderID()
	if _, ok := l.factories[id]; ok {
		return fmt.Errorf("%w: %s", ErrProviderRegistered, id)
	}
	l.factories[id] = f
	return nil
}

//nolint:ireturn
func (l *Locator) Factory(providerID string) (Factory, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	f, ok := l.factories[providerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerID)
	}
	return f, nil
}

// Authorizer returns the factory of providerID when it can run an authorization.
//
//nolint:ireturn
func (l *Locator) Authorizer(providerID string) (Authorizer, error) {
	f, err := l.Factory(providerID)
	if err != nil {
		return nil, err
	}
	a, ok := f.(Authorizer)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support authorization", ErrProviderMisconfigured, providerID)
	}
	return a, nil
}

// RegisteredProviderIDs returns the ids of all registered providers in ascending order,
// never nil.
func (l *Locator) RegisteredProviderIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := slices.AppendSeq(make([]string, 0, len(l.factories)), maps.Keys(l.factories))
	slices.Sort(ids)
	return ids
}
