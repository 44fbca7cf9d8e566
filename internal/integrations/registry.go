package integrations

import (
	"fmt"
	"sort"
	"sync"
)

// Registry хранит доступные CRM-провайдеры и имя текущего.
// Текущий провайдер выбирается при старте по CRM_PROVIDER.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]CRMProvider
	active    string
}

func NewRegistry(providers ...CRMProvider) (*Registry, error) {
	r := &Registry{providers: make(map[string]CRMProvider, len(providers))}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(provider CRMProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("CRM-провайдер '%s' уже зарегистрирован", name)
	}
	r.providers[name] = provider
	return nil
}

func (r *Registry) Use(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return fmt.Errorf("CRM-провайдер '%s' не зарегистрирован, доступны: %v", name, r.namesLocked())
	}
	r.active = name
	return nil
}

// Active возвращает выбранный провайдер.
func (r *Registry) Active() (CRMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == "" {
		return nil, fmt.Errorf("активный CRM-провайдер не выбран")
	}
	return r.providers[r.active], nil
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
