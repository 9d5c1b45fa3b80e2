package task

import (
	"sort"
	"sync"

	"github.com/golang/glog"
)

// Factory creates a new task instance.
type Factory func() Task

// Registry maps task keys to factories.
type Registry struct {
	lock      sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under key, replacing an existing one.
func (r *Registry) Register(key string, factory Factory) *Registry {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.factories[key] = factory
	return r
}

// New creates the task for key. It never fails: an unknown key yields a
// Noop task.
func (r *Registry) New(key string) Task {
	r.lock.RLock()
	factory, ok := r.factories[key]
	r.lock.RUnlock()
	if !ok {
		glog.Warningf("unknown task key %q, using noop", key)
		return &Noop{Key: key}
	}
	return factory()
}

// Keys lists registered keys in order.
func (r *Registry) Keys() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	keys := make([]string, 0, len(r.factories))
	for key := range r.factories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
