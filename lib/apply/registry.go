// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"slices"
	"sync"
)

// Registry maps procedure names to Go procedures. It is safe for
// concurrent use.
type Registry struct {
	mutex      sync.RWMutex
	procedures map[string]Procedure
}

// NewRegistry returns a registry holding the built-in procedures.
func NewRegistry() *Registry {
	registry := &Registry{procedures: make(map[string]Procedure)}
	for name, procedure := range builtins {
		registry.procedures[name] = procedure
	}
	return registry
}

// Register adds or replaces a procedure.
func (r *Registry) Register(name string, procedure Procedure) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.procedures[name] = procedure
}

// Lookup returns the procedure registered under name.
func (r *Registry) Lookup(name string) (Procedure, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	procedure, ok := r.procedures[name]
	return procedure, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
