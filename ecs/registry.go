package ecs

import (
	"reflect"
	"sync"
)

// Registry is the canonical mapping from component kind to component id,
// storage class, relationship accessor and change-detection flag. It grows
// monotonically: registration is the only mutation, typically done during
// world setup; the matcher only ever reads it.
type Registry struct {
	mu    sync.RWMutex
	ids   map[reflect.Type]ComponentId
	infos []ComponentInfo
}

// NewRegistry creates an empty component registry.
func NewRegistry() *Registry {
	return &Registry{
		ids: make(map[reflect.Type]ComponentId),
	}
}

// componentDescriptor lets a kind describe itself to the registry on first
// registration: its storage class, whether it carries a relationship
// accessor, and whether reads of it participate in change detection. Types
// that don't implement this default to Dense storage, no relationship, and
// change detection enabled.
type componentDescriptor interface {
	ComponentStorage() StorageClass
}

type relationshipDescriptor interface {
	ComponentRelationship() *RelationshipAccessor
}

type changeDetectionDescriptor interface {
	ComponentChangeDetection() bool
}

// Register assigns a component id to T, idempotently: the first call for a
// given type caches its storage class and (if T describes one) its
// relationship accessor; subsequent calls return the same id.
func Register[T any](r *Registry) ComponentId {
	var zero T
	t := reflect.TypeOf(zero)

	r.mu.RLock()
	if id, ok := r.ids[t]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock: another goroutine may have registered
	// T while we waited.
	if id, ok := r.ids[t]; ok {
		return id
	}

	return r.registerLocked(t, any(zero))
}

// registerLocked assigns the next id to t, deriving the component info
// from the descriptor interfaces zero may implement. Caller holds mu.
func (r *Registry) registerLocked(t reflect.Type, zero interface{}) ComponentId {
	info := ComponentInfo{Storage: Dense, ChangeDetectionEnabled: true}
	if d, ok := zero.(componentDescriptor); ok {
		info.Storage = d.ComponentStorage()
	}
	if d, ok := zero.(relationshipDescriptor); ok {
		info.Accessor = d.ComponentRelationship()
	}
	if d, ok := zero.(changeDetectionDescriptor); ok {
		info.ChangeDetectionEnabled = d.ComponentChangeDetection()
	}

	id := ComponentId(len(r.infos))
	r.infos = append(r.infos, info)
	r.ids[t] = id
	return id
}

// RegisterValue resolves (registering on first sight) the component id for
// the pointee type of a component pointer, e.g. RegisterValue(reg,
// &Health{}) registers and returns the id for Health. The untyped
// counterpart to Register, for callers that only see component instances
// as interface{} at runtime. ok is false if componentPtr is not a pointer.
func RegisterValue(r *Registry, componentPtr interface{}) (ComponentId, bool) {
	t := reflect.TypeOf(componentPtr)
	if t == nil || t.Kind() != reflect.Ptr {
		return 0, false
	}
	elem := t.Elem()

	r.mu.RLock()
	if id, ok := r.ids[elem]; ok {
		r.mu.RUnlock()
		return id, true
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[elem]; ok {
		return id, true
	}
	return r.registerLocked(elem, reflect.New(elem).Elem().Interface()), true
}

// IdOf returns the id previously assigned to T, and false if T has never
// been registered.
func IdOf[T any](r *Registry) (ComponentId, bool) {
	var zero T
	t := reflect.TypeOf(zero)
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[t]
	return id, ok
}

// IdOfValue resolves the component id registered for the pointee type of
// a component pointer, e.g. IdOfValue(reg, &Health{}) resolves the id for
// Health. Unlike RegisterValue it never registers: ok is false for an
// unknown type.
func IdOfValue(r *Registry, componentPtr interface{}) (ComponentId, bool) {
	t := reflect.TypeOf(componentPtr)
	if t == nil || t.Kind() != reflect.Ptr {
		return 0, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[t.Elem()]
	return id, ok
}

// Info returns the registry entry for id, and false if id was never
// assigned.
func (r *Registry) Info(id ComponentId) (ComponentInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.infos) {
		return ComponentInfo{}, false
	}
	return r.infos[id], true
}

// MustInfo is Info without the ok return, for call sites that already hold
// a component id they trust came from this registry (e.g. a frozen plan).
func (r *Registry) MustInfo(id ComponentId) ComponentInfo {
	info, ok := r.Info(id)
	if !ok {
		panic("ecs: unknown component id")
	}
	return info
}
