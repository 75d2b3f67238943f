// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package attributes

import (
	"sort"
	"sync"
)

// Compile-time interface checks.
var (
	_ Store         = (*StandardStore)(nil)
	_ Administrable = (*StandardStore)(nil)
)

// Hooks lets the owner of a store veto and observe mutations made through
// the public interface. A nil field is skipped.
//
// Before hooks run prior to the access check and return false to veto.
// After hooks run only when the mutation was applied. Hooks are called
// without the store lock held, so they may call back into the store.
type Hooks struct {
	BeforeSet    func(key, value string) bool
	AfterSet     func(key, value string, result SetResult)
	BeforeRemove func(key string) bool
	AfterRemove  func(key string, result RemoveResult)
}

type entry struct {
	value  string
	access Access
}

// StandardStore is a mutex-guarded Store suitable for most extensions.
// The zero value is not usable; call NewStandardStore.
type StandardStore struct {
	mu            sync.RWMutex
	entries       map[string]entry
	pinned        map[string]struct{}
	defaultAccess Access
	hooks         Hooks
}

// StoreOption configures a StandardStore.
type StoreOption func(*StandardStore)

// WithDefaultAccess sets the access level given to keys created through
// SetAttribute. The default is AccessReadWrite.
func WithDefaultAccess(access Access) StoreOption {
	return func(s *StandardStore) {
		s.defaultAccess = access
	}
}

// WithHooks installs pre and post mutation hooks.
func WithHooks(hooks Hooks) StoreOption {
	return func(s *StandardStore) {
		s.hooks = hooks
	}
}

// NewStandardStore creates an empty store.
func NewStandardStore(opts ...StoreOption) *StandardStore {
	s := &StandardStore{
		entries:       make(map[string]entry),
		pinned:        make(map[string]struct{}),
		defaultAccess: AccessReadWrite,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetAttribute creates key with the default access level, or updates it
// when its access level allows writes.
func (s *StandardStore) SetAttribute(key, value string) SetResult {
	if s.hooks.BeforeSet != nil && !s.hooks.BeforeSet(key, value) {
		return SetRejectedByPolicy
	}

	s.mu.Lock()
	result := SetCreated
	access := s.defaultAccess
	if e, ok := s.entries[key]; ok {
		if !e.access.Writable() {
			s.mu.Unlock()
			return SetRejectedNotWritable
		}
		result = SetUpdated
		access = e.access
	}
	s.entries[key] = entry{value: value, access: access}
	s.mu.Unlock()

	if s.hooks.AfterSet != nil {
		s.hooks.AfterSet(key, value, result)
	}
	return result
}

// GetAttribute returns the value for key unless the key is absent or
// write-only.
func (s *StandardStore) GetAttribute(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || !e.access.Readable() {
		return "", false
	}
	return e.value, true
}

// ListAttributes returns every key in sorted order, regardless of access.
func (s *StandardStore) ListAttributes() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// AttributeAccess returns the access level of key.
func (s *StandardStore) AttributeAccess(key string) (Access, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return 0, false
	}
	return e.access, true
}

// HasAttribute reports whether key exists.
func (s *StandardStore) HasAttribute(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[key]
	return ok
}

// RemoveAttribute removes a writable, unpinned key.
func (s *StandardStore) RemoveAttribute(key string) RemoveResult {
	if s.hooks.BeforeRemove != nil && !s.hooks.BeforeRemove(key) {
		return RemoveRejectedByPolicy
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	switch {
	case !ok:
		s.mu.Unlock()
		return RemoveDoesNotExist
	case !e.access.Writable():
		s.mu.Unlock()
		return RemoveRejectedNotWritable
	}
	if _, pinned := s.pinned[key]; pinned {
		s.mu.Unlock()
		return RemoveRejectedPinned
	}
	delete(s.entries, key)
	s.mu.Unlock()

	if s.hooks.AfterRemove != nil {
		s.hooks.AfterRemove(key, RemoveRemoved)
	}
	return RemoveRemoved
}

// AdminSet writes key with the given access level, ignoring the current
// access level of the key.
func (s *StandardStore) AdminSet(key, value string, access Access) SetResult {
	s.mu.Lock()
	result := SetCreated
	if _, ok := s.entries[key]; ok {
		result = SetUpdated
	}
	s.entries[key] = entry{value: value, access: access}
	s.mu.Unlock()

	if s.hooks.AfterSet != nil {
		s.hooks.AfterSet(key, value, result)
	}
	return result
}

// AdminGet returns the value for key regardless of its access level.
func (s *StandardStore) AdminGet(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	return e.value, true
}

// AdminRemove removes key regardless of its access level. Pinned keys
// are still refused.
func (s *StandardStore) AdminRemove(key string) RemoveResult {
	s.mu.Lock()
	if _, ok := s.entries[key]; !ok {
		s.mu.Unlock()
		return RemoveDoesNotExist
	}
	if _, pinned := s.pinned[key]; pinned {
		s.mu.Unlock()
		return RemoveRejectedPinned
	}
	delete(s.entries, key)
	s.mu.Unlock()

	if s.hooks.AfterRemove != nil {
		s.hooks.AfterRemove(key, RemoveRemoved)
	}
	return RemoveRemoved
}

// Pin protects an existing key from removal. It returns false when the
// key does not exist.
func (s *StandardStore) Pin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	s.pinned[key] = struct{}{}
	return true
}

// Unpin lifts removal protection from key. It returns false when the key
// was not pinned.
func (s *StandardStore) Unpin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pinned[key]; !ok {
		return false
	}
	delete(s.pinned, key)
	return true
}

// IsPinned reports whether key is pinned.
func (s *StandardStore) IsPinned(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.pinned[key]
	return ok
}

// Snapshot returns the readable attributes as a map. Write-only keys are
// omitted.
func Snapshot(r Readable) map[string]string {
	out := make(map[string]string)
	if r == nil {
		return out
	}
	for _, k := range r.ListAttributes() {
		if v, ok := r.GetAttribute(k); ok {
			out[k] = v
		}
	}
	return out
}
