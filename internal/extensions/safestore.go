// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions

import (
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
)

// SafeStore guards every call into an extension-provided attribute store.
// A faulting call returns the zero result for its operation, which reads
// as "absent" or as a policy rejection.
func SafeStore(kind, id string, s attributes.Store) attributes.Store {
	if s == nil {
		return nil
	}
	if _, ok := s.(*safeStore); ok {
		return s
	}
	return &safeStore{kind: kind, id: id, inner: s}
}

type safeStore struct {
	kind  string
	id    string
	inner attributes.Store
}

func (s *safeStore) GetAttribute(key string) (string, bool) {
	type got struct {
		v  string
		ok bool
	}
	r := GuardValue(s.kind, s.id, "get_attribute", got{}, func() got {
		v, ok := s.inner.GetAttribute(key)
		return got{v, ok}
	})
	return r.v, r.ok
}

func (s *safeStore) ListAttributes() []string {
	return GuardValue[[]string](s.kind, s.id, "list_attributes", nil, s.inner.ListAttributes)
}

func (s *safeStore) AttributeAccess(key string) (attributes.Access, bool) {
	type got struct {
		a  attributes.Access
		ok bool
	}
	r := GuardValue(s.kind, s.id, "attribute_access", got{}, func() got {
		a, ok := s.inner.AttributeAccess(key)
		return got{a, ok}
	})
	return r.a, r.ok
}

func (s *safeStore) HasAttribute(key string) bool {
	return GuardValue(s.kind, s.id, "has_attribute", false, func() bool {
		return s.inner.HasAttribute(key)
	})
}

func (s *safeStore) SetAttribute(key, value string) attributes.SetResult {
	return GuardValue(s.kind, s.id, "set_attribute", attributes.SetRejectedByPolicy, func() attributes.SetResult {
		return s.inner.SetAttribute(key, value)
	})
}

func (s *safeStore) RemoveAttribute(key string) attributes.RemoveResult {
	return GuardValue(s.kind, s.id, "remove_attribute", attributes.RemoveRejectedByPolicy, func() attributes.RemoveResult {
		return s.inner.RemoveAttribute(key)
	})
}

// Unwrap returns the guarded store. Admin access goes through it.
func (s *safeStore) Unwrap() attributes.Store {
	return s.inner
}
