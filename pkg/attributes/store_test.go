// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package attributes_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
)

func TestStandardStore_SetAttribute_CreatesWithDefaultAccess(t *testing.T) {
	tests := []struct {
		name   string
		opts   []attributes.StoreOption
		access attributes.Access
	}{
		{"default is read write", nil, attributes.AccessReadWrite},
		{"custom default", []attributes.StoreOption{attributes.WithDefaultAccess(attributes.AccessWrite)}, attributes.AccessWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := attributes.NewStandardStore(tt.opts...)

			for i := range 10 {
				key := fmt.Sprintf("key-%d", i)
				assert.Equal(t, attributes.SetCreated, s.SetAttribute(key, "v"))
				access, ok := s.AttributeAccess(key)
				require.True(t, ok)
				assert.Equal(t, tt.access, access)
			}
		})
	}
}

func TestStandardStore_SetThenGet(t *testing.T) {
	s := attributes.NewStandardStore()

	assert.Equal(t, attributes.SetCreated, s.SetAttribute("name", "blink"))
	got, ok := s.GetAttribute("name")
	require.True(t, ok)
	assert.Equal(t, "blink", got)

	assert.Equal(t, attributes.SetUpdated, s.SetAttribute("name", "blink2"))
	got, _ = s.GetAttribute("name")
	assert.Equal(t, "blink2", got)
}

func TestStandardStore_ReadOnlyKeyIsNotWritable(t *testing.T) {
	s := attributes.NewStandardStore()
	s.AdminSet("id", "sensorA", attributes.AccessRead)
	s.AdminSet("value", "3.2", attributes.AccessReadWrite)

	assert.Equal(t, attributes.SetRejectedNotWritable, s.SetAttribute("id", "sensorB"))
	got, _ := s.GetAttribute("id")
	assert.Equal(t, "sensorA", got)

	assert.Equal(t, attributes.SetUpdated, s.SetAttribute("value", "4.0"))
	got, _ = s.GetAttribute("value")
	assert.Equal(t, "4.0", got)

	assert.Equal(t, attributes.RemoveRejectedNotWritable, s.RemoveAttribute("id"))
	assert.True(t, s.HasAttribute("id"))
}

func TestStandardStore_WriteOnlyKeyIsHiddenFromGet(t *testing.T) {
	s := attributes.NewStandardStore()
	s.AdminSet("secret", "hunter2", attributes.AccessWrite)

	_, ok := s.GetAttribute("secret")
	assert.False(t, ok)
	assert.Contains(t, s.ListAttributes(), "secret")

	assert.Equal(t, attributes.SetUpdated, s.SetAttribute("secret", "other"))
	got, ok := s.AdminGet("secret")
	require.True(t, ok)
	assert.Equal(t, "other", got)
}

func TestStandardStore_GetMissingKey(t *testing.T) {
	s := attributes.NewStandardStore()

	_, ok := s.GetAttribute("missing")
	assert.False(t, ok)
	_, ok = s.AttributeAccess("missing")
	assert.False(t, ok)
	assert.False(t, s.HasAttribute("missing"))
}

func TestStandardStore_RemoveTwice(t *testing.T) {
	s := attributes.NewStandardStore()
	s.SetAttribute("k", "v")

	assert.Equal(t, attributes.RemoveRemoved, s.RemoveAttribute("k"))
	assert.Equal(t, attributes.RemoveDoesNotExist, s.RemoveAttribute("k"))
}

func TestStandardStore_PinnedKeysSurviveRemoval(t *testing.T) {
	s := attributes.NewStandardStore()
	s.SetAttribute("k", "v")
	require.True(t, s.Pin("k"))
	assert.True(t, s.IsPinned("k"))

	for range 5 {
		assert.Equal(t, attributes.RemoveRejectedPinned, s.RemoveAttribute("k"))
		assert.Equal(t, attributes.RemoveRejectedPinned, s.AdminRemove("k"))
	}
	assert.True(t, s.HasAttribute("k"))

	require.True(t, s.Unpin("k"))
	assert.False(t, s.IsPinned("k"))
	assert.Equal(t, attributes.RemoveRemoved, s.RemoveAttribute("k"))
	assert.False(t, s.HasAttribute("k"))
}

func TestStandardStore_PinUnpinMissing(t *testing.T) {
	s := attributes.NewStandardStore()

	assert.False(t, s.Pin("missing"))
	assert.False(t, s.Unpin("missing"))
}

func TestStandardStore_AdminSetRoundTrip(t *testing.T) {
	s := attributes.NewStandardStore()

	assert.Equal(t, attributes.SetCreated, s.AdminSet("k", "v", attributes.AccessReadWrite))
	got, ok := s.GetAttribute("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Contains(t, s.ListAttributes(), "k")

	// Admin writes override read-only keys and change the access level.
	s.AdminSet("ro", "a", attributes.AccessRead)
	assert.Equal(t, attributes.SetUpdated, s.AdminSet("ro", "b", attributes.AccessWrite))
	access, _ := s.AttributeAccess("ro")
	assert.Equal(t, attributes.AccessWrite, access)
}

func TestStandardStore_AdminRemoveIgnoresAccess(t *testing.T) {
	s := attributes.NewStandardStore()
	s.AdminSet("ro", "a", attributes.AccessRead)

	assert.Equal(t, attributes.RemoveRemoved, s.AdminRemove("ro"))
	assert.Equal(t, attributes.RemoveDoesNotExist, s.AdminRemove("ro"))
}

func TestStandardStore_ListAttributesSorted(t *testing.T) {
	s := attributes.NewStandardStore()
	s.SetAttribute("b", "")
	s.SetAttribute("c", "")
	s.SetAttribute("a", "")

	assert.Equal(t, []string{"a", "b", "c"}, s.ListAttributes())
}

func TestStandardStore_HooksVeto(t *testing.T) {
	s := attributes.NewStandardStore(attributes.WithHooks(attributes.Hooks{
		BeforeSet:    func(key, _ string) bool { return key != "blocked" },
		BeforeRemove: func(key string) bool { return key != "keep" },
	}))

	assert.Equal(t, attributes.SetRejectedByPolicy, s.SetAttribute("blocked", "v"))
	assert.False(t, s.HasAttribute("blocked"))

	s.SetAttribute("keep", "v")
	assert.Equal(t, attributes.RemoveRejectedByPolicy, s.RemoveAttribute("keep"))
	assert.True(t, s.HasAttribute("keep"))

	// Admin calls bypass pre-hooks.
	assert.Equal(t, attributes.SetCreated, s.AdminSet("blocked", "v", attributes.AccessRead))
	assert.Equal(t, attributes.RemoveRemoved, s.AdminRemove("keep"))
}

func TestStandardStore_AfterHooksObserveAppliedMutations(t *testing.T) {
	var sets []string
	var removes []string
	s := attributes.NewStandardStore(attributes.WithHooks(attributes.Hooks{
		AfterSet: func(key, value string, result attributes.SetResult) {
			sets = append(sets, key+"="+value+":"+result.String())
		},
		AfterRemove: func(key string, _ attributes.RemoveResult) {
			removes = append(removes, key)
		},
	}))

	s.SetAttribute("a", "1")
	s.SetAttribute("a", "2")
	s.AdminSet("ro", "x", attributes.AccessRead)
	s.SetAttribute("ro", "y") // rejected, not observed
	s.RemoveAttribute("a")
	s.RemoveAttribute("a") // does not exist, not observed

	assert.Equal(t, []string{"a=1:created", "a=2:updated", "ro=x:created"}, sets)
	assert.Equal(t, []string{"a"}, removes)
}

func TestStandardStore_HookMayReenterStore(t *testing.T) {
	var s *attributes.StandardStore
	s = attributes.NewStandardStore(attributes.WithHooks(attributes.Hooks{
		BeforeSet: func(_, _ string) bool {
			return !s.HasAttribute("frozen")
		},
	}))

	assert.Equal(t, attributes.SetCreated, s.SetAttribute("a", "1"))
	s.AdminSet("frozen", "", attributes.AccessRead)
	assert.Equal(t, attributes.SetRejectedByPolicy, s.SetAttribute("a", "2"))
}

func TestStandardStore_ConcurrentAccess(t *testing.T) {
	s := attributes.NewStandardStore()
	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for j := range 200 {
				s.SetAttribute(key, fmt.Sprint(j))
				s.GetAttribute(key)
				s.ListAttributes()
				if j%10 == 0 {
					s.RemoveAttribute(key)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, len(s.ListAttributes()), 4)
}

func TestSnapshot(t *testing.T) {
	s := attributes.NewStandardStore()
	s.SetAttribute("name", "n")
	s.AdminSet("secret", "x", attributes.AccessWrite)

	assert.Equal(t, map[string]string{"name": "n"}, attributes.Snapshot(s))
	assert.Empty(t, attributes.Snapshot(nil))
}
