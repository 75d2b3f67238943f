// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"

	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
)

// Check validates an initialized bundle. Error describes the most recent
// failure.
type Check interface {
	Check(b *Bundle) bool
	Error() string
}

type lastError struct {
	mu  sync.Mutex
	msg string
}

func (e *lastError) set(msg string) {
	e.mu.Lock()
	e.msg = msg
	e.mu.Unlock()
}

func (e *lastError) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.msg
}

// RequiredAttributesCheck requires a set of attributes to be present and
// non-empty. All missing keys are reported together.
type RequiredAttributesCheck struct {
	Keys []string
	lastError
}

// NewRequiredAttributesCheck requires id, name, description and author.
func NewRequiredAttributesCheck() *RequiredAttributesCheck {
	return &RequiredAttributesCheck{Keys: slices.Clone(attributes.IdentityKeys)}
}

func (c *RequiredAttributesCheck) Check(b *Bundle) bool {
	store := storeOf(b)
	if store == nil {
		c.set("Extension has no attribute store.")
		return false
	}

	var missing []string
	for _, key := range c.Keys {
		if v, ok := store.GetAttribute(key); !ok || v == "" {
			missing = append(missing, "`"+key+"`")
		}
	}
	if len(missing) == 0 {
		c.set("")
		return true
	}

	id, _ := store.GetAttribute(attributes.KeyID)
	if id != "" {
		c.set(fmt.Sprintf("Extension with id `%s` is missing these required attributes: %s", id, strings.Join(missing, ", ")))
	} else {
		c.set("Extension is missing these required attributes: " + strings.Join(missing, ", "))
	}
	return false
}

// VersionCheck requires the version attribute, when present, to satisfy a
// semantic version constraint.
type VersionCheck struct {
	constraint *semver.Constraints
	raw        string
	lastError
}

// NewVersionCheck parses constraint, e.g. ">= 1.0, < 2".
func NewVersionCheck(constraint string) (*VersionCheck, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, oops.In("check").With("constraint", constraint).Wrap(err)
	}
	return &VersionCheck{constraint: c, raw: constraint}, nil
}

// Check passes extensions without a version.
func (c *VersionCheck) Check(b *Bundle) bool {
	store := storeOf(b)
	if store == nil {
		c.set("Extension has no attribute store.")
		return false
	}
	raw, ok := store.GetAttribute(attributes.KeyVersion)
	if !ok || raw == "" {
		c.set("")
		return true
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		c.set(fmt.Sprintf("Extension with id `%s` has an invalid version `%s`: %v", b.ID(), raw, err))
		return false
	}
	if !c.constraint.Check(v) {
		c.set(fmt.Sprintf("Extension with id `%s` has version `%s`, which does not satisfy `%s`", b.ID(), raw, c.raw))
		return false
	}
	c.set("")
	return true
}

// AllChecks passes when every check passes. Checks run in order and stop
// at the first failure, whose message Error reports.
type AllChecks struct {
	checks []Check
	lastError
}

// NewAllChecks combines checks. Nil entries are ignored.
func NewAllChecks(checks ...Check) *AllChecks {
	a := &AllChecks{}
	for _, c := range checks {
		if c != nil {
			a.checks = append(a.checks, c)
		}
	}
	return a
}

func (a *AllChecks) Check(b *Bundle) bool {
	for _, c := range a.checks {
		if !c.Check(b) {
			a.set(c.Error())
			return false
		}
	}
	a.set("")
	return true
}

func storeOf(b *Bundle) attributes.Store {
	if b == nil || b.Extension == nil {
		return nil
	}
	return GuardValue[attributes.Store]("extension", "", "attribute_store", nil, b.Extension.AttributeStore)
}
