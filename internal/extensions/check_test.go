// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions/extensionstest"
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extensionsdk"
)

func bundleWith(id extensionsdk.Identity) *extensions.Bundle {
	b, _ := extensionstest.Bundle(extensionstest.NewExtension(id), "")
	return b
}

func TestRequiredAttributesCheck(t *testing.T) {
	c := extensions.NewRequiredAttributesCheck()

	assert.True(t, c.Check(bundleWith(extensionstest.Identity("ok"))))
	assert.Empty(t, c.Error())
}

func TestRequiredAttributesCheck_AggregatesMissingKeys(t *testing.T) {
	c := extensions.NewRequiredAttributesCheck()

	ok := c.Check(bundleWith(extensionsdk.Identity{ID: "faces", Description: "d"}))

	require.False(t, ok)
	assert.Equal(t, "Extension with id `faces` is missing these required attributes: `name`, `author`", c.Error())
}

func TestRequiredAttributesCheck_NoID(t *testing.T) {
	c := extensions.NewRequiredAttributesCheck()

	ok := c.Check(bundleWith(extensionsdk.Identity{Name: "n", Description: "d", Author: "a"}))

	require.False(t, ok)
	assert.Equal(t, "Extension is missing these required attributes: `id`", c.Error())
}

func TestRequiredAttributesCheck_EmptyValueIsMissing(t *testing.T) {
	ext := extensionstest.NewExtension(extensionstest.Identity("faces"))
	ext.Store().AdminSet(attributes.KeyAuthor, "", attributes.AccessRead)
	b, _ := extensionstest.Bundle(ext, "")
	c := extensions.NewRequiredAttributesCheck()

	require.False(t, c.Check(b))
	assert.Contains(t, c.Error(), "`author`")
}

func TestRequiredAttributesCheck_NoStore(t *testing.T) {
	b, _ := extensionstest.Bundle(&plainExtension{}, "")
	c := extensions.NewRequiredAttributesCheck()

	assert.False(t, c.Check(b))
	assert.NotEmpty(t, c.Error())
}

func TestRequiredAttributesCheck_ErrorTracksLatest(t *testing.T) {
	c := extensions.NewRequiredAttributesCheck()

	require.False(t, c.Check(bundleWith(extensionsdk.Identity{ID: "x"})))
	require.True(t, c.Check(bundleWith(extensionstest.Identity("y"))))

	assert.Empty(t, c.Error())
}

func TestVersionCheck(t *testing.T) {
	c, err := extensions.NewVersionCheck(">= 1.0, < 2")
	require.NoError(t, err)

	tests := []struct {
		name    string
		version string
		want    bool
	}{
		{"absent", "", true},
		{"in range", "1.4.2", true},
		{"v prefix", "v1.0.0", true},
		{"too new", "2.0.0", false},
		{"too old", "0.9.0", false},
		{"garbage", "banana", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := extensionstest.Identity("faces")
			id.Version = tt.version
			assert.Equal(t, tt.want, c.Check(bundleWith(id)))
			if !tt.want {
				assert.Contains(t, c.Error(), "faces")
			}
		})
	}
}

func TestNewVersionCheck_InvalidConstraint(t *testing.T) {
	_, err := extensions.NewVersionCheck("not a constraint ~~")
	require.Error(t, err)
}

func TestAllChecks_FirstFailureWins(t *testing.T) {
	version, err := extensions.NewVersionCheck("^1")
	require.NoError(t, err)
	all := extensions.NewAllChecks(extensions.NewRequiredAttributesCheck(), nil, version)

	id := extensionstest.Identity("faces")
	id.Version = "3.0.0"
	require.False(t, all.Check(bundleWith(id)))
	assert.Contains(t, all.Error(), "does not satisfy")

	require.False(t, all.Check(bundleWith(extensionsdk.Identity{ID: "faces", Version: "3.0.0"})))
	assert.Contains(t, all.Error(), "missing these required attributes")

	id.Version = "1.2.0"
	assert.True(t, all.Check(bundleWith(id)))
	assert.Empty(t, all.Error())
}
