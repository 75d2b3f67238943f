// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

func TestExtensions(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Extension Pipeline Suite")
}
