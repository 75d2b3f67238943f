// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module"
	extlua "github.com/mrf7777/protogen-software-sub000/internal/extensions/module/lua"
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

func writeExtension(root, dir, code string) {
	path := filepath.Join(root, dir, "main.lua")
	Expect(os.MkdirAll(filepath.Dir(path), 0o750)).To(Succeed())
	Expect(os.WriteFile(path, []byte(code), 0o600)).To(Succeed())
}

var _ = Describe("Loading a directory of script extensions", func() {
	var (
		ctx      context.Context
		root     string
		home     string
		provider *extensions.Provider[sensor.Sensor]
	)

	BeforeEach(func() {
		ctx = context.Background()
		root = GinkgoT().TempDir()
		home = GinkgoT().TempDir()

		loader, err := module.NewLoader(extlua.New())
		Expect(err).NotTo(HaveOccurred())
		finder, err := extensions.NewDirectoryFinder(root, loader)
		Expect(err).NotTo(HaveOccurred())

		userData := extensions.NewHomeUserDataLocator()
		userData.Home = func() (string, error) { return home, nil }

		provider = &extensions.Provider[sensor.Sensor]{
			Kind:   "sensor",
			Finder: finder,
			Initializer: &extensions.BaseInitializer{
				UserData:  userData,
				Resources: extensions.NewResourceLocator(root),
			},
			Check: extensions.NewRequiredAttributesCheck(),
		}
	})

	Context("with one failing initialize, one failing check and one good sensor", func() {
		var loaded map[string]*extensions.Loaded[sensor.Sensor]

		BeforeEach(func() {
			writeExtension(root, "a-bad-init", `
				protogen.identity{ id = "bad-init", name = "n", description = "d", author = "a" }
				function initialize() return false end
				function read(c) return 1 end
			`)
			writeExtension(root, "b-bad-check", `
				protogen.identity{ id = "bad-check", name = "n" }
				function read(c) return 1 end
			`)
			writeExtension(root, "thermo", `
				protogen.identity{ id = "thermo", name = "Thermo", description = "Reads heat", author = "tests" }
				function channels() return { "std.in.temperature" } end
				function read(c) if c == "std.in.temperature" then return 36.6 end end
			`)

			var err error
			loaded, err = provider.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(extensions.ReleaseAll(loaded)).To(Succeed())
		})

		It("returns exactly the good extension keyed by id", func() {
			Expect(extensions.SortedIDs(loaded)).To(Equal([]string{"thermo"}))
			Expect(loaded["thermo"].Value.Read(sensor.ChannelInternalTemperature).Value).To(Equal(36.6))
		})

		It("injects the host directories", func() {
			store := loaded["thermo"].Value.AttributeStore()

			userData, ok := store.GetAttribute(attributes.KeyUserDataDirectory)
			Expect(ok).To(BeTrue())
			Expect(userData).To(Equal(filepath.Join(home, ".protogen", "thermo", "userdata")))

			resources, ok := store.GetAttribute(attributes.KeyResourcesDirectory)
			Expect(ok).To(BeTrue())
			Expect(resources).To(Equal(filepath.Join(root, "thermo", "resources")))
		})

		It("keeps injected directories read-only", func() {
			store := loaded["thermo"].Value.AttributeStore()
			Expect(store.SetAttribute(attributes.KeyUserDataDirectory, "/tmp")).To(Equal(attributes.SetRejectedNotWritable))
		})
	})

	Context("when scripts of another kind are present", func() {
		It("skips them", func() {
			writeExtension(root, "plain", `
				protogen.identity{ id = "plain", name = "n", description = "d", author = "a" }
			`)

			loaded, err := provider.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeEmpty())
		})
	})

	Context("when the root does not exist", func() {
		It("loads nothing", func() {
			Expect(os.RemoveAll(root)).To(Succeed())

			loaded, err := provider.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeEmpty())
		})
	})

	Context("reloading", func() {
		It("creates fresh instances each time", func() {
			writeExtension(root, "counter", `
				protogen.identity{ id = "counter", name = "n", description = "d", author = "a" }
				count = 0
				function initialize() count = count + 1 return true end
				function read(c) return count end
			`)

			first, err := provider.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(extensions.ReleaseAll(first)).To(Succeed())

			second, err := provider.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { Expect(extensions.ReleaseAll(second)).To(Succeed()) })

			Expect(second["counter"].Value.Read("any").Value).To(Equal(1.0))
			Expect(second["counter"].Value.Initialize()).To(Equal(extension.InitSuccess))
		})
	})
})
