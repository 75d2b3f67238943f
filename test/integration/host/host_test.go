// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

//go:build integration

package host_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/mrf7777/protogen-software-sub000/internal/control"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module"
	extlua "github.com/mrf7777/protogen-software-sub000/internal/extensions/module/lua"
	"github.com/mrf7777/protogen-software-sub000/internal/host"
	"github.com/mrf7777/protogen-software-sub000/internal/watch"
)

const thermoScript = `
protogen.identity{ id = "thermo", name = "Thermo" }
function channels() return { "std.in.temperature" } end
function read(c)
	if c == "std.in.temperature" then return 36.5 end
end
`

func face(id string) string {
	return fmt.Sprintf(`
protogen.identity{ id = %q, name = %q }
framerate = 0
function render(w, h) protogen.set_pixel(0, 0, 255, 0, 0) end
`, id, id)
}

func writeExtension(root, name, code string) {
	dir := filepath.Join(root, name)
	Expect(os.MkdirAll(dir, 0o750)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(dir, name+".lua"), []byte(code), 0o600)).To(Succeed())
}

func getJSON(url string, out any) int {
	resp, err := http.Get(url) //nolint:gosec,noctx // test URL
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()
	Expect(json.NewDecoder(resp.Body).Decode(out)).To(Succeed())
	return resp.StatusCode
}

func post(url string) int {
	resp, err := http.Post(url, "application/json", nil) //nolint:gosec,noctx // test URL
	Expect(err).NotTo(HaveOccurred())
	_ = resp.Body.Close()
	return resp.StatusCode
}

func appIDs(base string) []string {
	var list control.ListResponse
	getJSON(base+"/extensions", &list)
	ids := make([]string, 0, len(list.Apps))
	for _, a := range list.Apps {
		ids = append(ids, a.ID)
	}
	return ids
}

var _ = Describe("Running host", func() {
	var (
		root      string
		h         *host.Host
		ctrl      *control.Server
		base      string
		cancel    context.CancelFunc
		watchDone chan struct{}
		runDone   chan struct{}
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		appsDir := filepath.Join(root, "apps")
		sensorsDir := filepath.Join(root, "sensors")
		writeExtension(appsDir, "faces", face("faces"))
		writeExtension(sensorsDir, "thermo", thermoScript)

		loader, err := module.NewLoader(extlua.New())
		Expect(err).NotTo(HaveOccurred())
		h = host.New(host.Config{
			AppsDir:      appsDir,
			SensorsDir:   sensorsDir,
			SurfacesDir:  filepath.Join(root, "surfaces"),
			DefaultApp:   "faces",
			IdleInterval: 5 * time.Millisecond,
		}, loader)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		Expect(h.Reload(ctx)).To(Succeed())

		ctrl = control.NewServer("127.0.0.1:0", h)
		_, err = ctrl.Start()
		Expect(err).NotTo(HaveOccurred())
		base = "http://" + ctrl.Addr()

		w := watch.New([]string{appsDir, sensorsDir}, 20*time.Millisecond, h.Reload)
		watchDone = make(chan struct{})
		runDone = make(chan struct{})
		go func() {
			defer close(watchDone)
			_ = w.Run(ctx)
		}()
		go func() {
			defer close(runDone)
			_ = h.Run(ctx)
		}()
	})

	AfterEach(func() {
		cancel()
		Eventually(watchDone).Should(BeClosed())
		Eventually(runDone).Should(BeClosed())
		Expect(ctrl.Stop(context.Background())).To(Succeed())
		Expect(h.Close()).To(Succeed())
	})

	It("lists loaded extensions with the default app active", func() {
		var list control.ListResponse
		Expect(getJSON(base+"/extensions", &list)).To(Equal(http.StatusOK))

		Expect(list.Apps).To(HaveLen(1))
		Expect(list.Apps[0].ID).To(Equal("faces"))
		Expect(list.Apps[0].Active).To(BeTrue())
		Expect(list.Sensors).To(HaveLen(1))
		Expect(list.Surfaces).To(BeEmpty())
	})

	It("reads sensor channels through the combined sensor", func() {
		var reading control.ReadingResponse
		Expect(getJSON(base+"/sensors/channels/std.in.temperature", &reading)).To(Equal(http.StatusOK))
		Expect(reading.Value).To(BeNumerically("~", 36.5, 0.001))
	})

	It("switches and clears the active app", func() {
		writeExtension(filepath.Join(root, "apps"), "stars", face("stars"))
		Expect(post(base + "/extensions/reload")).To(Equal(http.StatusOK))
		Expect(appIDs(base)).To(ContainElement("stars"))

		Expect(post(base + "/apps/stars/activate")).To(Equal(http.StatusOK))
		var status control.StatusResponse
		getJSON(base+"/status", &status)
		Expect(status.ActiveApp).To(Equal("stars"))

		Expect(post(base + "/apps/deactivate")).To(Equal(http.StatusOK))
		getJSON(base+"/status", &status)
		Expect(status.ActiveApp).To(BeEmpty())
	})

	It("picks up new extension directories from the watcher", func() {
		writeExtension(filepath.Join(root, "apps"), "rainbow", face("rainbow"))

		Eventually(func() []string { return appIDs(base) }).
			WithTimeout(5 * time.Second).
			Should(ContainElement("rainbow"))
	})
})
