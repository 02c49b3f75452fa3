package integration

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	"github.com/stacklok/vicius-manifest-server/test-integration/manifest-api/helpers"
)

const products = `
- name: HidHide
  github:
    owner: nefarius
    repo: HidHide
  shared:
    productName: HidHide
    windowTitle: HidHide Updater
    detection:
      $type: RegistryValue
      hive: HKLM
      key: SOFTWARE\Nefarius Software Solutions e.U.\HidHide
      value: Version
- name: BthPS3
  github:
    owner: nefarius
    repo: BthPS3
    tagPrefix: setup-v
    asset:
      match: architecture
  release:
    includeDownloadSize: true
    launchArguments: FILTERNOTFOUND="1"
- name: OpenXR
  github:
    owner: fredemmott
    repo: OpenXR-API-Layers-GUI
    mode: all
  shared:
    runAsTemporaryCopy: true
- name: Missing
  github:
    owner: nefarius
    repo: DoesNotExist
- name: EmergencyUrl
  path: /api/contoso/EmergencyUrl/updates.json
  static:
    path: manifests/emergency.json
`

const emergencyManifest = `{
  // static manifests may carry comments
  "instance": { "emergencyUrl": "https://docs.nefarius.at/projects/Vicius/Examples/Landing-Page/" },
  "releases": [],
}`

var _ = Describe("Manifest API", Label("manifest"), func() {
	var (
		tempDir      string
		fakeGitHub   *helpers.FakeGitHub
		serverHelper *helpers.ServerTestHelper
		day          = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		tempDir = createTempDir("manifest-test-")

		fakeGitHub = helpers.NewFakeGitHub()
		fakeGitHub.SetReleases("nefarius", "HidHide",
			helpers.NewRelease("nefarius", "HidHide", "v1.5.230", day, "x64"),
		)
		fakeGitHub.SetReleases("nefarius", "BthPS3",
			helpers.NewRelease("nefarius", "BthPS3", "setup-v2.9.386", day, "x64", "arm64", "x86"),
		)

		draft := helpers.NewRelease("fredemmott", "OpenXR-API-Layers-GUI", "v2024.07.01", day.Add(48*time.Hour), "zip")
		draft.Draft = true
		noAsset := helpers.NewRelease("fredemmott", "OpenXR-API-Layers-GUI", "v2024.06.20", day.Add(24*time.Hour))
		fakeGitHub.SetReleases("fredemmott", "OpenXR-API-Layers-GUI",
			draft,
			noAsset,
			helpers.NewRelease("fredemmott", "OpenXR-API-Layers-GUI", "v2024.06.01", day, "zip"),
			helpers.NewRelease("fredemmott", "OpenXR-API-Layers-GUI", "nightly", day.Add(-24*time.Hour), "zip"),
			helpers.NewRelease("fredemmott", "OpenXR-API-Layers-GUI", "v2024.05.02", day.Add(-48*time.Hour), "zip"),
		)

		helpers.WriteFile(tempDir, "manifests/emergency.json", emergencyManifest)
		configFile := helpers.WriteConfigYAML(tempDir, fakeGitHub.URL(), products)

		serverHelper = helpers.NewServerTestHelper(ctx, configFile)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		_ = serverHelper.StopServer()
		fakeGitHub.Close()
		cleanupTempDir(tempDir)
	})

	Context("latest release products", func() {
		It("builds a manifest from the latest release", func() {
			status, body := serverHelper.GetManifest("/api/nefarius/HidHide/updates.json", "")
			Expect(status).To(Equal(http.StatusOK))

			Expect(gjson.GetBytes(body, "shared.productName").String()).To(Equal("HidHide"))
			Expect(gjson.GetBytes(body, "shared.detectionMethod").String()).To(Equal("RegistryValue"))
			Expect(gjson.GetBytes(body, "shared.detection.$type").String()).To(Equal("RegistryValue"))
			Expect(gjson.GetBytes(body, "releases.#").Int()).To(Equal(int64(1)))
			Expect(gjson.GetBytes(body, "releases.0.version").String()).To(Equal("1.5.230"))
			Expect(gjson.GetBytes(body, "releases.0.summary").String()).To(Equal("## Changes\n* Fixes"))
			Expect(gjson.GetBytes(body, "releases.0.exitCode.successCodes").String()).To(Equal("[0,3010]"))
			Expect(gjson.GetBytes(body, "releases.0.downloadUrl").String()).To(HaveSuffix("HidHide_1.5.230_x64.exe"))
		})

		It("serves repeated requests from the cache", func() {
			for range 3 {
				status, _ := serverHelper.GetManifest("/api/nefarius/HidHide/updates.json", "")
				Expect(status).To(Equal(http.StatusOK))
			}
			Expect(fakeGitHub.Requests()).To(Equal(int64(1)))
		})

		It("picks the asset for the client architecture", func() {
			for _, arch := range []string{"x64", "arm64", "x86"} {
				status, body := serverHelper.GetManifest("/api/nefarius/BthPS3/updates.json", arch)
				Expect(status).To(Equal(http.StatusOK))
				Expect(gjson.GetBytes(body, "releases.0.version").String()).To(Equal("2.9.386"))
				Expect(gjson.GetBytes(body, "releases.0.downloadUrl").String()).To(HaveSuffix("_" + arch + ".exe"))
				Expect(gjson.GetBytes(body, "releases.0.downloadSize").Int()).To(Equal(int64(1024)))
			}
		})

		It("answers 404 without a body when no asset matches", func() {
			status, body := serverHelper.GetManifest("/api/nefarius/BthPS3/updates.json", "riscv64")
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(BeEmpty())

			status, body = serverHelper.GetManifest("/api/nefarius/BthPS3/updates.json", "")
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(BeEmpty())
		})

		It("answers 404 when the repository does not exist", func() {
			status, body := serverHelper.GetManifest("/api/nefarius/DoesNotExist/updates.json", "")
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(BeEmpty())
		})

		It("answers 502 when GitHub keeps failing", func() {
			fakeGitHub.FailWith("nefarius", "HidHide", http.StatusServiceUnavailable)

			status, body := serverHelper.GetManifest("/api/nefarius/HidHide/updates.json", "")
			Expect(status).To(Equal(http.StatusBadGateway))
			Expect(gjson.GetBytes(body, "error").String()).NotTo(BeEmpty())
			// one initial attempt plus one retry
			Expect(fakeGitHub.Requests()).To(Equal(int64(2)))
		})
	})

	Context("all release products", func() {
		It("keeps usable releases in upstream order", func() {
			status, body := serverHelper.GetManifest("/api/fredemmott/OpenXR-API-Layers-GUI/updates.json", "")
			Expect(status).To(Equal(http.StatusOK))

			versions := gjson.GetBytes(body, "releases.#.version").Array()
			Expect(versions).To(HaveLen(2))
			Expect(versions[0].String()).To(Equal("2024.6.1"))
			Expect(versions[1].String()).To(Equal("2024.5.2"))
			Expect(gjson.GetBytes(body, "shared.runAsTemporaryCopy").Bool()).To(BeTrue())
		})

		It("answers 404 when no release is usable", func() {
			fakeGitHub.SetReleases("fredemmott", "OpenXR-API-Layers-GUI",
				helpers.NewRelease("fredemmott", "OpenXR-API-Layers-GUI", "nightly", day, "zip"),
			)

			status, body := serverHelper.GetManifest("/api/fredemmott/OpenXR-API-Layers-GUI/updates.json", "")
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(BeEmpty())
		})
	})

	Context("static products", func() {
		It("serves the manifest file", func() {
			status, body := serverHelper.GetManifest("/api/contoso/EmergencyUrl/updates.json", "")
			Expect(status).To(Equal(http.StatusOK))
			Expect(gjson.GetBytes(body, "instance.emergencyUrl").String()).
				To(Equal("https://docs.nefarius.at/projects/Vicius/Examples/Landing-Page/"))
			Expect(gjson.GetBytes(body, "releases").IsArray()).To(BeTrue())
			Expect(fakeGitHub.Requests()).To(BeZero())
		})
	})

	Context("service endpoints", func() {
		It("lists products", func() {
			status, body := serverHelper.Get("/products")
			Expect(status).To(Equal(http.StatusOK))
			Expect(gjson.GetBytes(body, "#").Int()).To(Equal(int64(5)))
			Expect(gjson.GetBytes(body, `#(name=="EmergencyUrl").path`).String()).
				To(Equal("/api/contoso/EmergencyUrl/updates.json"))
		})

		It("serves the manifest schema", func() {
			status, body := serverHelper.Get("/api/example/schema/updates.json")
			Expect(status).To(Equal(http.StatusOK))
			Expect(gjson.GetBytes(body, "$defs").Exists()).To(BeTrue())

			status, body = serverHelper.Get("/api/example/schema/updates.yaml")
			Expect(status).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("releases:"))
		})

		It("exposes Prometheus metrics", func() {
			status, _ := serverHelper.GetManifest("/api/nefarius/HidHide/updates.json", "")
			Expect(status).To(Equal(http.StatusOK))

			status, body := serverHelper.Get("/metrics")
			Expect(status).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("vicius_release_cache_lookups_total"))
			Expect(string(body)).To(ContainSubstring("vicius_http_requests_total"))
		})

		It("answers unknown paths with an empty 404", func() {
			status, body := serverHelper.Get("/api/nefarius/Unknown/updates.json")
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(BeEmpty())
		})
	})
})
