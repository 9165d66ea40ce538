package integration

import (
	"net/http"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nightfeed/horror-aggregator/internal/api/ops"
	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/sources"
	"github.com/nightfeed/horror-aggregator/test-integration/aggregator-api/helpers"
)

var _ = Describe("Background sync", func() {
	var (
		tempDir  string
		upstream *helpers.UpstreamHelper
		server   *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "aggregator-sync-*")
		Expect(err).NotTo(HaveOccurred())

		upstream, err = helpers.NewUpstreamHelper(fixtureDir)
		Expect(err).NotTo(HaveOccurred())

		configPath, err := helpers.WriteConfig(tempDir, upstream, helpers.ConfigOptions{
			SyncEnabled:  true,
			SyncInterval: "1h",
		})
		Expect(err).NotTo(HaveOccurred())

		server, err = helpers.NewServerTestHelper(ctx, configPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(server.StartServer()).To(Succeed())
		server.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(server.StopServer()).To(Succeed())
		upstream.Close()
		Expect(os.RemoveAll(tempDir)).To(Succeed())
	})

	It("should become ready once the first pass finishes", func() {
		server.WaitForReadiness(15 * time.Second)

		for _, name := range sources.SupportedNames() {
			Expect(upstream.Hits(name)).To(Equal(1), "source %s", name)
		}
	})

	It("should report the last pass and cache entries", func() {
		server.WaitForReadiness(15 * time.Second)

		resp, err := server.GetSyncStatus()
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var status ops.StatusResponse
		helpers.DecodeResponse(resp, &status)
		Expect(status.LastRun).NotTo(BeNil())
		Expect(status.LastRun.RunID).NotTo(BeEmpty())
		Expect(status.LastRun.Succeeded()).To(Equal(len(sources.SupportedNames())))
		Expect(status.Cache).To(HaveLen(len(sources.SupportedNames())))
		for _, entry := range status.Cache {
			Expect(entry.Fresh).To(BeTrue(), "source %s", entry.Source)
			Expect(entry.TotalCount).To(BeNumerically(">", 0))
		}
	})

	It("should keep previous listings when a refresh fails", func() {
		server.WaitForReadiness(15 * time.Second)

		resp, err := server.GetPlatform(sources.SourceSteam, "")
		Expect(err).NotTo(HaveOccurred())
		var before games.SourceResult
		helpers.DecodeResponse(resp, &before)
		Expect(before.Games).NotTo(BeEmpty())

		upstream.SetFailing(sources.SourceSteam, true)

		resp, err = server.TriggerSync("pc")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var report games.SyncRunReport
		helpers.DecodeResponse(resp, &report)
		Expect(report.PerSource).To(HaveLen(1))
		Expect(report.PerSource).To(HaveKey(sources.SourceSteam))
		outcome := report.PerSource[sources.SourceSteam]
		Expect(outcome.Success).To(BeFalse())
		Expect(outcome.Phase).To(Equal(games.SyncPhaseFailedRetained))
		Expect(outcome.Error).To(ContainSubstring("503"))

		resp, err = server.GetPlatform(sources.SourceSteam, "")
		Expect(err).NotTo(HaveOccurred())
		var after games.SourceResult
		helpers.DecodeResponse(resp, &after)
		Expect(after.Error).To(BeEmpty())
		Expect(after.Games).To(Equal(before.Games))
	})

	It("should refresh every source on an empty sync request", func() {
		server.WaitForReadiness(15 * time.Second)

		resp, err := server.TriggerSync()
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var report games.SyncRunReport
		helpers.DecodeResponse(resp, &report)
		Expect(report.PerSource).To(HaveLen(len(sources.SupportedNames())))
		for name, outcome := range report.PerSource {
			Expect(outcome.Phase).To(Equal(games.SyncPhaseUpdated), "source %s", name)
			Expect(upstream.Hits(name)).To(Equal(2), "source %s", name)
		}
	})

	It("should reject sync requests for unknown platforms", func() {
		resp, err := server.TriggerSync("atari")
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})
})
