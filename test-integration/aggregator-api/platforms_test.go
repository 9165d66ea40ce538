package integration

import (
	"net/http"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/sources"
	"github.com/nightfeed/horror-aggregator/test-integration/aggregator-api/helpers"
)

const fixtureDir = "../../internal/sources/testdata"

var _ = Describe("Platform listings", func() {
	var (
		tempDir  string
		upstream *helpers.UpstreamHelper
		server   *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "aggregator-platforms-*")
		Expect(err).NotTo(HaveOccurred())

		upstream, err = helpers.NewUpstreamHelper(fixtureDir)
		Expect(err).NotTo(HaveOccurred())

		configPath, err := helpers.WriteConfig(tempDir, upstream, helpers.ConfigOptions{})
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

	It("should serve normalized listings for every source", func() {
		for _, name := range sources.SupportedNames() {
			resp, err := server.GetPlatform(name, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("public, max-age=300, stale-while-revalidate=600"))

			var result games.SourceResult
			helpers.DecodeResponse(resp, &result)

			Expect(result.SourceName).To(Equal(name))
			Expect(result.Error).To(BeEmpty(), "source %s", name)
			Expect(result.Games).NotTo(BeEmpty(), "source %s", name)
			Expect(result.TotalCount).To(Equal(len(result.Games)))

			for i, g := range result.Games {
				Expect(g.ID).To(HavePrefix(name + "-"))
				Expect(g.Title).NotTo(BeEmpty())
				Expect(g.GenreTags).NotTo(BeEmpty())
				Expect(g.Rating).To(BeNumerically(">=", 0))
				Expect(g.Rating).To(BeNumerically("<=", 5))
				if i > 0 {
					Expect(g.Rating).To(BeNumerically("<=", result.Games[i-1].Rating))
				}
			}
		}
	})

	It("should resolve aliases to the canonical source", func() {
		resp, err := server.GetPlatform("PS5", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var result games.SourceResult
		helpers.DecodeResponse(resp, &result)
		Expect(result.SourceName).To(Equal(sources.SourcePlayStation))
	})

	It("should merge every source for all", func() {
		resp, err := server.GetPlatform("all", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var result games.SourceResult
		helpers.DecodeResponse(resp, &result)
		Expect(result.SourceName).To(Equal(sources.SourceAll))
		Expect(result.Error).To(BeEmpty())

		seen := map[string]bool{}
		for i, g := range result.Games {
			source, _, _ := strings.Cut(g.ID, "-")
			seen[source] = true
			if i > 0 {
				Expect(g.Rating).To(BeNumerically("<=", result.Games[i-1].Rating))
			}
		}
		Expect(seen).To(HaveLen(len(sources.SupportedNames())))
	})

	It("should reject unknown platforms", func() {
		resp, err := server.GetPlatform("dreamcast", "")
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should serve repeat requests from the cache", func() {
		for range 3 {
			resp, err := server.GetPlatform(sources.SourceSteam, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Body.Close()).To(Succeed())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		}
		Expect(upstream.Hits(sources.SourceSteam)).To(Equal(1))
	})

	It("should report an upstream failure inside a 200 response", func() {
		upstream.SetFailing(sources.SourceXbox, true)

		resp, err := server.GetPlatform(sources.SourceXbox, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var result games.SourceResult
		helpers.DecodeResponse(resp, &result)
		Expect(result.Error).To(ContainSubstring("503"))
		Expect(result.Games).To(BeEmpty())
	})

	It("should answer batch requests per name", func() {
		resp, err := server.PostPlatforms("steam", "atari")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var results map[string]games.SourceResult
		helpers.DecodeResponse(resp, &results)
		Expect(results).To(HaveKey("steam"))
		Expect(results).To(HaveKey("atari"))
		Expect(results["steam"].Error).To(BeEmpty())
		Expect(results["atari"].Error).NotTo(BeEmpty())
	})

	It("should narrow listings with query filters", func() {
		resp, err := server.GetPlatform(sources.SourceSteam, "limit=1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var result games.SourceResult
		helpers.DecodeResponse(resp, &result)
		Expect(result.Games).To(HaveLen(1))
		Expect(result.TotalCount).To(Equal(1))

		resp, err = server.GetPlatform(sources.SourceSteam, "minRating=9")
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})
})
