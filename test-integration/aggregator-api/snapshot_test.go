package integration

import (
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/snapshot"
	"github.com/nightfeed/horror-aggregator/internal/sources"
	"github.com/nightfeed/horror-aggregator/test-integration/aggregator-api/helpers"
)

var _ = Describe("Redis snapshots", func() {
	var (
		tempDir  string
		upstream *helpers.UpstreamHelper
		redis    *miniredis.Miniredis
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "aggregator-snapshot-*")
		Expect(err).NotTo(HaveOccurred())

		upstream, err = helpers.NewUpstreamHelper(fixtureDir)
		Expect(err).NotTo(HaveOccurred())

		redis, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		redis.Close()
		upstream.Close()
		Expect(os.RemoveAll(tempDir)).To(Succeed())
	})

	startServer := func(syncEnabled bool) *helpers.ServerTestHelper {
		configPath, err := helpers.WriteConfig(tempDir, upstream, helpers.ConfigOptions{
			SyncEnabled:  syncEnabled,
			SyncInterval: "1h",
			RedisAddr:    redis.Addr(),
		})
		Expect(err).NotTo(HaveOccurred())

		server, err := helpers.NewServerTestHelper(ctx, configPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(server.StartServer()).To(Succeed())
		server.WaitForServerReady(10 * time.Second)
		return server
	}

	It("should mirror every refreshed source", func() {
		server := startServer(true)
		defer func() { Expect(server.StopServer()).To(Succeed()) }()

		server.WaitForReadiness(15 * time.Second)
		for _, name := range sources.SupportedNames() {
			Expect(redis.Exists(snapshot.DefaultKeyPrefix+":"+name)).To(BeTrue(), "source %s", name)
		}
	})

	It("should warm start from the snapshot after a restart", func() {
		first := startServer(true)
		first.WaitForReadiness(15 * time.Second)

		resp, err := first.GetPlatform(sources.SourceNintendo, "")
		Expect(err).NotTo(HaveOccurred())
		var before games.SourceResult
		helpers.DecodeResponse(resp, &before)
		Expect(first.StopServer()).To(Succeed())

		for _, name := range sources.SupportedNames() {
			upstream.SetFailing(name, true)
		}
		hits := upstream.Hits(sources.SourceNintendo)

		second := startServer(false)
		defer func() { Expect(second.StopServer()).To(Succeed()) }()

		resp, err = second.GetPlatform(sources.SourceNintendo, "")
		Expect(err).NotTo(HaveOccurred())
		var after games.SourceResult
		helpers.DecodeResponse(resp, &after)

		Expect(after.Error).To(BeEmpty())
		Expect(after.Games).To(Equal(before.Games))
		Expect(upstream.Hits(sources.SourceNintendo)).To(Equal(hits))
	})
})
