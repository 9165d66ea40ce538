package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	aggapp "github.com/nightfeed/horror-aggregator/internal/app"
	"github.com/nightfeed/horror-aggregator/internal/config"
)

// ServerTestHelper manages the aggregator server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *aggapp.AggregatorApp
}

// NewServerTestHelper creates a new server test helper listening on a free local port
func NewServerTestHelper(ctx context.Context, configPath string) (*ServerTestHelper, error) {
	address, err := freeAddress()
	if err != nil {
		return nil, err
	}

	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		baseURL:    "http://" + address,
		address:    address,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func freeAddress() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to reserve a port: %w", err)
	}
	defer func() {
		_ = listener.Close()
	}()
	return listener.Addr().String(), nil
}

// StartServer builds the application from the config file and starts it
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := aggapp.NewAggregatorApp(s.ctx,
		aggapp.WithConfig(cfg),
		aggapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			// The test will fail when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits for /health to answer
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		return s.expectStatus("/health", http.StatusOK)
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// WaitForReadiness waits for /readiness to report ready
func (s *ServerTestHelper) WaitForReadiness(timeout time.Duration) {
	gomega.Eventually(func() error {
		return s.expectStatus("/readiness", http.StatusOK)
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should pass readiness")
}

func (s *ServerTestHelper) expectStatus(path string, status int) error {
	resp, err := s.httpClient.Get(s.baseURL + path)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != status {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	return nil
}

// Get makes a GET request to path
func (s *ServerTestHelper) Get(path string) (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + path)
}

// GetPlatform makes a GET request to /platforms/{name} with an optional raw query
func (s *ServerTestHelper) GetPlatform(name, rawQuery string) (*http.Response, error) {
	path := "/platforms/" + name
	if rawQuery != "" {
		path += "?" + rawQuery
	}
	return s.Get(path)
}

// PostPlatforms makes a POST request to /platforms
func (s *ServerTestHelper) PostPlatforms(names ...string) (*http.Response, error) {
	return s.postJSON("/platforms", map[string][]string{"platforms": names})
}

// TriggerSync makes a POST request to /sync; without names every source is refreshed
func (s *ServerTestHelper) TriggerSync(names ...string) (*http.Response, error) {
	if len(names) == 0 {
		return s.httpClient.Post(s.baseURL+"/sync", "application/json", http.NoBody)
	}
	return s.postJSON("/sync", map[string][]string{"platforms": names})
}

// GetSyncStatus makes a GET request to /sync/status
func (s *ServerTestHelper) GetSyncStatus() (*http.Response, error) {
	return s.Get("/sync/status")
}

func (s *ServerTestHelper) postJSON(path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return s.httpClient.Post(s.baseURL+path, "application/json", bytes.NewReader(data))
}

// DecodeResponse reads resp into v and closes the body
func DecodeResponse(resp *http.Response, v any) {
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	gomega.Expect(json.Unmarshal(body, v)).To(gomega.Succeed(), "body: %s", string(body))
}
