package helpers

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	manifestapp "github.com/stacklok/vicius-manifest-server/internal/app"
	"github.com/stacklok/vicius-manifest-server/internal/config"
	"github.com/stacklok/vicius-manifest-server/internal/telemetry"
)

// ServerTestHelper manages the manifest API server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	httpClient *http.Client
	app        *manifestapp.ManifestApp
}

// NewServerTestHelper creates a new server test helper
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// StartServer builds the application from the config file and serves it on a random local port
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := manifestapp.NewManifestApp(s.ctx,
		manifestapp.WithConfig(cfg),
		manifestapp.WithAddress("127.0.0.1:0"),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.app = app
	s.baseURL = "http://" + listener.Addr().String()

	go func() {
		if err := app.Serve(listener); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the manifest API server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// GetManifest requests a manifest, optionally announcing the client architecture
func (s *ServerTestHelper) GetManifest(path, architecture string) (int, []byte) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.baseURL+path, nil)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	if architecture != "" {
		req.Header.Set(telemetry.ArchitectureHeader, architecture)
	}
	return s.do(req)
}

// Get requests any path of the server
func (s *ServerTestHelper) Get(path string) (int, []byte) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.baseURL+path, nil)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return s.do(req)
}

func (s *ServerTestHelper) do(req *http.Request) (int, []byte) {
	resp, err := s.httpClient.Do(req)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return resp.StatusCode, body
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}
