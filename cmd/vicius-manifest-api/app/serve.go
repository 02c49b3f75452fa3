package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/vicius-manifest-server/internal/app"
)

const (
	defaultGracefulTimeout = 30 * time.Second

	// githubTokenKey also resolves VICIUS_GITHUB_TOKEN through the root command's env binding
	githubTokenKey = "github-token"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the manifest API server",
		Long: `Start the manifest API server.

The server requires a configuration file (--config) that lists the products to serve:
- GitHub products build their manifest from the repository's releases
- Static products serve a manifest file as is

See the examples/ directory for sample configurations.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().Bool("bypass-cache", false, "Fetch releases on every request (development only)")
	cmd.Flags().String(githubTokenKey, "", "GitHub API token (prefer VICIUS_GITHUB_TOKEN; GITHUB_TOKEN is the fallback)")

	for _, name := range []string{"address", "bypass-cache", githubTokenKey} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			slog.Error("Failed to bind flag", "flag", name, "error", err)
		}
	}

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("Loaded configuration", "path", configPath, "products", len(cfg.Products))

	manifestApp, err := app.NewManifestApp(ctx,
		app.WithConfig(cfg),
		app.WithAddress(viper.GetString("address")),
		app.WithBypassCache(viper.GetBool("bypass-cache")),
		app.WithGitHubToken(viper.GetString(githubTokenKey)),
	)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- manifestApp.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := manifestApp.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Shutdown failed", "error", err)
		return err
	}
	return <-errCh
}
