package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/vicius-manifest-server/internal/config"
	"github.com/stacklok/vicius-manifest-server/internal/service"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [manifest.json...]",
		Short: "Validate a configuration and manifest files",
		Long: `Validate checks the configuration named by --config, including every static
manifest it references, and any manifest files passed as arguments.
Nothing is fetched from GitHub.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetString("config") == "" && len(args) == 0 {
				return fmt.Errorf("nothing to validate: pass --config or manifest files")
			}

			var results []validationResult
			if viper.GetString("config") != "" {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				results = append(results, validateProducts(cfg.Products)...)
			}
			for _, path := range args {
				_, err := service.LoadManifestFile(path)
				results = append(results, validationResult{name: path, kind: "manifest", err: err})
			}

			return renderValidation(cmd.OutOrStdout(), results)
		},
	}
}

type validationResult struct {
	name string
	kind string
	err  error
}

// validateProducts converts every product the way the server does at startup
func validateProducts(products []config.ProductConfig) []validationResult {
	results := make([]validationResult, 0, len(products))
	for i := range products {
		p := &products[i]
		res := validationResult{name: p.Name, kind: p.GetType()}
		switch p.GetType() {
		case config.SourceTypeGitHub:
			_, res.err = p.BuilderProduct()
		case config.SourceTypeStatic:
			_, res.err = service.LoadManifestFile(p.Static.Path)
		}
		results = append(results, res)
	}
	return results
}

func renderValidation(w io.Writer, results []validationResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("NAME", "KIND", "RESULT")

	var errs []error
	for _, r := range results {
		status := "ok"
		if r.err != nil {
			status = r.err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", r.name, r.err))
		}
		if err := table.Append(r.name, r.kind, status); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	return errors.Join(errs...)
}
