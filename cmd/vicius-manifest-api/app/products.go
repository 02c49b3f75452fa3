package app

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stacklok/vicius-manifest-server/internal/config"
)

func newProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the products of a configuration",
		Long:  "List every configured product with the path it is served at and where its manifest comes from.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			return renderProducts(cmd.OutOrStdout(), cfg.Products)
		},
	}
}

func renderProducts(w io.Writer, products []config.ProductConfig) error {
	table := tablewriter.NewWriter(w)
	table.Header("NAME", "PATH", "SOURCE", "MODE")

	for i := range products {
		p := &products[i]
		source, mode := describeSource(p)
		if err := table.Append(p.Name, "/"+p.GetPath(), source, mode); err != nil {
			return fmt.Errorf("failed to render product %s: %w", p.Name, err)
		}
	}

	return table.Render()
}

func describeSource(p *config.ProductConfig) (string, string) {
	switch p.GetType() {
	case config.SourceTypeGitHub:
		return fmt.Sprintf("github:%s/%s", p.GitHub.Owner, p.GitHub.Repo), p.GitHub.GetMode()
	case config.SourceTypeStatic:
		return "file:" + p.Static.Path, "-"
	default:
		return "unknown", "-"
	}
}
