package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scoutline/sourcing-cli/internal/registry"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the source catalog in priority order",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := registry.Default()
		if cfg.Catalog.Path != "" {
			loaded, err := registry.Load(cfg.Catalog.Path)
			if err != nil {
				return err
			}
			catalog = loaded
		}

		for _, name := range catalog.Names() {
			spec := catalog.Spec(name)
			line := fmt.Sprintf("%-16s priority=%d", spec.Name, spec.Priority)
			if len(spec.Keywords) > 0 {
				line += "  keywords=" + strings.Join(spec.Keywords, ",")
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
