package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available generation backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROVIDER\tDISPLAY")
			for _, cfg := range a.registry.Available() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", cfg.Name, cfg.Provider, cfg.DisplayName)
			}
			return w.Flush()
		},
	}
}
