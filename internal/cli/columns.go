package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xavierca1/rwa-leads/internal/infra/database"
)

func NewColumnsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "columns",
		Short:        "List live columns and mark the ones this release expects but lacks",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			live, err := s.reconciler.LiveColumns(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if live == nil {
				fmt.Fprintln(out, "table absent")
				return nil
			}

			for _, name := range live {
				marker := " "
				if !database.LeadSchema.Has(name) {
					marker = "?"
				}
				fmt.Fprintf(out, "%s %s\n", marker, name)
			}
			for _, col := range database.LeadSchema.Missing(live) {
				fmt.Fprintf(out, "- %s %s\n", col.Name, col.Definition())
			}
			return nil
		},
	}
}
