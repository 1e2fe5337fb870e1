package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xavierca1/rwa-leads/internal/infra/database"
)

func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Add the columns the live lead table is missing",
		Long: `Compare the live lead table with the columns this release expects and
add every missing one. Existing columns and rows are never modified.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			res := s.reconciler.Reconcile(ctx)
			if res.TableAbsent && create {
				if err := database.EnsureTable(ctx, s.db, s.dialect, database.LeadSchema); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "table created")
				return nil
			}
			return printResult(cmd, res)
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "create the table when it does not exist")
	return cmd
}

func printResult(cmd *cobra.Command, res database.ReconcileResult) error {
	out := cmd.OutOrStdout()
	if res.Err != nil {
		return res.Err
	}
	if res.TableAbsent {
		fmt.Fprintln(out, "table absent (use --create)")
		return nil
	}

	fmt.Fprintf(out, "added: %s\n", listOrNone(res.Added))
	fmt.Fprintf(out, "already present: %s\n", listOrNone(res.AlreadyPresent))
	if len(res.Failed) == 0 {
		return nil
	}

	names := make([]string, 0, len(res.Failed))
	for name := range res.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "failed: %s: %v\n", name, res.Failed[name])
	}
	return fmt.Errorf("%d column(s) could not be added", len(res.Failed))
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
