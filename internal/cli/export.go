package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xavierca1/rwa-leads/internal/infra/database"
	"github.com/xavierca1/rwa-leads/internal/infra/export"
	"github.com/xavierca1/rwa-leads/internal/usecase"
)

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Write every lead to a CSV or XLSX file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("invalid format %q: must be csv or xlsx", format)
			}

			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			dst := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				dst = f
			}

			w, err := newWriter(format, dst)
			if err != nil {
				return err
			}
			if c, ok := w.(io.Closer); ok {
				defer c.Close()
			}

			uc := usecase.NewExportLeadsUseCase(database.NewLeadRepository(s.db, s.dialect), s.reconciler, s.log)
			if err := uc.Prepare(cmd.Context()); err != nil {
				return err
			}
			n, err := uc.Execute(cmd.Context(), w)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d lead(s) exported\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv|xlsx)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, stdout when empty")
	return cmd
}

func newWriter(format string, dst io.Writer) (usecase.LeadWriter, error) {
	if format == "xlsx" {
		return export.NewXLSXWriter(dst)
	}
	return export.NewCSVWriter(dst), nil
}
