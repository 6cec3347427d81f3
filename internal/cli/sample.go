package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tdurojaiye/taxadvisor/internal/ingest"
)

type sampleCmd struct {
	app *App
	out string
}

func newSampleCmd(app *App) *cobra.Command {
	sc := &sampleCmd{app: app}
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a ready-to-audit example statement",
		Long: `Sample writes an example financial statement for a large company with a
deliberate CIT underpayment, as a workbook or CSV depending on the output
extension.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}
	cmd.Flags().StringVar(&sc.out, "out", "large_company_data.xlsx", "output path (.xlsx or .csv)")
	return cmd
}

func (c *sampleCmd) run(*cobra.Command, []string) error {
	if err := ingest.WriteSample(c.out); err != nil {
		return err
	}
	fmt.Fprintf(c.app.stdout, "Successfully generated %q.\n", c.out)
	fmt.Fprintf(c.app.stdout, "Audit it with: taxadvisor audit %s\n", c.out)
	return nil
}
