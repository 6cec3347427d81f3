package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tdurojaiye/taxadvisor/internal/render"
)

type historyCmd struct {
	app   *App
	limit int
}

func newHistoryCmd(app *App) *cobra.Command {
	hc := &historyCmd{app: app}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past assessments",
		Args:  cobra.NoArgs,
		RunE:  hc.list,
	}
	cmd.Flags().IntVar(&hc.limit, "limit", 20, "maximum number of assessments to list")

	cmd.AddCommand(newHistoryShowCmd(app))
	return cmd
}

func (c *historyCmd) list(cmd *cobra.Command, _ []string) error {
	store, err := c.app.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	assessments, err := store.List(cmd.Context(), c.limit)
	if err != nil {
		return err
	}

	out := c.app.stdout
	if len(assessments) == 0 {
		fmt.Fprintln(out, "No assessments recorded yet. Audit a statement first: taxadvisor audit FILE")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-16s  %-10s  %18s  %s\n", "ID", "CREATED", "STATUS", "VARIANCE", "SOURCE")
	for _, a := range assessments {
		fmt.Fprintf(out, "%-36s  %-16s  %-10s  %18s  %s\n",
			a.ID,
			a.CreatedAt.Local().Format("2006-01-02 15:04"),
			a.Report.Status,
			render.FormatNaira(a.Report.Variance),
			a.Source,
		)
	}
	return nil
}

type historyShowCmd struct {
	app *App
}

func newHistoryShowCmd(app *App) *cobra.Command {
	sc := &historyShowCmd{app: app}
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one stored assessment in full",
		Args:  cobra.ExactArgs(1),
		RunE:  sc.run,
	}
}

func (c *historyShowCmd) run(cmd *cobra.Command, args []string) error {
	store, err := c.app.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(c.app.stdout, "Recorded %s\n\n", a.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	render.New(c.app.stdout).Assessment(a.Source, a.Report, nil)
	return nil
}
