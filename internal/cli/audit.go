package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tdurojaiye/taxadvisor/internal/advisor"
	"github.com/tdurojaiye/taxadvisor/internal/audit"
	"github.com/tdurojaiye/taxadvisor/internal/render"
	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

type auditCmd struct {
	app    *App
	advice bool
	asJSON bool
}

func newAuditCmd(app *App) *cobra.Command {
	ac := &auditCmd{app: app}
	cmd := &cobra.Command{
		Use:   "audit FILE...",
		Short: "Audit financial statements for Nigerian tax compliance",
		Long: `Audit reads each statement (.csv, .xlsx, or scanned .pdf/.jpg/.png with an
OpenAI key configured), computes CIT, TET, and VAT, and checks the profit tax
actually paid against the computed liability. Every completed assessment is
recorded in the history database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: ac.run,
	}

	cmd.Flags().BoolVar(&ac.advice, "advice", false, "add AI compliance and growth advice to each report")
	cmd.Flags().BoolVar(&ac.asJSON, "json", false, "emit reports as a JSON array instead of formatted text")
	return cmd
}

func (c *auditCmd) run(cmd *cobra.Command, args []string) error {
	app := c.app

	store, err := app.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := app.auditService(store)
	if err != nil {
		return err
	}

	results := svc.RunAll(cmd.Context(), args, c.advice)

	if c.asJSON {
		if err := c.writeJSON(results); err != nil {
			return err
		}
	} else {
		c.render(results)
	}

	var failed int
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed to audit", failed, len(results))
	}
	return nil
}

func (c *auditCmd) render(results []*audit.Result) {
	renderer := render.New(c.app.stdout)
	for _, result := range results {
		if result.Err != nil {
			fmt.Fprintf(c.app.stderr, "audit %s: %v\n", result.Source, result.Err)
			continue
		}
		renderer.Assessment(result.Source, result.Report, result.Review)
		fmt.Fprintln(c.app.stdout)
	}
}

// assessmentJSON is the machine-readable form of one audit outcome.
type assessmentJSON struct {
	Source   string                    `json:"source"`
	RecordID string                    `json:"record_id,omitempty"`
	Metrics  tax.Metrics               `json:"metrics,omitempty"`
	Report   *tax.Report               `json:"report,omitempty"`
	Review   *advisor.AssessmentReview `json:"review,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

func (c *auditCmd) writeJSON(results []*audit.Result) error {
	out := make([]assessmentJSON, 0, len(results))
	for _, result := range results {
		entry := assessmentJSON{
			Source:   result.Source,
			RecordID: result.RecordID,
			Metrics:  result.Metrics,
			Report:   result.Report,
			Review:   result.Review,
		}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}
		out = append(out, entry)
	}

	enc := json.NewEncoder(c.app.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}
	return nil
}
