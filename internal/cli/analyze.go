package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/internal/advisor"
	"github.com/tdurojaiye/taxadvisor/internal/ingest"
	"github.com/tdurojaiye/taxadvisor/internal/render"
)

const analyzeGoodbye = "\nExiting analyst tool. Goodbye!"

type analyzeCmd struct {
	app *App
}

func newAnalyzeCmd(app *App) *cobra.Command {
	ac := &analyzeCmd{app: app}
	return &cobra.Command{
		Use:   "analyze",
		Short: "Analyze monthly business financials in a seven-part report",
		Long: `Analyze collects your industry, monthly revenue, total monthly costs, and
bank balance, then produces a seven-part report: profitability, growth
projection, efficiency, a theoretical valuation, a tax obligations overview,
loan eligibility, and actionable advice.`,
		Args: cobra.NoArgs,
		RunE: ac.run,
	}
}

func (c *analyzeCmd) run(cmd *cobra.Command, _ []string) error {
	app := c.app
	client, err := app.advisorClient()
	if err != nil {
		return err
	}

	out := app.stdout
	renderer := render.New(out)
	scanner := bufio.NewScanner(app.stdin)

	fmt.Fprintln(out, "\n--- AI Business Analyst (Nigeria) ---")
	fmt.Fprintln(out, "This tool collects your monthly financial data to provide a 7-part analysis.")
	fmt.Fprintln(out, "Type 'quit' or 'exit' at any prompt to end the session.")
	fmt.Fprintln(out)

	for {
		fmt.Fprintln(out, strings.Repeat("-", 50))

		industry, ok := app.prompt(scanner, "What is your business industry (e.g., 'Retail', 'Restaurant', 'Logistics')?\n> ")
		if !ok || isQuit(industry) {
			fmt.Fprintln(out, analyzeGoodbye)
			return nil
		}
		if industry == "" {
			fmt.Fprintln(out, "Industry is required to provide a benchmark. Please try again.")
			continue
		}

		revenue, ok := c.numericInput(scanner, "Enter your total Monthly Revenue (NGN):\n> ")
		if !ok {
			fmt.Fprintln(out, analyzeGoodbye)
			return nil
		}
		costs, ok := c.numericInput(scanner, "Enter your total Monthly Costs (Fixed + Variable) (NGN):\n> ")
		if !ok {
			fmt.Fprintln(out, analyzeGoodbye)
			return nil
		}
		balance, ok := c.numericInput(scanner, "Enter your Current Business Bank Account Balance (NGN):\n> ")
		if !ok {
			fmt.Fprintln(out, analyzeGoodbye)
			return nil
		}

		input := advisor.AnalysisInput{
			Industry:       industry,
			MonthlyRevenue: revenue,
			MonthlyCosts:   costs,
			BankBalance:    balance,
		}
		renderer.AnalysisInput(input)

		if input.MonthlyRevenue.IsZero() {
			fmt.Fprintln(out, "\nCannot calculate profit margin or provide analysis with zero revenue.")
			continue
		}

		fmt.Fprintf(out, "\n-> Analyzing data with %s...\n", app.cfg.OpenAI.Model)
		analysis := c.analyze(cmd, client, input)
		fmt.Fprintln(out)
		renderer.Analysis(analysis)

		next, ok := app.prompt(scanner, "\nPress Enter to run a new analysis, or type 'no' to exit:\n> ")
		if !ok || isNo(next) {
			fmt.Fprintln(out, analyzeGoodbye)
			return nil
		}
	}
}

func (c *analyzeCmd) analyze(cmd *cobra.Command, client *advisor.Client, input advisor.AnalysisInput) *advisor.BusinessAnalysis {
	ctx, cancel := c.app.modelContext(cmd.Context())
	defer cancel()

	analysis, err := client.AnalyzeBusiness(ctx, input)
	if err != nil {
		c.app.logger.Warn("analysis request failed", zap.Error(err))
		return advisor.FallbackAnalysis("Error: could not generate the analysis. The advisory service is unreachable.")
	}
	return analysis
}

// numericInput keeps asking until it gets a non-negative amount. Commas and
// currency marks are accepted, so figures can be pasted as ₦1,000,000.
func (c *analyzeCmd) numericInput(scanner *bufio.Scanner, text string) (decimal.Decimal, bool) {
	for {
		line, ok := c.app.prompt(scanner, text)
		if !ok || isQuit(line) {
			return decimal.Zero, false
		}

		value, err := ingest.ParseAmount(line)
		if err != nil {
			fmt.Fprintln(c.app.stdout, "Invalid input. Please enter a numeric value (e.g., 500000).")
			continue
		}
		if value.IsNegative() {
			fmt.Fprintln(c.app.stdout, "Value cannot be negative. Please try again.")
			continue
		}
		return value, true
	}
}
