// Package cli assembles the taxadvisor command tree. Configuration and the
// logger are loaded once per invocation and injected into each subcommand,
// so nothing reaches for ambient globals.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/internal/advisor"
	"github.com/tdurojaiye/taxadvisor/internal/audit"
	"github.com/tdurojaiye/taxadvisor/internal/config"
	"github.com/tdurojaiye/taxadvisor/internal/history"
	"github.com/tdurojaiye/taxadvisor/internal/ingest"
	"github.com/tdurojaiye/taxadvisor/internal/tax"
	"github.com/tdurojaiye/taxadvisor/pkg/database"
	"github.com/tdurojaiye/taxadvisor/pkg/utils"
)

// App holds the streams and the per-invocation state shared by every
// subcommand.
type App struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

// New creates the CLI on explicit streams so tests can drive it.
func New(stdin io.Reader, stdout, stderr io.Writer) *App {
	return &App{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// Execute runs the command tree with the given arguments, excluding the
// binary name.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root.ExecuteContext(ctx)
}

func (a *App) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxadvisor",
		Short: "Nigerian business tax advisor and compliance auditor",
		Long: `taxadvisor audits company financial statements against Nigerian tax law
(CIT, TET, VAT), keeps a history of past assessments, and answers business
and tax questions through an AI advisor.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.bootstrap,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a config file (default: ./config.yaml if present)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level (debug|info|warn|error)")

	cmd.AddCommand(
		newAuditCmd(a),
		newChatCmd(a),
		newAnalyzeCmd(a),
		newHistoryCmd(a),
		newSampleCmd(a),
		newServeCmd(a),
	)
	return cmd
}

// bootstrap loads configuration and builds the logger before any subcommand
// runs.
func (a *App) bootstrap(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// engine builds the tax engine from the configured rate table.
func (a *App) engine() (*tax.Engine, error) {
	table, err := a.cfg.Rates.Table()
	if err != nil {
		return nil, err
	}
	return tax.NewEngine(table)
}

// advisorClient builds the hosted model client. It fails when no API key is
// configured, so only commands that actually need the model demand one.
func (a *App) advisorClient() (*advisor.Client, error) {
	return advisor.NewClient(advisor.Config{
		APIKey:      a.cfg.OpenAI.APIKey,
		BaseURL:     a.cfg.OpenAI.BaseURL,
		Model:       a.cfg.OpenAI.Model,
		Temperature: a.cfg.OpenAI.Temperature,
		MaxTokens:   a.cfg.OpenAI.MaxTokens,
	}, a.logger)
}

// openStore opens the assessment history database, migrating it as needed.
func (a *App) openStore() (*history.Store, error) {
	return history.Open(database.Config{
		Path:            a.cfg.Database.Path,
		MaxOpenConns:    a.cfg.Database.MaxOpenConns,
		MaxIdleConns:    a.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: a.cfg.Database.ConnMaxLifetime,
	}, a.logger)
}

// auditService assembles the statement audit pipeline. The advisor client
// and the vision reader are left out when no API key is configured, keeping
// plain spreadsheet audits fully offline.
func (a *App) auditService(store *history.Store) (*audit.Service, error) {
	engine, err := a.engine()
	if err != nil {
		return nil, err
	}

	var (
		client    *advisor.Client
		pdfReader *ingest.PDFReader
	)
	if a.cfg.OpenAI.APIKey != "" {
		client, err = a.advisorClient()
		if err != nil {
			return nil, err
		}
		pdfReader = ingest.NewPDFReader(client.OpenAI(), client.Model(), a.logger)
	}

	return audit.NewService(ingest.NewReader(a.logger), pdfReader, engine, client, store, a.logger), nil
}

// modelContext bounds one model request with the configured timeout.
func (a *App) modelContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.cfg.OpenAI.Timeout)
}

// prompt prints text and reads one trimmed line. ok is false once input is
// exhausted (Ctrl-D or a closed pipe).
func (a *App) prompt(scanner *bufio.Scanner, text string) (line string, ok bool) {
	fmt.Fprint(a.stdout, text)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

// isQuit reports whether the user asked to end the session.
func isQuit(input string) bool {
	switch strings.ToLower(input) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// isNo reports a decline at a continuation prompt, which also ends the
// session.
func isNo(input string) bool {
	switch strings.ToLower(input) {
	case "no", "n":
		return true
	}
	return isQuit(input)
}
