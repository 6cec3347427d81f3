package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tdurojaiye/taxadvisor/internal/server"
)

type serveCmd struct {
	app *App
}

func newServeCmd(app *App) *cobra.Command {
	sc := &serveCmd{app: app}
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the assessment HTTP API",
		Long: `Serve exposes the audit pipeline over HTTP: POST a statement to
/api/v1/assessments and read past assessments back from the same prefix.
The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}
}

func (c *serveCmd) run(cmd *cobra.Command, _ []string) error {
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

	srv := server.New(server.Config{
		Host:         app.cfg.Server.Host,
		Port:         app.cfg.Server.Port,
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
	}, svc, store, app.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}
