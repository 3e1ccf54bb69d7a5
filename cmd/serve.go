package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"workshop_tool_inventory/importer"
	"workshop_tool_inventory/jobs"
	"workshop_tool_inventory/routes"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the import folder watcher and scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		routes.RegisterRoutes(a.Router, a)

		c, err := jobs.StartCron(ctx, jobs.Defaults(a.Repo, a.Bridge))
		if err != nil {
			return err
		}
		defer func() { <-c.Stop().Done() }()

		var w *importer.Watcher
		if serveWatch {
			if w, err = importer.NewWatcher(a.Importer, a.Config.Import); err != nil {
				return err
			}
		}

		srv := &http.Server{Addr: a.Addr(), Handler: a.Router}
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			log.Printf("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		if w != nil {
			g.Go(func() error { return w.Run(gctx) })
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Import CSV files dropped into IMPORT_DIR")
	rootCmd.AddCommand(serveCmd)
}
