package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/gomarten/spur/config"
	"github.com/spf13/cobra"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the notes server",
	Long: `Start the notes server.

Configuration is read from spur.yaml (or --config) when the file exists
and from SPUR_* environment variables otherwise. With hot reload the file
is watched and SIGHUP reloads it; every reload rebuilds the routes.

Examples:
  spur-example serve
  spur-example serve --config /etc/spur/spur.yaml
  SPUR_SERVER_PORT=9000 SPUR_LOG_FORMAT=console spur-example serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload the config file on change")
}

// swapHandler serves the most recently stored handler.
type swapHandler struct {
	h atomic.Pointer[http.Handler]
}

func (s *swapHandler) store(h http.Handler) { s.h.Store(&h) }

func (s *swapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*s.h.Load()).ServeHTTP(w, r)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Logging)
	notes := newNoteStore()

	app := newApp(cfg, logger, notes)
	handler := &swapHandler{}
	handler.store(app.Build())

	if _, statErr := os.Stat(cfgFile); hotReload && statErr == nil {
		holder, err := config.NewHolder(cfgFile, logger)
		if err != nil {
			return err
		}
		defer holder.Stop()

		holder.OnChange(func(next *config.Config) {
			handler.store(newApp(next, config.NewLogger(next.Logging), notes).Build())
		})
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("config file watch disabled")
		}
		holder.WatchSignals()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return app.Serve(ctx, srv, cfg.Server.ShutdownTimeout)
}
