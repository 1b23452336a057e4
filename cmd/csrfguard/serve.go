package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/JeanGrijp/go-csrfguard/adapter/chiguard"
	"github.com/JeanGrijp/go-csrfguard/config"
	"github.com/JeanGrijp/go-csrfguard/csrf"
)

var page = template.Must(template.New("page").Parse(`<!doctype html>
<title>csrfguard</title>
<p>Transfers so far: {{ .Count }}</p>
<form method="post" action="/transfer">
  {{ .Field }}
  <button>Transfer</button>
</form>
`))

func newServeCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a demo server configured from the environment",
		Long: "Run a demo server configured from CSRF_* and SESSION_* environment\n" +
			"variables (a .env file in the working directory is honoured).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			var s config.Settings
			if err := config.Load(&s); err != nil {
				return err
			}
			return serve(cmd.Context(), s, logger)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

func serve(ctx context.Context, s config.Settings, logger *slog.Logger) error {
	sessions, closer, err := s.Sessions()
	if err != nil {
		return err
	}
	defer closer.Close()

	cfg := s.CSRF()
	cfg.Sessions = sessions
	cfg.Logger = logger
	g, err := csrf.New(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.HTTPAddr,
		Handler:           newRouter(g),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", s.HTTPAddr, "store", s.Store, "digest", cfg.Digest)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newRouter(g *csrf.Guard) http.Handler {
	var count atomic.Int64

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(chiguard.Middleware(g))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			field, err := g.FormField(r)
			if err != nil {
				http.Error(w, "token unavailable", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_ = page.Execute(w, map[string]any{"Field": field, "Count": count.Load()})
		})
		r.Get("/csrf-token", g.TokenHandler().ServeHTTP)
		r.Post("/transfer", func(w http.ResponseWriter, r *http.Request) {
			// if we got here, the token matched
			count.Add(1)
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})
		r.Post("/api/ping", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"pong":true}`)
		})
	})
	return r
}
