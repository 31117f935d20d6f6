package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-tools/tally/pkg/handlers/check"
	tallymiddleware "github.com/de-tools/tally/pkg/server/middleware"
	"github.com/de-tools/tally/pkg/services/recon"
	"github.com/de-tools/tally/pkg/store/duckdb/run"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type WebAPI struct {
	logger *zerolog.Logger
	server *http.Server
}

type Dependencies struct {
	RunStore run.Store // optional; nil disables run history endpoints
	Settings recon.Settings
	Logger   zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// ConfigureRouter builds the chi router for the reconciliation API.
func ConfigureRouter(config Config) *chi.Mux {
	handler := check.NewHandler(config.Dependencies.RunStore, config.Dependencies.Settings)

	router := chi.NewRouter()
	router.Use(tallymiddleware.Logger(&config.Dependencies.Logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/check", handler.CheckTable)
		r.Get("/runs", handler.ListRuns)
		r.Get("/runs/{run}/findings", handler.GetRunFindings)
	})

	return router
}

func NewWebAPI(config Config) *WebAPI {
	return &WebAPI{
		logger: &config.Dependencies.Logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: ConfigureRouter(config),
		},
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
