package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/ahmed11551/tasbix09-sub001/connectors/wehttp"
	"github.com/ahmed11551/tasbix09-sub001/es"
	"github.com/ahmed11551/tasbix09-sub001/goals"
	"github.com/ahmed11551/tasbix09-sub001/support"
	"github.com/ahmed11551/tasbix09-sub001/tally"
)

type Server struct {
	cfg     support.Config
	log     zerolog.Logger
	store   es.EventStore
	tallies tally.Service
	goals   goals.Service
}

func NewServer(cfg support.Config, log zerolog.Logger, store es.EventStore, tallies tally.Service, goalService goals.Service) *Server {
	return &Server{cfg: cfg, log: log, store: store, tallies: tallies, goals: goalService}
}

// Routes mounts the tally and goal resources:
//
//	GET  /tally/{key}        POST /tally/{key}
//	GET  /tally/{key}/daily?tz=Europe/Moscow
//	GET  /goal/{key}         POST /goal/{key}
func (s *Server) Routes() http.Handler {
	tallies := wehttp.NewRouter[tally.Tally](tally.Kind, s.tallies, wehttp.Logger[tally.Tally](&s.log))
	tallies.Get("/{key}/daily", s.daily)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, withLogging)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Mount("/"+tally.Kind, tallies)
	r.Mount("/"+goals.Kind, wehttp.NewRouter[goals.Goal](goals.Kind, s.goals, wehttp.Logger[goals.Goal](&s.log)))

	return wehttp.WithTelemetry(r, "tasbih-server")
}

func (s *Server) daily(w http.ResponseWriter, r *http.Request) {
	zone := r.URL.Query().Get("tz")
	if zone == "" {
		zone = s.cfg.Timezone
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		wehttp.Error(w, r, http.StatusBadRequest, "unknown time zone "+zone)
		return
	}

	id := es.StreamID{Kind: tally.Kind, Key: chi.URLParam(r, "key")}
	days, err := tally.Daily(r.Context(), s.store.Load, id, loc)
	if err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("failed to project daily totals")
		wehttp.ServiceError(w, r, err)
		return
	}

	if days == nil {
		days = []tally.Day{}
	}
	render.JSON(w, r, days)
}

// Run serves until ctx is cancelled, then shuts down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{Addr: s.cfg.Listen, Handler: s.Routes()}

	failed := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Listen).Msg("listening")
		failed <- server.ListenAndServe()
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdown)
}
