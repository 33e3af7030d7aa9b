package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/app/service"
)

// Lo implementa service.CallbackService
type CallbackHandler interface {
	Handle(ctx context.Context, key string, q service.CallbackQuery) error
}

type Server struct {
	log      zerolog.Logger
	callback CallbackHandler
	router   *mux.Router
	srv      *http.Server
}

func New(log zerolog.Logger, callback CallbackHandler) *Server {
	s := &Server{
		log:      log.With().Str("component", "http").Logger(),
		callback: callback,
		router:   mux.NewRouter(),
	}
	s.srv = &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/servers/{key}", s.handleCallback).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler { return s.router }

// QueryFrom arma el CallbackQuery con los parámetros que manda el plugin.
func QueryFrom(v url.Values) service.CallbackQuery {
	return service.CallbackQuery{
		Game:     v.Get("game"),
		Status:   v.Get("status"),
		Score:    v.Get("score"),
		Time:     v.Get("time"),
		Duration: v.Get("duration"),
		URL:      v.Get("url"),
	}
}

// StatusFor traduce el error del servicio al código HTTP que espera el plugin.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case eris.Is(err, service.ErrMissingGame):
		return http.StatusBadRequest
	case eris.Is(err, service.ErrMatchNotFound):
		return http.StatusNotFound
	case eris.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	}
	// PreconditionError y fallas de base: el server y nosotros no coinciden
	return http.StatusInternalServerError
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	q := QueryFrom(r.URL.Query())

	err := s.callback.Handle(r.Context(), key, q)
	code := StatusFor(err)
	if err != nil {
		ev := s.log.Warn()
		if code >= http.StatusInternalServerError {
			ev = s.log.Error()
		}
		ev.Err(err).Str("game", q.Game).Str("status", q.Status).Int("code", code).Msg("callback rejected")
		http.Error(w, http.StatusText(code), code)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) Start(addr string) error {
	s.srv.Addr = addr
	s.log.Info().Str("addr", addr).Msg("http listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "http server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
