package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/domain"
	"github.com/jose-valero/pug-coordinator/internal/infra/storage"
)

var (
	ErrMissingGame   = eris.New("missing game")
	ErrMatchNotFound = eris.New("match not found")
	ErrForbidden     = eris.New("invalid callback key")
)

// PreconditionError: el server reporta un estado que no cuadra con el guardado.
// No es transitorio; significa que el server y la base se desincronizaron.
type PreconditionError struct {
	MatchID  string
	Declared string
	Current  domain.Status
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("match %s: status %q not allowed while %s", e.MatchID, e.Declared, e.Current)
}

// CallbackQuery: los parámetros que manda el plugin en GET /api/servers/{key}.
type CallbackQuery struct {
	Game     string
	Status   string
	Score    string
	Time     string
	Duration string
	URL      string
}

func (q CallbackQuery) report() MatchReport {
	return MatchReport{Score: q.Score, Duration: q.Duration, Time: q.Time}
}

// CallbackService valida los callbacks de los servers y los traduce a eventos.
// No cambia estado por sí mismo; eso lo hacen los sinks de Events (LifecycleRecorder).
type CallbackService struct {
	log     zerolog.Logger
	matches MatchReader
	servers map[string]domain.GameServer
	events  Events
}

func NewCallbackService(log zerolog.Logger, matches MatchReader, servers []domain.GameServer, events Events) *CallbackService {
	byName := make(map[string]domain.GameServer, len(servers))
	for _, srv := range servers {
		byName[srv.Name] = srv
	}
	return &CallbackService{
		log:     log.With().Str("component", "callback").Logger(),
		matches: matches,
		servers: byName,
		events:  events,
	}
}

func (s *CallbackService) Handle(ctx context.Context, key string, q CallbackQuery) error {
	if q.Game == "" {
		return ErrMissingGame
	}
	m, err := s.matches.Get(ctx, q.Game)
	if err != nil {
		if eris.Is(err, storage.ErrNotFound) {
			return eris.Wrapf(ErrMatchNotFound, "game %s", q.Game)
		}
		return eris.Wrapf(err, "load game %s", q.Game)
	}

	srv, ok := s.servers[m.Server]
	if !ok || subtle.ConstantTimeCompare([]byte(key), []byte(domain.CallbackKey(m.ID, srv.Salt))) != 1 {
		s.log.Warn().Str("match", m.ID).Str("server", m.Server).Str("status", q.Status).Msg("rejected callback with bad key")
		return ErrForbidden
	}

	status := strings.ToLower(q.Status)
	check := func(allowed ...domain.Status) error {
		for _, st := range allowed {
			if m.Status == st {
				return nil
			}
		}
		perr := &PreconditionError{MatchID: m.ID, Declared: status, Current: m.Status}
		s.log.Error().Err(perr).Str("server", srv.Name).Msg("callback precondition violated")
		return perr
	}

	switch status {
	case "setup":
		if err := check(domain.StatusAssigning); err != nil {
			return err
		}
		s.events.ServerSetupComplete(ctx, m)
	case "live":
		if err := check(domain.StatusLaunching, domain.StatusLive); err != nil {
			return err
		}
		s.events.MatchLive(ctx, m, q.report())
	case "abandoned":
		if err := check(domain.StatusLive); err != nil {
			return err
		}
		s.events.MatchAbandoned(ctx, m, q.report())
	case "completed":
		if err := check(domain.StatusLive); err != nil {
			return err
		}
		s.events.MatchCompleted(ctx, m, q.report())
	case "logavailable":
		s.events.LogAvailable(ctx, m, q.URL)
	default:
		s.log.Warn().Str("match", m.ID).Str("status", q.Status).Msg("unknown callback status ignored")
		return nil
	}

	s.log.Info().Str("match", m.ID).Str("server", srv.Name).Str("status", status).Msg("callback accepted")
	return nil
}
