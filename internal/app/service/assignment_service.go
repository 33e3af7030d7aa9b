package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

const (
	noticeNoServerRetry = "server not available for drafted game, retrying soon"
	noticeNoServerAbort = "server not available for drafted game, aborting game"
	noticeSetupRetry    = "failed to set up server for drafted game, retrying soon"
	noticeSetupAbort    = "failed to set up server for drafted game, aborting game"
)

type AssignmentConfig struct {
	Servers        []domain.GameServer
	Maps           map[string]domain.GameMap
	Roles          []domain.Role
	BaseURL        string
	CommandTimeout time.Duration
	RetryDelay     time.Duration
}

// AssignmentService lleva cada match armado hasta un server configurado:
// elige server, lo configura por RCON y, si algo falla, reintenta una vez y después aborta.
type AssignmentService struct {
	log    zerolog.Logger
	store  MatchStore
	finder ServerFinder
	dialer AdminDialer
	events Events

	servers        map[string]domain.GameServer
	maps           map[string]domain.GameMap
	roles          map[string]domain.Role
	baseURL        string
	commandTimeout time.Duration
	retryDelay     time.Duration
	pick           func(n int) int

	mu      sync.Mutex
	pending map[string]*time.Timer // un reintento por match como máximo
	closed  bool
}

func NewAssignmentService(log zerolog.Logger, store MatchStore, finder ServerFinder, dialer AdminDialer, events Events, cfg AssignmentConfig) *AssignmentService {
	s := &AssignmentService{
		log:            log.With().Str("component", "assignment").Logger(),
		store:          store,
		finder:         finder,
		dialer:         dialer,
		events:         events,
		servers:        make(map[string]domain.GameServer, len(cfg.Servers)),
		maps:           cfg.Maps,
		roles:          make(map[string]domain.Role, len(cfg.Roles)),
		baseURL:        cfg.BaseURL,
		commandTimeout: cfg.CommandTimeout,
		retryDelay:     cfg.RetryDelay,
		pick:           rand.Intn,
		pending:        map[string]*time.Timer{},
	}
	for _, srv := range cfg.Servers {
		s.servers[srv.Name] = srv
	}
	for _, r := range cfg.Roles {
		s.roles[r.ID] = r
	}
	return s
}

// AssignServer arranca la asignación de un match recién armado.
func (s *AssignmentService) AssignServer(ctx context.Context, m domain.Match) {
	s.log.Info().Str("match", m.ID).Msg("assigning server")
	s.assign(ctx, m.ID, false)
}

// AbortGame es el abort de un admin: fuerza aborted aunque el match ya haya terminado.
func (s *AssignmentService) AbortGame(ctx context.Context, matchID string) error {
	return s.abort(ctx, matchID, false)
}

// Close cancela todos los reintentos pendientes.
func (s *AssignmentService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}

func (s *AssignmentService) assign(ctx context.Context, matchID string, retry bool) {
	log := s.log.With().Str("match", matchID).Bool("retry", retry).Logger()
	if !s.stillAssigning(ctx, matchID) {
		return
	}

	available, err := s.finder.ListAvailableServers(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("list available servers")
	}

	if len(available) > 0 {
		name := available[s.pick(len(available))]
		err := s.store.AssignServer(ctx, matchID, name)
		if err == nil {
			log.Info().Str("server", name).Msg("server claimed")
			s.setUp(ctx, matchID, false)
			return
		}
		// el claim sólo aplica mientras el match sigue assigning
		if !s.stillAssigning(ctx, matchID) {
			return
		}
		// si no se pudo guardar la asignación se trata como intento sin server
		log.Error().Err(err).Str("server", name).Msg("persist server assignment")
	}

	if !retry {
		s.events.SystemNotice(ctx, matchID, noticeNoServerRetry)
		s.schedule(matchID, func(ctx context.Context) { s.assign(ctx, matchID, true) })
		return
	}
	s.events.SystemNotice(ctx, matchID, noticeNoServerAbort)
	s.abortFailed(ctx, matchID)
}

func (s *AssignmentService) setUp(ctx context.Context, matchID string, final bool) {
	log := s.log.With().Str("match", matchID).Bool("final", final).Logger()
	if !s.stillAssigning(ctx, matchID) {
		return
	}

	err := s.configure(ctx, matchID)
	if err == nil {
		log.Info().Msg("server configured")
		return
	}
	log.Warn().Err(err).Msg("server setup failed")

	if !final {
		s.events.SystemNotice(ctx, matchID, noticeSetupRetry)
		s.schedule(matchID, func(ctx context.Context) { s.setUp(ctx, matchID, true) })
		return
	}
	s.events.SystemNotice(ctx, matchID, noticeSetupAbort)
	s.abortFailed(ctx, matchID)
}

// configure corre el pipeline en orden sobre una sola sesión; corta en el primer error.
func (s *AssignmentService) configure(ctx context.Context, matchID string) error {
	m, err := s.store.Get(ctx, matchID)
	if err != nil {
		return eris.Wrap(err, "load match")
	}
	srv, ok := s.servers[m.Server]
	if !ok {
		return eris.Errorf("match %s assigned to unknown server %q", m.ID, m.Server)
	}
	gm, ok := s.maps[m.Map]
	if !ok {
		return eris.Errorf("match %s has unknown map %q", m.ID, m.Map)
	}

	sess, err := dial(ctx, s.dialer, srv, s.commandTimeout)
	if err != nil {
		return err
	}
	defer closeSession(sess)

	run := func(step, cmd string) error {
		if _, err := command(ctx, sess, cmd, s.commandTimeout); err != nil {
			return eris.Wrapf(err, "%s on %s", step, srv.Name)
		}
		return nil
	}

	if err := run("reset", domain.ResetCommand()); err != nil {
		return err
	}
	if err := run("server url", domain.ServerURLCommand(s.baseURL, domain.CallbackKey(m.ID, srv.Salt))); err != nil {
		return err
	}
	if err := run("game id", domain.GameIDCommand(m.ID)); err != nil {
		return err
	}
	if err := run("map", domain.MapCommand(gm.File)); err != nil {
		return err
	}
	if err := run("config", domain.ConfigCommand(gm.Config)); err != nil {
		return err
	}
	for _, p := range m.ActivePlayers() {
		cmd := domain.AddPlayerCommand(p.SteamID, p.Alias, p.Faction.TeamCode(), domain.ClassCode(s.roles[p.Role].Class))
		if err := run("add player "+p.SteamID, cmd); err != nil {
			return err
		}
	}
	return run("start", domain.StartCommand())
}

// schedule programa un reintento por match; uno nuevo reemplaza al anterior.
func (s *AssignmentService) schedule(matchID string, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if old := s.pending[matchID]; old != nil {
		old.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(s.retryDelay, func() {
		s.mu.Lock()
		if s.pending[matchID] != t {
			s.mu.Unlock()
			return
		}
		delete(s.pending, matchID)
		s.mu.Unlock()

		fn(context.Background())
	})
	s.pending[matchID] = t
}

// stillAssigning relee el estado guardado. Sólo un match assigning puede tomar o configurar
// un server: el evento puede llegar repetido o tarde, o un admin pudo abortarlo mientras tanto.
func (s *AssignmentService) stillAssigning(ctx context.Context, matchID string) bool {
	st, err := s.store.Status(ctx, matchID)
	if err != nil {
		s.log.Error().Err(err).Str("match", matchID).Msg("read match status")
		return false
	}
	if st != domain.StatusAssigning {
		s.log.Info().Str("match", matchID).Str("status", string(st)).Msg("match not assigning, skipped")
		return false
	}
	return true
}

func (s *AssignmentService) cancelPending(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.pending[matchID]; t != nil {
		t.Stop()
		delete(s.pending, matchID)
	}
}

// abortFailed es el abort propio del controller: no pisa un match ya terminado
// y además pide limpiar el draft.
func (s *AssignmentService) abortFailed(ctx context.Context, matchID string) {
	if err := s.abort(ctx, matchID, true); err != nil {
		s.log.Error().Err(err).Str("match", matchID).Msg("abort failed match")
	}
}

func (s *AssignmentService) abort(ctx context.Context, matchID string, fromController bool) error {
	s.cancelPending(matchID)

	m, err := s.store.Get(ctx, matchID)
	if err != nil {
		return eris.Wrapf(err, "load match %s", matchID)
	}
	if fromController && m.Status.Terminal() {
		s.log.Info().Str("match", matchID).Str("status", string(m.Status)).Msg("abort skipped, match already over")
		return nil
	}
	if err := s.store.UpdateStatus(ctx, matchID, domain.StatusAborted); err != nil {
		return eris.Wrapf(err, "abort match %s", matchID)
	}
	m.Status = domain.StatusAborted
	s.log.Warn().Str("match", matchID).Bool("admin", !fromController).Msg("match aborted")

	s.events.MatchAborted(ctx, m)
	if fromController {
		s.events.DraftCleanupRequested(ctx, m)
	}

	// best effort: el registro local puede estar viejo, se resetea a quien diga tenerlo
	for _, srv := range s.finder.FindOwners(ctx, matchID) {
		if err := resetServer(ctx, s.dialer, srv, s.commandTimeout); err != nil {
			s.log.Warn().Err(err).Str("match", matchID).Str("server", srv.Name).Msg("reset after abort")
		}
	}
	return nil
}
