package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

// ServerPoller consulta el pool completo para saber qué servers están libres.
// Es un throttle, no un cache: cada ventana de interval dispara exactamente un poll nuevo
// y todos los que llaman dentro de esa ventana reciben ese mismo resultado.
type ServerPoller struct {
	log      zerolog.Logger
	servers  []domain.GameServer
	dialer   AdminDialer
	matches  MatchStatusReader
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	flight *pollFlight
}

type pollFlight struct {
	started time.Time
	done    chan struct{}
	servers []string
}

func NewServerPoller(log zerolog.Logger, servers []domain.GameServer, dialer AdminDialer, matches MatchStatusReader, timeout, interval time.Duration) *ServerPoller {
	return &ServerPoller{
		log:      log.With().Str("component", "poller").Logger(),
		servers:  append([]domain.GameServer(nil), servers...),
		dialer:   dialer,
		matches:  matches,
		timeout:  timeout,
		interval: interval,
		now:      time.Now,
	}
}

// ListAvailableServers devuelve los nombres de los servers libres, sin orden garantizado.
// El poll corre desacoplado del ctx de quien lo disparó; ctx sólo corta la espera propia.
func (p *ServerPoller) ListAvailableServers(ctx context.Context) ([]string, error) {
	f := p.currentFlight()
	select {
	case <-f.done:
		return append([]string(nil), f.servers...), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *ServerPoller) currentFlight() *pollFlight {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.flight != nil && now.Sub(p.flight.started) < p.interval {
		return p.flight
	}
	f := &pollFlight{started: now, done: make(chan struct{})}
	p.flight = f
	go func() {
		f.servers = p.poll(context.Background())
		close(f.done)
	}()
	return f
}

func (p *ServerPoller) poll(ctx context.Context) []string {
	owners := make([]string, len(p.servers))
	ok := make([]bool, len(p.servers))

	var g errgroup.Group
	for i, srv := range p.servers {
		i, srv := i, srv
		g.Go(func() error {
			owner, err := queryOwner(ctx, p.dialer, srv, p.timeout)
			if err != nil {
				p.log.Warn().Err(err).Str("server", srv.Name).Msg("server excluded from poll")
				return nil
			}
			owners[i], ok[i] = owner, true
			return nil
		})
	}
	_ = g.Wait()

	var ids []string
	for i := range p.servers {
		if ok[i] && owners[i] != "" {
			ids = append(ids, owners[i])
		}
	}
	statuses := map[string]domain.Status{}
	if len(ids) > 0 {
		var err error
		statuses, err = p.matches.Statuses(ctx, ids)
		if err != nil {
			// sin estados no hay forma de saber si están libres: se excluyen todos los ocupados
			p.log.Error().Err(err).Msg("match status lookup failed")
			statuses = nil
		}
	}

	var out []string
	for i, srv := range p.servers {
		if !ok[i] {
			continue
		}
		if owners[i] == "" {
			out = append(out, srv.Name)
			continue
		}
		if statuses == nil {
			continue
		}
		// un id que ya no está en la base (podado por el janitor) cuenta como libre
		st, known := statuses[owners[i]]
		if !known || st.Terminal() {
			out = append(out, srv.Name)
		}
	}
	p.log.Debug().Int("pool", len(p.servers)).Strs("available", out).Msg("poll finished")
	return out
}

// FindOwners escanea todo el pool buscando servers que digan tener cargado matchID.
// Los servers que no responden se ignoran.
func (p *ServerPoller) FindOwners(ctx context.Context, matchID string) []domain.GameServer {
	owns := make([]bool, len(p.servers))
	var g errgroup.Group
	for i, srv := range p.servers {
		i, srv := i, srv
		g.Go(func() error {
			owner, err := queryOwner(ctx, p.dialer, srv, p.timeout)
			if err != nil {
				p.log.Warn().Err(err).Str("server", srv.Name).Msg("owner scan skipped server")
				return nil
			}
			owns[i] = owner == matchID
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.GameServer
	for i, srv := range p.servers {
		if owns[i] {
			out = append(out, srv)
		}
	}
	return out
}
