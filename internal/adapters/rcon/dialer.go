package rcon

import (
	"context"
	"sync"
	"time"

	gorcon "github.com/gorcon/rcon"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/app/service"
	"github.com/jose-valero/pug-coordinator/internal/domain"
)

// Dialer abre sesiones RCON (Source) contra los servers del pool.
type Dialer struct {
	dialTimeout time.Duration
	deadline    time.Duration
	log         zerolog.Logger
}

func NewDialer(opts ...Option) *Dialer {
	d := &Dialer{
		dialTimeout: 5 * time.Second,
		deadline:    5 * time.Second,
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

type dialResult struct {
	conn *gorcon.Conn
	err  error
}

// Dial respeta ctx: si se vence antes de que termine el handshake, la conexión
// que llegue tarde se cierra sola.
func (d *Dialer) Dial(ctx context.Context, srv domain.GameServer) (service.AdminSession, error) {
	timeout := d.dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, eris.Wrapf(context.DeadlineExceeded, "dial %s", srv.Name)
	}

	ch := make(chan dialResult, 1)
	go func() {
		conn, err := gorcon.Dial(srv.Address, srv.Password, gorcon.SetDialTimeout(timeout), gorcon.SetDeadline(d.deadline))
		ch <- dialResult{conn: conn, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, eris.Wrapf(r.err, "dial %s (%s)", srv.Name, srv.Address)
		}
		d.log.Debug().Str("server", srv.Name).Msg("rcon connected")
		return &Session{server: srv.Name, conn: r.conn, log: d.log}, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.err == nil {
				_ = r.conn.Close()
			}
		}()
		return nil, eris.Wrapf(ctx.Err(), "dial %s", srv.Name)
	}
}

// Session es una conexión RCON; los comandos se mandan de a uno.
type Session struct {
	server string
	log    zerolog.Logger

	mu     sync.Mutex
	conn   *gorcon.Conn
	closed bool
}

type execResult struct {
	out string
	err error
}

// Command manda cmd y espera la respuesta. Si ctx se vence primero se cierra la
// conexión para destrabar la lectura pendiente y la sesión queda inutilizable.
func (s *Session) Command(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", &CommandError{Server: s.server, Command: cmd, Err: ErrSessionClosed}
	}

	ch := make(chan execResult, 1)
	go func() {
		out, err := s.conn.Execute(cmd)
		ch <- execResult{out: out, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", &CommandError{Server: s.server, Command: cmd, Err: r.err}
		}
		s.log.Debug().Str("server", s.server).Str("cmd", cmd).Msg("rcon ok")
		return r.out, nil
	case <-ctx.Done():
		s.closeLocked()
		return "", &CommandError{Server: s.server, Command: cmd, Err: ctx.Err()}
	}
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
