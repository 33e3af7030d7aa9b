package service

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

var ErrTimeout = eris.New("remote admin timed out")

type raceResult[T any] struct {
	v   T
	err error
}

// race corre fn contra un timeout; gana el primero. Si gana el timeout se cancela el ctx de fn
// y, si fn igual termina bien, discard recibe el valor perdido (p.ej. cerrar una sesión tardía).
func race[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error), discard func(T)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	ch := make(chan raceResult[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- raceResult[T]{v: v, err: err}
	}()

	select {
	case r := <-ch:
		cancel()
		return r.v, r.err
	case <-ctx.Done():
		cancel()
		go func() {
			if r := <-ch; r.err == nil && discard != nil {
				discard(r.v)
			}
		}()
		var zero T
		return zero, eris.Wrapf(ErrTimeout, "after %s", d)
	}
}

func closeSession(s AdminSession) { _ = s.Close() }

func dial(ctx context.Context, d AdminDialer, srv domain.GameServer, timeout time.Duration) (AdminSession, error) {
	sess, err := race(ctx, timeout, func(ctx context.Context) (AdminSession, error) {
		return d.Dial(ctx, srv)
	}, closeSession)
	if err != nil {
		return nil, eris.Wrapf(err, "dial %s", srv.Name)
	}
	return sess, nil
}

func command(ctx context.Context, sess AdminSession, cmd string, timeout time.Duration) (string, error) {
	return race(ctx, timeout, func(ctx context.Context) (string, error) {
		return sess.Command(ctx, cmd)
	}, nil)
}

// queryOwner pregunta al server qué match tiene cargado. "" = ninguno.
// Conexión y comando comparten el mismo plazo.
func queryOwner(ctx context.Context, d AdminDialer, srv domain.GameServer, timeout time.Duration) (string, error) {
	return race(ctx, timeout, func(ctx context.Context) (string, error) {
		sess, err := d.Dial(ctx, srv)
		if err != nil {
			return "", eris.Wrapf(err, "dial %s", srv.Name)
		}
		defer closeSession(sess)
		out, err := sess.Command(ctx, domain.GameInfoCommand())
		if err != nil {
			return "", eris.Wrapf(err, "game info on %s", srv.Name)
		}
		return strings.TrimSpace(out), nil
	}, nil)
}

func resetServer(ctx context.Context, d AdminDialer, srv domain.GameServer, timeout time.Duration) error {
	sess, err := dial(ctx, d, srv, timeout)
	if err != nil {
		return err
	}
	defer closeSession(sess)
	_, err = command(ctx, sess, domain.ResetCommand(), timeout)
	return eris.Wrapf(err, "reset %s", srv.Name)
}
