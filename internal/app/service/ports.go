package service

import (
	"context"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

// Lo implementa internal/infra/storage.MatchRepo
type MatchStore interface {
	MatchReader
	MatchStatusReader
	Status(ctx context.Context, matchID string) (domain.Status, error)
	UpdateStatus(ctx context.Context, matchID string, status domain.Status) error
	AssignServer(ctx context.Context, matchID, server string) error
}

type MatchReader interface {
	Get(ctx context.Context, matchID string) (domain.Match, error)
}

// Para el poller alcanza con resolver estados en lote.
type MatchStatusReader interface {
	Statuses(ctx context.Context, ids []string) (map[string]domain.Status, error)
}

// Lo implementa internal/adapters/rcon.Dialer
type AdminDialer interface {
	Dial(ctx context.Context, srv domain.GameServer) (AdminSession, error)
}

// AdminSession es una conexión con estado: los comandos van uno detrás del otro.
type AdminSession interface {
	Command(ctx context.Context, cmd string) (string, error)
	Close() error
}

// Lo implementa ServerPoller
type ServerFinder interface {
	ListAvailableServers(ctx context.Context) ([]string, error)
	FindOwners(ctx context.Context, matchID string) []domain.GameServer
}
