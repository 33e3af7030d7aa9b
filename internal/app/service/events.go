package service

import (
	"context"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

// MatchReport: lo que manda el server en los callbacks de estado (tal cual, sin parsear).
type MatchReport struct {
	Score    string `json:"score,omitempty"`
	Duration string `json:"duration,omitempty"`
	Time     string `json:"time,omitempty"`
}

// Events es el contrato de salida: un método por evento, productores y consumidores fijos.
type Events interface {
	SystemNotice(ctx context.Context, matchID, msg string)
	MatchAborted(ctx context.Context, m domain.Match)
	DraftCleanupRequested(ctx context.Context, m domain.Match)
	ServerSetupComplete(ctx context.Context, m domain.Match)
	MatchLive(ctx context.Context, m domain.Match, r MatchReport)
	MatchAbandoned(ctx context.Context, m domain.Match, r MatchReport)
	MatchCompleted(ctx context.Context, m domain.Match, r MatchReport)
	LogAvailable(ctx context.Context, m domain.Match, url string)
}

// StatusObserver recibe cada snapshot de disponibilidad, en orden.
type StatusObserver interface {
	StatusUpdated(s domain.Snapshot)
}

type StatusObserverFunc func(s domain.Snapshot)

func (f StatusObserverFunc) StatusUpdated(s domain.Snapshot) { f(s) }

// NopEvents se embebe en los sinks que sólo escuchan algunos eventos.
type NopEvents struct{}

func (NopEvents) SystemNotice(context.Context, string, string) {}
func (NopEvents) MatchAborted(context.Context, domain.Match) {}
func (NopEvents) DraftCleanupRequested(context.Context, domain.Match) {}
func (NopEvents) ServerSetupComplete(context.Context, domain.Match) {}
func (NopEvents) MatchLive(context.Context, domain.Match, MatchReport) {}
func (NopEvents) MatchAbandoned(context.Context, domain.Match, MatchReport) {}
func (NopEvents) MatchCompleted(context.Context, domain.Match, MatchReport) {}
func (NopEvents) LogAvailable(context.Context, domain.Match, string) {}

// FanoutEvents reparte cada evento a todos los sinks, en orden.
type FanoutEvents []Events

func (f FanoutEvents) SystemNotice(ctx context.Context, matchID, msg string) {
	for _, e := range f {
		e.SystemNotice(ctx, matchID, msg)
	}
}

func (f FanoutEvents) MatchAborted(ctx context.Context, m domain.Match) {
	for _, e := range f {
		e.MatchAborted(ctx, m)
	}
}

func (f FanoutEvents) DraftCleanupRequested(ctx context.Context, m domain.Match) {
	for _, e := range f {
		e.DraftCleanupRequested(ctx, m)
	}
}

func (f FanoutEvents) ServerSetupComplete(ctx context.Context, m domain.Match) {
	for _, e := range f {
		e.ServerSetupComplete(ctx, m)
	}
}

func (f FanoutEvents) MatchLive(ctx context.Context, m domain.Match, r MatchReport) {
	for _, e := range f {
		e.MatchLive(ctx, m, r)
	}
}

func (f FanoutEvents) MatchAbandoned(ctx context.Context, m domain.Match, r MatchReport) {
	for _, e := range f {
		e.MatchAbandoned(ctx, m, r)
	}
}

func (f FanoutEvents) MatchCompleted(ctx context.Context, m domain.Match, r MatchReport) {
	for _, e := range f {
		e.MatchCompleted(ctx, m, r)
	}
}

func (f FanoutEvents) LogAvailable(ctx context.Context, m domain.Match, url string) {
	for _, e := range f {
		e.LogAvailable(ctx, m, url)
	}
}
