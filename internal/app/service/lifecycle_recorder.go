package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

// LifecycleRecorder guarda las transiciones que implican los callbacks.
// Relee el estado antes de escribir para que un evento viejo no haga retroceder un match.
type LifecycleRecorder struct {
	NopEvents
	log   zerolog.Logger
	store MatchStore
}

func NewLifecycleRecorder(log zerolog.Logger, store MatchStore) *LifecycleRecorder {
	return &LifecycleRecorder{
		log:   log.With().Str("component", "lifecycle").Logger(),
		store: store,
	}
}

func (r *LifecycleRecorder) ServerSetupComplete(ctx context.Context, m domain.Match) {
	r.advance(ctx, m.ID, domain.StatusAssigning, domain.StatusLaunching)
}

func (r *LifecycleRecorder) MatchLive(ctx context.Context, m domain.Match, _ MatchReport) {
	r.advance(ctx, m.ID, domain.StatusLaunching, domain.StatusLive)
}

func (r *LifecycleRecorder) MatchCompleted(ctx context.Context, m domain.Match, _ MatchReport) {
	r.advance(ctx, m.ID, domain.StatusLive, domain.StatusCompleted)
}

func (r *LifecycleRecorder) MatchAbandoned(ctx context.Context, m domain.Match, _ MatchReport) {
	r.advance(ctx, m.ID, domain.StatusLive, domain.StatusAborted)
}

func (r *LifecycleRecorder) advance(ctx context.Context, matchID string, from, to domain.Status) {
	cur, err := r.store.Status(ctx, matchID)
	if err != nil {
		r.log.Error().Err(err).Str("match", matchID).Msg("read status")
		return
	}
	if cur != from {
		return
	}
	if err := r.store.UpdateStatus(ctx, matchID, to); err != nil {
		r.log.Error().Err(err).Str("match", matchID).Str("to", string(to)).Msg("update status")
		return
	}
	r.log.Info().Str("match", matchID).Str("from", string(from)).Str("to", string(to)).Msg("status changed")
}
