package natsbus

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/app/service"
	"github.com/jose-valero/pug-coordinator/internal/domain"
)

// lo satisface *nats.Conn
type publisher interface {
	Publish(subj string, data []byte) error
}

// Publisher saca al bus los eventos de salida y cada snapshot de disponibilidad.
// Publicar es best effort: un error se loguea y no frena al servicio.
type Publisher struct {
	log zerolog.Logger
	nc  publisher
	now func() time.Time
}

var (
	_ service.Events         = (*Publisher)(nil)
	_ service.StatusObserver = (*Publisher)(nil)
)

func NewPublisher(log zerolog.Logger, nc publisher) *Publisher {
	return &Publisher{log: log.With().Str("component", "natsbus").Logger(), nc: nc, now: time.Now}
}

type noticeData struct {
	MatchID string `json:"match,omitempty"`
	Message string `json:"message"`
}

type matchData struct {
	Match  domain.Match         `json:"match"`
	Report *service.MatchReport `json:"report,omitempty"`
	URL    string               `json:"url,omitempty"`
}

func (p *Publisher) publish(subject, typ string, data any) {
	msg, err := encode(typ, data, p.now())
	if err != nil {
		p.log.Error().Err(err).Str("subject", subject).Msg("encode event")
		return
	}
	if err := p.nc.Publish(subject, msg); err != nil {
		p.log.Error().Err(err).Str("subject", subject).Msg("publish event")
	}
}

func (p *Publisher) StatusUpdated(s domain.Snapshot) {
	p.publish(SubjectStatus, "status.updated", s)
}

func (p *Publisher) SystemNotice(_ context.Context, matchID, msg string) {
	p.publish(SubjectNotice, "system.notice", noticeData{MatchID: matchID, Message: msg})
}

func (p *Publisher) MatchAborted(_ context.Context, m domain.Match) {
	p.publish(SubjectMatchAborted, "match.aborted", matchData{Match: m})
}

func (p *Publisher) DraftCleanupRequested(_ context.Context, m domain.Match) {
	p.publish(SubjectDraftCleanup, "draft.cleanup", matchData{Match: m})
}

func (p *Publisher) ServerSetupComplete(_ context.Context, m domain.Match) {
	p.publish(SubjectSetupComplete, "match.setup", matchData{Match: m})
}

func (p *Publisher) MatchLive(_ context.Context, m domain.Match, r service.MatchReport) {
	p.publish(SubjectMatchLive, "match.live", matchData{Match: m, Report: &r})
}

func (p *Publisher) MatchAbandoned(_ context.Context, m domain.Match, r service.MatchReport) {
	p.publish(SubjectMatchAbandoned, "match.abandoned", matchData{Match: m, Report: &r})
}

func (p *Publisher) MatchCompleted(_ context.Context, m domain.Match, r service.MatchReport) {
	p.publish(SubjectMatchCompleted, "match.completed", matchData{Match: m, Report: &r})
}

func (p *Publisher) LogAvailable(_ context.Context, m domain.Match, url string) {
	p.publish(SubjectMatchLog, "match.log", matchData{Match: m, URL: url})
}
