package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/app/service"
	"github.com/jose-valero/pug-coordinator/internal/domain"
)

const noticeWindow = 30 * time.Second

// Notifier publica avisos del sistema y aborts en el canal de avisos.
// El mismo aviso para el mismo match no se repite dentro de noticeWindow.
type Notifier struct {
	service.NopEvents
	log       zerolog.Logger
	s         messenger
	channelID string
	limiter   *keyLimiter
}

func NewNotifier(log zerolog.Logger, s messenger, channelID string) *Notifier {
	return &Notifier{
		log:       log.With().Str("component", "notifier").Logger(),
		s:         s,
		channelID: channelID,
		limiter:   newKeyLimiter(noticeWindow),
	}
}

func (n *Notifier) SystemNotice(_ context.Context, matchID, msg string) {
	if !n.limiter.Allow(matchID + "|" + msg) {
		n.log.Debug().Str("match", matchID).Str("notice", msg).Msg("notice suppressed")
		return
	}
	text := "⚠️ " + msg
	if matchID != "" {
		text += fmt.Sprintf(" (match `%s`)", matchID)
	}
	n.send(text)
}

func (n *Notifier) MatchAborted(_ context.Context, m domain.Match) {
	text := fmt.Sprintf("🛑 Match `%s` abortado", m.ID)
	if m.Server != "" {
		text += " (server " + m.Server + ")"
	}
	n.send(text + ".")
}

func (n *Notifier) LogAvailable(_ context.Context, m domain.Match, url string) {
	if url == "" {
		return
	}
	n.send(fmt.Sprintf("📄 Log del match `%s`: %s", m.ID, url))
}

func (n *Notifier) send(content string) {
	if _, err := n.s.ChannelMessageSend(n.channelID, content); err != nil {
		n.log.Warn().Err(err).Str("channel", n.channelID).Msg("send notice")
	}
}
