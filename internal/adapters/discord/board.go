package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/domain"
	"github.com/jose-valero/pug-coordinator/internal/infra/storage"
)

// atajos de tunning
const (
	boardDebounce = 500 * time.Millisecond
	boardTimeout  = 5 * time.Second
)

// lo satisface *discordgo.Session
type messenger interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Lo implementa storage.BoardRepo
type boardStore interface {
	Get(ctx context.Context, guildID string) (storage.StatusBoard, error)
	Upsert(ctx context.Context, guildID, channelID, messageID string) error
}

// StatusBoard mantiene un mensaje fijo con el estado de disponibilidad.
// Los snapshots se agrupan con debounce y siempre se pinta el último.
type StatusBoard struct {
	log       zerolog.Logger
	s         messenger
	store     boardStore
	guildID   string
	channelID string
	roles     []domain.Role
	debounce  time.Duration

	mu     sync.Mutex
	latest domain.Snapshot
	timer  *time.Timer

	// un refresh a la vez: Stop no espera a un flush que ya arrancó
	publishMu sync.Mutex
}

func NewStatusBoard(log zerolog.Logger, s messenger, store boardStore, guildID, channelID string, roles []domain.Role) *StatusBoard {
	return &StatusBoard{
		log:       log.With().Str("component", "board").Logger(),
		s:         s,
		store:     store,
		guildID:   guildID,
		channelID: channelID,
		roles:     roles,
		debounce:  boardDebounce,
	}
}

func (b *StatusBoard) StatusUpdated(snap domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = snap
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, b.flush)
}

func (b *StatusBoard) flush() {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.mu.Lock()
	snap := b.latest
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), boardTimeout)
	defer cancel()
	start := time.Now()
	if err := b.publish(ctx, snap); err != nil {
		b.log.Warn().Err(err).Dur("dur", time.Since(start)).Msg("board refresh")
		return
	}
	b.log.Debug().Dur("dur", time.Since(start)).Msg("board refreshed")
}

// publish edita el mensaje guardado; si no hay o ya no existe, publica uno nuevo y lo guarda.
func (b *StatusBoard) publish(ctx context.Context, snap domain.Snapshot) error {
	embed := RenderStatus(b.roles, snap)

	rec, err := b.store.Get(ctx, b.guildID)
	switch {
	case err == nil && rec.ChannelID == b.channelID && rec.MessageID != "":
		em := []*discordgo.MessageEmbed{embed}
		_, err := b.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
			Channel: rec.ChannelID,
			ID:      rec.MessageID,
			Embeds:  &em,
		})
		if err == nil {
			return nil
		}
		b.log.Warn().Err(err).Str("message", rec.MessageID).Msg("board edit failed, reposting")
	case err != nil && !eris.Is(err, storage.ErrNotFound):
		return eris.Wrap(err, "load board")
	}

	msg, err := b.s.ChannelMessageSendComplex(b.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return eris.Wrap(err, "post board")
	}
	return b.store.Upsert(ctx, b.guildID, b.channelID, msg.ID)
}

// Close cancela el refresh pendiente.
func (b *StatusBoard) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
}
