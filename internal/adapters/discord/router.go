package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/domain"
	"github.com/jose-valero/pug-coordinator/internal/infra/storage"
)

// Lo implementa service.AvailabilityService
type StatusSource interface {
	CurrentStatus() domain.Snapshot
}

// Lo implementa service.AssignmentService
type Aborter interface {
	AbortGame(ctx context.Context, matchID string) error
}

type Router struct {
	s            *discordgo.Session
	log          zerolog.Logger
	guildID      string
	adminRoleIDs []string
	roles        []domain.Role

	status  StatusSource
	aborter Aborter
}

func NewRouter(
	s *discordgo.Session,
	log zerolog.Logger,
	guildID string,
	adminRoleIDs []string,
	roles []domain.Role,
	status StatusSource,
	aborter Aborter,
) *Router {
	return &Router{
		s:            s,
		log:          log.With().Str("component", "discord").Logger(),
		guildID:      guildID,
		adminRoleIDs: adminRoleIDs,
		roles:        roles,
		status:       status,
		aborter:      aborter,
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return eris.Wrapf(err, "register /%s", cmd.Name)
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.Type != discordgo.InteractionApplicationCommand || ic.Member == nil || ic.Member.User == nil {
			return
		}
		data := ic.ApplicationCommandData()
		if data.Name != "pug" {
			return
		}
		sub, args := subcommand(data)
		r.log.Info().Str("cmd", sub).Str("by", ic.Member.User.ID).Str("guild", ic.GuildID).Msg("slash")

		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error().Interface("panic", rec).Str("cmd", sub).Msg("panic in slash")
				r.replyEphemeral(ic, "⚠️ Ocurrió un error inesperado.")
			}
		}()

		_ = r.deferEphemeral(ic)
		ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
		defer cancel()

		switch sub {
		case "status":
			r.replyEphemeral(ic, "", RenderStatus(r.roles, r.status.CurrentStatus()))
		case "abort":
			if !r.requireAdmin(ic) {
				return
			}
			r.replyEphemeral(ic, r.abort(ctx, args["match"], ic.Member.User.ID))
		default:
			r.replyEphemeral(ic, "Usa `/pug status` o `/pug abort`.")
		}
	})
}

func (r *Router) abort(ctx context.Context, matchID, by string) string {
	if matchID == "" {
		return "Falta el ID del match."
	}
	if err := r.aborter.AbortGame(ctx, matchID); err != nil {
		if eris.Is(err, storage.ErrNotFound) {
			return "No existe el match `" + matchID + "`."
		}
		r.log.Error().Err(err).Str("match", matchID).Msg("admin abort")
		return "⚠️ No se pudo abortar: " + err.Error()
	}
	r.log.Warn().Str("match", matchID).Str("by", by).Msg("match aborted by admin")
	return "🛑 Match `" + matchID + "` abortado."
}
