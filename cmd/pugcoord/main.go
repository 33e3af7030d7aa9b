package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/adapters/discord"
	"github.com/jose-valero/pug-coordinator/internal/adapters/httpapi"
	"github.com/jose-valero/pug-coordinator/internal/adapters/natsbus"
	"github.com/jose-valero/pug-coordinator/internal/adapters/rcon"
	"github.com/jose-valero/pug-coordinator/internal/app/service"
	"github.com/jose-valero/pug-coordinator/internal/infra/config"
	"github.com/jose-valero/pug-coordinator/internal/infra/logging"
	"github.com/jose-valero/pug-coordinator/internal/infra/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "console", nil)
		bootLog.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	pool, err := config.LoadPool(cfg.PoolFile)
	if err != nil {
		log.Fatal().Err(err).Msg("pool")
	}
	servers := pool.ServerList()
	log.Info().Int("servers", len(servers)).Int("maps", len(pool.Maps)).Int("roles", len(pool.Roles)).Msg("pool loaded")

	// DB
	db, err := storage.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer db.Close()
	if err := storage.Migrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	log.Info().Msg("db ready and migrated")

	// Repos
	matches := storage.NewMatchRepo(db)
	boards := storage.NewBoardRepo(db)

	// Sinks de eventos: el recorder primero, así el estado ya está guardado cuando avisan los demás
	sinks := service.FanoutEvents{service.NewLifecycleRecorder(log, matches)}
	var observers []service.StatusObserver

	// NATS (opcional)
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = natsbus.Connect(cfg.NATSURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("nats")
		}
		defer nc.Drain()
		pub := natsbus.NewPublisher(log, nc)
		sinks = append(sinks, pub)
		observers = append(observers, pub)
	}

	// Discord (opcional)
	var (
		s     *discordgo.Session
		board *discord.StatusBoard
	)
	if cfg.DiscordToken != "" {
		s = openDiscord(log, cfg.DiscordToken)
		defer s.Close()
		if cfg.DiscordNoticeChannel != "" {
			sinks = append(sinks, discord.NewNotifier(log, s, cfg.DiscordNoticeChannel))
		}
		if cfg.DiscordStatusChannel != "" {
			board = discord.NewStatusBoard(log, s, boards, cfg.DiscordGuild, cfg.DiscordStatusChannel, pool.Roles)
			defer board.Close()
			observers = append(observers, board)
		}
	}

	// Services
	dialer := rcon.NewDialer(rcon.WithDialTimeout(pool.Timeout), rcon.WithDeadline(pool.Timeout), rcon.WithLogger(log))
	poller := service.NewServerPoller(log, servers, dialer, matches, pool.Timeout, pool.QueryInterval)
	availability := service.NewAvailabilityService(log, pool.Roles, observers...)
	assignment := service.NewAssignmentService(log, matches, poller, dialer, sinks, service.AssignmentConfig{
		Servers:        servers,
		Maps:           pool.Maps,
		Roles:          pool.Roles,
		BaseURL:        cfg.BaseURL,
		CommandTimeout: pool.Timeout,
		RetryDelay:     pool.RetryInterval,
	})
	defer assignment.Close()
	callbacks := service.NewCallbackService(log, matches, servers, sinks)

	// Bus de entrada
	if nc != nil {
		sub := natsbus.NewSubscriber(log, availability, assignment)
		if err := sub.Start(nc); err != nil {
			log.Fatal().Err(err).Msg("nats subscribe")
		}
		defer sub.Stop()
	}

	// Slash commands
	if s != nil {
		r := discord.NewRouter(s, log, cfg.DiscordGuild, cfg.DiscordAdminRoleIDs, pool.Roles, availability, assignment)
		if err := r.Register(); err != nil {
			log.Fatal().Err(err).Msg("register commands")
		}
		r.Handlers()
		log.Info().Str("guild", cfg.DiscordGuild).Msg("commands registered")
	}

	// HTTP callbacks
	web := httpapi.New(log, callbacks)
	go func() {
		if err := web.Start(cfg.HTTPAddr); err != nil {
			log.Fatal().Err(err).Msg("http")
		}
	}()

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := web.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
}

func openDiscord(log zerolog.Logger, token string) *discordgo.Session {
	auth := strings.TrimSpace(token)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal().Err(err).Msg("discord")
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	if err := s.Open(); err != nil {
		log.Fatal().Err(err).Msg("discord open")
	}
	log.Info().Str("user", s.State.User.Username).Str("id", s.State.User.ID).Msg("discord connected")
	return s
}
