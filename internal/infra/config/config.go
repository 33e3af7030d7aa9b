package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

type Config struct {
	DatabaseURL string
	NATSURL     string
	HTTPAddr    string // opcional, default :8080
	BaseURL     string // base pública para los callbacks de los servers
	PoolFile    string // default pool.yaml

	// Discord es opcional: sin token no hay avisos ni tablero
	DiscordToken         string
	DiscordGuild         string
	DiscordNoticeChannel string
	DiscordStatusChannel string
	DiscordAdminRoleIDs  []string

	LogLevel  string
	LogFormat string // console | json
}

func Load() (Config, error) {
	var missing []string
	get := func(k string, req bool) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" && req {
			missing = append(missing, k)
		}
		return v
	}

	cfg := Config{
		DatabaseURL: get("DATABASE_URL", true),
		NATSURL:     get("NATS_URL", false),
		HTTPAddr:    get("HTTP_ADDR", false),
		BaseURL:     get("BASE_URL", true),
		PoolFile:    get("POOL_FILE", false),

		DiscordToken:         get("DISCORD_BOT_TOKEN", false),
		DiscordGuild:         get("DISCORD_GUILD_ID", false),
		DiscordNoticeChannel: get("DISCORD_NOTICE_CHANNEL_ID", false),
		DiscordStatusChannel: get("DISCORD_STATUS_CHANNEL_ID", false),
		DiscordAdminRoleIDs:  splitList(get("DISCORD_ADMIN_ROLE_IDS", false)),

		LogLevel:  get("LOG_LEVEL", false),
		LogFormat: get("LOG_FORMAT", false),
	}
	if len(missing) > 0 {
		return Config{}, eris.Errorf("faltante env %s", strings.Join(missing, ", "))
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.PoolFile == "" {
		cfg.PoolFile = "pool.yaml"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DiscordToken != "" && cfg.DiscordGuild == "" {
		return Config{}, eris.New("DISCORD_GUILD_ID es requerido si hay DISCORD_BOT_TOKEN")
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		out = append(out, p)
	}
	return out
}
