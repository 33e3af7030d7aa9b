package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePool = `
timeout: 2s
queryInterval: 10s
retryInterval: 1m
servers:
  chicago1:
    address: 10.0.0.1:27015
    rcon: hunter2
    salt: s1
  dallas1:
    address: 10.0.0.2:27015
    rcon: hunter3
    salt: s2
maps:
  badlands:
    file: cp_badlands
    config: etf2l_6v6_5cp
roles:
  - id: scout
    min: 2
    class: scout
  - id: medic
    min: 1
    class: medic
`

func TestParsePool(t *testing.T) {
	p, err := ParsePool([]byte(samplePool))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, p.Timeout)
	assert.Equal(t, 10*time.Second, p.QueryInterval)
	assert.Equal(t, time.Minute, p.RetryInterval)

	require.Len(t, p.Servers, 2)
	assert.Equal(t, "chicago1", p.Servers["chicago1"].Name)
	assert.Equal(t, "hunter2", p.Servers["chicago1"].Password)
	assert.Equal(t, "s2", p.Servers["dallas1"].Salt)

	assert.Equal(t, "badlands", p.Maps["badlands"].Name)
	assert.Equal(t, "cp_badlands", p.Maps["badlands"].File)

	require.Len(t, p.Roles, 2)
	assert.Equal(t, "scout", p.Roles[0].ID, "role order must follow the file")
	assert.Equal(t, 1, p.Roles[1].Min)

	list := p.ServerList()
	require.Len(t, list, 2)
	assert.Equal(t, "chicago1", list[0].Name)
	assert.Equal(t, "dallas1", list[1].Name)
}

func TestParsePoolDefaults(t *testing.T) {
	p, err := ParsePool([]byte("roles:\n  - id: a\n    min: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, p.Timeout)
	assert.Equal(t, defaultQueryInterval, p.QueryInterval)
	assert.Equal(t, defaultRetryInterval, p.RetryInterval)
	assert.Empty(t, p.Servers)
}

func TestParsePoolValidation(t *testing.T) {
	cases := map[string]string{
		"no roles":       "servers: {}\n",
		"duplicate role": "roles:\n  - id: a\n  - id: a\n",
		"no salt":        "roles:\n  - id: a\nservers:\n  x:\n    address: 1.2.3.4:27015\n",
		"no address":     "roles:\n  - id: a\nservers:\n  x:\n    salt: s\n",
		"bad yaml":       "roles: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePool([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestLoadPoolFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePool), 0o600))

	p, err := LoadPool(path)
	require.NoError(t, err)
	assert.Len(t, p.Servers, 2)

	_, err = LoadPool(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pug")
	t.Setenv("BASE_URL", "https://pug.example")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("POOL_FILE", "")
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("DISCORD_ADMIN_ROLE_IDS", "1, 2,3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "pool.yaml", cfg.PoolFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"1", "2", "3"}, cfg.DiscordAdminRoleIDs)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "BASE_URL")
}

func TestLoadDiscordNeedsGuild(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pug")
	t.Setenv("BASE_URL", "https://pug.example")
	t.Setenv("DISCORD_BOT_TOKEN", "tok")
	t.Setenv("DISCORD_GUILD_ID", "")

	_, err := Load()
	require.Error(t, err)
}
