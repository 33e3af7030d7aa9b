package domain

import (
	"fmt"
	"strings"
)

// Comandos rcon del plugin del server. Sólo los que usamos.
const (
	cmdGameInfo   = "pugchamp_game_info"
	cmdGameReset  = "pugchamp_game_reset"
	cmdServerURL  = "pugchamp_server_url"
	cmdGameID     = "pugchamp_game_id"
	cmdGameMap    = "pugchamp_game_map"
	cmdGameConfig = "pugchamp_game_config"
	cmdPlayerAdd  = "pugchamp_game_player_add"
	cmdGameStart  = "pugchamp_game_start"
)

// quote saca comillas y ';' para que un alias no pueda colar otro comando de consola.
func quote(s string) string {
	s = strings.NewReplacer(`"`, "", ";", "", "\n", " ", "\r", " ").Replace(s)
	return `"` + s + `"`
}

func GameInfoCommand() string { return cmdGameInfo }

func ResetCommand() string { return cmdGameReset }

func ServerURLCommand(baseURL, key string) string {
	return cmdServerURL + " " + quote(strings.TrimRight(baseURL, "/")+"/api/servers/"+key)
}

func GameIDCommand(matchID string) string { return cmdGameID + " " + quote(matchID) }

func MapCommand(file string) string { return cmdGameMap + " " + quote(file) }

func ConfigCommand(config string) string { return cmdGameConfig + " " + quote(config) }

// AddPlayerCommand: identidad, alias, código de equipo y código de clase.
func AddPlayerCommand(steamID, alias string, team, class int) string {
	return fmt.Sprintf("%s %s %s %d %d", cmdPlayerAdd, quote(steamID), quote(alias), team, class)
}

func StartCommand() string { return cmdGameStart }
