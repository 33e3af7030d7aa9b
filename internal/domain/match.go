package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

type Status string

const (
	StatusAssigning Status = "assigning"
	StatusLaunching Status = "launching"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Terminal: completed | aborted. Un server con un match terminal está libre.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

type Faction string

const (
	FactionRed Faction = "RED"
	FactionBlu Faction = "BLU"
)

// TeamCode: código de equipo que entiende el plugin (1 = espectador o sin equipo).
func (f Faction) TeamCode() int {
	switch f {
	case FactionRed:
		return 2
	case FactionBlu:
		return 3
	}
	return 1
}

type MatchPlayer struct {
	ParticipantID string  `json:"user"`
	SteamID       string  `json:"steamId"`
	Alias         string  `json:"alias"`
	Faction       Faction `json:"faction"`
	Role          string  `json:"role"`
	Replaced      bool    `json:"replaced,omitempty"`
}

type Match struct {
	ID      string        `json:"id"`
	Status  Status        `json:"status"`
	Server  string        `json:"server,omitempty"`
	Map     string        `json:"map"`
	Players []MatchPlayer `json:"players"`
}

// ActivePlayers: los que no fueron sustituidos.
func (m Match) ActivePlayers() []MatchPlayer {
	out := make([]MatchPlayer, 0, len(m.Players))
	for _, p := range m.Players {
		if !p.Replaced {
			out = append(out, p)
		}
	}
	return out
}

type GameServer struct {
	Name     string `yaml:"-"`
	Address  string `yaml:"address"`
	Password string `yaml:"rcon"`
	Salt     string `yaml:"salt"`
}

type GameMap struct {
	Name   string `yaml:"-"`
	File   string `yaml:"file"`
	Config string `yaml:"config"`
}

// CallbackKey = hex(sha256(matchID + "|" + salt)). No se guarda, se recalcula.
func CallbackKey(matchID, salt string) string {
	sum := sha256.Sum256([]byte(matchID + "|" + salt))
	return hex.EncodeToString(sum[:])
}
