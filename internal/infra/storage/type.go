package storage

import (
	"time"

	"github.com/rotisserie/eris"
)

var ErrNotFound = eris.New("not found")

// StatusBoard: dónde está publicado el mensaje del tablero de disponibilidad.
type StatusBoard struct {
	GuildID   string
	ChannelID string
	MessageID string
	CreatedAt time.Time
	UpdatedAt time.Time
}
