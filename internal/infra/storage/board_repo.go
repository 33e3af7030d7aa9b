package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
)

type BoardRepo struct{ db *sql.DB }

func NewBoardRepo(db *sql.DB) *BoardRepo { return &BoardRepo{db: db} }

func (r *BoardRepo) Get(ctx context.Context, guildID string) (StatusBoard, error) {
	var b StatusBoard
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, channel_id, message_id, created_at, updated_at
  FROM status_board
 WHERE guild_id = $1
`, guildID).Scan(&b.GuildID, &b.ChannelID, &b.MessageID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StatusBoard{}, ErrNotFound
	}
	return b, eris.Wrap(err, "get status board")
}

func (r *BoardRepo) Upsert(ctx context.Context, guildID, channelID, messageID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO status_board (guild_id, channel_id, message_id)
VALUES ($1,$2,$3)
ON CONFLICT (guild_id) DO UPDATE SET
  channel_id = EXCLUDED.channel_id,
  message_id = EXCLUDED.message_id,
  updated_at = now()
`, guildID, channelID, messageID)
	return eris.Wrap(err, "upsert status board")
}
