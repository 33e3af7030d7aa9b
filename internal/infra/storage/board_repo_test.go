package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardRepo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBoardRepo(db)

	now := time.Now()
	mock.ExpectQuery("SELECT guild_id, channel_id, message_id").
		WithArgs("guild").
		WillReturnRows(sqlmock.NewRows([]string{"guild_id", "channel_id", "message_id", "created_at", "updated_at"}).
			AddRow("guild", "chan", "msg", now, now))
	mock.ExpectQuery("SELECT guild_id, channel_id, message_id").
		WithArgs("other").
		WillReturnRows(sqlmock.NewRows([]string{"guild_id", "channel_id", "message_id", "created_at", "updated_at"}))
	mock.ExpectExec("INSERT INTO status_board").
		WithArgs("guild", "chan", "msg2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	b, err := repo.Get(context.Background(), "guild")
	require.NoError(t, err)
	assert.Equal(t, "chan", b.ChannelID)
	assert.Equal(t, "msg", b.MessageID)

	_, err = repo.Get(context.Background(), "other")
	assert.True(t, eris.Is(err, ErrNotFound))

	require.NoError(t, repo.Upsert(context.Background(), "guild", "chan", "msg2"))
	require.NoError(t, mock.ExpectationsWereMet())
}
