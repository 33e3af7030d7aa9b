package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	maxOpenConns = 10
	maxIdleConns = 5
	pingTimeout  = 5 * time.Second
)

// Open conecta con el driver pgx de database/sql y hace ping antes de devolver.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, eris.New("empty database url")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, eris.Wrap(err, "db open")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "db ping")
	}
	return db, nil
}

// gooseLogger manda la salida de goose al logger del proceso.
type gooseLogger struct{ log zerolog.Logger }

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Info().Msg(fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Fatal().Msg(fmt.Sprintf(format, v...))
}

// Migrate aplica las migraciones embebidas pendientes.
func Migrate(db *sql.DB, log zerolog.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log: log.With().Str("component", "migrate").Logger()})
	if err := goose.SetDialect("postgres"); err != nil {
		return eris.Wrap(err, "goose dialect")
	}
	return eris.Wrap(goose.Up(db, "migrations"), "goose up")
}
