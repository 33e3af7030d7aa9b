package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jose-valero/pug-coordinator/internal/infra/logging"
	"github.com/jose-valero/pug-coordinator/internal/infra/storage"
)

// retención de matches terminados (completed / aborted)
const retention = 30 * 24 * time.Hour

func handler(ctx context.Context) (string, error) {
	log := logging.New(os.Getenv("LOG_LEVEL"), "json", os.Stdout)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}
	db, err := storage.Open(ctx, dsn)
	if err != nil {
		log.Error().Err(err).Msg("db")
		return "", err
	}
	defer db.Close()

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := storage.NewMatchRepo(db).PruneTerminal(cctx, retention)
	if err != nil {
		log.Error().Err(err).Msg("prune")
		return "", err
	}
	log.Info().Int64("deleted", n).Msg("pruned terminal matches")
	return fmt.Sprintf("ok deleted=%d", n), nil
}

func main() { lambda.Start(handler) }
