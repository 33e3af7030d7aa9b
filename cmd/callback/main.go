package main

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/adapters/httpapi"
	"github.com/jose-valero/pug-coordinator/internal/adapters/natsbus"
	"github.com/jose-valero/pug-coordinator/internal/app/service"
	"github.com/jose-valero/pug-coordinator/internal/infra/config"
	"github.com/jose-valero/pug-coordinator/internal/infra/logging"
	"github.com/jose-valero/pug-coordinator/internal/infra/storage"
)

// Versión Lambda (API Gateway HTTP API) del endpoint de callbacks de los servers.
// Mismo servicio que el binario principal; los eventos salen por NATS.

type app struct {
	log       zerolog.Logger
	callbacks httpapi.CallbackHandler
	flush     func() error // vacía el buffer de NATS antes de que Lambda congele el proceso
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// keyFrom: API Gateway lo da como path parameter si la ruta es /api/servers/{key}.
func keyFrom(req events.APIGatewayV2HTTPRequest) string {
	if k := req.PathParameters["key"]; k != "" {
		return k
	}
	return strings.Trim(strings.TrimPrefix(req.RawPath, "/api/servers/"), "/")
}

func queryFrom(req events.APIGatewayV2HTTPRequest) url.Values {
	if req.RawQueryString != "" {
		if v, err := url.ParseQuery(req.RawQueryString); err == nil {
			return v
		}
	}
	v := url.Values{}
	for k, val := range req.QueryStringParameters {
		v.Set(k, val)
	}
	return v
}

func (a *app) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if m := req.RequestContext.HTTP.Method; m != "" && m != http.MethodGet {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed, Body: "method not allowed"}, nil
	}
	q := httpapi.QueryFrom(queryFrom(req))
	err := a.callbacks.Handle(ctx, keyFrom(req), q)
	if a.flush != nil {
		if ferr := a.flush(); ferr != nil {
			a.log.Warn().Err(ferr).Msg("nats flush")
		}
	}
	code := httpapi.StatusFor(err)
	if err != nil {
		a.log.Warn().Err(err).Str("game", q.Game).Str("status", q.Status).Int("code", code).
			Str("ip", req.RequestContext.HTTP.SourceIP).Msg("callback rejected")
		return events.APIGatewayV2HTTPResponse{StatusCode: code, Body: http.StatusText(code)}, nil
	}
	return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Body: "OK"}, nil
}

func main() {
	log := logging.New(getenv("LOG_LEVEL", "info"), getenv("LOG_FORMAT", "json"), os.Stdout)

	pool, err := config.LoadPool(getenv("POOL_FILE", "pool.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("pool")
	}
	db, err := storage.Open(context.Background(), os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	matches := storage.NewMatchRepo(db)

	sinks := service.FanoutEvents{service.NewLifecycleRecorder(log, matches)}
	var flush func() error
	if u := os.Getenv("NATS_URL"); u != "" {
		nc, err := natsbus.Connect(u, log)
		if err != nil {
			log.Fatal().Err(err).Msg("nats")
		}
		sinks = append(sinks, natsbus.NewPublisher(log, nc))
		flush = nc.Flush
	}

	a := &app{log: log, callbacks: service.NewCallbackService(log, matches, pool.ServerList(), sinks), flush: flush}
	lambda.Start(a.handle)
}
