package natsbus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Subjects publicados
const (
	SubjectStatus         = "pug.status"
	SubjectNotice         = "pug.notice"
	SubjectMatchAborted   = "pug.match.aborted"
	SubjectDraftCleanup   = "pug.draft.cleanup"
	SubjectSetupComplete  = "pug.match.setup"
	SubjectMatchLive      = "pug.match.live"
	SubjectMatchAbandoned = "pug.match.abandoned"
	SubjectMatchCompleted = "pug.match.completed"
	SubjectMatchLog       = "pug.match.log"
)

// Subjects consumidos
const (
	SubjectAvailability = "pug.participant.availability"
	SubjectDisconnected = "pug.participant.disconnected"
	SubjectMatchFormed  = "pug.match.formed"
	SubjectMatchAbort   = "pug.match.abort"
)

// Envelope es el formato de todos los mensajes del bus, en los dos sentidos.
type Envelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

func encode(typ string, data any, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, eris.Wrapf(err, "marshal %s", typ)
	}
	return json.Marshal(Envelope{ID: uuid.NewString(), Type: typ, Time: now.UTC(), Data: raw})
}

func decode(msg []byte, out any) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return env, eris.Wrap(err, "decode envelope")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return env, eris.Wrapf(err, "decode %s", env.Type)
	}
	return env, nil
}

// Connect abre la conexión con reconexión automática.
func Connect(url string, log zerolog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("pug-coordinator"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, eris.Wrapf(err, "nats connect %s", url)
	}
	return nc, nil
}
