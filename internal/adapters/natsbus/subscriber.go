package natsbus

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

// Lo implementa service.AvailabilityService
type Availability interface {
	SetAvailability(p domain.Participant, desiredRoles []string, wantsCaptain bool, restrictions domain.Restrictions)
	RemoveParticipant(participantID string)
}

// Lo implementa service.AssignmentService
type Assigner interface {
	AssignServer(ctx context.Context, m domain.Match)
	AbortGame(ctx context.Context, matchID string) error
}

type availabilityData struct {
	Participant  domain.Participant `json:"participant"`
	Roles        []string           `json:"roles"`
	Captain      bool               `json:"captain"`
	Restrictions []domain.Aspect    `json:"restrictions"`
}

type disconnectedData struct {
	Participant string `json:"participant"`
}

type abortData struct {
	Match string `json:"match"`
}

type abortReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Subscriber traduce los eventos de entrada a llamadas a los servicios.
type Subscriber struct {
	log          zerolog.Logger
	availability Availability
	assigner     Assigner
	subs         []*nats.Subscription
}

func NewSubscriber(log zerolog.Logger, availability Availability, assigner Assigner) *Subscriber {
	return &Subscriber{
		log:          log.With().Str("component", "natsbus").Logger(),
		availability: availability,
		assigner:     assigner,
	}
}

// Start se suscribe a todos los subjects de entrada.
func (s *Subscriber) Start(nc *nats.Conn) error {
	handlers := map[string]nats.MsgHandler{
		SubjectAvailability: s.handleAvailability,
		SubjectDisconnected: s.handleDisconnected,
		SubjectMatchFormed:  s.handleMatchFormed,
		SubjectMatchAbort:   s.handleAbort,
	}
	for subject, h := range handlers {
		sub, err := nc.Subscribe(subject, h)
		if err != nil {
			s.Stop()
			return eris.Wrapf(err, "subscribe %s", subject)
		}
		s.subs = append(s.subs, sub)
		s.log.Info().Str("subject", subject).Msg("subscribed")
	}
	return nil
}

func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}

func (s *Subscriber) handleAvailability(msg *nats.Msg) {
	var d availabilityData
	if _, err := decode(msg.Data, &d); err != nil {
		s.log.Warn().Err(err).Str("subject", msg.Subject).Msg("bad message")
		return
	}
	if d.Participant.ID == "" {
		s.log.Warn().Str("subject", msg.Subject).Msg("availability without participant")
		return
	}
	s.availability.SetAvailability(d.Participant, d.Roles, d.Captain, domain.NewRestrictions(d.Restrictions...))
}

func (s *Subscriber) handleDisconnected(msg *nats.Msg) {
	var d disconnectedData
	if _, err := decode(msg.Data, &d); err != nil || d.Participant == "" {
		s.log.Warn().Err(err).Str("subject", msg.Subject).Msg("bad message")
		return
	}
	s.availability.RemoveParticipant(d.Participant)
}

// handleMatchFormed no bloquea el handler de NATS: la asignación habla con los servers.
func (s *Subscriber) handleMatchFormed(msg *nats.Msg) {
	var m domain.Match
	if _, err := decode(msg.Data, &m); err != nil || m.ID == "" {
		s.log.Warn().Err(err).Str("subject", msg.Subject).Msg("bad message")
		return
	}
	go s.assigner.AssignServer(context.Background(), m)
}

func (s *Subscriber) handleAbort(msg *nats.Msg) {
	var d abortData
	reply := abortReply{OK: true}
	if _, err := decode(msg.Data, &d); err != nil || d.Match == "" {
		reply = abortReply{Error: "bad request"}
	} else if err := s.assigner.AbortGame(context.Background(), d.Match); err != nil {
		s.log.Error().Err(err).Str("match", d.Match).Msg("admin abort")
		reply = abortReply{Error: err.Error()}
	}

	if msg.Reply == "" {
		return
	}
	body, _ := json.Marshal(reply)
	if err := msg.Respond(body); err != nil {
		s.log.Warn().Err(err).Msg("abort reply")
	}
}
