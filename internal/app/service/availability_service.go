package service

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

// AvailabilityService es el único que escribe los sets de disponibilidad.
// Cada mutación recalcula déficits, arma un snapshot nuevo y lo publica a los
// observers en el mismo orden en que se aplicaron las mutaciones.
// Un observer no debe mutar el servicio desde StatusUpdated (deadlock);
// sí puede leer CurrentStatus.
type AvailabilityService struct {
	log   zerolog.Logger
	roles []domain.Role

	pubMu     sync.Mutex // serializa mutación + entrega
	observers []StatusObserver

	mu       sync.RWMutex
	players  map[string]map[string]struct{} // role -> participantes
	captains map[string]struct{}
	profiles map[string]domain.PublicProfile
	current  domain.Snapshot
}

func NewAvailabilityService(log zerolog.Logger, roles []domain.Role, observers ...StatusObserver) *AvailabilityService {
	s := &AvailabilityService{
		log:       log.With().Str("component", "availability").Logger(),
		roles:     append([]domain.Role(nil), roles...),
		observers: observers,
	}
	s.resetLocked()
	s.current = s.buildLocked()
	return s
}

// SetAvailability: para cada rol configurado agrega o saca al participante según desiredRoles;
// lo mismo con capitán. Con AspectPlay no se toca nada; con AspectCaptain no se toca el set de capitanes.
func (s *AvailabilityService) SetAvailability(p domain.Participant, desiredRoles []string, wantsCaptain bool, restrictions domain.Restrictions) {
	want := make(map[string]struct{}, len(desiredRoles))
	for _, r := range desiredRoles {
		want[r] = struct{}{}
	}

	s.mutate(func() {
		if restrictions.Has(domain.AspectPlay) {
			return
		}
		for _, role := range s.roles {
			if _, ok := want[role.ID]; ok {
				s.players[role.ID][p.ID] = struct{}{}
			} else {
				delete(s.players[role.ID], p.ID)
			}
		}
		if !restrictions.Has(domain.AspectCaptain) {
			if wantsCaptain {
				s.captains[p.ID] = struct{}{}
			} else {
				delete(s.captains, p.ID)
			}
		}
		s.profiles[p.ID] = p.Public()
		s.dropProfileIfGoneLocked(p.ID)
	})
	s.log.Debug().Str("participant", p.ID).Strs("roles", desiredRoles).Bool("captain", wantsCaptain).Msg("availability changed")
}

// RemoveParticipant: se llama cuando se cayó la última conexión del participante
// (el debounce lo hace la capa de sesión).
func (s *AvailabilityService) RemoveParticipant(participantID string) {
	s.mutate(func() {
		for _, set := range s.players {
			delete(set, participantID)
		}
		delete(s.captains, participantID)
		delete(s.profiles, participantID)
	})
	s.log.Debug().Str("participant", participantID).Msg("participant removed")
}

// Reset vacía todo (equivale a un reinicio del proceso).
func (s *AvailabilityService) Reset() {
	s.mutate(s.resetLocked)
}

func (s *AvailabilityService) CurrentStatus() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe agrega un observer y le entrega el snapshot actual.
func (s *AvailabilityService) Subscribe(o StatusObserver) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.observers = append(s.observers, o)
	o.StatusUpdated(s.CurrentStatus())
}

func (s *AvailabilityService) mutate(apply func()) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	apply()
	snap := s.buildLocked()
	s.current = snap
	s.mu.Unlock()

	for _, o := range s.observers {
		o.StatusUpdated(snap)
	}
}

func (s *AvailabilityService) resetLocked() {
	s.players = make(map[string]map[string]struct{}, len(s.roles))
	for _, r := range s.roles {
		s.players[r.ID] = map[string]struct{}{}
	}
	s.captains = map[string]struct{}{}
	s.profiles = map[string]domain.PublicProfile{}
}

func (s *AvailabilityService) dropProfileIfGoneLocked(id string) {
	if _, ok := s.captains[id]; ok {
		return
	}
	for _, set := range s.players {
		if _, ok := set[id]; ok {
			return
		}
	}
	delete(s.profiles, id)
}

// buildLocked arma un snapshot con copias propias; no comparte nada con el estado interno.
func (s *AvailabilityService) buildLocked() domain.Snapshot {
	players := make(map[string][]domain.PublicProfile, len(s.roles))
	for _, r := range s.roles {
		players[r.ID] = s.profilesOf(s.players[r.ID])
	}
	return domain.Snapshot{
		Players:  players,
		Captains: s.profilesOf(s.captains),
		Deficits: CalculateDeficits(s.roles, s.players),
	}
}

func (s *AvailabilityService) profilesOf(set map[string]struct{}) []domain.PublicProfile {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]domain.PublicProfile, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.profiles[id])
	}
	return out
}
