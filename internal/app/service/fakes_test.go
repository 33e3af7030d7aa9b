package service

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jose-valero/pug-coordinator/internal/domain"
	"github.com/jose-valero/pug-coordinator/internal/infra/storage"
)

// ---------- store ----------

type fakeStore struct {
	mu          sync.Mutex
	matches     map[string]domain.Match
	updates     []domain.Status
	statusesErr error
	statusCalls int
}

func newFakeStore(ms ...domain.Match) *fakeStore {
	s := &fakeStore{matches: map[string]domain.Match{}}
	for _, m := range ms {
		s.matches[m.ID] = m
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, id string) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return domain.Match{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *fakeStore) Status(ctx context.Context, id string) (domain.Status, error) {
	m, err := s.Get(ctx, id)
	return m.Status, err
}

func (s *fakeStore) Statuses(_ context.Context, ids []string) (map[string]domain.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	if s.statusesErr != nil {
		return nil, s.statusesErr
	}
	out := map[string]domain.Status{}
	for _, id := range ids {
		if m, ok := s.matches[id]; ok {
			out[id] = m.Status
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id string, st domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return storage.ErrNotFound
	}
	m.Status = st
	s.matches[id] = m
	s.updates = append(s.updates, st)
	return nil
}

func (s *fakeStore) AssignServer(_ context.Context, id, server string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok || m.Status != domain.StatusAssigning {
		return storage.ErrNotFound
	}
	m.Server = server
	s.matches[id] = m
	return nil
}

func (s *fakeStore) status(id string) domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id].Status
}

func (s *fakeStore) server(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id].Server
}

func (s *fakeStore) setStatus(id string, st domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.matches[id]
	m.Status = st
	s.matches[id] = m
}

func (s *fakeStore) countUpdates(st domain.Status) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.updates {
		if u == st {
			n++
		}
	}
	return n
}

// ---------- remote admin ----------

type fakeServer struct {
	owner   string
	dialErr error
	delay   time.Duration     // demora en cada comando
	failOn  func(string) bool // comando que falla
}

type fakeDialer struct {
	mu      sync.Mutex
	servers map[string]*fakeServer
	dials   int
	sent    map[string][]string
	closed  int
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{servers: map[string]*fakeServer{}, sent: map[string][]string{}}
}

func (d *fakeDialer) set(name string, fs *fakeServer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.servers[name] = fs
}

func (d *fakeDialer) Dial(_ context.Context, srv domain.GameServer) (AdminSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	fs, ok := d.servers[srv.Name]
	if !ok {
		return nil, eris.Errorf("no such server %s", srv.Name)
	}
	if fs.dialErr != nil {
		return nil, fs.dialErr
	}
	return &fakeSession{d: d, name: srv.Name, fs: fs}, nil
}

func (d *fakeDialer) commands(name string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sent[name]...)
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type fakeSession struct {
	d    *fakeDialer
	name string
	fs   *fakeServer
}

func (s *fakeSession) Command(ctx context.Context, cmd string) (string, error) {
	if s.fs.delay > 0 {
		select {
		case <-time.After(s.fs.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	s.d.mu.Lock()
	s.d.sent[s.name] = append(s.d.sent[s.name], cmd)
	s.d.mu.Unlock()
	if s.fs.failOn != nil && s.fs.failOn(cmd) {
		return "", eris.Errorf("command failed: %s", cmd)
	}
	if cmd == domain.GameInfoCommand() {
		return s.fs.owner + "\n", nil
	}
	return "", nil
}

func (s *fakeSession) Close() error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.closed++
	return nil
}

// ---------- finder ----------

type fakeFinder struct {
	mu        sync.Mutex
	available [][]string // una respuesta por llamada; la última se repite
	owners    []domain.GameServer
	calls     int
	onList    func() // corre dentro de cada ListAvailableServers
}

func (f *fakeFinder) ListAvailableServers(context.Context) ([]string, error) {
	if f.onList != nil {
		f.onList()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if len(f.available) == 0 {
		return nil, nil
	}
	if i >= len(f.available) {
		i = len(f.available) - 1
	}
	return f.available[i], nil
}

func (f *fakeFinder) FindOwners(context.Context, string) []domain.GameServer {
	return f.owners
}

func (f *fakeFinder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ---------- events ----------

type recordedEvent struct {
	kind   string
	match  domain.Match
	report MatchReport
	text   string
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) add(e recordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEvents) SystemNotice(_ context.Context, matchID, msg string) {
	r.add(recordedEvent{kind: "notice", match: domain.Match{ID: matchID}, text: msg})
}
func (r *recordingEvents) MatchAborted(_ context.Context, m domain.Match) {
	r.add(recordedEvent{kind: "aborted", match: m})
}
func (r *recordingEvents) DraftCleanupRequested(_ context.Context, m domain.Match) {
	r.add(recordedEvent{kind: "cleanup", match: m})
}
func (r *recordingEvents) ServerSetupComplete(_ context.Context, m domain.Match) {
	r.add(recordedEvent{kind: "setup", match: m})
}
func (r *recordingEvents) MatchLive(_ context.Context, m domain.Match, rep MatchReport) {
	r.add(recordedEvent{kind: "live", match: m, report: rep})
}
func (r *recordingEvents) MatchAbandoned(_ context.Context, m domain.Match, rep MatchReport) {
	r.add(recordedEvent{kind: "abandoned", match: m, report: rep})
}
func (r *recordingEvents) MatchCompleted(_ context.Context, m domain.Match, rep MatchReport) {
	r.add(recordedEvent{kind: "completed", match: m, report: rep})
}
func (r *recordingEvents) LogAvailable(_ context.Context, m domain.Match, url string) {
	r.add(recordedEvent{kind: "log", match: m, text: url})
}

func (r *recordingEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

func (r *recordingEvents) count(kind string) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (r *recordingEvents) notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.kind == "notice" {
			out = append(out, e.text)
		}
	}
	return out
}

func (r *recordingEvents) last() recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}
