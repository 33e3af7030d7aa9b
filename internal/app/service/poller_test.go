package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func pool(names ...string) []domain.GameServer {
	out := make([]domain.GameServer, 0, len(names))
	for _, n := range names {
		out = append(out, domain.GameServer{Name: n, Address: n + ":27015", Salt: "salt-" + n})
	}
	return out
}

func newTestPoller(servers []domain.GameServer, d *fakeDialer, store *fakeStore) (*ServerPoller, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	p := NewServerPoller(zerolog.Nop(), servers, d, store, 50*time.Millisecond, 5*time.Second)
	p.now = clock.Now
	return p, clock
}

func TestPoller_Availability(t *testing.T) {
	d := newFakeDialer()
	d.set("empty", &fakeServer{})
	d.set("busy", &fakeServer{owner: "m-live"})
	d.set("done", &fakeServer{owner: "m-done"})
	d.set("aborted", &fakeServer{owner: "m-aborted"})
	d.set("pruned", &fakeServer{owner: "m-gone"})
	d.set("down", &fakeServer{dialErr: eris.New("connection refused")})
	d.set("slow", &fakeServer{delay: time.Second})
	d.set("broken", &fakeServer{failOn: func(string) bool { return true }})

	store := newFakeStore(
		domain.Match{ID: "m-live", Status: domain.StatusLive},
		domain.Match{ID: "m-done", Status: domain.StatusCompleted},
		domain.Match{ID: "m-aborted", Status: domain.StatusAborted},
	)
	p, _ := newTestPoller(pool("empty", "busy", "done", "aborted", "pruned", "down", "slow", "broken"), d, store)

	got, err := p.ListAvailableServers(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"empty", "done", "aborted", "pruned"}, got)
	assert.Equal(t, 1, store.statusCalls, "statuses resolved in one batch")
}

func TestPoller_StatusLookupFailureExcludesOwned(t *testing.T) {
	d := newFakeDialer()
	d.set("empty", &fakeServer{})
	d.set("done", &fakeServer{owner: "m-done"})
	store := newFakeStore(domain.Match{ID: "m-done", Status: domain.StatusCompleted})
	store.statusesErr = eris.New("db down")

	p, _ := newTestPoller(pool("empty", "done"), d, store)

	got, err := p.ListAvailableServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"empty"}, got)
}

func TestPoller_ConcurrentCallersShareOnePoll(t *testing.T) {
	d := newFakeDialer()
	d.set("a", &fakeServer{delay: 20 * time.Millisecond})
	d.set("b", &fakeServer{delay: 20 * time.Millisecond})
	p, _ := newTestPoller(pool("a", "b"), d, newFakeStore())

	var wg sync.WaitGroup
	results := make([][]string, 10)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.ListAvailableServers(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, d.dialCount(), "one dial per server")
	for _, r := range results {
		assert.ElementsMatch(t, []string{"a", "b"}, r)
	}
}

func TestPoller_OnePollPerWindow(t *testing.T) {
	d := newFakeDialer()
	d.set("a", &fakeServer{})
	p, clock := newTestPoller(pool("a"), d, newFakeStore())
	ctx := context.Background()

	_, err := p.ListAvailableServers(ctx)
	require.NoError(t, err)

	// mismo resultado dentro de la ventana, aunque el server se haya ocupado
	d.set("a", &fakeServer{owner: "m1"})
	clock.Advance(time.Second)
	got, err := p.ListAvailableServers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 1, d.dialCount())

	clock.Advance(5 * time.Second)
	got, err = p.ListAvailableServers(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "new window polls again")
	assert.Equal(t, 2, d.dialCount())
}

func TestPoller_ResultIsACopy(t *testing.T) {
	d := newFakeDialer()
	d.set("a", &fakeServer{})
	p, _ := newTestPoller(pool("a"), d, newFakeStore())

	first, err := p.ListAvailableServers(context.Background())
	require.NoError(t, err)
	first[0] = "mutated"

	second, err := p.ListAvailableServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, second)
}

func TestPoller_CallerContextOnlyStopsWaiting(t *testing.T) {
	d := newFakeDialer()
	d.set("a", &fakeServer{delay: 30 * time.Millisecond})
	p, _ := newTestPoller(pool("a"), d, newFakeStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.ListAvailableServers(ctx)
	require.ErrorIs(t, err, context.Canceled)

	got, err := p.ListAvailableServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 1, d.dialCount())
}

func TestPoller_FindOwners(t *testing.T) {
	d := newFakeDialer()
	d.set("a", &fakeServer{owner: "m1"})
	d.set("b", &fakeServer{owner: "m2"})
	d.set("c", &fakeServer{owner: "m1"})
	d.set("d", &fakeServer{dialErr: eris.New("refused")})
	p, _ := newTestPoller(pool("a", "b", "c", "d"), d, newFakeStore())

	owners := p.FindOwners(context.Background(), "m1")

	var names []string
	for _, s := range owners {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)
}
