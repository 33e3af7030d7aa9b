package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pug-coordinator/internal/app/service"
	"github.com/jose-valero/pug-coordinator/internal/domain"
	"github.com/jose-valero/pug-coordinator/internal/infra/storage"
)

type stubHandler struct {
	err      error
	gotKey   string
	gotQuery service.CallbackQuery
}

func (h *stubHandler) Handle(_ context.Context, key string, q service.CallbackQuery) error {
	h.gotKey, h.gotQuery = key, q
	return h.err
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestCallbackRoute_PassesQuery(t *testing.T) {
	h := &stubHandler{}
	s := New(zerolog.Nop(), h)

	rec := do(t, s.Handler(), http.MethodGet, "/api/servers/abc123?game=m1&status=completed&score=3-1&time=99&duration=1800&url=https%3A%2F%2Flogs.tf%2F1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", h.gotKey)
	assert.Equal(t, service.CallbackQuery{
		Game: "m1", Status: "completed", Score: "3-1", Time: "99", Duration: "1800", URL: "https://logs.tf/1",
	}, h.gotQuery)
}

func TestCallbackRoute_ErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"missing game", service.ErrMissingGame, http.StatusBadRequest},
		{"not found", eris.Wrap(service.ErrMatchNotFound, "game m1"), http.StatusNotFound},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"precondition", &service.PreconditionError{MatchID: "m1", Declared: "live", Current: domain.StatusAssigning}, http.StatusInternalServerError},
		{"store down", eris.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(zerolog.Nop(), &stubHandler{err: tc.err})
			rec := do(t, s.Handler(), http.MethodGet, "/api/servers/k?game=m1&status=live")
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCallbackRoute_OnlyGet(t *testing.T) {
	s := New(zerolog.Nop(), &stubHandler{})
	rec := do(t, s.Handler(), http.MethodPost, "/api/servers/k?game=m1")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := New(zerolog.Nop(), &stubHandler{})
	rec := do(t, s.Handler(), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

type oneMatch struct{ m domain.Match }

func (o oneMatch) Get(_ context.Context, id string) (domain.Match, error) {
	if id != o.m.ID {
		return domain.Match{}, storage.ErrNotFound
	}
	return o.m, nil
}

func TestCallbackRoute_WithService(t *testing.T) {
	m := domain.Match{ID: "m1", Status: domain.StatusAssigning, Server: "alpha"}
	servers := []domain.GameServer{{Name: "alpha", Salt: "pepper"}}
	svc := service.NewCallbackService(zerolog.Nop(), oneMatch{m}, servers, service.NopEvents{})
	h := New(zerolog.Nop(), svc).Handler()
	key := domain.CallbackKey("m1", "pepper")

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/servers/"+key+"?game=m1&status=setup").Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/api/servers/deadbeef?game=m1&status=setup").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/servers/"+key+"?status=setup").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/servers/"+key+"?game=m2&status=setup").Code)
	rec := do(t, h, http.MethodGet, "/api/servers/"+key+"?game=m1&status=completed")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
