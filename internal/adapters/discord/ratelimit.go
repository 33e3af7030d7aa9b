package discord

import (
	"sync"
	"time"
)

// keyLimiter deja pasar una vez por ventana por clave (usuario, texto de aviso, etc).
type keyLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	win  time.Duration
	now  func() time.Time
}

func newKeyLimiter(window time.Duration) *keyLimiter {
	return &keyLimiter{next: map[string]time.Time{}, win: window, now: time.Now}
}

func (l *keyLimiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.next[key]; ok && now.Before(until) {
		return false
	}
	l.next[key] = now.Add(l.win)
	// saca las claves vencidas
	for k, until := range l.next {
		if !now.Before(until) && k != key {
			delete(l.next, k)
		}
	}
	return true
}
