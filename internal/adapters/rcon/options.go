package rcon

import (
	"time"

	"github.com/rs/zerolog"
)

type Option func(*Dialer)

func WithDialTimeout(d time.Duration) Option {
	return func(c *Dialer) { c.dialTimeout = d }
}
func WithDeadline(d time.Duration) Option {
	return func(c *Dialer) { c.deadline = d }
}
func WithLogger(l zerolog.Logger) Option {
	return func(c *Dialer) { c.log = l }
}
