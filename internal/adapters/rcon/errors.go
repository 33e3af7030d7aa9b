package rcon

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var ErrSessionClosed = eris.New("rcon session closed")

// CommandError: el server cortó o no contestó un comando.
type CommandError struct {
	Server  string
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("rcon %s: %q: %v", e.Server, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
