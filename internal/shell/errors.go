package shell

import (
	"errors"
	"fmt"
)

// ErrCommandNotFound is returned by Launch when the executable cannot be
// found or is not runnable.
var ErrCommandNotFound = errors.New("command not found")

// errQuit unwinds the read loop for the quit built-in.
var errQuit = errors.New("quit")

// FatalError is an unrecoverable condition that terminates the shell.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
