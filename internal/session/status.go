package session

import (
	"errors"
	"fmt"
)

type Status int

const (
	Inactive Status = iota
	Connecting
	Active
	Finished
)

func (s Status) String() string {
	switch s {
	case Inactive:
		return "INACTIVE"
	case Connecting:
		return "CONNECTING"
	case Active:
		return "ACTIVE"
	case Finished:
		return "FINISHED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Running reports whether a conversation is in progress.
func (s Status) Running() bool { return s == Connecting || s == Active }

var (
	ErrIllegalTransition = errors.New("illegal session status transition")
	ErrSessionRunning    = errors.New("session already running")
)

var transitions = map[Status][]Status{
	Inactive:   {Connecting},
	Connecting: {Active, Finished, Inactive},
	Active:     {Finished, Inactive},
	Finished:   {Connecting, Inactive},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}
