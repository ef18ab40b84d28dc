package stream

import (
	"fmt"
	"sync"

	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

// State represents the state of the live stream connection.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateError
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// transitions lists the legal edges of the state machine.
var transitions = map[State][]State{
	StateClosed:     {StateConnecting},
	StateConnecting: {StateOpen, StateError, StateClosed},
	StateOpen:       {StateClosed, StateError},
	StateError:      {StateConnecting, StateClosed},
}

// EventEmitter is called when the connection state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// StateMachine holds the connection state and enforces legal transitions.
type StateMachine struct {
	mu           sync.RWMutex
	state        State
	logger       ports.Logger
	eventEmitter EventEmitter
}

// NewStateMachine creates a state machine in StateClosed.
func NewStateMachine(logger ports.Logger, emitter EventEmitter) *StateMachine {
	return &StateMachine{
		state:        StateClosed,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current state.
func (m *StateMachine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// TransitionTo moves to newState. It returns ErrInvalidTransition if the
// edge is not part of the state machine.
func (m *StateMachine) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	oldState := m.state
	if !canTransition(oldState, newState) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, oldState, newState)
	}
	m.state = newState
	m.mu.Unlock()

	// Emit event outside of lock
	if m.eventEmitter != nil {
		m.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	m.logger.Debug("stream state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)
	return nil
}

// CanConnect returns true if a new connection attempt may start.
func (m *StateMachine) CanConnect() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateClosed || m.state == StateError
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
