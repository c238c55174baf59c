package session

import (
	"context"

	"github.com/looplab/fsm"
)

// Transport states
const (
	StateDisconnected     = "disconnected"
	StateConnecting       = "connecting"
	StateNewSession       = "new_session"
	StateSecureConnection = "secure_connection"
	StateReady            = "ready"
)

const (
	eventDial       = "dial"
	eventConnected  = "connected"
	eventSessionAck = "session_acknowledged"
	eventSecured    = "secured"
	eventDisconnect = "disconnect"
)

func newStateMachine(onEnter func(from, to string)) *fsm.FSM {
	return fsm.NewFSM(
		StateDisconnected,
		fsm.Events{
			{Name: eventDial, Src: []string{StateDisconnected}, Dst: StateConnecting},
			{Name: eventConnected, Src: []string{StateConnecting}, Dst: StateNewSession},
			{Name: eventSessionAck, Src: []string{StateNewSession}, Dst: StateSecureConnection},
			{Name: eventSecured, Src: []string{StateSecureConnection}, Dst: StateReady},
			{
				Name: eventDisconnect,
				Src:  []string{StateConnecting, StateNewSession, StateSecureConnection, StateReady},
				Dst:  StateDisconnected,
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				onEnter(e.Src, e.Dst)
			},
		},
	)
}
