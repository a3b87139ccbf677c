package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/tapedeck/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTick MsgKind = iota
	MsgNotification
	MsgNotificationsClosed
	MsgCommandDone
)

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}

// notificationMsg is the constructor for [MsgNotification]
func notificationMsg(n player.Notification) Msg {
	return Msg{kind: MsgNotification, data: n}
}

// notificationsClosedMsg is the constructor for [MsgNotificationsClosed]
func notificationsClosedMsg() Msg {
	return Msg{kind: MsgNotificationsClosed}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(op string, err error) Msg {
	return Msg{
		kind: MsgCommandDone,
		data: struct {
			op  string
			err error
		}{op, err},
	}
}
