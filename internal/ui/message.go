package ui

import (
	tea "github.com/charmbracelet/bubbletea"
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
	MsgSessionReady MsgKind = iota
	MsgAuthDone
	MsgFavoritesFetched
	MsgFavoriteChanged
	MsgExternal
)

type authResult struct {
	action string
	err    error
}

type noticeResult struct {
	notice string
	err    error
}

// sessionReadyMsg is the constructor for [MsgSessionReady]
func sessionReadyMsg() Msg {
	return Msg{kind: MsgSessionReady}
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgAuthDone, data: authResult{action: action, err: err}}
}

// favoritesFetchedMsg is the constructor for [MsgFavoritesFetched]
func favoritesFetchedMsg(err error) Msg {
	return Msg{kind: MsgFavoritesFetched, data: err}
}

// favoriteChangedMsg is the constructor for [MsgFavoriteChanged]
func favoriteChangedMsg(notice string, err error) Msg {
	return Msg{kind: MsgFavoriteChanged, data: noticeResult{notice: notice, err: err}}
}

// externalMsg is the constructor for [MsgExternal], sent after a clipboard or browser call
func externalMsg(notice string, err error) Msg {
	return Msg{kind: MsgExternal, data: noticeResult{notice: notice, err: err}}
}

func (m Msg) err() error {
	switch d := m.data.(type) {
	case error:
		return d
	case authResult:
		return d.err
	case noticeResult:
		return d.err
	default:
		return nil
	}
}

func (m Msg) notice() string {
	if d, ok := m.data.(noticeResult); ok {
		return d.notice
	}
	return ""
}
