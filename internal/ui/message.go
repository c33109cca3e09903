package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/statspot/internal/client"
	"github.com/desertthunder/statspot/internal/server"
	"github.com/desertthunder/statspot/internal/stats"
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
	MsgOutcome MsgKind = iota
	MsgCallback
	MsgDashboardLoaded
	MsgSearchDone
	MsgDetailLoaded
)

type outcomeData struct {
	intent  client.Intent
	outcome client.Outcome
}

type viewData struct {
	view stats.View
	err  error
}

type detailData struct {
	detail *stats.TrackDetail
	err    error
}

// outcomeMsg is the constructor for [MsgOutcome]
func outcomeMsg(intent client.Intent, out client.Outcome) Msg {
	return Msg{kind: MsgOutcome, data: outcomeData{intent, out}}
}

// callbackMsg is the constructor for [MsgCallback]
func callbackMsg(res server.CallbackResult) Msg {
	return Msg{kind: MsgCallback, data: res}
}

// dashboardLoadedMsg is the constructor for [MsgDashboardLoaded]
func dashboardLoadedMsg(err error) Msg {
	return Msg{kind: MsgDashboardLoaded, data: err}
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(view stats.View, err error) Msg {
	return Msg{kind: MsgSearchDone, data: viewData{view, err}}
}

// detailLoadedMsg is the constructor for [MsgDetailLoaded]
func detailLoadedMsg(detail *stats.TrackDetail, err error) Msg {
	return Msg{kind: MsgDetailLoaded, data: detailData{detail, err}}
}
