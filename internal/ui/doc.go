// Package ui implements the interactive dashboard using bubbletea's Elm architecture.
//
// Screens:
//  1. [LoggedOutView] : Prompt to log in, with the last notice
//  2. [LoadingView] : Waiting on the session or the data API
//  3. [DashboardView] : Tabbed lists of top tracks, top artists, playlists and charts
//  4. [DetailView] : One track with audio features and insights
//
// The [Model] never touches tokens directly. It emits intents to the auth controller and renders the [client.Outcome].
// A 401 from the data API is handed back to the controller, which drops the token and returns to [LoggedOutView].
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
