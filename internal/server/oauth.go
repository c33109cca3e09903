package server

import (
	"fmt"
	"html"
	"net/http"
	"sync"

	"github.com/desertthunder/statspot/internal/shared"
)

// CallbackResult is what the authorization server delivered to the redirect URI.
type CallbackResult struct {
	Code        string
	Error       string
	Description string
}

// Err converts an authorization error into a Go error, or nil when a code arrived.
func (c CallbackResult) Err() error {
	if c.Code != "" {
		return nil
	}
	if c.Description != "" {
		return fmt.Errorf("%w: %s (%s)", shared.ErrAuthFailed, c.Error, c.Description)
	}
	return fmt.Errorf("%w: %s", shared.ErrAuthFailed, c.Error)
}

// CallbackHandler receives the landing redirect for the CLI login flow.
//
// The first request carrying code or error is captured and answered with a 303 to the bare path,
// so the code never stays in the browser's address bar. Later requests render the outcome page.
type CallbackHandler struct {
	path     string
	state    string
	results  chan CallbackResult
	once     sync.Once
	mu       sync.Mutex
	captured *CallbackResult
}

// NewCallbackHandler creates a handler for path. A non-empty state must be echoed back by the authorization server.
func NewCallbackHandler(path, state string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		path:    path,
		state:   state,
		results: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, errParam := q.Get("code"), q.Get("error")

	if code == "" && errParam == "" {
		h.render(w)
		return
	}

	result := CallbackResult{Code: code, Error: errParam, Description: q.Get("error_description")}
	if h.state != "" && q.Get("state") != h.state {
		result = CallbackResult{Error: "state_mismatch", Description: "callback state did not match the login attempt"}
	}
	h.send(result)

	http.Redirect(w, r, h.path, http.StatusSeeOther)
}

func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.mu.Lock()
		h.captured = &result
		h.mu.Unlock()

		h.results <- result
		close(h.results)
	})
}

// Result returns the channel that receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

func (h *CallbackHandler) render(w http.ResponseWriter) {
	h.mu.Lock()
	captured := h.captured
	h.mu.Unlock()

	title, detail, status := "Waiting for authorization", "Return to the terminal to continue.", http.StatusOK
	if captured != nil {
		if err := captured.Err(); err != nil {
			title, detail, status = "Authorization failed", err.Error(), http.StatusBadRequest
		} else {
			title, detail = "Authorization received", "You can close this window and return to the terminal."
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	fmt.Fprintf(w, callbackPage, html.EscapeString(title), html.EscapeString(title), html.EscapeString(detail))
}

const callbackPage = `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; background: #181818; padding: 2rem; border-radius: 8px; }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`
