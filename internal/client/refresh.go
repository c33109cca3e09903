package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
)

// Refresh asks the token service to mint a new access token from the refresh cookie.
//
// The call is bounded by the refresh timeout; a late response is dropped with its context.
// A missing or rejected cookie yields [shared.ErrNoSession].
func (c *Client) Refresh(ctx context.Context) (*session.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	resp, err := c.service.Post(ctx, "/api/refresh", nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: refresh after %s", shared.ErrTimeout, c.refreshTimeout)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, shared.ErrNoSession
	}

	fields, err := decodeToken(resp)
	if err != nil {
		c.store.Record(session.EventFailure, "refresh: "+errorTag(err))
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	tok, err := c.store.Save(*fields)
	if err != nil {
		return nil, err
	}
	c.store.Record(session.EventRefresh, "")
	return tok, nil
}

// Resume returns the stored session, falling back to one silent refresh.
//
// Every failure collapses to [shared.ErrNoSession] (wrapping the cause) so callers land in the
// logged-out state without surfacing an error for a first visit.
func (c *Client) Resume(ctx context.Context) (*session.Token, error) {
	tok, err := c.store.Read()
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, shared.ErrNoSession) {
		c.logger.Warn("session store unreadable", "error", err)
	}

	tok, err = c.Refresh(ctx)
	if err != nil {
		c.logger.Debug("no session to resume", "reason", err)
		if errors.Is(err, shared.ErrNoSession) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrNoSession, err)
	}
	return tok, nil
}
