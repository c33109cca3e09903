package client

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/statspot/internal/session"
)

const logoutTimeout = 5 * time.Second

// Logout tells the token service to clear the refresh cookie, then purges local state regardless.
//
// The service call is best effort; only a failure to purge local storage is returned.
func (c *Client) Logout(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, logoutTimeout)
	defer cancel()

	if resp, err := c.service.Post(callCtx, "/api/logout", nil); err != nil {
		c.logger.Warn("logout call failed", "error", err)
	} else if !resp.OK() {
		c.logger.Warn("logout call rejected", "status", resp.StatusCode)
	}

	err := errors.Join(c.store.Clear(), c.store.ClearVerifier(), c.jar.Clear())
	c.store.Record(session.EventLogout, "")
	return err
}
