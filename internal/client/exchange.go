package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
)

type exchangeBody struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
	RedirectURI  string `json:"redirect_uri"`
}

// tokenBody is the success body of exchange and refresh. An error field marks a failure even on 200.
type tokenBody struct {
	session.Fields
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchange trades an authorization code for a session using the stored verifier.
//
// On success the verifier is consumed and the token stored. On failure the existing session is left as is.
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (*session.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	verifier, err := c.store.Verifier()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(exchangeBody{Code: code, CodeVerifier: verifier, RedirectURI: redirectURI})
	if err != nil {
		return nil, err
	}

	resp, err := c.service.Post(ctx, "/api/exchange", payload)
	if err != nil {
		c.store.Record(session.EventFailure, "exchange: service unreachable")
		return nil, fmt.Errorf("%w: %w", shared.ErrExchangeFailed, err)
	}

	fields, err := decodeToken(resp)
	if err != nil {
		c.store.Record(session.EventFailure, "exchange: "+errorTag(err))
		return nil, fmt.Errorf("%w: %w", shared.ErrExchangeFailed, err)
	}

	tok, err := c.store.Save(*fields)
	if err != nil {
		return nil, err
	}
	if err := c.store.ClearVerifier(); err != nil {
		c.logger.Warn("failed to clear verifier", "error", err)
	}
	c.store.Record(session.EventLogin, fields.Scope)
	c.logger.Debug("session established", "expires_in", fields.ExpiresIn)
	return tok, nil
}

// decodeToken turns a service response into token fields or an [*UpstreamError].
func decodeToken(resp *Response) (*session.Fields, error) {
	if !resp.OK() {
		return nil, upstreamError(resp)
	}

	var body tokenBody
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed token response: %w", err)
	}
	if body.Error != "" {
		return nil, &UpstreamError{Status: resp.StatusCode, Code: body.Error, Description: body.ErrorDescription}
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	return &body.Fields, nil
}

func errorTag(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	return "malformed response"
}
