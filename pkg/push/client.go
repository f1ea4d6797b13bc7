// Package push provides an HTTP client for a push-notification gateway,
// fanning a single send out to every active device token in parallel.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client posts outbound push notifications to a single gateway endpoint.
type Client struct {
	gatewayURL string
	http       *http.Client
}

// NewClient wraps a push-gateway URL.
func NewClient(gatewayURL string) *Client {
	return &Client{gatewayURL: gatewayURL, http: &http.Client{}}
}

type sendRequest struct {
	Token   string `json:"token"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// TokenResult reports the outcome of one token's send, distinguishing a
// permanently invalid token (410 Gone/404 Not Found, meaning the
// gateway will never accept it again) from a transient failure so the
// caller can decide whether to deactivate the token.
type TokenResult struct {
	Token     string
	Err       error
	Permanent bool
}

// Send delivers title/message to every token in parallel, mirroring the
// fan-out-then-fan-in pattern used to resolve a recipient's profile across
// multiple backends. A job succeeds only if every token send succeeds; the
// first error observed is returned once all sends have completed. Results
// reports the per-token outcome so the caller can deactivate any token
// the gateway reported permanently invalid, regardless of the overall
// job outcome.
func (c *Client) Send(ctx context.Context, tokens []string, title, message string) (error, []TokenResult) {
	if len(tokens) == 0 {
		return fmt.Errorf("push: no device tokens"), nil
	}

	ch := make(chan TokenResult, len(tokens))
	for _, tok := range tokens {
		go func(token string) {
			err, permanent := c.sendOne(ctx, token, title, message)
			ch <- TokenResult{Token: token, Err: err, Permanent: permanent}
		}(tok)
	}

	results := make([]TokenResult, 0, len(tokens))
	var firstErr error
	for i := 0; i < len(tokens); i++ {
		res := <-ch
		results = append(results, res)
		if res.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("token %s: %w", res.Token, res.Err)
		}
	}

	return firstErr, results
}

func (c *Client) sendOne(ctx context.Context, token, title, message string) (err error, permanent bool) {
	body, err := json.Marshal(sendRequest{Token: token, Title: title, Message: message})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err), false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err), false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err), false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil, false
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("push gateway error: %s", resp.Status), true
	default:
		return fmt.Errorf("push gateway error: %s", resp.Status), false
	}
}
