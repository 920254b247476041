// Package gateway is the client side of POST /api/chat.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/pkg/httpext"
)

// Completion is the success body of /api/chat
type Completion struct {
	Message string `json:"message"`
}

// Completer issues a single completion request
type Completer interface {
	RequestCompletion(ctx context.Context, model string, messages []models.Message) (*Completion, error)
}

type requestBody struct {
	Model    string           `json:"model,omitempty"`
	Messages []models.Message `json:"messages"`
}

type sessionKey struct{}

// WithSessionID tags requests made with ctx as coming from session id
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the session id ctx was tagged with, if any
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// Client posts to a /api/chat compatible endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ Completer = (*Client)(nil)

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

func (c *Client) RequestCompletion(ctx context.Context, model string, messages []models.Message) (*Completion, error) {
	body, err := json.Marshal(requestBody{Model: model, Messages: messages})
	if err != nil {
		return nil, &RequestError{Kind: NetworkError, Reason: DefaultFailureReason, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Kind: NetworkError, Reason: DefaultFailureReason, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if id := SessionID(ctx); id != "" {
		req.Header.Set(httpext.SessionHeader, id)
	}

	log.Debug().
		Str("endpoint", c.endpoint).
		Str("model", model).
		Int("message_count", len(messages)).
		Msg("Requesting completion")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := err.Error()
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			reason = ctxErr.Error()
		}
		return nil, &RequestError{Kind: NetworkError, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: NetworkError, Status: resp.StatusCode, Reason: DefaultFailureReason, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{Kind: ServerError, Status: resp.StatusCode, Reason: readErrorMessage(raw)}
	}

	var completion Completion
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, &RequestError{Kind: ServerError, Status: resp.StatusCode, Reason: DefaultFailureReason, Err: err}
	}

	return &completion, nil
}

// readErrorMessage prefers the "error" field of a JSON body, then the raw
// text, then the generic reason
func readErrorMessage(raw []byte) string {
	var data any
	if err := json.Unmarshal(raw, &data); err == nil {
		switch typed := data.(type) {
		case map[string]any:
			switch e := typed["error"].(type) {
			case string:
				if e != "" {
					return e
				}
			case map[string]any:
				if msg, ok := e["message"].(string); ok && msg != "" {
					return msg
				}
			}
		case string:
			if typed != "" {
				return typed
			}
		}
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return DefaultFailureReason
}
