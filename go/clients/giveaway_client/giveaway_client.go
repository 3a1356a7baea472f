package giveaway_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mcdev12/roleta/go/clients"
	"github.com/mcdev12/roleta/go/internal/events"
)

// ErrUnexpectedStatus is matched by errors for responses outside the 2xx range.
var ErrUnexpectedStatus = clients.ErrUnexpectedStatus

// DrawError is returned when the server refused a draw request.
type DrawError struct {
	StatusCode int
	Detail     string
}

func (e *DrawError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("draw rejected (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("draw rejected (%d)", e.StatusCode)
}

func (e *DrawError) Is(target error) bool { return target == ErrUnexpectedStatus }

// LatestParticipant is the most recently seen participant. Both fields are nil
// when the giveaway has no participants.
type LatestParticipant struct {
	DisplayName *string `json:"display_name"`
	Platform    *string `json:"platform"`
}

type GiveawayClient struct {
	*clients.BaseClient
	giveawayID int64
	csrfToken  string
}

// NewGiveawayClient returns a client for one giveaway. Redirects are not followed:
// a redirect answer to a draw means the draw was accepted.
func NewGiveawayClient(baseURL string, giveawayID int64) *GiveawayClient {
	client := &GiveawayClient{
		BaseClient: clients.NewBaseClient(strings.TrimRight(baseURL, "/")),
		giveawayID: giveawayID,
	}
	client.SetHTTPClient(&http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	})
	client.SetHeader(RequestedWithHeader, RequestedWithValue)
	return client
}

// SetSession authenticates requests with a session cookie and the matching CSRF token.
func (c *GiveawayClient) SetSession(cookie, csrfToken string) {
	if cookie != "" {
		c.SetHeader(CookieHeader, cookie)
	}
	c.csrfToken = csrfToken
}

func (c *GiveawayClient) LatestParticipant(ctx context.Context) (*LatestParticipant, error) {
	body, err := c.Get(ctx, fmt.Sprintf(LatestParticipantEndpoint, c.giveawayID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest participant: %w", err)
	}

	var p LatestParticipant
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode latest participant: %w", err)
	}
	return &p, nil
}

// State fetches the current snapshot of the giveaway.
func (c *GiveawayClient) State(ctx context.Context) (*events.GiveawayState, error) {
	body, err := c.Get(ctx, fmt.Sprintf(StateEndpoint, c.giveawayID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch giveaway state: %w", err)
	}

	var s events.GiveawayState
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("failed to decode giveaway state: %w", err)
	}
	return &s, nil
}

// TriggerDraw asks the server to draw a winner. A refusal is returned as *DrawError;
// any other error means the server could not be reached.
func (c *GiveawayClient) TriggerDraw(ctx context.Context) error {
	form := url.Values{}
	if c.csrfToken != "" {
		form.Set(CSRFField, c.csrfToken)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err := c.Post(ctx, fmt.Sprintf(DrawEndpoint, c.giveawayID), strings.NewReader(form.Encode()), header)
	if err == nil {
		return nil
	}

	var se *clients.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("failed to request draw: %w", err)
	}
	if se.StatusCode >= 300 && se.StatusCode < 400 {
		return nil
	}

	de := &DrawError{StatusCode: se.StatusCode}
	var payload struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(se.Body, &payload) == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			de.Detail = s
		} else {
			de.Detail = fmt.Sprint(payload.Detail)
		}
	}
	return de
}

// FeedURL is the websocket address of the giveaway feed.
func FeedURL(baseURL string, giveawayID int64) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	u.Path += fmt.Sprintf(FeedEndpoint, giveawayID)
	return u.String(), nil
}
