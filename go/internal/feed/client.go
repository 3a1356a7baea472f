package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Close codes the server uses to refuse a subscription. The client does not
// reconnect after receiving one of them.
const (
	CloseUnauthorized = 4401
	CloseNotFound     = 4404
)

// ErrRejected is returned by Run when the server refused the subscription.
var ErrRejected = errors.New("feed subscription rejected")

// Handler receives every text or binary message read from the feed.
type Handler func(ctx context.Context, data []byte) error

// Config holds the feed connection settings.
type Config struct {
	URL    string
	Header http.Header

	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns the connection defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 1 << 20,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

// Client subscribes to a giveaway feed and keeps the subscription alive.
type Client struct {
	config  Config
	dialer  *websocket.Dialer
	clock   clockwork.Clock
	handler Handler
}

func NewClient(config Config, clock clockwork.Clock, handler Handler) *Client {
	return &Client{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		clock:   clock,
		handler: handler,
	}
}

// Run connects and reads until ctx is cancelled, reconnecting with exponential
// backoff. The backoff resets once a connection has delivered a message.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.config.InitialBackoff

	for {
		delivered, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrRejected) {
			return err
		}
		if delivered {
			backoff = c.config.InitialBackoff
		}

		log.Warn().
			Err(err).
			Str("url", c.config.URL).
			Dur("retry_in", backoff).
			Msg("feed disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-c.clock.After(backoff):
		}

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

// session runs one connection. It reports whether any message was delivered.
func (c *Client) session(ctx context.Context) (bool, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.config.URL, c.config.Header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound) {
			return false, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
		}
		return false, fmt.Errorf("failed to dial feed: %w", err)
	}
	defer conn.Close()

	log.Info().Str("url", c.config.URL).Msg("feed connected")

	stop := make(chan struct{})
	defer close(stop)
	go c.keepAlive(ctx, conn, stop)

	conn.SetReadLimit(c.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return nil
	})

	delivered := false
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, CloseUnauthorized, CloseNotFound) {
				return delivered, fmt.Errorf("%w: %v", ErrRejected, err)
			}
			return delivered, err
		}
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		delivered = true
		if err := c.handler(ctx, message); err != nil {
			return delivered, fmt.Errorf("feed handler: %w", err)
		}
	}
}

// keepAlive pings the server and closes the connection when ctx is cancelled,
// which unblocks the reader.
func (c *Client) keepAlive(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := c.clock.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.config.WriteTimeout))
			conn.Close()
			return
		case <-ticker.Chan():
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout)); err != nil {
				log.Debug().Err(err).Msg("failed to send ping")
				conn.Close()
				return
			}
		}
	}
}
