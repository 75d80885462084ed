package events

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/mpdx/internal/shared"
	"github.com/gorilla/websocket"
)

// Conn is the part of a websocket connection the [Stream] uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens websocket connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to [Dialer].
type DialerFunc func(ctx context.Context, url string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) { return f(ctx, url) }

// WSDialer dials with gorilla/websocket.
type WSDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

// Dial implements [Dialer].
func (d WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: websocket handshake returned %d: %v", shared.ErrNotConnected, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrNotConnected, err)
	}
	return conn, nil
}

// URL derives the websocket address from the server URL: ws for http, wss for https, and
// path /ws/<partition>.
func URL(serverURL, path, partition string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", shared.ErrInvalidConfig, u.Scheme)
	}

	if path == "" {
		path = "/ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + strings.TrimSuffix(path, "/") + "/" + partition
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
