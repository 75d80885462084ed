package events

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mpdx/internal/loop"
	"github.com/desertthunder/mpdx/internal/services"
	"github.com/desertthunder/mpdx/internal/shared"
	"github.com/gorilla/websocket"
)

// ConnectionState of the push channel.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	pingMessage = "ping"
	pongMessage = "pong"
)

// StreamOpts configures a [Stream]. Scheduler is required and other zero values get the
// myMPD defaults.
type StreamOpts struct {
	URL       string
	Dialer    Dialer
	Scheduler loop.Scheduler
	Notifier  services.Notifier
	Logger    *log.Logger

	// Handlers is copied at construction. Kinds without a handler are ignored.
	Handlers map[Kind]Handler
	// Unknown receives frames whose method is not a known [Kind].
	Unknown Handler

	OnOpen  func()
	OnClose func()

	ConnectRetries  int
	RetryDelay      time.Duration
	ReconnectDelay  time.Duration
	Keepalive       time.Duration
	MaxMessageBytes int
	Ignore          []string
}

// Stream is the websocket push channel.
//
// All methods and hooks run on the scheduler's goroutine. The only other goroutine is the
// read pump of the current connection, which posts open, message and close back to the
// scheduler. Each connection attempt has a generation so results from an abandoned attempt
// are discarded.
type Stream struct {
	url       string
	dialer    Dialer
	scheduler loop.Scheduler
	notifier  services.Notifier
	logger    *log.Logger
	handlers  map[Kind]Handler
	unknown   Handler
	onOpen    func()
	onClose   func()

	maxRetries     int
	retryDelay     time.Duration
	reconnectDelay time.Duration
	keepalive      time.Duration
	maxBytes       int
	ignore         []string

	state     ConnectionState
	retries   int
	gen       uint64
	conn      Conn
	cancel    context.CancelFunc
	retry     loop.Timer
	reconnect loop.Timer
	ping      loop.Timer
}

// NewStream creates a disconnected [Stream]. Every hook runs on opts.Scheduler, so it is
// required.
func NewStream(opts StreamOpts) (*Stream, error) {
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("%w: stream scheduler is required", shared.ErrMissingArgument)
	}
	if opts.Dialer == nil {
		opts.Dialer = WSDialer{}
	}
	if opts.Notifier == nil {
		opts.Notifier = services.NotifierFunc(func(string, string, string, services.Severity) {})
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.ConnectRetries <= 0 {
		opts.ConnectRetries = 20
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 3 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 3 * time.Second
	}
	if opts.Keepalive <= 0 {
		opts.Keepalive = 25 * time.Second
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 100000
	}
	if opts.Ignore == nil {
		opts.Ignore = services.DefaultIgnoredMessages
	}

	logger := shared.WithLogger(opts.Logger, "component", "stream")
	handlers := make(map[Kind]Handler, len(opts.Handlers))
	for k, h := range opts.Handlers {
		if h != nil {
			handlers[k] = h
		}
	}
	unknown := opts.Unknown
	if unknown == nil {
		unknown = func(e Event) { logger.Warn("unknown push notification", "method", e.Method) }
	}

	return &Stream{
		url:            opts.URL,
		dialer:         opts.Dialer,
		scheduler:      opts.Scheduler,
		notifier:       opts.Notifier,
		logger:         logger,
		handlers:       handlers,
		unknown:        unknown,
		onOpen:         opts.OnOpen,
		onClose:        opts.OnClose,
		maxRetries:     opts.ConnectRetries,
		retryDelay:     opts.RetryDelay,
		reconnectDelay: opts.ReconnectDelay,
		keepalive:      opts.Keepalive,
		maxBytes:       opts.MaxMessageBytes,
		ignore:         opts.Ignore,
	}, nil
}

// State returns the connection state.
func (s *Stream) State() ConnectionState { return s.state }

// Retries returns the bounded retry counter.
func (s *Stream) Retries() int { return s.retries }

// RetryPending reports whether a retry scheduled after a spent budget has yet to fire.
func (s *Stream) RetryPending() bool { return s.retry != nil }

// URL returns the websocket address.
func (s *Stream) URL() string { return s.url }

// Connect opens the connection unless one is open or in progress.
//
// While a dial is outstanding each call counts against the retry budget. Once the budget is
// spent the attempt is abandoned, the counter resets and a single retry is scheduled. Until
// that retry fires further calls do nothing.
func (s *Stream) Connect() {
	if s.retry != nil {
		s.logger.Debug("socket retry pending")
		return
	}
	switch s.state {
	case Connected:
		s.logger.Debug("socket already connected")
		return
	case Connecting:
		if s.retries < s.maxRetries {
			s.retries++
			s.logger.Debug("socket connection in progress", "retries", s.retries)
			return
		}
		s.logger.Warn("socket connect timed out, retrying", "delay", s.retryDelay)
		s.abandon()
		s.retries = 0
		s.retry = s.replace(s.retry, s.retryDelay, func() {
			s.retry = nil
			s.Connect()
		})
		return
	}

	s.dial()
}

// Close cancels every timer and closes the connection without scheduling a reconnect.
func (s *Stream) Close() {
	s.retry = stop(s.retry)
	s.reconnect = stop(s.reconnect)
	s.abandon()
	s.logger.Debug("socket closed")
}

// abandon detaches the current attempt so its close never reaches the close hook.
func (s *Stream) abandon() {
	s.gen++
	s.ping = stop(s.ping)
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.state = Disconnected
}

func (s *Stream) dial() {
	s.state = Connecting
	s.gen++
	gen := s.gen

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.logger.Debug("connecting", "url", s.url)

	go func() {
		conn, err := s.dialer.Dial(ctx, s.url)
		if err != nil {
			s.scheduler.Post(func() { s.closed(gen, err) })
			return
		}
		s.scheduler.Post(func() { s.opened(gen, conn) })

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				s.scheduler.Post(func() { s.closed(gen, err) })
				return
			}
			s.scheduler.Post(func() { s.message(gen, data) })
		}
	}()
}

func (s *Stream) opened(gen uint64, conn Conn) {
	if gen != s.gen {
		conn.Close()
		return
	}

	s.logger.Info("websocket connected", "url", s.url)
	s.conn = conn
	s.state = Connected
	s.retries = 0
	s.reconnect = stop(s.reconnect)
	s.ping = s.replace(s.ping, s.keepalive, s.sendPing)

	if s.onOpen != nil {
		s.onOpen()
	}
}

func (s *Stream) closed(gen uint64, err error) {
	if gen != s.gen {
		return
	}

	s.logger.Error("websocket connection closed", "error", err)
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.ping = stop(s.ping)
	s.state = Disconnected

	if s.onClose != nil {
		s.onClose()
	}

	s.reconnect = s.replace(s.reconnect, s.reconnectDelay, func() {
		s.reconnect = nil
		s.logger.Debug("reconnecting websocket")
		s.Connect()
	})
}

func (s *Stream) sendPing() {
	s.ping = nil
	if s.state != Connected || s.conn == nil {
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(pingMessage)); err != nil {
		s.logger.Warn("keepalive failed", "error", err)
	}
	s.ping = s.scheduler.AfterFunc(s.keepalive, s.sendPing)
}

func (s *Stream) message(gen uint64, data []byte) {
	if gen != s.gen {
		return
	}
	s.Dispatch(data)
}

// Dispatch handles one raw frame. It is exported for replaying captured frames.
func (s *Stream) Dispatch(data []byte) {
	if string(data) == pongMessage {
		s.logger.Debug("got websocket pong")
		return
	}
	if len(data) > s.maxBytes {
		s.logger.Error("websocket message is too large, discarding", "bytes", len(data))
		return
	}

	var env services.Response
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Error("invalid websocket notification received", "data", string(data))
		return
	}

	if env.Error != nil || env.HasResult() {
		outcome, header := services.Classify(&env)
		title, facility, sev, ok := services.Notice(&env, outcome, header)
		if ok && !(outcome == services.OutcomeAdvisory && slices.Contains(s.ignore, header.Message)) {
			s.notifier.Notify(title, facility, "", sev)
		}
		return
	}

	ev := Event{Kind: ParseKind(env.Method), Method: env.Method, Params: env.Params}
	s.logger.Debug("websocket notification", "method", env.Method)

	if ev.Kind == KindUnknown {
		s.unknown(ev)
		return
	}
	if h, ok := s.handlers[ev.Kind]; ok {
		h(ev)
	}
}

func (s *Stream) replace(t loop.Timer, d time.Duration, fn func()) loop.Timer {
	stop(t)
	return s.scheduler.AfterFunc(d, fn)
}

func stop(t loop.Timer) loop.Timer {
	if t != nil {
		t.Stop()
	}
	return nil
}
