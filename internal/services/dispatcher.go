package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mpdx/internal/loop"
	"github.com/desertthunder/mpdx/internal/shared"
)

// ParseFailureMessage is shown when a response body is not JSON.
const ParseFailureMessage = "Can not parse response to json object"

// AuthRequiredMessage is shown when the server answers 401.
const AuthRequiredMessage = "Authentication required"

// Reply is what a request callback receives.
type Reply struct {
	Method   string
	Outcome  Outcome
	Status   int
	Envelope *Response
	Header   ResultHeader
	Raw      []byte
}

// Decode unmarshals the result member into v.
func (r Reply) Decode(v any) error {
	if r.Envelope == nil || !r.Envelope.HasResult() {
		return fmt.Errorf("%w: %s has no result", shared.ErrEmptyResponse, r.Method)
	}
	if err := json.Unmarshal(r.Envelope.Result, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProtocol, err)
	}
	return nil
}

// DispatcherOpts configures a [Dispatcher]. Nil fields get defaults, except Scheduler which
// may stay nil when only [Dispatcher.CallSync] is used.
type DispatcherOpts struct {
	Transport *Transport
	Session   *Session
	Scheduler loop.Scheduler
	Notifier  Notifier
	Logger    *log.Logger
	Path      string
	Partition string
	Timeout   time.Duration
	// Ignore lists advisory messages that are never notified. Nil uses [DefaultIgnoredMessages].
	Ignore []string
}

// Dispatcher sends JSON-RPC requests and routes their outcome to notifications and callbacks.
type Dispatcher struct {
	transport *Transport
	session   *Session
	scheduler loop.Scheduler
	notifier  Notifier
	logger    *log.Logger
	endpoint  string
	timeout   time.Duration
	ignore    []string
}

// NewDispatcher creates a [Dispatcher] and binds its session.
func NewDispatcher(opts DispatcherOpts) *Dispatcher {
	if opts.Transport == nil {
		opts.Transport = NewTransport("", nil, nil)
	}
	if opts.Session == nil {
		opts.Session = NewSession()
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Path == "" {
		opts.Path = "/api"
	}
	if opts.Ignore == nil {
		opts.Ignore = DefaultIgnoredMessages
	}

	d := &Dispatcher{
		transport: opts.Transport,
		session:   opts.Session,
		scheduler: opts.Scheduler,
		notifier:  opts.Notifier,
		logger:    shared.WithLogger(opts.Logger, "component", "dispatcher"),
		endpoint:  Endpoint(opts.Path, opts.Partition),
		timeout:   opts.Timeout,
		ignore:    opts.Ignore,
	}
	opts.Session.caller = d
	return d
}

// Endpoint joins the API path and an optional partition.
func Endpoint(path, partition string) string {
	path = strings.TrimSuffix(path, "/")
	if partition == "" {
		return path
	}
	return path + "/" + partition
}

// Endpoint returns the request path including the partition.
func (d *Dispatcher) Endpoint() string { return d.endpoint }

// Session returns the session bound to this dispatcher.
func (d *Dispatcher) Session() *Session { return d.session }

// Call sends method in the background. Notifications and onResult are delivered on the
// scheduler, and onResult runs at most once. A dispatcher built without a scheduler delivers
// on the request goroutine instead.
func (d *Dispatcher) Call(ctx context.Context, method string, params any, onResult func(Reply), reportErrors bool) {
	go func() {
		x := d.exchange(ctx, method, params)
		if d.scheduler == nil {
			d.deliver(x, onResult, reportErrors)
			return
		}
		d.scheduler.Post(func() {
			d.deliver(x, onResult, reportErrors)
		})
	}()
}

// CallSync sends method and waits for the reply without using the scheduler.
//
// The returned error wraps [shared.ErrAPIRequest] for transport failures and error envelopes,
// [shared.ErrEmptyResponse] for empty bodies and [shared.ErrProtocol] for malformed JSON.
func (d *Dispatcher) CallSync(ctx context.Context, method string, params any, reportErrors bool) (Reply, error) {
	x := d.exchange(ctx, method, params)
	d.deliver(x, nil, reportErrors)
	if x.err == nil && x.reply.Outcome == OutcomeError {
		x.err = fmt.Errorf("%w: %w", shared.ErrAPIRequest, x.reply.Envelope.Error)
	}
	return x.reply, x.err
}

type notice struct {
	title, text string
	sev         Severity
}

// exchanged is a classified round trip. note is set when the reply must be shown to the user
// and malformed marks a body that was not JSON.
type exchanged struct {
	reply     Reply
	note      *notice
	malformed bool
	err       error
}

func (d *Dispatcher) exchange(ctx context.Context, method string, params any) exchanged {
	reply := Reply{Method: method, Outcome: OutcomeNoData}

	body, err := json.Marshal(NewRequest(method, params))
	if err != nil {
		d.logger.Error("cannot encode request", "method", method, "error", err)
		return exchanged{reply: reply, err: fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.logger.Debug("send", "method", method, "endpoint", d.endpoint)
	resp, err := d.transport.PostJSON(ctx, d.endpoint, body)
	if err != nil {
		d.logger.Error("request failed", "method", method, "error", err)
		return exchanged{reply: reply, err: fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)}
	}

	reply.Status = resp.StatusCode
	reply.Raw = resp.Body

	if resp.StatusCode == http.StatusUnauthorized {
		d.logger.Warn("authentication required", "method", method)
		return exchanged{
			reply: reply,
			note:  &notice{title: AuthRequiredMessage, sev: SeverityDanger},
			err:   fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, method),
		}
	}
	if !resp.OK() {
		d.logger.Error("unexpected status", "method", method, "status", resp.StatusCode)
		return exchanged{reply: reply, err: fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, method, resp.StatusCode)}
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		d.logger.Error("empty response", "method", method)
		return exchanged{reply: reply, err: fmt.Errorf("%w: %s", shared.ErrEmptyResponse, method)}
	}

	var env Response
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		d.logger.Error(ParseFailureMessage, "method", method, "error", err)
		return exchanged{
			reply:     reply,
			note:      &notice{title: ParseFailureMessage, sev: SeverityDanger},
			malformed: true,
			err:       fmt.Errorf("%w: %v", shared.ErrProtocol, err),
		}
	}

	reply.Envelope = &env
	reply.Outcome, reply.Header = Classify(&env)

	switch reply.Outcome {
	case OutcomeInvalid:
		d.logger.Error("invalid jsonrpc response", "method", method, "body", string(resp.Body))
	case OutcomeError:
		d.logger.Error(env.Error.Message, "method", method, "facility", env.Error.Facility)
	}

	title, facility, sev, show := Notice(&env, reply.Outcome, reply.Header)
	if show && d.ignored(reply.Outcome, reply.Header.Message) {
		show = false
	}
	x := exchanged{reply: reply}
	if show {
		x.note = &notice{title: title, text: facility, sev: sev}
	}
	return x
}

func (d *Dispatcher) ignored(o Outcome, message string) bool {
	return o == OutcomeAdvisory && slices.Contains(d.ignore, message)
}

// deliver applies the notification and callback rules. A parse failure never reaches the
// callback.
func (d *Dispatcher) deliver(x exchanged, onResult func(Reply), reportErrors bool) {
	if x.note != nil {
		d.notifier.Notify(x.note.title, x.note.text, "", x.note.sev)
	}
	if x.malformed || onResult == nil {
		return
	}
	if _, callback := Decide(x.reply.Outcome, reportErrors); callback {
		onResult(x.reply)
	}
}
