package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// JSONRPCVersion is sent in every request envelope.
const JSONRPCVersion = "2.0"

// SuccessMessage is the result message meaning "done, nothing to report".
const SuccessMessage = "ok"

// Request is the outbound JSON-RPC envelope. myMPD ignores the id, so it is always 0.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// NewRequest builds a request envelope. Nil params are sent as an empty object.
func NewRequest(method string, params any) Request {
	if params == nil {
		params = map[string]any{}
	}
	return Request{JSONRPC: JSONRPCVersion, ID: 0, Method: method, Params: params}
}

// Response is an inbound envelope. Exactly one of Result and Error is expected.
//
// Push frames reuse the same struct: they carry Method and Params at the top level instead.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      *int            `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// HasResult reports whether a non-null result member is present.
func (r *Response) HasResult() bool {
	return len(r.Result) > 0 && !bytes.Equal(bytes.TrimSpace(r.Result), []byte("null"))
}

// RPCError is the error member of a response.
type RPCError struct {
	Code     int            `json:"code,omitempty"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
	Facility string         `json:"facility,omitempty"`
	Severity string         `json:"severity,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	}
	return "rpc error: " + e.Message
}

// ResultHeader holds the members of a result object that decide how it is handled.
type ResultHeader struct {
	Method   string         `json:"method,omitempty"`
	Message  string         `json:"message,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Facility string         `json:"facility,omitempty"`
	Severity string         `json:"severity,omitempty"`
}

// Outcome classifies a response.
type Outcome int

const (
	// OutcomeNoData is an empty body or a transport failure.
	OutcomeNoData Outcome = iota
	// OutcomeError is an error envelope.
	OutcomeError
	// OutcomeAdvisory is a result whose message is not "ok".
	OutcomeAdvisory
	// OutcomeSuccess is a result with message "ok" or with a method and no message.
	OutcomeSuccess
	// OutcomeInvalid parsed as JSON but has neither an error nor a usable result.
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoData:
		return "no_data"
	case OutcomeError:
		return "error"
	case OutcomeAdvisory:
		return "advisory"
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Classify checks the response shapes in order: error, advisory result, success result.
// A result is usable when it is an object carrying a message or a method.
func Classify(r *Response) (Outcome, ResultHeader) {
	var h ResultHeader
	if r == nil {
		return OutcomeNoData, h
	}
	if r.Error != nil {
		return OutcomeError, h
	}
	if !r.HasResult() {
		return OutcomeInvalid, h
	}
	if err := json.Unmarshal(r.Result, &h); err != nil {
		return OutcomeInvalid, ResultHeader{}
	}

	switch {
	case h.Message != "" && h.Message != SuccessMessage:
		return OutcomeAdvisory, h
	case h.Message == SuccessMessage:
		return OutcomeSuccess, h
	case h.Method != "":
		return OutcomeSuccess, h
	default:
		return OutcomeInvalid, h
	}
}

// Decide returns whether an outcome is shown to the user and whether the caller's callback
// runs, given the caller's reportErrors flag.
//
//	outcome   notify  callback
//	error     yes     reportErrors
//	advisory  yes     yes
//	success   no      yes
//	invalid   no      reportErrors
//	no data   no      reportErrors
func Decide(o Outcome, reportErrors bool) (notify bool, callback bool) {
	switch o {
	case OutcomeError:
		return true, reportErrors
	case OutcomeAdvisory:
		return true, true
	case OutcomeSuccess:
		return false, true
	default:
		return false, reportErrors
	}
}

// Phrase fills %{key} placeholders in a server message from its data object.
func Phrase(message string, data map[string]any) string {
	if len(data) == 0 || !strings.Contains(message, "%{") {
		return message
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "%{"+k+"}", fmt.Sprint(data[k]))
	}
	return strings.NewReplacer(pairs...).Replace(message)
}
