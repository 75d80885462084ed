package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mpdx/internal/services"
	"github.com/desertthunder/mpdx/internal/shared"
)

// Method answers one JSON-RPC method. A returned *services.RPCError becomes the error member.
type Method func(params json.RawMessage) (any, error)

// APIHandler serves the JSON-RPC endpoint.
type APIHandler struct {
	mu        sync.RWMutex
	methods   map[string]Method
	protected map[string]bool
	sessions  map[string]bool
	pin       string
	logger    *log.Logger
}

// NewAPIHandler creates a handler that knows the session methods. With a non-empty pin,
// methods passed to [APIHandler.Protect] answer 401 without a valid session.
func NewAPIHandler(pin string, logger *log.Logger) *APIHandler {
	h := &APIHandler{
		methods:   map[string]Method{},
		protected: map[string]bool{},
		sessions:  map[string]bool{},
		pin:       pin,
		logger:    logger,
	}
	h.methods[services.MethodSessionLogin] = h.login
	return h
}

// Routes implements [Handler]. The partition suffix is accepted and ignored.
func (h *APIHandler) Routes() []string { return []string{"/api", "/api/"} }

// Register sets the answer for method.
func (h *APIHandler) Register(method string, fn Method) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.methods[method] = fn
}

// Result registers a method that always answers result.
func (h *APIHandler) Result(method string, result any) {
	h.Register(method, func(json.RawMessage) (any, error) { return result, nil })
}

// Protect requires a session for methods when a pin is configured.
func (h *APIHandler) Protect(methods ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range methods {
		h.protected[m] = true
	}
}

// Methods returns the number of registered methods.
func (h *APIHandler) Methods() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.methods)
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "", &services.RPCError{Code: -32700, Message: "Invalid JSON request", Severity: "error", Facility: "general"})
		return
	}

	session := bearer(r)
	switch req.Method {
	case services.MethodSessionValidate:
		if !h.valid(session) {
			h.writeError(w, req.Method, &services.RPCError{Message: "Invalid session", Severity: "error", Facility: "session"})
			return
		}
		h.writeResult(w, req.Method, map[string]any{"message": services.SuccessMessage})
		return
	case services.MethodSessionLogout:
		h.mu.Lock()
		delete(h.sessions, session)
		h.mu.Unlock()
		h.writeResult(w, req.Method, map[string]any{"message": services.SuccessMessage})
		return
	}

	h.mu.RLock()
	fn, ok := h.methods[req.Method]
	protected := h.protected[req.Method]
	h.mu.RUnlock()

	if protected && h.pin != "" && !h.valid(session) {
		h.logger.Warn("rejecting unauthenticated call", "method", req.Method)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !ok {
		h.writeError(w, req.Method, &services.RPCError{
			Code:     -32601,
			Message:  "Unknown API method %{method}",
			Data:     map[string]any{"method": req.Method},
			Facility: "general",
			Severity: "error",
		})
		return
	}

	result, err := fn(req.Params)
	var rpcErr *services.RPCError
	switch {
	case errors.As(err, &rpcErr):
		h.writeError(w, req.Method, rpcErr)
	case err != nil:
		h.writeError(w, req.Method, &services.RPCError{Code: -32000, Message: err.Error(), Severity: "error", Facility: "general"})
	default:
		h.writeResult(w, req.Method, result)
	}
}

func (h *APIHandler) login(params json.RawMessage) (any, error) {
	var p struct {
		PIN string `json:"pin"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.PIN != h.pin {
		return nil, &services.RPCError{Message: "Invalid pin", Severity: "error", Facility: "session"}
	}

	token := shared.GenerateID()
	h.mu.Lock()
	h.sessions[token] = true
	h.mu.Unlock()
	return map[string]any{"session": token}, nil
}

func (h *APIHandler) valid(session string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return session != "" && h.sessions[session]
}

func bearer(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// writeResult adds the method member to object results, as myMPD does.
func (h *APIHandler) writeResult(w http.ResponseWriter, method string, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		h.writeError(w, method, &services.RPCError{Code: -32603, Message: err.Error(), Severity: "error"})
		return
	}

	var obj map[string]any
	if json.Unmarshal(data, &obj) == nil && obj != nil {
		if _, ok := obj["method"]; !ok {
			obj["method"] = method
		}
		data, _ = json.Marshal(obj)
	}

	id := 0
	h.write(w, services.Response{JSONRPC: services.JSONRPCVersion, ID: &id, Result: data})
}

func (h *APIHandler) writeError(w http.ResponseWriter, method string, e *services.RPCError) {
	h.logger.Debug("api error", "method", method, "message", e.Message)
	id := 0
	h.write(w, services.Response{JSONRPC: services.JSONRPCVersion, ID: &id, Error: e})
}

func (h *APIHandler) write(w http.ResponseWriter, resp services.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
