package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Navigation errors
	ErrInvalidFragment = fmt.Errorf("invalid fragment")
	ErrNoRoute         = fmt.Errorf("no route")
	ErrInvalidTree     = fmt.Errorf("invalid navigation tree")

	// Session errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and connection errors
	ErrAPIRequest    = fmt.Errorf("API request failed")
	ErrEmptyResponse = fmt.Errorf("empty response")
	ErrProtocol      = fmt.Errorf("protocol violation")
	ErrNotConnected  = fmt.Errorf("not connected")
	ErrNotFound      = fmt.Errorf("not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
