package models

import (
	"fmt"

	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/shared"
)

// ScreenState persists the navigation parameters of one leaf screen.
type ScreenState struct {
	record
	screenID string
	params   navigation.Params
}

// NewScreenState creates a [ScreenState] for screenID, e.g. "QueueJukebox".
func NewScreenState(sequence int, screenID string, params navigation.Params) *ScreenState {
	return &ScreenState{record: newRecord(sequence), screenID: screenID, params: params}
}

func (s *ScreenState) ScreenID() string              { return s.screenID }
func (s *ScreenState) Params() navigation.Params     { return s.params }
func (s *ScreenState) SetParams(p navigation.Params) { s.params = p }

func (s *ScreenState) Validate() error {
	if s.screenID == "" {
		return fmt.Errorf("%w: screen id is required", shared.ErrInvalidInput)
	}
	if s.params.Page < 0 {
		return fmt.Errorf("%w: page must not be negative", shared.ErrInvalidInput)
	}
	if s.params.ScrollPos < 0 {
		return fmt.Errorf("%w: scroll position must not be negative", shared.ErrInvalidInput)
	}
	return nil
}
