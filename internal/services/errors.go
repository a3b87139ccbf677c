package services

import (
	"fmt"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// Reason explains why a track has no playable source.
type Reason string

const (
	ReasonOffline     Reason = "offline"
	ReasonFetchFailed Reason = "fetchFailed"
	ReasonNoSource    Reason = "noSource"
)

// SourceUnavailableError reports a failed resolution. It matches [shared.ErrSourceUnavailable].
type SourceUnavailableError struct {
	Reason  Reason
	TrackID string
	Err     error
}

func (e *SourceUnavailableError) Error() string {
	msg := fmt.Sprintf("%v (%s) for track %s", shared.ErrSourceUnavailable, e.Reason, e.TrackID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

func (e *SourceUnavailableError) Is(target error) bool {
	return target == shared.ErrSourceUnavailable
}

func unavailable(reason Reason, trackID string, err error) error {
	return &SourceUnavailableError{Reason: reason, TrackID: trackID, Err: err}
}
