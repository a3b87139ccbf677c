package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Playback errors
	ErrSourceUnavailable  = fmt.Errorf("source unavailable")
	ErrPlaybackDevice     = fmt.Errorf("playback device error")
	ErrSuperseded         = fmt.Errorf("request superseded")
	ErrEffectsUnavailable = fmt.Errorf("effects graph unavailable")
	ErrEngineClosed       = fmt.Errorf("engine closed")

	// Persistence errors
	ErrPersistence      = fmt.Errorf("persistence failure")
	ErrTrackNotFound    = fmt.Errorf("track not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrFolderNotFound   = fmt.Errorf("folder not found")
	ErrPresetNotFound   = fmt.Errorf("preset not found")
	ErrBlobNotFound     = fmt.Errorf("blob not found")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
