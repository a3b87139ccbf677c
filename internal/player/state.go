package player

import (
	"context"
	"fmt"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/services"
)

// State is the playback state of the engine.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a point-in-time copy of the public playback state.
type Snapshot struct {
	State        State         `json:"state"`
	IsPlaying    bool          `json:"is_playing"`
	IsLoading    bool          `json:"is_loading"`
	CurrentTrack *models.Track `json:"current_track,omitempty"`
	CurrentTime  float64       `json:"current_time"`
	Duration     float64       `json:"duration"`
	Volume       float64       `json:"volume"`
	QueueLength  int           `json:"queue_length"`
	Cursor       int           `json:"cursor"`
}

// NotificationKind classifies asynchronous engine outcomes.
type NotificationKind int

const (
	NotifyTrackStarted NotificationKind = iota
	NotifyTrackEnded
	NotifyQueueEnded
	NotifyError
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyTrackStarted:
		return "track-started"
	case NotifyTrackEnded:
		return "track-ended"
	case NotifyQueueEnded:
		return "queue-ended"
	case NotifyError:
		return "error"
	default:
		return fmt.Sprintf("NotificationKind(%d)", int(k))
	}
}

// Notification reports an asynchronous outcome. Err is set for [NotifyError].
type Notification struct {
	Kind    NotificationKind
	TrackID string
	Err     error
}

// Store is the persistence port the engine reads and writes through.
type Store interface {
	GetAllTracks() ([]models.Track, error)
	SaveTrack(track *models.Track) error
	DeleteTrack(id string) error
	GetFolders() ([]models.Folder, error)
	SaveFolder(folder *models.Folder) error
	DeleteFolder(id string) error
	GetPlaylists() ([]models.Playlist, error)
	SavePlaylist(playlist *models.Playlist) error
	DeletePlaylist(id string) error
	GetPresets() ([]models.EffectPreset, error)
	SavePreset(preset *models.EffectPreset) error
	DeletePreset(id string) error
}

// SourceResolver turns tracks into playable handles. [services.Resolver] implements it.
type SourceResolver interface {
	Resolve(ctx context.Context, track models.Track) (*services.Source, error)
	SetOffline(offline bool)
	Close()
}

// Settings are the session playback settings.
type Settings struct {
	Volume      float64             `json:"volume"`
	FadeIn      float64             `json:"fade_in"`
	FadeOut     float64             `json:"fade_out"`
	Curve       models.Curve        `json:"curve"`
	AutoAdvance bool                `json:"auto_advance"`
	Environment models.Environment  `json:"environment"`
	Effects     models.EffectParams `json:"effects"`
	Offline     bool                `json:"offline"`
}

// DefaultSettings returns full volume, one-second linear fades and auto-advance.
func DefaultSettings() Settings {
	return Settings{
		Volume:      1,
		FadeIn:      1,
		FadeOut:     1,
		Curve:       models.CurveLinear,
		AutoAdvance: true,
		Environment: models.EnvNone,
		Effects:     models.DefaultEffectParams(),
	}
}
