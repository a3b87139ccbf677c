package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tapedeck/internal/audio"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// RemoteFetcher both streams and downloads remote files.
type RemoteFetcher interface {
	Fetcher
	Streamer
}

// Source is a transient handle to a resolved byte source.
//
// Byte sources (blobs, cloud downloads) carry their data; URL sources open a stream on demand.
// Release is idempotent and must be called on every exit path. A Source is safe for concurrent use.
type Source struct {
	Kind     models.SourceKind
	TrackID  string
	MimeType string
	URL      string

	mu        sync.Mutex
	data      []byte
	remote    Streamer
	released  bool
	onRelease func()
}

// Data returns the in-memory bytes, or nil for URL sources and released handles.
func (s *Source) Data() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Media opens the source for decoding. URL sources start their HTTP stream here.
func (s *Source) Media(ctx context.Context) (audio.Media, error) {
	s.mu.Lock()
	data, remote, released := s.data, s.remote, s.released
	s.mu.Unlock()

	switch {
	case released:
		return audio.Media{}, fmt.Errorf("%w: handle for %s already released", shared.ErrPlaybackDevice, s.TrackID)
	case data != nil:
		return audio.BytesMedia(data, s.MimeType), nil
	case remote == nil:
		return audio.Media{}, unavailable(ReasonFetchFailed, s.TrackID, fmt.Errorf("%w: no http client", shared.ErrServiceUnavailable))
	}

	body, mimeType, err := remote.Open(ctx, s.URL)
	if err != nil {
		return audio.Media{}, unavailable(ReasonFetchFailed, s.TrackID, err)
	}
	if mimeType == "" {
		mimeType = s.MimeType
	}
	return audio.Media{Reader: body, MimeType: mimeType}, nil
}

// Release drops the handle's data. Calling it more than once has no further effect.
func (s *Source) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.data = nil
	s.remote = nil
	onRelease := s.onRelease
	s.mu.Unlock()

	if onRelease != nil {
		onRelease()
	}
}

// Resolver maps tracks to playable sources in priority order: owned blob, cloud drive, remote URL.
//
// It keeps at most one issued handle alive: issuing a new handle releases the previous one.
type Resolver struct {
	blobs  BlobStore
	cloud  Fetcher
	remote RemoteFetcher
	logger *log.Logger

	mu          sync.Mutex
	offline     bool
	current     *Source
	outstanding int
}

// NewResolver creates a Resolver. cloud and remote may be nil when not configured.
func NewResolver(blobs BlobStore, cloud Fetcher, remote RemoteFetcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{blobs: blobs, cloud: cloud, remote: remote, logger: logger}
}

// SetOffline toggles offline mode; cloud references fail with [ReasonOffline] while it is on.
func (r *Resolver) SetOffline(offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline = offline
}

// Offline reports whether offline mode is on.
func (r *Resolver) Offline() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offline
}

// Outstanding reports how many issued handles have not been released.
func (r *Resolver) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outstanding
}

// Resolve returns a playable handle for track, releasing the previously issued one.
func (r *Resolver) Resolve(ctx context.Context, track models.Track) (*Source, error) {
	src, err := r.resolve(ctx, track)
	if err != nil {
		r.logger.Debug("resolution failed", "track", track.ID, "err", err)
		return nil, err
	}
	r.issue(src)
	return src, nil
}

// Fetch returns the full bytes of track's source without issuing a handle. Used for offline downloads.
func (r *Resolver) Fetch(ctx context.Context, track models.Track) ([]byte, string, error) {
	src, err := r.resolve(ctx, track)
	if err != nil {
		return nil, "", err
	}
	if src.data != nil {
		return src.data, src.MimeType, nil
	}

	if r.remote == nil {
		return nil, "", unavailable(ReasonFetchFailed, track.ID, fmt.Errorf("%w: no http client", shared.ErrServiceUnavailable))
	}
	data, mimeType, err := r.remote.Fetch(ctx, src.URL)
	if err != nil {
		return nil, "", unavailable(ReasonFetchFailed, track.ID, err)
	}
	return data, mimeType, nil
}

// Close releases the outstanding handle.
func (r *Resolver) Close() {
	r.mu.Lock()
	cur := r.current
	r.current = nil
	r.mu.Unlock()

	if cur != nil {
		cur.Release()
	}
}

func (r *Resolver) resolve(ctx context.Context, track models.Track) (*Source, error) {
	if track.Offline && track.OfflineBlobID != "" {
		return r.fromBlob(track.ID, track.OfflineBlobID)
	}

	switch src := track.Source.(type) {
	case models.LocalBlob:
		return r.fromBlob(track.ID, src.BlobID)
	case models.CloudRef:
		return r.fromCloud(ctx, track.ID, src)
	case models.RemoteURL:
		return &Source{Kind: models.SourceRemote, TrackID: track.ID, URL: src.URL, remote: r.remote}, nil
	case nil:
		return nil, unavailable(ReasonNoSource, track.ID, nil)
	default:
		return nil, unavailable(ReasonNoSource, track.ID, fmt.Errorf("unknown source %T", src))
	}
}

func (r *Resolver) fromBlob(trackID, blobID string) (*Source, error) {
	data, mimeType, err := r.blobs.GetBlob(blobID)
	if err != nil {
		return nil, unavailable(ReasonFetchFailed, trackID, err)
	}
	return &Source{Kind: models.SourceLocal, TrackID: trackID, MimeType: mimeType, data: data}, nil
}

func (r *Resolver) fromCloud(ctx context.Context, trackID string, ref models.CloudRef) (*Source, error) {
	if r.Offline() {
		return nil, unavailable(ReasonOffline, trackID, nil)
	}
	if r.cloud == nil {
		return nil, unavailable(ReasonFetchFailed, trackID, fmt.Errorf("%w: %s", shared.ErrMissingCredentials, ref.Provider))
	}

	data, mimeType, err := r.cloud.Fetch(ctx, ref.FileID)
	if err != nil {
		return nil, unavailable(ReasonFetchFailed, trackID, err)
	}
	return &Source{Kind: models.SourceCloud, TrackID: trackID, MimeType: mimeType, data: data}, nil
}

// issue makes src the current handle and releases the previous one.
func (r *Resolver) issue(src *Source) {
	src.onRelease = func() {
		r.mu.Lock()
		r.outstanding--
		if r.current == src {
			r.current = nil
		}
		r.mu.Unlock()
	}

	r.mu.Lock()
	prev := r.current
	r.current = src
	r.outstanding++
	r.mu.Unlock()

	if prev != nil {
		prev.Release()
	}
}
