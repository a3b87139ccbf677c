package models

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// SourceKind tags the variant held by a [Source].
type SourceKind string

const (
	SourceNone   SourceKind = ""
	SourceLocal  SourceKind = "local"
	SourceCloud  SourceKind = "cloud"
	SourceRemote SourceKind = "remote"
)

// Source is the byte-source reference of a [Track]: one of [LocalBlob], [CloudRef] or [RemoteURL].
type Source interface {
	Kind() SourceKind
	isSource()
}

// LocalBlob references audio bytes owned by the blob store.
type LocalBlob struct {
	BlobID string
}

// CloudRef references a file held by a cloud drive provider.
type CloudRef struct {
	Provider string
	FileID   string
}

// RemoteURL references a plain streamable URL.
type RemoteURL struct {
	URL string
}

func (LocalBlob) Kind() SourceKind { return SourceLocal }
func (CloudRef) Kind() SourceKind  { return SourceCloud }
func (RemoteURL) Kind() SourceKind { return SourceRemote }

func (LocalBlob) isSource() {}
func (CloudRef) isSource()  {}
func (RemoteURL) isSource() {}

// KindOf returns the kind of src, or [SourceNone] for nil.
func KindOf(src Source) SourceKind {
	if src == nil {
		return SourceNone
	}
	return src.Kind()
}

// Trim is the playable sub-range of a track in seconds. End of 0 means the full duration.
type Trim struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Track is a playable library item.
type Track struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Composer      string    `json:"composer"`
	Album         string    `json:"album"`
	Genre         string    `json:"genre"`
	BPM           float64   `json:"bpm"`
	TonalKey      string    `json:"key"`
	Duration      float64   `json:"duration"`
	Source        Source    `json:"-"`
	CuePoints     []float64 `json:"cue_points"`
	Trim          Trim      `json:"trim"`
	Offline       bool      `json:"offline"`
	OfflineBlobID string    `json:"offline_blob_id"`
	Gain          float64   `json:"gain"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewTrack creates a track with unit gain and fresh timestamps. The ID is assigned on persistence.
func NewTrack(title string, src Source) *Track {
	now := time.Now()
	return &Track{
		Title:     title,
		Source:    src,
		CuePoints: []float64{},
		Gain:      1.0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Key returns the track ID.
func (t *Track) Key() string { return t.ID }

// EndTime returns the effective trim end.
func (t *Track) EndTime() float64 {
	if t.Trim.End > 0 {
		return t.Trim.End
	}
	return t.Duration
}

// Validate checks the track invariants: a title, non-negative numbers,
// a consistent offline flag, a well formed trim window and in-range cue points.
func (t *Track) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}
	if t.Title == "" {
		return fmt.Errorf("%w: track title is required", shared.ErrInvalidInput)
	}
	if !finite(t.Duration) || t.Duration < 0 {
		return fmt.Errorf("%w: invalid duration %v", shared.ErrInvalidInput, t.Duration)
	}
	if !finite(t.Gain) || t.Gain < 0 {
		return fmt.Errorf("%w: invalid gain %v", shared.ErrInvalidInput, t.Gain)
	}
	if t.Offline != (t.OfflineBlobID != "") {
		return fmt.Errorf("%w: offline flag and offline blob disagree", shared.ErrInvalidInput)
	}
	if err := validateSource(t.Source); err != nil {
		return err
	}
	if err := t.validateTrim(t.Trim); err != nil {
		return err
	}
	for i, p := range t.CuePoints {
		if err := t.checkCue(p); err != nil {
			return err
		}
		if i > 0 && p <= t.CuePoints[i-1] {
			return fmt.Errorf("%w: cue points must be strictly increasing", shared.ErrInvalidInput)
		}
	}
	return nil
}

// SetCuePoints sorts and de-duplicates points and stores them. Points outside [0, duration] are rejected.
func (t *Track) SetCuePoints(points []float64) error {
	cues := make([]float64, 0, len(points))
	for _, p := range points {
		if err := t.checkCue(p); err != nil {
			return err
		}
		cues = append(cues, p)
	}
	slices.Sort(cues)
	t.CuePoints = slices.Compact(cues)
	return nil
}

// SetTrim replaces the trim window after validating it.
func (t *Track) SetTrim(start, end float64) error {
	trim := Trim{Start: start, End: end}
	if err := t.validateTrim(trim); err != nil {
		return err
	}
	t.Trim = trim
	return nil
}

func (t *Track) checkCue(p float64) error {
	if !finite(p) || p < 0 || (t.Duration > 0 && p > t.Duration) {
		return fmt.Errorf("%w: cue point %v outside [0, %v]", shared.ErrInvalidInput, p, t.Duration)
	}
	return nil
}

func (t *Track) validateTrim(trim Trim) error {
	if !finite(trim.Start) || !finite(trim.End) || trim.Start < 0 || trim.End < 0 {
		return fmt.Errorf("%w: invalid trim window", shared.ErrInvalidInput)
	}
	if t.Duration > 0 && trim.End > t.Duration {
		return fmt.Errorf("%w: trim end %v beyond duration %v", shared.ErrInvalidInput, trim.End, t.Duration)
	}
	end := trim.End
	if end == 0 {
		end = t.Duration
	}
	if (trim.Start > 0 || trim.End > 0) && trim.Start >= end {
		return fmt.Errorf("%w: trim start %v must precede end %v", shared.ErrInvalidInput, trim.Start, end)
	}
	return nil
}

func validateSource(src Source) error {
	switch s := src.(type) {
	case nil:
		return nil
	case LocalBlob:
		if s.BlobID == "" {
			return fmt.Errorf("%w: local source requires a blob id", shared.ErrInvalidInput)
		}
	case CloudRef:
		if s.Provider == "" || s.FileID == "" {
			return fmt.Errorf("%w: cloud source requires provider and file id", shared.ErrInvalidInput)
		}
	case RemoteURL:
		if s.URL == "" {
			return fmt.Errorf("%w: remote source requires a url", shared.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown source type %T", shared.ErrInvalidInput, src)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// sourceJSON is the wire form of [Source]: {"kind":"local|cloud|remote", ...}.
type sourceJSON struct {
	Kind     SourceKind `json:"kind"`
	BlobID   string     `json:"blob_id,omitempty"`
	Provider string     `json:"provider,omitempty"`
	FileID   string     `json:"file_id,omitempty"`
	URL      string     `json:"url,omitempty"`
}

func encodeSource(src Source) *sourceJSON {
	switch s := src.(type) {
	case LocalBlob:
		return &sourceJSON{Kind: SourceLocal, BlobID: s.BlobID}
	case CloudRef:
		return &sourceJSON{Kind: SourceCloud, Provider: s.Provider, FileID: s.FileID}
	case RemoteURL:
		return &sourceJSON{Kind: SourceRemote, URL: s.URL}
	default:
		return nil
	}
}

func (s *sourceJSON) decode() (Source, error) {
	if s == nil {
		return nil, nil
	}
	switch s.Kind {
	case SourceLocal:
		return LocalBlob{BlobID: s.BlobID}, nil
	case SourceCloud:
		return CloudRef{Provider: s.Provider, FileID: s.FileID}, nil
	case SourceRemote:
		return RemoteURL{URL: s.URL}, nil
	case SourceNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", shared.ErrInvalidInput, s.Kind)
	}
}

// NewSource builds a [Source] from its flattened column form, as stored by the repositories.
func NewSource(kind SourceKind, blobID, provider, fileID, url string) (Source, error) {
	return (&sourceJSON{Kind: kind, BlobID: blobID, Provider: provider, FileID: fileID, URL: url}).decode()
}

// trackAlias drops the methods of [Track] so encoding/json does not recurse.
type trackAlias Track

type trackJSON struct {
	*trackAlias
	Source *sourceJSON `json:"source"`
}

// MarshalJSON encodes the track with its source as a tagged object.
func (t Track) MarshalJSON() ([]byte, error) {
	alias := trackAlias(t)
	if alias.CuePoints == nil {
		alias.CuePoints = []float64{}
	}
	return json.Marshal(trackJSON{trackAlias: &alias, Source: encodeSource(t.Source)})
}

// UnmarshalJSON decodes a track written by [Track.MarshalJSON].
func (t *Track) UnmarshalJSON(data []byte) error {
	aux := trackJSON{trackAlias: (*trackAlias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	src, err := aux.Source.decode()
	if err != nil {
		return err
	}
	t.Source = src
	return nil
}
