package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// Folder groups tracks. ParentID is empty for top-level folders.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id"`
	TrackIDs  []string  `json:"track_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFolder creates an empty folder under parentID.
func NewFolder(name, parentID string) *Folder {
	now := time.Now()
	return &Folder{Name: name, ParentID: parentID, TrackIDs: []string{}, CreatedAt: now, UpdatedAt: now}
}

func (f *Folder) Key() string { return f.ID }

func (f *Folder) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: folder id is required", shared.ErrInvalidInput)
	}
	if f.Name == "" {
		return fmt.Errorf("%w: folder name is required", shared.ErrInvalidInput)
	}
	if f.ParentID == f.ID {
		return fmt.Errorf("%w: folder cannot be its own parent", shared.ErrInvalidInput)
	}
	return nil
}

// Playlist is an ordered list of track ids.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TrackIDs    []string  `json:"track_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewPlaylist creates an empty playlist.
func NewPlaylist(name, description string) *Playlist {
	now := time.Now()
	return &Playlist{Name: name, Description: description, TrackIDs: []string{}, CreatedAt: now, UpdatedAt: now}
}

func (p *Playlist) Key() string { return p.ID }

func (p *Playlist) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}
	return nil
}

// Add appends track ids, skipping ones already present.
func (p *Playlist) Add(ids ...string) {
	p.TrackIDs = appendUnique(p.TrackIDs, ids...)
}

// Remove drops every occurrence of id and reports whether anything was removed.
func (p *Playlist) Remove(id string) bool {
	n := len(p.TrackIDs)
	p.TrackIDs = slices.DeleteFunc(p.TrackIDs, func(t string) bool { return t == id })
	return len(p.TrackIDs) != n
}

// Add appends track ids, skipping ones already present.
func (f *Folder) Add(ids ...string) {
	f.TrackIDs = appendUnique(f.TrackIDs, ids...)
}

func appendUnique(dst []string, ids ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, id := range dst {
		seen[id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			dst = append(dst, id)
			seen[id] = true
		}
	}
	return dst
}
