package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track   models.Track
	current bool
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Composer }
func (i trackItem) Title() string {
	if i.current {
		return "▶ " + i.track.Title
	}
	return i.track.Title
}
func (i trackItem) Description() string {
	parts := []string{}
	if i.track.Composer != "" {
		parts = append(parts, i.track.Composer)
	}
	if i.track.Album != "" {
		parts = append(parts, i.track.Album)
	}
	parts = append(parts, shared.FormatDuration(i.track.Duration))
	if i.track.Offline {
		parts = append(parts, "offline")
	}
	return strings.Join(parts, " • ")
}

// trackItems converts tracks to list items, marking the entry at cursor.
func trackItems(tracks []models.Track, cursor int) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, current: i == cursor}
	}
	return items
}

func newTrackList(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

func countLabel(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
