// Package queue implements the play queue: an ordered list of tracks and a cursor.
//
// The cursor is -1 when the queue is empty and always a valid index otherwise.
// Reordering derives the new cursor from the identity of the current entry, so
// duplicate tracks in the queue are tracked independently.
//
// A Queue is not safe for concurrent use; the player engine serialises access.
package queue

import (
	"github.com/desertthunder/tapedeck/internal/models"
)

type entry struct {
	serial uint64
	track  models.Track
}

// Queue is an ordered list of tracks with a cursor on the current one.
type Queue struct {
	entries []entry
	cursor  int
	serial  uint64
}

// New creates a queue holding tracks with the cursor on the first one.
func New(tracks ...models.Track) *Queue {
	q := &Queue{cursor: -1}
	q.Replace(tracks)
	return q
}

func (q *Queue) wrap(tracks []models.Track) []entry {
	out := make([]entry, len(tracks))
	for i, t := range tracks {
		q.serial++
		out[i] = entry{serial: q.serial, track: t}
	}
	return out
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int { return len(q.entries) }

// Cursor returns the index of the current track, or -1 when empty.
func (q *Queue) Cursor() int { return q.cursor }

// Current returns the track under the cursor.
func (q *Queue) Current() (models.Track, bool) {
	if q.cursor < 0 || q.cursor >= len(q.entries) {
		return models.Track{}, false
	}
	return q.entries[q.cursor].track, true
}

// At returns the track at index i.
func (q *Queue) At(i int) (models.Track, bool) {
	if i < 0 || i >= len(q.entries) {
		return models.Track{}, false
	}
	return q.entries[i].track, true
}

// Tracks returns a copy of the queued tracks in order.
func (q *Queue) Tracks() []models.Track {
	out := make([]models.Track, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.track
	}
	return out
}

// Append adds tracks at the end. The cursor is kept, or set to 0 if the queue was empty.
func (q *Queue) Append(tracks ...models.Track) {
	if len(tracks) == 0 {
		return
	}
	q.entries = append(q.entries, q.wrap(tracks)...)
	if q.cursor < 0 {
		q.cursor = 0
	}
}

// Replace swaps the whole queue and resets the cursor to 0, or -1 when tracks is empty.
func (q *Queue) Replace(tracks []models.Track) {
	q.entries = q.wrap(tracks)
	if len(q.entries) == 0 {
		q.cursor = -1
		return
	}
	q.cursor = 0
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.Replace(nil)
}

// Reorder moves the track at from to index to. The cursor follows the current entry.
// Out-of-range indexes are a no-op and return false.
func (q *Queue) Reorder(from, to int) bool {
	n := len(q.entries)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}

	current := q.entries[q.cursor].serial
	moved := q.entries[from]
	q.entries = append(q.entries[:from], q.entries[from+1:]...)
	q.entries = append(q.entries[:to], append([]entry{moved}, q.entries[to:]...)...)

	for i, e := range q.entries {
		if e.serial == current {
			q.cursor = i
			break
		}
	}
	return true
}

// Remove deletes the track at i. currentChanged reports whether the removed track was the
// current one; the cursor then points at the track that followed it (or the new last track).
func (q *Queue) Remove(i int) (removed models.Track, currentChanged bool, ok bool) {
	if i < 0 || i >= len(q.entries) {
		return models.Track{}, false, false
	}

	removed = q.entries[i].track
	q.entries = append(q.entries[:i], q.entries[i+1:]...)

	switch {
	case len(q.entries) == 0:
		q.cursor = -1
		currentChanged = true
	case i < q.cursor:
		q.cursor--
	case i == q.cursor:
		currentChanged = true
		if q.cursor >= len(q.entries) {
			q.cursor = len(q.entries) - 1
		}
	}
	return removed, currentChanged, true
}

// SkipTo moves the cursor to i. Out-of-range indexes are a no-op and return false.
func (q *Queue) SkipTo(i int) bool {
	if i < 0 || i >= len(q.entries) {
		return false
	}
	q.cursor = i
	return true
}

// HasNext reports whether a track follows the cursor.
func (q *Queue) HasNext() bool {
	return q.cursor >= 0 && q.cursor+1 < len(q.entries)
}

// HasPrev reports whether a track precedes the cursor.
func (q *Queue) HasPrev() bool {
	return q.cursor > 0
}

// Next advances the cursor without wrapping.
func (q *Queue) Next() (models.Track, bool) {
	if !q.HasNext() {
		return models.Track{}, false
	}
	q.cursor++
	return q.entries[q.cursor].track, true
}

// Prev moves the cursor back without wrapping.
func (q *Queue) Prev() (models.Track, bool) {
	if !q.HasPrev() {
		return models.Track{}, false
	}
	q.cursor--
	return q.entries[q.cursor].track, true
}

// Update replaces every queued copy of track (matched by ID) with the given value.
func (q *Queue) Update(track models.Track) {
	for i := range q.entries {
		if q.entries[i].track.ID == track.ID {
			q.entries[i].track = track
		}
	}
}
