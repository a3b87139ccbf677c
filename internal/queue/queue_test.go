package queue

import (
	"testing"

	"github.com/desertthunder/tapedeck/internal/models"
)

func tracks(ids ...string) []models.Track {
	out := make([]models.Track, len(ids))
	for i, id := range ids {
		out[i] = models.Track{ID: id, Title: id}
	}
	return out
}

func ids(q *Queue) []string {
	out := []string{}
	for _, t := range q.Tracks() {
		out = append(out, t.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func currentID(t *testing.T, q *Queue) string {
	t.Helper()
	cur, ok := q.Current()
	if !ok {
		t.Fatal("expected a current track")
	}
	return cur.ID
}

func TestQueue(t *testing.T) {
	t.Run("New And Replace", func(t *testing.T) {
		q := New()
		if q.Cursor() != -1 || q.Len() != 0 {
			t.Errorf("expected empty queue with cursor -1, got %d/%d", q.Cursor(), q.Len())
		}
		if _, ok := q.Current(); ok {
			t.Error("expected no current track")
		}

		q.Replace(tracks("A", "B"))
		if q.Cursor() != 0 {
			t.Errorf("expected cursor 0, got %d", q.Cursor())
		}
		q.SkipTo(1)
		q.Replace(tracks("C", "D", "E"))
		if q.Cursor() != 0 || currentID(t, q) != "C" {
			t.Errorf("expected replace to reset cursor, got %d", q.Cursor())
		}

		q.Clear()
		if q.Cursor() != -1 {
			t.Errorf("expected cursor -1 after clear, got %d", q.Cursor())
		}
	})

	t.Run("Append Preserves Cursor", func(t *testing.T) {
		q := New()
		q.Append(tracks("A")...)
		if q.Cursor() != 0 {
			t.Errorf("expected cursor 0 after first append, got %d", q.Cursor())
		}

		q.Append(tracks("B", "C")...)
		q.SkipTo(2)
		q.Append(tracks("D")...)
		if q.Cursor() != 2 || currentID(t, q) != "C" {
			t.Errorf("expected cursor to stay on C, got %d", q.Cursor())
		}
		if !equal(ids(q), []string{"A", "B", "C", "D"}) {
			t.Errorf("unexpected order %v", ids(q))
		}
	})

	t.Run("Reorder", func(t *testing.T) {
		tests := []struct {
			name     string
			cursor   int
			from, to int
			order    []string
			expected int
		}{
			{"move before cursor past it", 1, 0, 2, []string{"B", "C", "A"}, 0},
			{"move cursor track forward", 0, 0, 2, []string{"B", "C", "A"}, 2},
			{"move cursor track back", 2, 2, 0, []string{"C", "A", "B"}, 0},
			{"move after cursor before it", 1, 2, 0, []string{"C", "A", "B"}, 2},
			{"move unrelated tracks", 0, 1, 2, []string{"A", "C", "B"}, 0},
			{"same position", 1, 1, 1, []string{"A", "B", "C"}, 1},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				q := New(tracks("A", "B", "C")...)
				q.SkipTo(tt.cursor)
				before := currentID(t, q)

				if !q.Reorder(tt.from, tt.to) {
					t.Fatal("expected reorder to succeed")
				}
				if !equal(ids(q), tt.order) {
					t.Errorf("expected %v, got %v", tt.order, ids(q))
				}
				if q.Cursor() != tt.expected {
					t.Errorf("expected cursor %d, got %d", tt.expected, q.Cursor())
				}
				if currentID(t, q) != before {
					t.Errorf("expected current track %s, got %s", before, currentID(t, q))
				}
			})
		}
	})

	t.Run("Reorder Keeps Identity For Duplicates", func(t *testing.T) {
		q := New(tracks("A", "X", "A")...)
		q.SkipTo(2)
		q.Reorder(0, 1)
		if q.Cursor() != 2 {
			t.Errorf("expected cursor to stay on second A at 2, got %d", q.Cursor())
		}
	})

	t.Run("Reorder Out Of Range", func(t *testing.T) {
		q := New(tracks("A", "B")...)
		if q.Reorder(0, 5) || q.Reorder(-1, 0) {
			t.Error("expected out-of-range reorder to fail")
		}
		if !equal(ids(q), []string{"A", "B"}) {
			t.Errorf("expected unchanged queue, got %v", ids(q))
		}
	})

	t.Run("Remove Before Cursor", func(t *testing.T) {
		q := New(tracks("A", "B", "C")...)
		q.SkipTo(2)

		removed, changed, ok := q.Remove(0)
		if !ok || removed.ID != "A" || changed {
			t.Errorf("unexpected result %v %v %v", removed.ID, changed, ok)
		}
		if !equal(ids(q), []string{"B", "C"}) || q.Cursor() != 1 || currentID(t, q) != "C" {
			t.Errorf("expected [B C] cursor 1, got %v cursor %d", ids(q), q.Cursor())
		}
	})

	t.Run("Remove Current", func(t *testing.T) {
		q := New(tracks("A", "B", "C")...)
		q.SkipTo(1)

		_, changed, _ := q.Remove(1)
		if !changed {
			t.Error("expected current track change to be reported")
		}
		if q.Cursor() != 1 || currentID(t, q) != "C" {
			t.Errorf("expected cursor on C, got %d", q.Cursor())
		}
	})

	t.Run("Remove Current At End", func(t *testing.T) {
		q := New(tracks("A", "B")...)
		q.SkipTo(1)
		q.Remove(1)
		if q.Cursor() != 0 || currentID(t, q) != "A" {
			t.Errorf("expected cursor clamped to 0, got %d", q.Cursor())
		}
	})

	t.Run("Remove After Cursor And Last", func(t *testing.T) {
		q := New(tracks("A", "B")...)
		if _, changed, _ := q.Remove(1); changed || q.Cursor() != 0 {
			t.Errorf("expected cursor unchanged, got %d", q.Cursor())
		}
		if _, changed, _ := q.Remove(0); !changed || q.Cursor() != -1 {
			t.Errorf("expected empty queue, got cursor %d", q.Cursor())
		}
		if _, _, ok := q.Remove(0); ok {
			t.Error("expected remove on empty queue to fail")
		}
	})

	t.Run("SkipTo", func(t *testing.T) {
		q := New(tracks("A", "B", "C")...)
		if !q.SkipTo(2) || q.Cursor() != 2 {
			t.Errorf("expected skip to 2, got %d", q.Cursor())
		}
		if q.SkipTo(3) || q.SkipTo(-1) {
			t.Error("expected out-of-range skip to fail")
		}
		if q.Cursor() != 2 {
			t.Errorf("expected cursor unchanged, got %d", q.Cursor())
		}
	})

	t.Run("Next And Prev Do Not Wrap", func(t *testing.T) {
		q := New(tracks("A", "B")...)
		if _, ok := q.Prev(); ok {
			t.Error("expected no previous track at start")
		}
		next, ok := q.Next()
		if !ok || next.ID != "B" {
			t.Errorf("expected B, got %v", next.ID)
		}
		if _, ok := q.Next(); ok {
			t.Error("expected no next track at end")
		}
		if q.Cursor() != 1 {
			t.Errorf("expected cursor to stay at 1, got %d", q.Cursor())
		}
		prev, _ := q.Prev()
		if prev.ID != "A" {
			t.Errorf("expected A, got %s", prev.ID)
		}
	})

	t.Run("Update", func(t *testing.T) {
		q := New(tracks("A", "B", "A")...)
		q.Update(models.Track{ID: "A", Title: "Renamed"})
		for _, i := range []int{0, 2} {
			if tr, _ := q.At(i); tr.Title != "Renamed" {
				t.Errorf("expected index %d renamed, got %s", i, tr.Title)
			}
		}
	})

	t.Run("Tracks Returns Copy", func(t *testing.T) {
		q := New(tracks("A")...)
		out := q.Tracks()
		out[0].Title = "changed"
		if tr, _ := q.At(0); tr.Title != "A" {
			t.Error("expected queue to be unaffected by copy mutation")
		}
	})
}
