package models

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/tapedeck/internal/shared"
)

func validTrack() *Track {
	track := NewTrack("Clair de Lune", LocalBlob{BlobID: "blob-1"})
	track.ID = "track-1"
	track.Duration = 300
	return track
}

func TestTrackValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Track)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Track) {}},
		{name: "missing id", mutate: func(tr *Track) { tr.ID = "" }, wantErr: true},
		{name: "missing title", mutate: func(tr *Track) { tr.Title = "" }, wantErr: true},
		{name: "negative duration", mutate: func(tr *Track) { tr.Duration = -1 }, wantErr: true},
		{name: "nan gain", mutate: func(tr *Track) { tr.Gain = math.NaN() }, wantErr: true},
		{name: "offline without blob", mutate: func(tr *Track) { tr.Offline = true }, wantErr: true},
		{name: "offline blob without flag", mutate: func(tr *Track) { tr.OfflineBlobID = "b" }, wantErr: true},
		{name: "offline with blob", mutate: func(tr *Track) { tr.Offline, tr.OfflineBlobID = true, "b" }},
		{name: "no source", mutate: func(tr *Track) { tr.Source = nil }},
		{name: "empty cloud ref", mutate: func(tr *Track) { tr.Source = CloudRef{Provider: "drive"} }, wantErr: true},
		{name: "empty url", mutate: func(tr *Track) { tr.Source = RemoteURL{} }, wantErr: true},
		{name: "trim start after end", mutate: func(tr *Track) { tr.Trim = Trim{Start: 100, End: 50} }, wantErr: true},
		{name: "trim start equals duration", mutate: func(tr *Track) { tr.Trim = Trim{Start: 300} }, wantErr: true},
		{name: "trim end past duration", mutate: func(tr *Track) { tr.Trim = Trim{End: 301} }, wantErr: true},
		{name: "trim window", mutate: func(tr *Track) { tr.Trim = Trim{Start: 10, End: 200} }},
		{name: "cue out of range", mutate: func(tr *Track) { tr.CuePoints = []float64{301} }, wantErr: true},
		{name: "cues unsorted", mutate: func(tr *Track) { tr.CuePoints = []float64{20, 10} }, wantErr: true},
		{name: "cues sorted", mutate: func(tr *Track) { tr.CuePoints = []float64{0, 10, 300} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := validTrack()
			tt.mutate(track)

			err := track.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTrackCuePoints(t *testing.T) {
	t.Run("sorts and deduplicates", func(t *testing.T) {
		track := validTrack()
		if err := track.SetCuePoints([]float64{90, 10, 45, 10}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []float64{10, 45, 90}
		if !reflect.DeepEqual(track.CuePoints, want) {
			t.Errorf("expected %v, got %v", want, track.CuePoints)
		}
	})

	t.Run("rejects out of range", func(t *testing.T) {
		track := validTrack()
		track.CuePoints = []float64{5}
		for _, p := range []float64{-1, 301, math.Inf(1), math.NaN()} {
			if err := track.SetCuePoints([]float64{p}); err == nil {
				t.Errorf("expected error for cue point %v", p)
			}
		}

		if !reflect.DeepEqual(track.CuePoints, []float64{5}) {
			t.Errorf("rejected update should leave cue points unchanged, got %v", track.CuePoints)
		}
	})
}

func TestTrackTrim(t *testing.T) {
	track := validTrack()

	if track.EndTime() != 300 {
		t.Errorf("expected full duration end, got %v", track.EndTime())
	}

	if err := track.SetTrim(15, 120); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if track.EndTime() != 120 {
		t.Errorf("expected trimmed end 120, got %v", track.EndTime())
	}

	if err := track.SetTrim(130, 120); err == nil {
		t.Error("expected error for inverted trim window")
	}
	if track.Trim.Start != 15 {
		t.Errorf("rejected trim should leave window unchanged, got %+v", track.Trim)
	}
}

func TestTrackJSON(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	sources := []Source{
		LocalBlob{BlobID: "blob-1"},
		CloudRef{Provider: "drive", FileID: "file-9"},
		RemoteURL{URL: "https://example.com/a.mp3"},
		nil,
	}

	for _, src := range sources {
		t.Run(string(KindOf(src))+" round trip", func(t *testing.T) {
			track := Track{
				ID:            "track-1",
				Title:         "Gymnopedie No. 1",
				Composer:      "Satie",
				Album:         "Piano Works",
				Genre:         "Classical",
				BPM:           66,
				TonalKey:      "D major",
				Duration:      190.5,
				Source:        src,
				CuePoints:     []float64{12.5, 60},
				Trim:          Trim{Start: 2, End: 180},
				Offline:       true,
				OfflineBlobID: "offline-1",
				Gain:          0.75,
				CreatedAt:     created,
				UpdatedAt:     created.Add(time.Hour),
			}

			data, err := json.Marshal(track)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}

			var decoded Track
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}

			if !reflect.DeepEqual(track, decoded) {
				t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", track, decoded)
			}
		})
	}

	t.Run("tagged source shape", func(t *testing.T) {
		track := validTrack()
		track.Source = CloudRef{Provider: "drive", FileID: "abc"}

		data, err := json.Marshal(track)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		src, ok := raw["source"].(map[string]any)
		if !ok {
			t.Fatalf("expected source object, got %v", raw["source"])
		}
		if src["kind"] != "cloud" || src["file_id"] != "abc" {
			t.Errorf("unexpected source shape: %v", src)
		}
	})

	t.Run("tonal key keeps its json name", func(t *testing.T) {
		track := validTrack()
		track.TonalKey = "F minor"

		data, err := json.Marshal(track)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if raw["key"] != "F minor" {
			t.Errorf("expected key F minor, got %v", raw["key"])
		}
		if track.Key() != track.ID {
			t.Errorf("expected model key %q, got %q", track.ID, track.Key())
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		var track Track
		err := json.Unmarshal([]byte(`{"id":"x","source":{"kind":"tape"}}`), &track)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestParseCurveAndEnvironment(t *testing.T) {
	t.Run("curves", func(t *testing.T) {
		for _, name := range []string{"linear", "Exponential", " smooth "} {
			if _, err := ParseCurve(name); err != nil {
				t.Errorf("ParseCurve(%q) failed: %v", name, err)
			}
		}
		if _, err := ParseCurve("cubic"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("environments", func(t *testing.T) {
		env, err := ParseEnvironment("")
		if err != nil || env != EnvNone {
			t.Errorf("expected none for empty input, got %q, %v", env, err)
		}
		if env, _ := ParseEnvironment("CATHEDRAL"); env != EnvCathedral || !env.Wet() {
			t.Errorf("expected wet cathedral, got %q", env)
		}
		if _, err := ParseEnvironment("stadium"); err == nil {
			t.Error("expected error for unknown environment")
		}
	})
}

func TestEffectParamsClamped(t *testing.T) {
	p := EffectParams{
		ReverbMix:     1.5,
		ReverbDecay:   -1,
		DelayMix:      math.NaN(),
		DelayTime:     5,
		DelayFeedback: 1,
		Distortion:    0.5,
		BassBoost:     20,
		Normalize:     true,
	}.Clamped()

	want := EffectParams{
		ReverbMix:     1,
		ReverbDecay:   0,
		DelayMix:      0,
		DelayTime:     MaxDelayTime,
		DelayFeedback: MaxDelayFeedback,
		Distortion:    0.5,
		BassBoost:     MaxBassBoost,
		Normalize:     true,
	}
	if p != want {
		t.Errorf("expected %+v, got %+v", want, p)
	}
}

func TestPlaylistAdd(t *testing.T) {
	p := NewPlaylist("Mix", "")
	p.Add("a", "b", "a")
	p.Add("b", "c")

	if !reflect.DeepEqual(p.TrackIDs, []string{"a", "b", "c"}) {
		t.Errorf("unexpected track ids: %v", p.TrackIDs)
	}
}

func TestPlaylistRemove(t *testing.T) {
	p := NewPlaylist("Mix", "")
	p.Add("a", "b", "c")

	if !p.Remove("b") {
		t.Error("expected b to be removed")
	}
	if p.Remove("z") {
		t.Error("removing an absent id should report false")
	}
	if !reflect.DeepEqual(p.TrackIDs, []string{"a", "c"}) {
		t.Errorf("unexpected track ids: %v", p.TrackIDs)
	}
}

func TestFolderAdd(t *testing.T) {
	f := NewFolder("Piano", "")
	f.Add("a", "a", "b")

	if !reflect.DeepEqual(f.TrackIDs, []string{"a", "b"}) {
		t.Errorf("unexpected track ids: %v", f.TrackIDs)
	}
}
