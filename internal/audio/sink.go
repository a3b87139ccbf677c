package audio

import (
	"bytes"
	"fmt"
	"io"
)

// Media is a decodable audio stream handed to a [Sink].
//
// Start and End bound the playable window in seconds; End of 0 plays to the natural end.
type Media struct {
	Reader   io.ReadCloser
	MimeType string
	Start    float64
	End      float64
}

// EventKind classifies sink events.
type EventKind int

const (
	// EventEnded fires when the loaded media reaches its end (or the end of its window).
	EventEnded EventKind = iota
	// EventError fires when decoding or output fails mid-stream.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is an asynchronous notification from a [Sink].
// Generation identifies the Load the event belongs to so stale events can be dropped.
type Event struct {
	Kind       EventKind
	Generation uint64
	Err        error
}

// Sink is the single audible output the engine drives.
type Sink interface {
	VolumeControl
	// Load replaces the current media, closing the previous reader, and returns the load generation.
	Load(m Media) (uint64, error)
	// Unload stops output and releases the current media.
	Unload()
	Play() error
	Pause() error
	Playing() bool
	Seek(seconds float64) error
	Position() float64
	Duration() float64
	Events() <-chan Event
	Close() error
}

// bytesReader is a seekable in-memory reader; decoders need Seek for seeking within media.
type bytesReader struct {
	*bytes.Reader
}

func (bytesReader) Close() error { return nil }

// BytesMedia wraps in-memory audio bytes as seekable [Media].
func BytesMedia(data []byte, mimeType string) Media {
	return Media{Reader: bytesReader{bytes.NewReader(data)}, MimeType: mimeType}
}
