package audio

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/v2/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/desertthunder/tapedeck/internal/shared"
)

const (
	MimeMP3 = "audio/mpeg"
	MimeWAV = "audio/wav"
)

// Metadata is what can be learned about an audio file before it is added to the library.
type Metadata struct {
	Title    string
	Composer string
	Album    string
	Genre    string
	Duration float64
	MimeType string
}

// MimeFromPath returns the mime type for a supported audio file extension.
func MimeFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return MimeMP3, nil
	case ".wav", ".wave":
		return MimeWAV, nil
	default:
		return "", fmt.Errorf("%w: unsupported audio file %q", shared.ErrInvalidArgument, filepath.Base(path))
	}
}

// Probe reads tags and measures the duration of data.
//
// Missing or unreadable tags are not an error; the title falls back to the file name without extension.
func Probe(data []byte, path string) (*Metadata, error) {
	mimeType, err := MimeFromPath(path)
	if err != nil {
		return nil, err
	}

	md := &Metadata{MimeType: mimeType}
	if tags, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		md.Title = strings.TrimSpace(tags.Title())
		md.Composer = strings.TrimSpace(tags.Composer())
		if md.Composer == "" {
			md.Composer = strings.TrimSpace(tags.Artist())
		}
		md.Album = strings.TrimSpace(tags.Album())
		md.Genre = strings.TrimSpace(tags.Genre())
	}
	if md.Title == "" {
		base := filepath.Base(path)
		md.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	md.Duration, err = ProbeDuration(data, mimeType)
	if err != nil {
		return nil, err
	}
	return md, nil
}

// ProbeDuration decodes just enough of data to report its length in seconds.
func ProbeDuration(data []byte, mimeType string) (float64, error) {
	switch mimeType {
	case MimeMP3:
		d, err := gomp3.NewDecoder(bytes.NewReader(data))
		if err != nil {
			return 0, fmt.Errorf("%w: invalid mp3: %v", shared.ErrInvalidInput, err)
		}
		if d.SampleRate() <= 0 || d.Length() < 0 {
			return 0, nil
		}
		// go-mp3 decodes to 16-bit stereo: four bytes per sample frame.
		return float64(d.Length()) / 4 / float64(d.SampleRate()), nil
	case MimeWAV:
		s, format, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return 0, fmt.Errorf("%w: invalid wav: %v", shared.ErrInvalidInput, err)
		}
		defer s.Close()
		return format.SampleRate.D(s.Len()).Seconds(), nil
	default:
		return 0, fmt.Errorf("%w: unsupported mime type %q", shared.ErrInvalidArgument, mimeType)
	}
}
