package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"testing"

	"github.com/gopxl/beep/v2"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// pullOutput stands in for the speaker; the test pulls samples by hand.
type pullOutput struct {
	mu       sync.Mutex
	streamer beep.Streamer
	initErr  error
	cleared  bool
}

func (o *pullOutput) Init(beep.SampleRate, int) error { return o.initErr }
func (o *pullOutput) Play(s beep.Streamer)            { o.streamer = s }
func (o *pullOutput) Lock()                           { o.mu.Lock() }
func (o *pullOutput) Unlock()                         { o.mu.Unlock() }
func (o *pullOutput) Clear()                          { o.cleared = true }

func (o *pullOutput) pull(n int) [][2]float64 {
	buf := make([][2]float64, n)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streamer.Stream(buf)
	return buf
}

// wavMedia builds a 16-bit stereo PCM WAV of constant amplitude.
func wavMedia(t *testing.T, seconds float64, amplitude float64) Media {
	t.Helper()
	return BytesMedia(wavBytes(seconds, amplitude), "audio/wav")
}

func wavBytes(seconds float64, amplitude float64) []byte {
	const rate = 44100
	frames := int(seconds * rate)
	sample := int16(amplitude * math.MaxInt16)

	var data bytes.Buffer
	for i := 0; i < frames; i++ {
		binary.Write(&data, binary.LittleEndian, sample)
		binary.Write(&data, binary.LittleEndian, sample)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*4))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	return buf.Bytes()
}

func TestDevice(t *testing.T) {
	t.Run("Plays At The Set Volume", func(t *testing.T) {
		out := &pullOutput{}
		d := NewDeviceWithOutput(out, nil)

		if _, err := d.Load(wavMedia(t, 0.5, 0.5)); err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if d.Playing() {
			t.Error("device should be paused after load")
		}

		silent := out.pull(64)
		if silent[10][0] != 0 {
			t.Errorf("paused device should be silent, got %v", silent[10][0])
		}

		d.SetVolume(0.5)
		if err := d.Play(); err != nil {
			t.Fatalf("failed to play: %v", err)
		}

		buf := out.pull(64)
		if got := buf[10][0]; math.Abs(got-0.25) > 0.01 {
			t.Errorf("expected amplitude near 0.25, got %v", got)
		}
		if math.Abs(d.Duration()-0.5) > 0.01 {
			t.Errorf("expected duration 0.5, got %v", d.Duration())
		}
	})

	t.Run("Reports End Once With Generation", func(t *testing.T) {
		out := &pullOutput{}
		d := NewDeviceWithOutput(out, nil)

		gen, err := d.Load(wavMedia(t, 0.1, 0.2))
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if err := d.Play(); err != nil {
			t.Fatalf("failed to play: %v", err)
		}

		out.pull(44100)
		out.pull(1024)

		select {
		case ev := <-d.Events():
			if ev.Kind != EventEnded || ev.Generation != gen {
				t.Errorf("unexpected event %+v", ev)
			}
		default:
			t.Fatal("expected end event")
		}

		select {
		case ev := <-d.Events():
			t.Errorf("unexpected second event %+v", ev)
		default:
		}
	})

	t.Run("Trim Window", func(t *testing.T) {
		out := &pullOutput{}
		d := NewDeviceWithOutput(out, nil)

		m := wavMedia(t, 1, 0.2)
		m.Start, m.End = 0.25, 0.5
		if _, err := d.Load(m); err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if pos := d.Position(); math.Abs(pos-0.25) > 0.01 {
			t.Errorf("expected start at 0.25, got %v", pos)
		}

		d.Play()
		for i := 0; i < 20; i++ {
			out.pull(1024)
		}

		select {
		case ev := <-d.Events():
			if ev.Kind != EventEnded {
				t.Errorf("expected end event, got %+v", ev)
			}
		default:
			t.Fatal("expected end at trim window")
		}
	})

	t.Run("Seek Clamps", func(t *testing.T) {
		out := &pullOutput{}
		d := NewDeviceWithOutput(out, nil)
		if _, err := d.Load(wavMedia(t, 1, 0.2)); err != nil {
			t.Fatalf("failed to load: %v", err)
		}

		if err := d.Seek(0.5); err != nil {
			t.Fatalf("seek failed: %v", err)
		}
		if pos := d.Position(); math.Abs(pos-0.5) > 0.01 {
			t.Errorf("expected position 0.5, got %v", pos)
		}

		if err := d.Seek(10); err != nil {
			t.Fatalf("seek failed: %v", err)
		}
		if pos := d.Position(); pos > 1 {
			t.Errorf("expected clamped position, got %v", pos)
		}
	})

	t.Run("Decode Failure Is A Device Error", func(t *testing.T) {
		d := NewDeviceWithOutput(&pullOutput{}, nil)
		_, err := d.Load(Media{Reader: io.NopCloser(bytes.NewReader([]byte("not audio"))), MimeType: "audio/wav"})
		if !errors.Is(err, shared.ErrPlaybackDevice) {
			t.Errorf("expected ErrPlaybackDevice, got %v", err)
		}
	})

	t.Run("Speaker Init Failure", func(t *testing.T) {
		d := NewDeviceWithOutput(&pullOutput{initErr: errors.New("no device")}, nil)
		_, err := d.Load(wavMedia(t, 0.1, 0.1))
		if !errors.Is(err, shared.ErrPlaybackDevice) {
			t.Errorf("expected ErrPlaybackDevice, got %v", err)
		}
	})

	t.Run("Play With Nothing Loaded", func(t *testing.T) {
		d := NewDeviceWithOutput(&pullOutput{}, nil)
		if err := d.Play(); !errors.Is(err, shared.ErrPlaybackDevice) {
			t.Errorf("expected ErrPlaybackDevice, got %v", err)
		}
	})

	t.Run("Graph Backend Routing", func(t *testing.T) {
		out := &pullOutput{}
		d := NewDeviceWithOutput(out, nil)
		g := NewGraph(d, nil)

		if _, err := d.Load(wavMedia(t, 0.5, 0.5)); err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		d.Play()
		g.Build()

		dry := out.pull(64)
		if math.Abs(dry[10][0]-0.5) > 0.01 {
			t.Errorf("expected dry signal, got %v", dry[10][0])
		}

		g.SetEnvironment(models.EnvCathedral)
		if !d.router.wet() || !d.router.srcToGain {
			t.Error("expected wet and dry paths on the device")
		}

		d.Disconnect(NodeGain, NodeDestination)
		muted := out.pull(64)
		if muted[10][0] != 0 {
			t.Errorf("expected silence without destination edge, got %v", muted[10][0])
		}

		g.Close()
		if !d.router.bypass {
			t.Error("expected bypass after teardown")
		}
	})
}
