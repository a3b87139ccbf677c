package testing

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/tapedeck/internal/audio"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// ManualScheduler runs repeating timers only when Tick is called.
type ManualScheduler struct {
	mu     sync.Mutex
	timers map[int]func()
	next   int
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(map[int]func())}
}

func (s *ManualScheduler) Repeat(_ time.Duration, tick func()) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.timers[id] = tick
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
	}
}

// Tick fires every timer active when it was called, oldest first.
func (s *ManualScheduler) Tick() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Ints(ids)

	for _, id := range ids {
		s.mu.Lock()
		fn, ok := s.timers[id]
		s.mu.Unlock()
		if ok {
			fn()
		}
	}
}

// TickN calls Tick n times.
func (s *ManualScheduler) TickN(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// Active reports the number of live timers.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// SinkCall is one recorded call on a [FakeSink].
type SinkCall struct {
	Op     string
	Volume float64
}

// FakeSink is an in-memory [audio.Sink] that records every call.
type FakeSink struct {
	mu       sync.Mutex
	volume   float64
	playing  bool
	loaded   bool
	position float64
	gen      uint64
	events   chan audio.Event

	Calls    []SinkCall
	Volumes  []float64
	Media    []audio.Media
	PlayErr  error
	LoadErr  error
	Closed   bool
	Seeks    []float64
	Length   float64
}

// NewFakeSink creates a FakeSink whose loaded media report duration seconds.
func NewFakeSink(duration float64) *FakeSink {
	return &FakeSink{volume: 1, Length: duration, events: make(chan audio.Event, 16)}
}

func (s *FakeSink) record(op string) {
	s.Calls = append(s.Calls, SinkCall{Op: op, Volume: s.volume})
}

func (s *FakeSink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *FakeSink) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
	s.Volumes = append(s.Volumes, v)
}

func (s *FakeSink) Load(m audio.Media) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		if m.Reader != nil {
			m.Reader.Close()
		}
		return 0, s.LoadErr
	}
	if len(s.Media) > 0 {
		if prev := s.Media[len(s.Media)-1].Reader; prev != nil {
			prev.Close()
		}
	}
	s.gen++
	s.loaded = true
	s.playing = false
	s.position = m.Start
	s.Media = append(s.Media, m)
	s.record("load")
	return s.gen, nil
}

func (s *FakeSink) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loaded = false
	s.playing = false
	s.record("unload")
}

func (s *FakeSink) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("play")
	if s.PlayErr != nil {
		return s.PlayErr
	}
	if !s.loaded {
		return fmt.Errorf("%w: nothing loaded", shared.ErrPlaybackDevice)
	}
	s.playing = true
	return nil
}

func (s *FakeSink) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.record("pause")
	return nil
}

func (s *FakeSink) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *FakeSink) Seek(secs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = secs
	s.Seeks = append(s.Seeks, secs)
	s.record("seek")
	return nil
}

func (s *FakeSink) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// SetPosition moves the playhead as if audio had played.
func (s *FakeSink) SetPosition(secs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = secs
}

func (s *FakeSink) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return 0
	}
	return s.Length
}

func (s *FakeSink) Events() <-chan audio.Event { return s.events }

// Generation returns the generation of the current load.
func (s *FakeSink) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// End builds an end-of-media event for the current load.
func (s *FakeSink) End() audio.Event {
	return audio.Event{Kind: audio.EventEnded, Generation: s.Generation()}
}

func (s *FakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	s.loaded = false
	s.playing = false
	return nil
}

// Ops returns the recorded operation names in order.
func (s *FakeSink) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]string, len(s.Calls))
	for i, c := range s.Calls {
		ops[i] = c.Op
	}
	return ops
}

// FakeBackend is an [audio.GraphBackend] that counts edges.
type FakeBackend struct {
	Nodes     map[audio.Node]bool
	Edges     map[audio.Edge]int
	Params    models.EffectParams
	Env       models.Environment
	Applied   int
	Torn      int
	CreateErr error
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{Nodes: map[audio.Node]bool{}, Edges: map[audio.Edge]int{}}
}

func (b *FakeBackend) CreateNode(n audio.Node) error {
	if b.CreateErr != nil {
		return b.CreateErr
	}
	b.Nodes[n] = true
	return nil
}

func (b *FakeBackend) Connect(from, to audio.Node) error {
	b.Edges[audio.Edge{From: from, To: to}]++
	return nil
}

func (b *FakeBackend) Disconnect(from, to audio.Node) error {
	e := audio.Edge{From: from, To: to}
	if b.Edges[e]--; b.Edges[e] <= 0 {
		delete(b.Edges, e)
	}
	return nil
}

func (b *FakeBackend) ApplyEffects(p models.EffectParams, env models.Environment) error {
	b.Applied++
	b.Params, b.Env = p, env
	return nil
}

func (b *FakeBackend) Teardown() {
	b.Torn++
	b.Nodes = map[audio.Node]bool{}
	b.Edges = map[audio.Edge]int{}
}

// MemoryStore is an in-memory persistence store and blob store with failure injection.
type MemoryStore struct {
	mu        sync.Mutex
	tracks    map[string]models.Track
	order     []string
	folders   map[string]models.Folder
	playlists map[string]models.Playlist
	presets   map[string]models.EffectPreset
	blobs     map[string][]byte
	mimes     map[string]string
	nextID    int

	SaveErr      error
	PutBlobErr   error
	DeleteErr    error
	SaveCalls    int
	DeletedBlobs []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tracks:    map[string]models.Track{},
		folders:   map[string]models.Folder{},
		playlists: map[string]models.Playlist{},
		presets:   map[string]models.EffectPreset{},
		blobs:     map[string][]byte{},
		mimes:     map[string]string{},
	}
}

func (m *MemoryStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *MemoryStore) persistErr(err error) error {
	return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
}

func (m *MemoryStore) GetAllTracks() ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tracks := make([]models.Track, 0, len(m.order))
	for _, id := range m.order {
		if t, ok := m.tracks[id]; ok {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

func (m *MemoryStore) GetTrack(id string) (*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracks[id]
	if !ok {
		return nil, m.persistErr(fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id))
	}
	return &t, nil
}

func (m *MemoryStore) SaveTrack(track *models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.persistErr(m.SaveErr)
	}
	if track.ID == "" {
		track.ID = m.id("track")
	}
	if _, ok := m.tracks[track.ID]; !ok {
		m.order = append(m.order, track.ID)
	}
	m.tracks[track.ID] = *track
	return nil
}

func (m *MemoryStore) DeleteTrack(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tracks[id]; !ok {
		return m.persistErr(fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id))
	}
	delete(m.tracks, id)
	return nil
}

func (m *MemoryStore) GetFolders() ([]models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Folder{}
	for _, f := range m.folders {
		out = append(out, f)
	}
	return out, nil
}

func (m *MemoryStore) SaveFolder(folder *models.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if folder.ID == "" {
		folder.ID = m.id("folder")
	}
	m.folders[folder.ID] = *folder
	return nil
}

func (m *MemoryStore) DeleteFolder(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.folders, id)
	return nil
}

func (m *MemoryStore) GetPlaylists() ([]models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Playlist{}
	for _, p := range m.playlists {
		out = append(out, p)
	}
	return out, nil
}

func (m *MemoryStore) SavePlaylist(playlist *models.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if playlist.ID == "" {
		playlist.ID = m.id("playlist")
	}
	m.playlists[playlist.ID] = *playlist
	return nil
}

func (m *MemoryStore) DeletePlaylist(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.playlists, id)
	return nil
}

func (m *MemoryStore) GetPresets() ([]models.EffectPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.EffectPreset{}
	for _, p := range m.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) SavePreset(preset *models.EffectPreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.persistErr(m.SaveErr)
	}
	if preset.ID == "" {
		for _, p := range m.presets {
			if p.Name == preset.Name {
				preset.ID = p.ID
			}
		}
	}
	if preset.ID == "" {
		preset.ID = m.id("preset")
	}
	m.presets[preset.ID] = *preset
	return nil
}

func (m *MemoryStore) DeletePreset(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.presets[id]; !ok {
		return m.persistErr(fmt.Errorf("%w: %s", shared.ErrPresetNotFound, id))
	}
	delete(m.presets, id)
	return nil
}

func (m *MemoryStore) GetBlob(id string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[id]
	if !ok {
		return nil, "", m.persistErr(fmt.Errorf("%w: %s", shared.ErrBlobNotFound, id))
	}
	return data, m.mimes[id], nil
}

func (m *MemoryStore) PutBlob(data []byte, mimeType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutBlobErr != nil {
		return "", m.persistErr(m.PutBlobErr)
	}
	id := m.id("blob")
	m.blobs[id] = data
	m.mimes[id] = mimeType
	return id, nil
}

func (m *MemoryStore) DeleteBlob(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedBlobs = append(m.DeletedBlobs, id)
	if m.DeleteErr != nil {
		return m.persistErr(m.DeleteErr)
	}
	if _, ok := m.blobs[id]; !ok {
		return m.persistErr(fmt.Errorf("%w: %s", shared.ErrBlobNotFound, id))
	}
	delete(m.blobs, id)
	delete(m.mimes, id)
	return nil
}

// HasBlob reports whether a blob is stored under id.
func (m *MemoryStore) HasBlob(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[id]
	return ok
}

// BlobCount reports the number of stored blobs.
func (m *MemoryStore) BlobCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
