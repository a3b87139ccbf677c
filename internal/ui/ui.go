package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/player"
	"github.com/desertthunder/tapedeck/internal/shared"
)

const (
	tickInterval = 250 * time.Millisecond
	seekStep     = 5.0
	volumeStep   = 0.05
	barWidth     = 40
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	QueueView
)

// Player is the engine surface driven by the TUI.
type Player interface {
	Snapshot() player.Snapshot
	Settings() player.Settings
	Library() []models.Track
	Queue() []models.Track
	Notifications() <-chan player.Notification
	TogglePlay(ctx context.Context) error
	PlayNext(ctx context.Context) error
	PlayPrev(ctx context.Context) error
	Seek(t float64) error
	SeekToCue(i int) error
	SkipTo(ctx context.Context, i int) (bool, error)
	ReplaceQueue(tracks []models.Track)
	Enqueue(tracks ...models.Track)
	RemoveAt(i int) bool
	Reorder(from, to int) bool
	SetVolume(v float64) error
	SetEnvironment(env models.Environment) error
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	player    Player
	width     int
	height    int
	library   list.Model
	queue     list.Model
	snapshot  player.Snapshot
	env       models.Environment
	status    string
	err       error
	help      help.Model
	keys      keyMap
	listening bool
}

// NewModel creates a new TUI model over p.
func NewModel(ctx context.Context, p Player) *Model {
	m := &Model{
		ctx:    ctx,
		view:   LibraryView,
		player: p,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.library = newTrackList("Library", nil, 0, 0)
	m.queue = newTrackList("Queue", nil, 0, 0)
	m.refresh()
	return m
}

// Init starts the ticker and the notification listener.
func (m *Model) Init() tea.Cmd {
	m.listening = true
	return tea.Batch(m.tick(), m.waitForNotification())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.library.SetSize(msg.Width-4, msg.Height-10)
		m.queue.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTick:
		m.refresh()
		return m, m.tick()

	case MsgNotification:
		n := msg.data.(player.Notification)
		m.status = describe(n)
		if n.Kind == player.NotifyError {
			m.err = n.Err
		}
		m.refresh()
		return m, m.waitForNotification()

	case MsgNotificationsClosed:
		m.listening = false
		return m, nil

	case MsgCommandDone:
		data := msg.data.(struct {
			op  string
			err error
		})
		if data.err != nil && !errors.Is(data.err, shared.ErrSuperseded) {
			m.err = fmt.Errorf("%s: %w", data.op, data.err)
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

// View renders the now-playing header, the active list and help.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n\n")

	switch m.view {
	case LibraryView:
		b.WriteString(m.library.View())
	case QueueView:
		b.WriteString(m.queue.View())
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(styles.err.Render("Error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(styles.help.Render(m.status) + "\n")
	}
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.activeList().FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.switchTo):
		if m.view == LibraryView {
			m.view = QueueView
		} else {
			m.view = LibraryView
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		return m, m.run("toggle", func(ctx context.Context) error { return m.player.TogglePlay(ctx) })
	case key.Matches(msg, m.keys.next):
		return m, m.run("next", func(ctx context.Context) error { return m.player.PlayNext(ctx) })
	case key.Matches(msg, m.keys.prev):
		return m, m.run("prev", func(ctx context.Context) error { return m.player.PlayPrev(ctx) })
	case key.Matches(msg, m.keys.forward):
		m.setErr(m.player.Seek(m.snapshot.CurrentTime + seekStep))
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.rewind):
		m.setErr(m.player.Seek(m.snapshot.CurrentTime - seekStep))
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.cue):
		if i, ok := nextCue(m.snapshot); ok {
			m.setErr(m.player.SeekToCue(i))
			m.refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.louder):
		m.setErr(m.player.SetVolume(m.player.Settings().Volume + volumeStep))
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.quieter):
		m.setErr(m.player.SetVolume(m.player.Settings().Volume - volumeStep))
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.env):
		m.setErr(m.player.SetEnvironment(cycleEnvironment(m.player.Settings().Environment)))
		m.refresh()
		return m, nil
	}

	switch m.view {
	case LibraryView:
		return m.handleLibraryKeys(msg)
	case QueueView:
		return m.handleQueueKeys(msg)
	}
	return m, nil
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		item, ok := m.library.SelectedItem().(trackItem)
		if !ok {
			return m, nil
		}
		tracks := m.player.Library()
		i := slices.IndexFunc(tracks, func(t models.Track) bool { return t.ID == item.track.ID })
		if i < 0 {
			return m, nil
		}
		m.player.ReplaceQueue(tracks)
		m.refresh()
		return m, m.run("play", func(ctx context.Context) error {
			_, err := m.player.SkipTo(ctx, i)
			return err
		})
	case key.Matches(msg, m.keys.enqueue):
		if item, ok := m.library.SelectedItem().(trackItem); ok {
			m.player.Enqueue(item.track)
			m.status = fmt.Sprintf("Queued %s", item.track.Title)
			m.refresh()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.library, cmd = m.library.Update(msg)
	return m, cmd
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	i := m.queue.Index()
	switch {
	case key.Matches(msg, m.keys.enter):
		return m, m.run("skip", func(ctx context.Context) error {
			_, err := m.player.SkipTo(ctx, i)
			return err
		})
	case key.Matches(msg, m.keys.remove):
		m.player.RemoveAt(i)
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.player.Reorder(i, i-1) {
			m.refresh()
			m.queue.Select(i - 1)
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.player.Reorder(i, i+1) {
			m.refresh()
			m.queue.Select(i + 1)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LibraryView:
		m.library, cmd = m.library.Update(msg)
	case QueueView:
		m.queue, cmd = m.queue.Update(msg)
	}
	return m, cmd
}

func (m *Model) activeList() *list.Model {
	if m.view == QueueView {
		return &m.queue
	}
	return &m.library
}

// refresh copies the engine snapshot and rebuilds the list items.
func (m *Model) refresh() {
	m.snapshot = m.player.Snapshot()
	m.env = m.player.Settings().Environment

	cur := -1
	if m.snapshot.CurrentTrack != nil {
		cur = slices.IndexFunc(m.player.Library(), func(t models.Track) bool { return t.ID == m.snapshot.CurrentTrack.ID })
	}
	m.library.SetItems(trackItems(m.player.Library(), cur))
	m.queue.SetItems(trackItems(m.player.Queue(), m.snapshot.Cursor))
	m.queue.Title = fmt.Sprintf("Queue (%s)", countLabel(m.snapshot.QueueLength, "track"))
}

func (m *Model) setErr(err error) {
	if err != nil {
		m.err = err
	}
}

// run executes a transport command off the update loop.
func (m *Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	m.err = nil
	return func() tea.Msg {
		return commandDoneMsg(op, fn(m.ctx))
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg() })
}

func (m *Model) waitForNotification() tea.Cmd {
	ch := m.player.Notifications()
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return notificationsClosedMsg()
		}
		return notificationMsg(n)
	}
}

func (m *Model) helpKeys() []key.Binding {
	keys := []key.Binding{m.keys.toggle, m.keys.next, m.keys.prev, m.keys.forward, m.keys.louder, m.keys.env}
	switch m.view {
	case LibraryView:
		keys = append(keys, m.keys.enter, m.keys.enqueue)
	case QueueView:
		keys = append(keys, m.keys.enter, m.keys.remove, m.keys.moveUp, m.keys.moveDown)
	}
	return append(keys, m.keys.switchTo, m.keys.quit)
}

func (m *Model) renderNowPlaying() string {
	s := m.snapshot
	title := styles.title.Render("tapedeck")

	if s.CurrentTrack == nil {
		return fmt.Sprintf("%s\n%s", title, styles.help.Render("Nothing playing"))
	}

	state := styles.warn.Render(s.State.String())
	if s.IsPlaying {
		state = styles.active.Render(s.State.String())
	}

	name := s.CurrentTrack.Title
	if s.CurrentTrack.Composer != "" {
		name = s.CurrentTrack.Composer + " - " + name
	}

	return fmt.Sprintf(
		"%s\n%s %s\n%s %s / %s\nvolume %3.0f%%  env %s",
		title,
		state, styles.track.Render(name),
		styles.bar.Render(progressBar(s.CurrentTime, s.Duration, barWidth)),
		shared.FormatDuration(s.CurrentTime), shared.FormatDuration(s.Duration),
		s.Volume*100, m.env,
	)
}

// progressBar renders pos/total as a fixed-width bar.
func progressBar(pos, total float64, width int) string {
	filled := 0
	if total > 0 {
		filled = int(shared.Clamp(pos/total, 0, 1) * float64(width))
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// nextCue returns the index of the first cue point after the playhead.
func nextCue(s player.Snapshot) (int, bool) {
	if s.CurrentTrack == nil {
		return 0, false
	}
	for i, p := range s.CurrentTrack.CuePoints {
		if p > s.CurrentTime+0.5 {
			return i, true
		}
	}
	return 0, false
}

func cycleEnvironment(env models.Environment) models.Environment {
	i := slices.Index(models.Environments, env)
	return models.Environments[(i+1)%len(models.Environments)]
}

func describe(n player.Notification) string {
	switch n.Kind {
	case player.NotifyTrackStarted:
		return "Playing " + n.TrackID
	case player.NotifyTrackEnded:
		return "Finished " + n.TrackID
	case player.NotifyQueueEnded:
		return "End of queue"
	case player.NotifyError:
		return "Playback error"
	default:
		return ""
	}
}
