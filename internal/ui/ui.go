package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songbook/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	DetailView
	ConfirmDeleteView
)

// Catalog is the part of the song catalog the browser needs.
type Catalog interface {
	List(ctx context.Context) ([]models.SongView, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	catalog  Catalog
	width    int
	height   int
	songList list.Model
	songs    []models.SongView
	selected *models.SongView
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model over catalog.
func NewModel(ctx context.Context, catalog Catalog) *Model {
	songList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	songList.Title = "Songbook"
	songList.SetShowHelp(false)

	return &Model{
		ctx:      ctx,
		view:     SongListView,
		catalog:  catalog,
		songList: songList,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by loading the catalog.
func (m *Model) Init() tea.Cmd {
	return m.fetchSongs()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SongListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSongsFetched:
		data := msg.data.(songsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.songs = data.songs
		m.songList.Title = fmt.Sprintf("Songbook (%d songs)", len(data.songs))
		return m, m.songList.SetItems(songItems(data.songs))

	case MsgSongDeleted:
		data := msg.data.(songDeleted)
		m.view = SongListView
		m.selected = nil
		switch {
		case data.err != nil:
			m.err = data.err
			return m, nil
		case data.deleted:
			m.status = styles.ok.Render(fmt.Sprintf("✓ Deleted %q", data.title))
		default:
			m.status = styles.warn.Render(fmt.Sprintf("%q was already gone", data.title))
		}
		return m, m.fetchSongs()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" +
			m.help.ShortHelpView([]key.Binding{m.keys.refresh, m.keys.quit})
	}

	switch m.view {
	case SongListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case ConfirmDeleteView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.err = nil
		m.status = ""
		return m, m.fetchSongs()
	case m.err != nil:
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.selectCurrent() {
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if m.selectCurrent() {
			m.view = ConfirmDeleteView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SongListView
		m.selected = nil
	case key.Matches(msg, m.keys.delete):
		m.view = ConfirmDeleteView
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.deleteSong(*m.selected)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = DetailView
	}
	return m, nil
}

// selectCurrent remembers the highlighted song and reports whether there was one.
func (m *Model) selectCurrent() bool {
	item, ok := m.songList.SelectedItem().(songItem)
	if !ok {
		return false
	}
	song := item.song
	m.selected = &song
	return true
}

func (m *Model) fetchSongs() tea.Cmd {
	return func() tea.Msg {
		songs, err := m.catalog.List(m.ctx)
		return songsFetchedMsg(songs, err)
	}
}

func (m *Model) deleteSong(song models.SongView) tea.Cmd {
	return func() tea.Msg {
		deleted, err := m.catalog.Delete(m.ctx, song.ID)
		return songDeletedMsg(song, deleted, err)
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.delete, m.keys.refresh, m.keys.quit}
	out := m.songList.View()
	if len(m.songs) == 0 {
		out = styles.title.Render("Songbook") + "\n" + styles.help.Render("No songs yet. Add one with `songbook songs add`.")
	}
	if m.status != "" {
		out += "\n" + m.status
	}
	return fmt.Sprintf("%s\n\n%s", out, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	s := m.selected
	var b strings.Builder
	b.WriteString(styles.title.Render(s.Title))
	b.WriteString("\n")
	b.WriteString(styles.field("Artist", s.Artist) + "\n")
	b.WriteString(styles.field("Genre", s.Genre) + "\n")
	b.WriteString(styles.field("Released", s.ReleaseDate) + "\n")
	b.WriteString(styles.field("Rating", stars(s.Rating)) + "\n")
	b.WriteString(styles.field("ID", fmt.Sprint(s.ID)) + "\n\n")
	if s.Lyrics != "" {
		b.WriteString(styles.body.Render(s.Lyrics) + "\n\n")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.delete, m.keys.quit}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderConfirm() string {
	title := styles.warn.Render(fmt.Sprintf("Delete '%s' by %s?", m.selected.Title, m.selected.Artist))
	info := styles.help.Render("The artist and genre stay in the catalog.")

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, m.help.ShortHelpView(helpKeys))
}
