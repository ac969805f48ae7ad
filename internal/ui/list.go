package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/songbook/internal/models"
)

var _ list.Item = songItem{}

// songItem wraps [models.SongView] to implement [list.Item].
type songItem struct {
	song models.SongView
}

func (i songItem) FilterValue() string { return i.song.Title + " " + i.song.Artist + " " + i.song.Genre }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.song.Artist, i.song.Genre)
	if i.song.ReleaseDate != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.ReleaseDate)
	}
	return fmt.Sprintf("%s • %.1f", desc, i.song.Rating)
}

func songItems(songs []models.SongView) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s}
	}
	return items
}
