// package formatter converts song listings to and from export formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// Format names accepted by [Export].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Formats lists every supported export format.
var Formats = []string{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// csvColumns is the header written on export. Import accepts these columns in any order; id is ignored.
var csvColumns = []string{"id", "title", "artist", "genre", "release_date", "lyrics", "rating"}

// ExportToCSV converts songs to CSV with a header row.
func ExportToCSV(songs []models.SongView) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			strconv.FormatInt(song.ID, 10),
			song.Title,
			song.Artist,
			song.Genre,
			song.ReleaseDate,
			song.Lyrics,
			strconv.FormatFloat(song.Rating, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders songs as a Markdown table.
func ExportToMarkdown(songs []models.SongView) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Songbook\n\n")
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(songs)))

	if len(songs) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Title | Artist | Genre | Released | Rating |\n")
	buf.WriteString("|---|-------|--------|-------|----------|--------|\n")
	for _, song := range songs {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %.1f |\n",
			song.ID, escapeCell(song.Title), escapeCell(song.Artist), escapeCell(song.Genre),
			dash(song.ReleaseDate), song.Rating))
	}

	return buf.Bytes(), nil
}

// ExportToText renders one line per song.
func ExportToText(songs []models.SongView) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(songs)))
	for i, song := range songs {
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s] %.1f/10\n", i+1, song.Artist, song.Title, song.Genre, song.Rating))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders songs as an indented JSON array.
func ExportToJSON(songs []models.SongView) ([]byte, error) {
	if songs == nil {
		songs = []models.SongView{}
	}
	return shared.MarshalJSON(songs, true)
}

// Export renders songs in format.
func Export(format string, songs []models.SongView) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ExportToCSV(songs)
	case FormatMarkdown, "md":
		return ExportToMarkdown(songs)
	case FormatText, "text":
		return ExportToText(songs)
	case FormatJSON:
		return ExportToJSON(songs)
	default:
		return nil, fmt.Errorf("%w: format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders songs in format to path, or to w when path is empty.
func WriteExport(w io.Writer, format string, songs []models.SongView, path string) error {
	data, err := Export(format, songs)
	if err != nil {
		return err
	}

	if path == "" {
		_, err := w.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// Row is one parsed import record. Line is the 1-based line of the record in the source.
type Row struct {
	Line  int
	Input models.SongInput
	Err   error
}

// ParseCSV reads song records from r. The header row names the columns; title, artist and genre are required.
//
// A malformed rating only fails its own row, reported through [Row.Err]. A broken header or unreadable input
// fails the whole parse.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, required := range []string{"title", "artist", "genre"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: CSV header missing %q column", shared.ErrInvalidInput, required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line, _ := reader.FieldPos(0)

		row := Row{Line: line, Input: models.SongInput{
			Title:       field(record, "title"),
			Artist:      field(record, "artist"),
			Genre:       field(record, "genre"),
			ReleaseDate: field(record, "release_date"),
			Lyrics:      field(record, "lyrics"),
		}}
		if raw := strings.TrimSpace(field(record, "rating")); raw != "" {
			rating, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				row.Err = fmt.Errorf("%w: rating %q is not a number", shared.ErrInvalidInput, raw)
			}
			row.Input.Rating = rating
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
