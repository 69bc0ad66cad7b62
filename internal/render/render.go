// Package render projects hub state onto text rows. Every call rebuilds
// the whole list.
package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/glamour"

	"simplehub/internal/model"
)

const (
	DeleteControl = "[-]"
	PreviewDark   = "dark"
	PreviewPlain  = "notty"
)

func cursorMark(i, cursor int) string {
	if i == cursor {
		return ">"
	}
	return " "
}

// Tasks renders one row per task: checkbox, text, delete control.
func Tasks(tasks []model.Task, cursor int) []string {
	rows := make([]string, 0, len(tasks))
	for i, t := range tasks {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		rows = append(rows, fmt.Sprintf("%s %s %s  %s", cursorMark(i, cursor), box, t.Text, DeleteControl))
	}
	return rows
}

// Notes renders one row per note showing only its title.
func Notes(notes []model.Note, cursor int) []string {
	rows := make([]string, 0, len(notes))
	for i, n := range notes {
		rows = append(rows, fmt.Sprintf("%s %s", cursorMark(i, cursor), n.Title))
	}
	return rows
}

// Attachments renders the editor's attachment list: saved files first,
// then paths waiting to be encoded.
func Attachments(files []model.Attachment, pending []string, cursor int) []string {
	rows := make([]string, 0, len(files)+len(pending))
	for i, f := range files {
		rows = append(rows, fmt.Sprintf("%s %s  %s", cursorMark(i, cursor), AttachmentLabel(f), DeleteControl))
	}
	for j, p := range pending {
		i := len(files) + j
		rows = append(rows, fmt.Sprintf("%s + %s (pending)  %s", cursorMark(i, cursor), p, DeleteControl))
	}
	return rows
}

// AttachmentLabel shows an inline preview for images and
// "name (size KB)" for everything else.
func AttachmentLabel(a model.Attachment) string {
	if !a.IsImage() {
		return fmt.Sprintf("%s (%s)", a.Name, a.SizeLabel())
	}
	if w, h, ok := imageSize(a); ok {
		return fmt.Sprintf("[image %dx%d] %s", w, h, a.Name)
	}
	return fmt.Sprintf("[image] %s (%s)", a.Name, a.SizeLabel())
}

func imageSize(a model.Attachment) (int, int, bool) {
	raw, err := a.Bytes()
	if err != nil {
		return 0, 0, false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// NotePreview renders note content as markdown. Rendering failures fall
// back to the raw text.
func NotePreview(content string, width int, style string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
