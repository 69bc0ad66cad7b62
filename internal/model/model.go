// Package model holds the records persisted by the hub: tasks, notes and
// the attachments embedded in notes.
package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Task struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text" validate:"required"`
	Completed bool   `json:"completed"`
}

// Attachment is a file embedded in a note as a data URL.
type Attachment struct {
	Name string `json:"name" validate:"required"`
	Size int64  `json:"size" validate:"gte=0"`
	Type string `json:"type"`
	Data string `json:"data"`
}

type Note struct {
	ID      string       `json:"id,omitempty"`
	Title   string       `json:"title" validate:"required"`
	Content string       `json:"content"`
	Files   []Attachment `json:"files" validate:"dive"`
}

var ErrMalformedData = errors.New("malformed data url")

var validate = validator.New()

func NewID() string {
	return uuid.New().String()
}

func NewTask(text string) Task {
	return Task{ID: NewID(), Text: strings.TrimSpace(text)}
}

func NewNote(title, content string, files []Attachment) Note {
	if files == nil {
		files = []Attachment{}
	}
	return Note{
		ID:      NewID(),
		Title:   strings.TrimSpace(title),
		Content: content,
		Files:   files,
	}
}

// Validate checks struct tags on a Task, Note or Attachment.
func Validate(v any) error {
	return validate.Struct(v)
}

// EnsureTaskIDs assigns identifiers to records loaded from storage written
// before records carried one. It reports whether anything changed.
func EnsureTaskIDs(tasks []Task) bool {
	changed := false
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = NewID()
			changed = true
		}
	}
	return changed
}

func EnsureNoteIDs(notes []Note) bool {
	changed := false
	for i := range notes {
		if notes[i].ID == "" {
			notes[i].ID = NewID()
			changed = true
		}
		if notes[i].Files == nil {
			notes[i].Files = []Attachment{}
		}
	}
	return changed
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.Type, "image/")
}

// SizeLabel formats the size in KB with one decimal place.
func (a Attachment) SizeLabel() string {
	return fmt.Sprintf("%.1f KB", float64(a.Size)/1024)
}

// DataURL builds the inline encoding stored in Attachment.Data.
func DataURL(mime string, raw []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// Bytes decodes the attachment payload.
func (a Attachment) Bytes() ([]byte, error) {
	rest, ok := strings.CutPrefix(a.Data, "data:")
	if !ok {
		return nil, ErrMalformedData
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrMalformedData
	}
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	return raw, nil
}

func CloneFiles(files []Attachment) []Attachment {
	out := make([]Attachment, len(files))
	copy(out, files)
	return out
}
