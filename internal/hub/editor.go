package hub

import (
	"context"
	"strings"

	"simplehub/internal/model"
)

type EditorState int

const (
	Closed EditorState = iota
	OpenForCreate
	OpenForEdit
)

func (s EditorState) String() string {
	switch s {
	case OpenForCreate:
		return "new note"
	case OpenForEdit:
		return "editing"
	default:
		return "closed"
	}
}

type editor struct {
	state   EditorState
	active  int
	title   string
	content string
	files   []model.Attachment
	pending []string
	saving  bool
}

func closedEditor() editor {
	return editor{state: Closed, active: -1}
}

// EditorView is a snapshot of the editor session.
type EditorView struct {
	State   EditorState
	Active  int
	Title   string
	Content string
	Files   []model.Attachment
	Pending []string
	Saving  bool
}

// SaveRequest captures the editor fields at the moment a save starts.
type SaveRequest struct {
	Title   string
	Content string
	Paths   []string
}

func (h *Hub) Editor() EditorView {
	e := h.editor
	return EditorView{
		State:   e.state,
		Active:  e.active,
		Title:   e.title,
		Content: e.content,
		Files:   model.CloneFiles(e.files),
		Pending: append([]string(nil), e.pending...),
		Saving:  e.saving,
	}
}

// OpenEditor opens the note at pos for editing, or a blank editor when pos
// is negative.
func (h *Hub) OpenEditor(pos int) error {
	if h.editor.saving {
		return ErrSaveInFlight
	}
	if pos < 0 {
		h.editor = editor{state: OpenForCreate, active: -1, files: []model.Attachment{}}
		return nil
	}
	if pos >= len(h.notes) {
		return ErrOutOfRange
	}
	n := h.notes[pos]
	h.editor = editor{
		state:   OpenForEdit,
		active:  pos,
		title:   n.Title,
		content: n.Content,
		files:   model.CloneFiles(n.Files),
	}
	h.log.Debug("editor opened", "id", n.ID, "position", pos)
	return nil
}

// CloseEditor discards the session. The notes collection is never touched.
func (h *Hub) CloseEditor() error {
	if h.editor.saving {
		return ErrSaveInFlight
	}
	h.editor = closedEditor()
	return nil
}

func (h *Hub) SetTitle(title string) {
	if h.editor.state != Closed {
		h.editor.title = title
	}
}

func (h *Hub) SetContent(content string) {
	if h.editor.state != Closed {
		h.editor.content = content
	}
}

// StageFile queues a file to be attached on the next save.
func (h *Hub) StageFile(path string) error {
	if h.editor.state == Closed {
		return ErrEditorClosed
	}
	if h.editor.saving {
		return ErrSaveInFlight
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	h.editor.pending = append(h.editor.pending, path)
	return nil
}

// StagedCount is the length of the attachment list shown in the editor:
// the note's files followed by pending paths.
func (h *Hub) StagedCount() int {
	return len(h.editor.files) + len(h.editor.pending)
}

// RemoveStagedAttachment drops an entry from the editor's attachment list.
// Stored notes change only when the editor is saved.
func (h *Hub) RemoveStagedAttachment(pos int) error {
	if h.editor.state == Closed {
		return ErrEditorClosed
	}
	if h.editor.saving {
		return ErrSaveInFlight
	}
	if pos < 0 || pos >= h.StagedCount() {
		return ErrOutOfRange
	}
	if pos < len(h.editor.files) {
		h.editor.files = append(h.editor.files[:pos], h.editor.files[pos+1:]...)
		return nil
	}
	pos -= len(h.editor.files)
	h.editor.pending = append(h.editor.pending[:pos], h.editor.pending[pos+1:]...)
	return nil
}

// BeginSave validates the editor and marks a save in flight. The caller
// encodes req.Paths and hands the result to FinishSave.
func (h *Hub) BeginSave() (SaveRequest, error) {
	e := &h.editor
	if e.state == Closed {
		return SaveRequest{}, ErrEditorClosed
	}
	if e.saving {
		return SaveRequest{}, ErrSaveInFlight
	}
	title := strings.TrimSpace(e.title)
	if title == "" {
		return SaveRequest{}, ErrEmptyTitle
	}
	e.saving = true
	return SaveRequest{
		Title:   title,
		Content: strings.TrimSpace(e.content),
		Paths:   append([]string(nil), e.pending...),
	}, nil
}

// FinishSave completes a save started by BeginSave. When encoding failed
// the editor stays open with its input intact and encodeErr is returned.
func (h *Hub) FinishSave(ctx context.Context, req SaveRequest, newFiles []model.Attachment, encodeErr error) error {
	e := &h.editor
	if !e.saving {
		return ErrEditorClosed
	}
	e.saving = false
	if encodeErr != nil {
		h.log.Warn("attachment encoding failed", "err", encodeErr)
		return encodeErr
	}

	files := make([]model.Attachment, 0, len(e.files)+len(newFiles))
	files = append(files, e.files...)
	files = append(files, newFiles...)

	var note model.Note
	if e.state == OpenForEdit {
		note = h.notes[e.active]
		note.Title = req.Title
		note.Content = req.Content
		note.Files = files
	} else {
		note = model.NewNote(req.Title, req.Content, files)
	}
	if err := model.Validate(note); err != nil {
		return err
	}

	if e.state == OpenForEdit {
		h.notes[e.active] = note
	} else {
		h.notes = append(h.notes, note)
	}
	h.log.Debug("note saved", "id", note.ID, "files", len(note.Files), "count", len(h.notes))
	err := h.persistNotes(ctx)
	h.editor = closedEditor()
	h.notify(NotesChanged)
	return err
}

// SaveEditor runs BeginSave, the encoder and FinishSave in one call.
func (h *Hub) SaveEditor(ctx context.Context, enc FileEncoder) error {
	req, err := h.BeginSave()
	if err != nil {
		return err
	}
	var files []model.Attachment
	var encodeErr error
	if len(req.Paths) > 0 {
		files, encodeErr = enc.EncodeFiles(ctx, req.Paths)
	}
	return h.FinishSave(ctx, req, files, encodeErr)
}

// DeleteEditor deletes the note open in the editor and closes it.
func (h *Hub) DeleteEditor(ctx context.Context) error {
	if h.editor.saving {
		return ErrSaveInFlight
	}
	if h.editor.state != OpenForEdit {
		return ErrNoActiveNote
	}
	pos := h.editor.active
	id := h.notes[pos].ID
	h.notes = append(h.notes[:pos], h.notes[pos+1:]...)
	h.log.Debug("note deleted", "id", id, "count", len(h.notes))
	err := h.persistNotes(ctx)
	h.editor = closedEditor()
	h.notify(NotesChanged)
	return err
}
