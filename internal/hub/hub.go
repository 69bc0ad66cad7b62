// Package hub owns the in-memory notes and tasks, keeps them written
// through to storage, and tracks the note editor session.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"simplehub/internal/model"
	"simplehub/internal/storage"
)

type Collection int

const (
	TasksChanged Collection = iota
	NotesChanged
)

var (
	ErrOutOfRange   = errors.New("position out of range")
	ErrEmptyTitle   = errors.New("note title is empty")
	ErrSaveInFlight = errors.New("a save is already in progress")
	ErrNoActiveNote = errors.New("no note is open for editing")
	ErrEditorClosed = errors.New("editor is closed")
)

// StorageError wraps a failed write-through. The in-memory state already
// holds the mutation when it is returned.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("could not save %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// FileEncoder converts file paths into attachments, keeping their order.
type FileEncoder interface {
	EncodeFiles(ctx context.Context, paths []string) ([]model.Attachment, error)
}

type Hub struct {
	kv        storage.KV
	log       *slog.Logger
	tasks     []model.Task
	notes     []model.Note
	editor    editor
	listeners []func(Collection)
}

// Load reads both collections from kv. Corrupt collections start empty.
func Load(ctx context.Context, kv storage.KV, logger *slog.Logger) (*Hub, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Hub{kv: kv, log: logger, editor: closedEditor()}

	tasks, err := storage.LoadCollection[model.Task](ctx, kv, storage.KeyTasks)
	if err := h.tolerateCorrupt(err); err != nil {
		return nil, err
	}
	notes, err := storage.LoadCollection[model.Note](ctx, kv, storage.KeyNotes)
	if err := h.tolerateCorrupt(err); err != nil {
		return nil, err
	}
	model.EnsureTaskIDs(tasks)
	model.EnsureNoteIDs(notes)
	h.tasks = tasks
	h.notes = notes
	h.log.Info("hub loaded", "tasks", len(tasks), "notes", len(notes))
	return h, nil
}

func (h *Hub) tolerateCorrupt(err error) error {
	var corrupt *storage.CorruptError
	if errors.As(err, &corrupt) {
		h.log.Warn("stored collection unreadable, starting empty", "key", corrupt.Key, "err", corrupt.Err)
		return nil
	}
	return err
}

// Subscribe registers fn to run after every mutation.
func (h *Hub) Subscribe(fn func(Collection)) {
	h.listeners = append(h.listeners, fn)
}

func (h *Hub) notify(c Collection) {
	for _, fn := range h.listeners {
		fn(c)
	}
}

func (h *Hub) Tasks() []model.Task {
	out := make([]model.Task, len(h.tasks))
	copy(out, h.tasks)
	return out
}

func (h *Hub) Notes() []model.Note {
	out := make([]model.Note, len(h.notes))
	for i, n := range h.notes {
		n.Files = model.CloneFiles(n.Files)
		out[i] = n
	}
	return out
}

func (h *Hub) Note(pos int) (model.Note, bool) {
	if pos < 0 || pos >= len(h.notes) {
		return model.Note{}, false
	}
	n := h.notes[pos]
	n.Files = model.CloneFiles(n.Files)
	return n, true
}

func (h *Hub) persistTasks(ctx context.Context) error {
	if err := storage.SaveCollection(ctx, h.kv, storage.KeyTasks, h.tasks); err != nil {
		h.log.Error("write-through failed", "key", storage.KeyTasks, "err", err)
		return &StorageError{Key: storage.KeyTasks, Err: err}
	}
	return nil
}

func (h *Hub) persistNotes(ctx context.Context) error {
	if err := storage.SaveCollection(ctx, h.kv, storage.KeyNotes, h.notes); err != nil {
		h.log.Error("write-through failed", "key", storage.KeyNotes, "err", err)
		return &StorageError{Key: storage.KeyNotes, Err: err}
	}
	return nil
}
