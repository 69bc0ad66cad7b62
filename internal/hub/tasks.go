package hub

import (
	"context"
	"strings"

	"simplehub/internal/model"
)

// AddTask appends a task. Blank text is ignored: it reports false and
// writes nothing.
func (h *Hub) AddTask(ctx context.Context, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	t := model.NewTask(text)
	if err := model.Validate(t); err != nil {
		return false, err
	}
	h.tasks = append(h.tasks, t)
	h.log.Debug("task added", "id", t.ID, "count", len(h.tasks))
	err := h.persistTasks(ctx)
	h.notify(TasksChanged)
	return true, err
}

// ToggleTask sets the completion flag of the task at pos.
func (h *Hub) ToggleTask(ctx context.Context, pos int, checked bool) error {
	if pos < 0 || pos >= len(h.tasks) {
		return ErrOutOfRange
	}
	h.tasks[pos].Completed = checked
	h.log.Debug("task toggled", "id", h.tasks[pos].ID, "completed", checked)
	err := h.persistTasks(ctx)
	h.notify(TasksChanged)
	return err
}

// DeleteTask removes the task at pos; later tasks move up one position.
func (h *Hub) DeleteTask(ctx context.Context, pos int) error {
	if pos < 0 || pos >= len(h.tasks) {
		return ErrOutOfRange
	}
	id := h.tasks[pos].ID
	h.tasks = append(h.tasks[:pos], h.tasks[pos+1:]...)
	h.log.Debug("task deleted", "id", id, "count", len(h.tasks))
	err := h.persistTasks(ctx)
	h.notify(TasksChanged)
	return err
}

// ClearCompleted drops every completed task and reports how many went.
func (h *Hub) ClearCompleted(ctx context.Context) (int, error) {
	kept := h.tasks[:0]
	for _, t := range h.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(h.tasks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	h.tasks = kept
	h.log.Debug("completed tasks cleared", "removed", removed)
	err := h.persistTasks(ctx)
	h.notify(TasksChanged)
	return removed, err
}
