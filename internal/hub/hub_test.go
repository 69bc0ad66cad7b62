package hub

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"simplehub/internal/model"
	"simplehub/internal/render"
	"simplehub/internal/storage"
)

type fakeEncoder struct {
	calls [][]string
	err   error
}

func (f *fakeEncoder) EncodeFiles(_ context.Context, paths []string) ([]model.Attachment, error) {
	f.calls = append(f.calls, paths)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Attachment, len(paths))
	for i, p := range paths {
		name := filepath.Base(p)
		out[i] = model.Attachment{Name: name, Size: int64(len(name)), Type: "text/plain", Data: model.DataURL("text/plain", []byte(name))}
	}
	return out, nil
}

func newTestHub(t *testing.T) (*Hub, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory(storage.Options{})
	h, err := Load(context.Background(), kv, nil)
	require.NoError(t, err)
	return h, kv
}

func storedTasks(t *testing.T, kv storage.KV) []model.Task {
	t.Helper()
	tasks, err := storage.LoadCollection[model.Task](context.Background(), kv, storage.KeyTasks)
	require.NoError(t, err)
	return tasks
}

func storedNotes(t *testing.T, kv storage.KV) []model.Note {
	t.Helper()
	notes, err := storage.LoadCollection[model.Note](context.Background(), kv, storage.KeyNotes)
	require.NoError(t, err)
	return notes
}

func taskTexts(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}

func TestAddTaskIgnoresBlank(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\t\n"} {
		added, err := h.AddTask(ctx, text)
		require.NoError(t, err)
		require.False(t, added)
	}
	require.Empty(t, h.Tasks())
	require.Zero(t, kv.Writes)
}

func TestAddTaskPersists(t *testing.T) {
	h, kv := newTestHub(t)
	added, err := h.AddTask(context.Background(), "  buy milk ")
	require.NoError(t, err)
	require.True(t, added)

	stored := storedTasks(t, kv)
	require.Len(t, stored, 1)
	require.Equal(t, "buy milk", stored[0].Text)
	require.False(t, stored[0].Completed)
	require.NotEmpty(t, stored[0].ID)
}

func TestRenderedTasksTrackStoredTasks(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	ops := []struct {
		add string
		del int
	}{
		{add: "a"}, {add: "b"}, {del: 0}, {add: "c"}, {add: "d"}, {del: 2}, {del: 0}, {del: 0},
	}
	for _, op := range ops {
		if op.add != "" {
			_, err := h.AddTask(ctx, op.add)
			require.NoError(t, err)
		} else {
			require.NoError(t, h.DeleteTask(ctx, op.del))
		}
		require.Len(t, render.Tasks(h.Tasks(), -1), len(storedTasks(t, kv)))
	}
}

func TestDeleteTaskShiftsPositions(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	for _, s := range []string{"A", "B", "C"} {
		_, err := h.AddTask(ctx, s)
		require.NoError(t, err)
	}

	require.NoError(t, h.DeleteTask(ctx, 1))
	require.Equal(t, []string{"A", "C"}, taskTexts(storedTasks(t, kv)))
	require.Len(t, render.Tasks(h.Tasks(), -1), 2)

	require.ErrorIs(t, h.DeleteTask(ctx, 2), ErrOutOfRange)
	require.ErrorIs(t, h.DeleteTask(ctx, -1), ErrOutOfRange)
}

func TestToggleTaskOnlyTouchesCompleted(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	for _, s := range []string{"A", "B"} {
		_, err := h.AddTask(ctx, s)
		require.NoError(t, err)
	}
	before := storedTasks(t, kv)

	require.NoError(t, h.ToggleTask(ctx, 1, true))
	after := storedTasks(t, kv)
	require.Equal(t, before[0], after[0])
	require.Equal(t, before[1].ID, after[1].ID)
	require.Equal(t, before[1].Text, after[1].Text)
	require.True(t, after[1].Completed)

	require.NoError(t, h.ToggleTask(ctx, 1, false))
	require.False(t, storedTasks(t, kv)[1].Completed)
}

func TestClearCompleted(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	for _, s := range []string{"A", "B", "C"} {
		_, err := h.AddTask(ctx, s)
		require.NoError(t, err)
	}
	require.NoError(t, h.ToggleTask(ctx, 0, true))
	require.NoError(t, h.ToggleTask(ctx, 2, true))

	n, err := h.ClearCompleted(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"B"}, taskTexts(storedTasks(t, kv)))

	writes := kv.Writes
	n, err = h.ClearCompleted(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, writes, kv.Writes)
}

func TestSaveNewNote(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	old := len(storedNotes(t, kv))

	require.NoError(t, h.OpenEditor(-1))
	require.Equal(t, OpenForCreate, h.Editor().State)
	h.SetTitle("Groceries")
	h.SetContent("milk, eggs")
	require.NoError(t, h.SaveEditor(ctx, &fakeEncoder{}))

	notes := storedNotes(t, kv)
	require.Len(t, notes, old+1)
	require.Equal(t, "Groceries", notes[0].Title)
	require.Equal(t, "milk, eggs", notes[0].Content)
	require.Empty(t, notes[0].Files)
	require.Equal(t, Closed, h.Editor().State)
}

func TestSaveWithBlankTitleIsNoop(t *testing.T) {
	h, kv := newTestHub(t)
	require.NoError(t, h.OpenEditor(-1))
	h.SetTitle("   ")
	h.SetContent("orphan")

	err := h.SaveEditor(context.Background(), &fakeEncoder{})
	require.ErrorIs(t, err, ErrEmptyTitle)
	require.Zero(t, kv.Writes)
	require.Equal(t, OpenForCreate, h.Editor().State)
	require.False(t, h.Editor().Saving)
}

func TestEditAppendsNewFiles(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	enc := &fakeEncoder{}

	require.NoError(t, h.OpenEditor(-1))
	h.SetTitle("Trip")
	require.NoError(t, h.StageFile("/tmp/one.txt"))
	require.NoError(t, h.StageFile("/tmp/two.txt"))
	require.NoError(t, h.SaveEditor(ctx, enc))
	first := storedNotes(t, kv)[0]
	require.Len(t, first.Files, 2)

	require.NoError(t, h.OpenEditor(0))
	require.Equal(t, OpenForEdit, h.Editor().State)
	require.Equal(t, "Trip", h.Editor().Title)
	require.NoError(t, h.StageFile("/tmp/three.txt"))
	require.NoError(t, h.SaveEditor(ctx, enc))

	notes := storedNotes(t, kv)
	require.Len(t, notes, 1)
	require.Equal(t, first.ID, notes[0].ID)
	names := []string{}
	for _, f := range notes[0].Files {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"one.txt", "two.txt", "three.txt"}, names)
	require.Equal(t, []string{"/tmp/three.txt"}, enc.calls[1])
}

func TestCloseEditorNeverMutatesNotes(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	require.NoError(t, h.OpenEditor(-1))
	h.SetTitle("Keep")
	require.NoError(t, h.StageFile("/tmp/a.txt"))
	require.NoError(t, h.SaveEditor(ctx, &fakeEncoder{}))
	before := h.Notes()
	writes := kv.Writes

	require.NoError(t, h.OpenEditor(0))
	h.SetTitle("Changed")
	h.SetContent("changed")
	require.NoError(t, h.RemoveStagedAttachment(0))
	require.NoError(t, h.StageFile("/tmp/b.txt"))
	require.NoError(t, h.CloseEditor())

	require.Equal(t, before, h.Notes())
	require.Equal(t, writes, kv.Writes)
	require.Equal(t, Closed, h.Editor().State)

	require.NoError(t, h.CloseEditor(), "closing a closed editor is harmless")
}

func TestRemoveStagedAttachment(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	enc := &fakeEncoder{}
	require.NoError(t, h.OpenEditor(-1))
	h.SetTitle("Files")
	require.NoError(t, h.StageFile("/x/a"))
	require.NoError(t, h.StageFile("/x/b"))
	require.NoError(t, h.SaveEditor(ctx, enc))

	require.NoError(t, h.OpenEditor(0))
	require.NoError(t, h.StageFile("/x/c"))
	require.NoError(t, h.StageFile("/x/d"))
	require.Equal(t, 4, h.StagedCount())

	// drop saved "a" and pending "c"
	require.NoError(t, h.RemoveStagedAttachment(0))
	require.NoError(t, h.RemoveStagedAttachment(1))
	require.ErrorIs(t, h.RemoveStagedAttachment(2), ErrOutOfRange)
	require.Len(t, storedNotes(t, kv)[0].Files, 2, "storage untouched before save")

	require.NoError(t, h.SaveEditor(ctx, enc))
	names := []string{}
	for _, f := range storedNotes(t, kv)[0].Files {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"b", "d"}, names)
}

func TestDeleteEditor(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	require.ErrorIs(t, h.DeleteEditor(ctx), ErrNoActiveNote)

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, h.OpenEditor(-1))
		h.SetTitle(title)
		require.NoError(t, h.SaveEditor(ctx, &fakeEncoder{}))
	}

	require.NoError(t, h.OpenEditor(-1))
	require.ErrorIs(t, h.DeleteEditor(ctx), ErrNoActiveNote)
	require.NoError(t, h.CloseEditor())

	require.NoError(t, h.OpenEditor(1))
	require.NoError(t, h.DeleteEditor(ctx))
	notes := storedNotes(t, kv)
	require.Len(t, notes, 2)
	require.Equal(t, "one", notes[0].Title)
	require.Equal(t, "three", notes[1].Title)
	require.Equal(t, Closed, h.Editor().State)
}

func TestSaveInFlightGuard(t *testing.T) {
	h, _ := newTestHub(t)
	ctx := context.Background()
	require.NoError(t, h.OpenEditor(-1))
	h.SetTitle("Slow")
	require.NoError(t, h.StageFile("/big/file"))

	req, err := h.BeginSave()
	require.NoError(t, err)
	require.True(t, h.Editor().Saving)

	_, err = h.BeginSave()
	require.ErrorIs(t, err, ErrSaveInFlight)
	require.ErrorIs(t, h.CloseEditor(), ErrSaveInFlight)
	require.ErrorIs(t, h.OpenEditor(-1), ErrSaveInFlight)

	files, encErr := (&fakeEncoder{}).EncodeFiles(ctx, req.Paths)
	require.NoError(t, h.FinishSave(ctx, req, files, encErr))
	require.Len(t, h.Notes(), 1)
	require.False(t, h.Editor().Saving)
}

func TestFileFailureKeepsEditorOpen(t *testing.T) {
	h, kv := newTestHub(t)
	readErr := errors.New("permission denied")
	require.NoError(t, h.OpenEditor(-1))
	h.SetTitle("Report")
	h.SetContent("draft")
	require.NoError(t, h.StageFile("/secret"))

	err := h.SaveEditor(context.Background(), &fakeEncoder{err: readErr})
	require.ErrorIs(t, err, readErr)

	ed := h.Editor()
	require.Equal(t, OpenForCreate, ed.State)
	require.Equal(t, "Report", ed.Title)
	require.Equal(t, "draft", ed.Content)
	require.Equal(t, []string{"/secret"}, ed.Pending)
	require.False(t, ed.Saving)
	require.Zero(t, kv.Writes)

	require.NoError(t, h.RemoveStagedAttachment(0))
	require.NoError(t, h.SaveEditor(context.Background(), &fakeEncoder{err: readErr}))
	require.Len(t, storedNotes(t, kv), 1)
}

func TestStorageFailureKeepsMemoryState(t *testing.T) {
	h, kv := newTestHub(t)
	ctx := context.Background()
	kv.FailWith = storage.ErrQuotaExceeded

	added, err := h.AddTask(ctx, "big")
	require.True(t, added)
	var se *StorageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, storage.KeyTasks, se.Key)
	require.ErrorIs(t, err, storage.ErrQuotaExceeded)
	require.Len(t, h.Tasks(), 1)

	require.NoError(t, h.OpenEditor(-1))
	h.SetTitle("note")
	err = h.SaveEditor(ctx, &fakeEncoder{})
	require.ErrorIs(t, err, storage.ErrQuotaExceeded)
	require.Len(t, h.Notes(), 1)
	require.Equal(t, Closed, h.Editor().State)

	kv.FailWith = nil
	_, err = h.AddTask(ctx, "small")
	require.NoError(t, err)
	require.Len(t, storedTasks(t, kv), 2, "next successful write catches up")
}

func TestLoadToleratesCorruptValues(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(storage.Options{})
	require.NoError(t, kv.Set(ctx, storage.KeyNotes, "<<<"))
	require.NoError(t, kv.Set(ctx, storage.KeyTasks, `[{"text":"legacy","completed":true}]`))

	h, err := Load(ctx, kv, nil)
	require.NoError(t, err)
	require.Empty(t, h.Notes())
	tasks := h.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, "legacy", tasks[0].Text)
	require.True(t, tasks[0].Completed)
	require.NotEmpty(t, tasks[0].ID)
}

func TestSubscribeSeesEveryMutation(t *testing.T) {
	h, _ := newTestHub(t)
	ctx := context.Background()
	var seen []Collection
	h.Subscribe(func(c Collection) { seen = append(seen, c) })

	_, err := h.AddTask(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, h.ToggleTask(ctx, 0, true))
	require.NoError(t, h.OpenEditor(-1))
	h.SetTitle("n")
	require.NoError(t, h.SaveEditor(ctx, &fakeEncoder{}))
	require.NoError(t, h.DeleteTask(ctx, 0))

	require.Equal(t, []Collection{TasksChanged, TasksChanged, NotesChanged, TasksChanged}, seen)
}
