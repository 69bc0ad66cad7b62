package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"simplehub/internal/config"
	"simplehub/internal/hub"
	"simplehub/internal/model"
	"simplehub/internal/render"
)

type mode int

const (
	modeList mode = iota
	modeAddTask
	modeEditor
	modeAttach
	modeConfirmDelete
)

type pane int

const (
	paneTasks pane = iota
	paneNotes
)

type field int

const (
	fieldTitle field = iota
	fieldContent
)

// snapshot is refreshed by the hub after every mutation.
type snapshot struct {
	tasks []model.Task
	notes []model.Note
}

type saveDoneMsg struct {
	req   hub.SaveRequest
	files []model.Attachment
	err   error
}

type Model struct {
	hub     *hub.Hub
	enc     hub.FileEncoder
	log     *slog.Logger
	cfg     config.Config
	data    *snapshot
	pane    pane
	cursor  [2]int
	mode    mode
	input   textinput.Model
	title   textinput.Model
	content textarea.Model
	path    textinput.Model
	focus   field
	fileCur int
	status  string
	width   int
	preview string
}

func New(h *hub.Hub, enc hub.FileEncoder, cfg config.Config, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	data := &snapshot{tasks: h.Tasks(), notes: h.Notes()}
	h.Subscribe(func(c hub.Collection) {
		switch c {
		case hub.TasksChanged:
			data.tasks = h.Tasks()
		case hub.NotesChanged:
			data.notes = h.Notes()
		}
	})

	ti := textinput.New()
	ti.Placeholder = "Task"
	ti.CharLimit = 256
	ti.Width = 40

	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 256
	title.Width = 40

	content := textarea.New()
	content.Placeholder = "Write your note..."
	content.SetWidth(60)
	content.SetHeight(8)

	path := textinput.New()
	path.Placeholder = "Path to file"
	path.Width = 60

	m := Model{
		hub:     h,
		enc:     enc,
		log:     logger,
		cfg:     cfg,
		data:    data,
		pane:    paneTasks,
		mode:    modeList,
		input:   ti,
		title:   title,
		content: content,
		path:    path,
		status:  fmt.Sprintf("Press '%s' to add a task, '%s' for a new note.", cfg.Keys.AddTask, cfg.Keys.AddNote),
	}
	return m
}

func Run(h *hub.Hub, enc hub.FileEncoder, cfg config.Config, logger *slog.Logger) error {
	program := tea.NewProgram(New(h, enc, cfg, logger), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-10, 10)
		m.title.Width = max(msg.Width-10, 10)
		m.path.Width = max(msg.Width-10, 10)
		m.content.SetWidth(max(msg.Width-4, 10))
		m.refreshPreview()
	case saveDoneMsg:
		return m.finishSave(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeAddTask:
		return m.updateAddTaskMode(key, msg)
	case modeEditor:
		return m.updateEditorMode(key, msg)
	case modeAttach:
		return m.updateAttachMode(key, msg)
	case modeConfirmDelete:
		return m.updateDeleteConfirm(key)
	}
	return m.updateListMode(key)
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	k := m.cfg.Keys
	n := m.paneLen()
	switch key {
	case k.Quit:
		return m, tea.Quit
	case k.SwitchPane:
		if m.pane == paneTasks {
			m.pane = paneNotes
		} else {
			m.pane = paneTasks
		}
		m.refreshPreview()
	case k.Down, "down":
		m.cursor[m.pane] = clampCursor(m.cursor[m.pane]+1, n)
		m.refreshPreview()
	case k.Up, "up":
		m.cursor[m.pane] = clampCursor(m.cursor[m.pane]-1, n)
		m.refreshPreview()
	case k.AddTask:
		m.mode = modeAddTask
		m.input.SetValue("")
		m.input.Focus()
		m.status = "Add mode: type a task and press Enter"
	case k.AddNote:
		return m.openEditor(-1)
	case k.Toggle:
		if m.pane != paneTasks || n == 0 {
			return m, nil
		}
		pos := m.cursor[paneTasks]
		t := m.data.tasks[pos]
		if err := m.hub.ToggleTask(ctx, pos, !t.Completed); err != nil {
			m.status = errorStatus("toggle failed", err)
			return m, nil
		}
		m.status = "Toggled task"
	case k.Delete:
		if m.pane != paneTasks || n == 0 {
			return m, nil
		}
		pos := m.cursor[paneTasks]
		if err := m.hub.DeleteTask(ctx, pos); err != nil {
			m.status = errorStatus("delete failed", err)
		} else {
			m.status = "Deleted task"
		}
		m.cursor[paneTasks] = clampCursor(pos, len(m.data.tasks))
	case k.ClearDone:
		removed, err := m.hub.ClearCompleted(ctx)
		if err != nil {
			m.status = errorStatus("clear failed", err)
		} else {
			m.status = fmt.Sprintf("Cleared %d completed task(s)", removed)
		}
		m.cursor[paneTasks] = clampCursor(m.cursor[paneTasks], len(m.data.tasks))
	case k.Open:
		if m.pane != paneNotes || n == 0 {
			return m, nil
		}
		return m.openEditor(m.cursor[paneNotes])
	}
	return m, nil
}

func (m Model) updateAddTaskMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		added, err := m.hub.AddTask(context.Background(), m.input.Value())
		if !added {
			return m, nil
		}
		if err != nil {
			m.status = errorStatus("save failed", err)
		} else {
			m.status = "Added task"
		}
		m.cursor[paneTasks] = clampCursor(len(m.data.tasks)-1, len(m.data.tasks))
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) openEditor(pos int) (tea.Model, tea.Cmd) {
	if err := m.hub.OpenEditor(pos); err != nil {
		m.status = errorStatus("open failed", err)
		return m, nil
	}
	ed := m.hub.Editor()
	m.title.SetValue(ed.Title)
	m.content.SetValue(ed.Content)
	m.fileCur = 0
	m.focus = fieldTitle
	m.content.Blur()
	m.mode = modeEditor
	m.status = editorHelp(m.cfg.Keys)
	cmd := m.title.Focus()
	return m, cmd
}

func (m *Model) closeEditor() {
	m.title.Blur()
	m.content.Blur()
	m.title.SetValue("")
	m.content.SetValue("")
	m.mode = modeList
	m.cursor[paneNotes] = clampCursor(m.cursor[paneNotes], len(m.data.notes))
	m.refreshPreview()
}

func (m Model) updateEditorMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Cancel:
		if err := m.hub.CloseEditor(); err != nil {
			m.status = errorStatus("cannot close", err)
			return m, nil
		}
		m.closeEditor()
		m.status = "Closed without saving"
		return m, nil
	case k.Save:
		return m.startSave()
	case k.DeleteNote:
		if m.hub.Editor().State != hub.OpenForEdit {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("Delete note %q? y/n", m.hub.Editor().Title)
		return m, nil
	case k.Attach:
		m.mode = modeAttach
		m.path.SetValue("")
		m.status = "Attach: type a file path and press Enter"
		cmd := m.path.Focus()
		return m, cmd
	case k.FileDown:
		m.fileCur = clampCursor(m.fileCur+1, m.hub.StagedCount())
		return m, nil
	case k.FileUp:
		m.fileCur = clampCursor(m.fileCur-1, m.hub.StagedCount())
		return m, nil
	case k.RemoveFile:
		if m.hub.StagedCount() == 0 {
			return m, nil
		}
		if err := m.hub.RemoveStagedAttachment(m.fileCur); err != nil {
			m.status = errorStatus("remove failed", err)
			return m, nil
		}
		m.fileCur = clampCursor(m.fileCur, m.hub.StagedCount())
		m.status = "Attachment removed (save to keep the change)"
		return m, nil
	case k.NextField:
		if m.focus == fieldTitle {
			m.focus = fieldContent
			m.title.Blur()
			cmd := m.content.Focus()
			return m, cmd
		}
		m.focus = fieldTitle
		m.content.Blur()
		cmd := m.title.Focus()
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focus == fieldTitle {
		m.title, cmd = m.title.Update(msg)
		m.hub.SetTitle(m.title.Value())
	} else {
		m.content, cmd = m.content.Update(msg)
		m.hub.SetContent(m.content.Value())
	}
	return m, cmd
}

func (m Model) updateAttachMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.path.Blur()
		m.mode = modeEditor
		m.status = editorHelp(m.cfg.Keys)
		return m, nil
	case m.cfg.Keys.Confirm:
		if err := m.hub.StageFile(m.path.Value()); err != nil {
			m.status = errorStatus("attach failed", err)
		} else {
			m.status = editorHelp(m.cfg.Keys)
		}
		m.path.Blur()
		m.mode = modeEditor
		return m, nil
	default:
		var cmd tea.Cmd
		m.path, cmd = m.path.Update(msg)
		return m, cmd
	}
}

// startSave hands attachment encoding to a command so the UI keeps
// running while files are read.
func (m Model) startSave() (tea.Model, tea.Cmd) {
	m.hub.SetTitle(m.title.Value())
	m.hub.SetContent(m.content.Value())
	req, err := m.hub.BeginSave()
	switch {
	case errors.Is(err, hub.ErrEmptyTitle):
		return m, nil
	case err != nil:
		m.status = errorStatus("save", err)
		return m, nil
	}
	if len(req.Paths) == 0 {
		return m.finishSave(saveDoneMsg{req: req})
	}
	m.status = fmt.Sprintf("Saving… encoding %d file(s)", len(req.Paths))
	enc := m.enc
	return m, func() tea.Msg {
		files, err := enc.EncodeFiles(context.Background(), req.Paths)
		return saveDoneMsg{req: req, files: files, err: err}
	}
}

func (m Model) finishSave(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	err := m.hub.FinishSave(context.Background(), msg.req, msg.files, msg.err)
	if err != nil {
		m.log.Warn("note save did not complete cleanly", "title", msg.req.Title, "err", err)
	}
	var storageErr *hub.StorageError
	switch {
	case err == nil:
		m.closeEditor()
		m.status = "Saved note"
	case errors.As(err, &storageErr):
		m.closeEditor()
		m.status = errorStatus("saved in memory only", err)
	default:
		m.status = errorStatus("save failed", err)
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.mode = modeEditor
		m.status = "Delete cancelled"
		return m, nil
	case "y", "Y":
		err := m.hub.DeleteEditor(context.Background())
		var storageErr *hub.StorageError
		switch {
		case err == nil:
			m.closeEditor()
			m.status = "Deleted note"
		case errors.As(err, &storageErr):
			m.closeEditor()
			m.status = errorStatus("deleted in memory only", err)
		default:
			m.mode = modeEditor
			m.status = errorStatus("delete failed", err)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) paneLen() int {
	if m.pane == paneTasks {
		return len(m.data.tasks)
	}
	return len(m.data.notes)
}

func (m *Model) refreshPreview() {
	m.preview = ""
	if m.pane != paneNotes || len(m.data.notes) == 0 {
		return
	}
	n := m.data.notes[clampCursor(m.cursor[paneNotes], len(m.data.notes))]
	width := m.width - 4
	if width <= 0 {
		width = 60
	}
	m.preview = render.NotePreview(n.Content, width, render.PreviewDark)
}

func errorStatus(prefix string, err error) string {
	return fmt.Sprintf("%s: %v", prefix, err)
}

func editorHelp(k config.Keymap) string {
	return fmt.Sprintf("%s switch field • %s attach • %s/%s pick file • %s remove file • %s save • %s delete • %s close",
		k.NextField, k.Attach, k.FileUp, k.FileDown, k.RemoveFile, k.Save, k.DeleteNote, k.Cancel)
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func joinLines(rows []string) string {
	return strings.Join(rows, "\n")
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activeStyle = paneStyle.BorderForeground(lipgloss.Color("63"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
