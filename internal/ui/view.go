package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"simplehub/internal/config"
	"simplehub/internal/render"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("SimpleHub"))
	b.WriteString("\n\n")

	switch m.mode {
	case modeEditor, modeAttach, modeConfirmDelete:
		b.WriteString(m.renderEditor())
	default:
		b.WriteString(m.renderPanes())
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	if m.mode == modeList {
		b.WriteString(renderHelp(m.cfg.Keys))
	}
	return b.String()
}

func (m Model) renderPanes() string {
	taskCursor, noteCursor := -1, -1
	if m.pane == paneTasks {
		taskCursor = m.cursor[paneTasks]
	} else {
		noteCursor = m.cursor[paneNotes]
	}

	tasks := "No tasks yet."
	if rows := render.Tasks(m.data.tasks, taskCursor); len(rows) > 0 {
		tasks = joinLines(rows)
	}
	notes := "No notes yet."
	if rows := render.Notes(m.data.notes, noteCursor); len(rows) > 0 {
		notes = joinLines(rows)
	}
	if m.mode == modeAddTask {
		tasks += "\n\n" + m.input.View()
	}

	taskBox, noteBox := activeStyle, paneStyle
	if m.pane == paneNotes {
		taskBox, noteBox = paneStyle, activeStyle
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		taskBox.Render("Tasks\n\n"+tasks),
		noteBox.Render("Notes\n\n"+notes),
	)
	if m.preview != "" {
		row += "\n" + m.preview
	}
	return row
}

func (m Model) renderEditor() string {
	ed := m.hub.Editor()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Note (%s)", ed.State))
	if ed.Saving {
		b.WriteString(" • saving…")
	}
	b.WriteString("\n\n")
	b.WriteString(m.title.View())
	b.WriteString("\n\n")
	b.WriteString(m.content.View())
	b.WriteString("\n\nAttachments\n")
	if rows := render.Attachments(ed.Files, ed.Pending, m.fileCur); len(rows) > 0 {
		b.WriteString(joinLines(rows))
	} else {
		b.WriteString("(none)")
	}
	if m.mode == modeAttach {
		b.WriteString("\n\n")
		b.WriteString(m.path.View())
	}
	b.WriteString("\n")
	return paneStyle.Render(b.String())
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s switch pane • %s add task • %s new note • %s open • %s toggle • %s delete • %s clear done • %s quit",
		k.Up, k.Down, k.SwitchPane, k.AddTask, k.AddNote, k.Open, keyLabel(k.Toggle), k.Delete, k.ClearDone, k.Quit)
}
