package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"simplehub/internal/render"
)

func newNoteCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes", "n"},
		Short:   "Manage notes",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print note titles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for i, row := range render.Notes(current().hub.Notes(), -1) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d.%s\n", i+1, row[1:])
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <n>",
		Short: "Print a note with its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			note, ok := current().hub.Note(pos)
			if !ok {
				return fmt.Errorf("no note at position %s", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, note.Title)
			if preview := render.NotePreview(note.Content, 80, render.PreviewPlain); preview != "" {
				fmt.Fprintln(out, preview)
			}
			for _, row := range render.Attachments(note.Files, nil, -1) {
				fmt.Fprintln(out, row[1:])
			}
			return nil
		},
	}

	var (
		title   string
		content string
		files   []string
		edit    int
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a note, or update note --edit n",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			pos := -1
			if edit > 0 {
				pos = edit - 1
			}
			if err := a.hub.OpenEditor(pos); err != nil {
				return err
			}
			ed := a.hub.Editor()
			if title == "" {
				title = ed.Title
			}
			if !cmd.Flags().Changed("content") {
				content = ed.Content
			}
			a.hub.SetTitle(title)
			a.hub.SetContent(content)
			for _, f := range files {
				if err := a.hub.StageFile(f); err != nil {
					return err
				}
			}
			if err := a.hub.SaveEditor(cmd.Context(), a.enc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved note")
			return nil
		},
	}
	add.Flags().StringVar(&title, "title", "", "note title (required for new notes)")
	add.Flags().StringVar(&content, "content", "", "note body")
	add.Flags().StringArrayVar(&files, "attach", nil, "file to attach (repeatable)")
	add.Flags().IntVar(&edit, "edit", 0, "update the note at this position instead of creating one")

	rm := &cobra.Command{
		Use:     "rm <n>",
		Aliases: []string{"delete"},
		Short:   "Delete note n",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			a := current()
			if err := a.hub.OpenEditor(pos); err != nil {
				return err
			}
			return a.hub.DeleteEditor(cmd.Context())
		},
	}

	var dir string
	export := &cobra.Command{
		Use:   "export <n>",
		Short: "Write note n's attachments to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			note, ok := current().hub.Note(pos)
			if !ok {
				return fmt.Errorf("no note at position %s", args[0])
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			for _, f := range note.Files {
				raw, err := f.Bytes()
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name, err)
				}
				dst := filepath.Join(dir, filepath.Base(f.Name))
				if err := os.WriteFile(dst, raw, 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dst)
			}
			return nil
		},
	}
	export.Flags().StringVar(&dir, "dir", ".", "destination directory")

	cmd.AddCommand(list, show, add, rm, export)
	return cmd
}
