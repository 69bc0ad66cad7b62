package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"simplehub/internal/render"
)

func newTaskCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Manage the task checklist",
	}

	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Append a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			added, err := current().hub.AddTask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintln(cmd.OutOrStdout(), "Added task")
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print all tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for i, row := range render.Tasks(current().hub.Tasks(), -1) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d.%s\n", i+1, row[1:])
			}
			return nil
		},
	}

	var undo bool
	done := &cobra.Command{
		Use:   "done <n>",
		Short: "Mark task n as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			return current().hub.ToggleTask(cmd.Context(), pos, !undo)
		},
	}
	done.Flags().BoolVar(&undo, "undo", false, "mark the task as not completed")

	rm := &cobra.Command{
		Use:     "rm <n>",
		Aliases: []string{"delete"},
		Short:   "Delete task n",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			return current().hub.DeleteTask(cmd.Context(), pos)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := current().hub.ClearCompleted(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d task(s)\n", n)
			return nil
		},
	}

	cmd.AddCommand(add, list, done, rm, clearCmd)
	return cmd
}

// parsePosition turns a 1-based command line position into an index.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return n - 1, nil
}
