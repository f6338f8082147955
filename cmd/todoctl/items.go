package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bryankimani/todo-list/internal/todo"
)

var (
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Strikethrough(true)
	starStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// HealthResponse matches internal/http HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check todod server health",
		Long: `Check the health status of the todod HTTP server.

Examples:
  # Check health
  todoctl health

  # Check health on a different server
  todoctl health --server http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp HealthResponse
			if _, err := newClient(opts.serverURL).do(cmd.Context(), http.MethodGet, "/health", nil, &resp); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server Status: %s\n", resp.Status)
			fmt.Fprintf(out, "Server URL: %s\n", opts.serverURL)
			return nil
		},
	}
}

type listFlags struct {
	completed bool
	starred   bool
	list      string
	page      int
	limit     int
}

func (f listFlags) query(listSet bool) url.Values {
	q := url.Values{}
	q.Set("isComplete", strconv.FormatBool(f.completed))
	if f.starred {
		q.Set("starred", "true")
	}
	if listSet {
		q.Set("listId", f.list)
	}
	if f.page > 0 {
		q.Set("_page", strconv.Itoa(f.page))
		if f.limit > 0 {
			q.Set("_limit", strconv.Itoa(f.limit))
		}
	}
	return q
}

func newListCmd(opts *options) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List open tasks, or completed ones with --completed.

Examples:
  # Open tasks
  todoctl list

  # Starred tasks in one list
  todoctl list --starred --list 3f1c...

  # Tasks without a list
  todoctl list --list ""`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := f.query(cmd.Flags().Changed("list"))

			var items []todo.Item
			header, err := newClient(opts.serverURL).do(cmd.Context(), http.MethodGet, "/items?"+q.Encode(), nil, &items)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No tasks."))
				return nil
			}
			for _, item := range items {
				printItem(out, item)
			}
			if total := header.Get("X-Total-Count"); total != "" {
				fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d of %s tasks", len(items), total)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&f.completed, "completed", false, "show completed tasks instead of open ones")
	cmd.Flags().BoolVar(&f.starred, "starred", false, "only starred tasks")
	cmd.Flags().StringVar(&f.list, "list", "", "only tasks in this list id (empty for the default list)")
	cmd.Flags().IntVar(&f.page, "page", 0, "page number (1-based)")
	cmd.Flags().IntVar(&f.limit, "limit", 10, "tasks per page when --page is set")
	return cmd
}

func printItem(w io.Writer, item todo.Item) {
	box := "[ ]"
	heading := titleStyle.Render(item.Heading)
	if item.IsComplete {
		box = "[x]"
		heading = doneStyle.Render(item.Heading)
	}
	star := " "
	if item.Starred {
		star = starStyle.Render("★")
	}
	fmt.Fprintf(w, "%s %s %s %s\n", box, star, idStyle.Render(item.ID), heading)
}

func newAddCmd(opts *options) *cobra.Command {
	var body, list string
	cmd := &cobra.Command{
		Use:   "add <heading>",
		Short: "Add a task",
		Long: `Add a task.

Examples:
  todoctl add "Buy milk" --body "two cartons"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := map[string]string{"heading": args[0], "body": body, "listId": list}
			var item todo.Item
			if _, err := newClient(opts.serverURL).do(cmd.Context(), http.MethodPost, "/items", in, &item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "task body, Markdown (required)")
	cmd.Flags().StringVar(&list, "list", "", "list id")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

// patchCmd builds a command that sets one boolean field on a task.
func patchCmd(opts *options, use, short, field, undoFlag, undoUsage, done, undone string) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var item todo.Item
			body := map[string]bool{field: !undo}
			if _, err := newClient(opts.serverURL).do(cmd.Context(), http.MethodPatch, "/items/"+url.PathEscape(args[0]), body, &item); err != nil {
				return err
			}
			msg := done
			if undo {
				msg = undone
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", msg, item.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, undoFlag, false, undoUsage)
	return cmd
}

func newCompleteCmd(opts *options) *cobra.Command {
	return patchCmd(opts, "complete", "Mark a task complete", "isComplete",
		"undo", "move the task back to to-do", "Completed", "Reopened")
}

func newStarCmd(opts *options) *cobra.Command {
	return patchCmd(opts, "star", "Star a task", "starred",
		"remove", "unstar the task", "Starred", "Unstarred")
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := newClient(opts.serverURL).do(cmd.Context(), http.MethodDelete, "/items/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
