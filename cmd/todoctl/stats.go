package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bryankimani/todo-list/internal/tasks"
	"github.com/bryankimani/todo-list/internal/todo"
)

const barWidth = 30

var (
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Width(16)
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion progress",
		Long: `Show overall and per-list completion as progress bars.

Examples:
  todoctl stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var report tasks.ProgressReport
			if _, err := newClient(opts.serverURL).do(cmd.Context(), http.MethodGet, "/api/v1/progress", nil, &report); err != nil {
				return err
			}
			renderStats(cmd.OutOrStdout(), &report)
			return nil
		},
	}
}

func renderStats(w io.Writer, report *tasks.ProgressReport) {
	bar := progress.New(
		progress.WithGradient("#ff5f5f", "#5fff87"),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	line := func(p todo.Progress) string {
		return labelStyle.Render(p.Name) + " " +
			bar.ViewAs(float64(p.Percent)/100) + " " +
			fmt.Sprintf("%3d%% (%d/%d)", p.Percent, p.Completed, p.Total)
	}

	fmt.Fprintln(w, sectionStyle.Render("┃ Overall"))
	fmt.Fprintln(w, line(report.Overall))
	fmt.Fprintf(w, "%s %d  %s %d\n",
		dimStyle.Render("Completed:"), report.Overall.Completed,
		dimStyle.Render("Incomplete:"), report.Overall.Incomplete())

	if len(report.Lists) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("┃ Lists"))
	for _, p := range report.Lists {
		fmt.Fprintln(w, line(p))
	}
}
