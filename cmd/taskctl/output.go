package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskdeck/taskdeck/internal/model"
)

var (
	labelStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
)

const maxTitleCell = 60

func encodeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func statusLabel(s model.TaskStatus) string {
	switch s {
	case model.TaskStatusCompleted:
		return completedStyle.Render("[x] completed")
	default:
		return pendingStyle.Render("[ ] pending")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// formatTaskPage renders one page of tasks as aligned columns followed by
// a page footer.
func formatTaskPage(page *model.TaskPage) string {
	if len(page.Tasks) == 0 {
		return "No tasks found.\n"
	}

	rows := make([][]string, 0, len(page.Tasks)+1)
	rows = append(rows, []string{"ID", "STATUS", "UPDATED", "TITLE"})
	for _, t := range page.Tasks {
		rows = append(rows, []string{
			t.ID,
			statusLabel(t.Status),
			t.UpdatedAt.Local().Format("2006-01-02 15:04"),
			truncate(t.Title, maxTitleCell),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for r, row := range rows {
		for i, cell := range row {
			if r == 0 {
				cell = headerStyle.Render(cell)
			}
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s\n", mutedStyle.Render(fmt.Sprintf("page %d of %d, %d tasks", page.Page, page.PageCount(), page.Total)))
	return b.String()
}

func formatCounts(c model.StatusCounts) string {
	return fmt.Sprintf("%s %d\n%s %d\n%s %d\n",
		labelStyle.Render("Total:    "), c.Total,
		labelStyle.Render("Pending:  "), c.Pending,
		labelStyle.Render("Completed:"), c.Completed)
}

func formatProfile(p *model.Profile) string {
	if p == nil {
		return "No profile yet. Set one with `taskctl profile set --name ...`.\n"
	}
	orDash := func(s *string) string {
		if s == nil {
			return mutedStyle.Render("-")
		}
		return *s
	}
	return fmt.Sprintf("%s %s\n%s %s\n",
		labelStyle.Render("Name:  "), orDash(p.Name),
		labelStyle.Render("Avatar:"), orDash(p.AvatarURL))
}
