package output

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/mindstore/internal/model"
)

// Styles for CLI output.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorSuccess = lipgloss.Color("#10B981")

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleProject = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleVersion = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleTag = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorMuted)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(s lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return s.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// KeyValue prints an indented "key: value" line.
func (c *CLIFormatter) KeyValue(key string, value any) {
	c.Printf("  %s %v\n", c.render(styleMuted, key+":"), value)
}

// ProjectName formats a project name.
func (c *CLIFormatter) ProjectName(name string) string {
	return c.render(styleProject, name)
}

// Version formats a version label.
func (c *CLIFormatter) Version(label string) string {
	return c.render(styleVersion, label)
}

// Tags formats a tag list.
func (c *CLIFormatter) Tags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return c.render(styleTag, "#"+strings.Join(tags, " #"))
}

// Swatch renders a color sample followed by its hex value.
func (c *CLIFormatter) Swatch(hex string) string {
	if !c.IsColorEnabled() || !model.ValidateColor(hex) {
		return hex
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ") + " " + hex
}

// PrintProject prints a project summary.
func (c *CLIFormatter) PrintProject(p *model.Project, now time.Time) {
	title := c.ProjectName(p.Name) + " " + c.Version(p.Version)
	if p.IsArchived {
		title += c.render(styleMuted, " (archived)")
	}
	if p.IsTemplate {
		title += c.render(styleMuted, " (template)")
	}
	c.Println(title)
	c.KeyValue("ID", p.ID)
	if p.Description != "" {
		c.KeyValue("Description", p.Description)
	}
	if len(p.Tags) > 0 {
		c.KeyValue("Tags", c.Tags(p.Tags))
	}
	c.KeyValue("Nodes", len(p.Nodes))
	c.KeyValue("Edges", len(p.Edges))
	c.KeyValue("Created", FormatTime(p.CreatedAt))
	c.KeyValue("Updated", FormatTime(p.UpdatedAt)+" ("+FormatAgo(p.UpdatedAt, now)+")")
	if p.ArchivedAt != nil {
		c.KeyValue("Archived", FormatTime(*p.ArchivedAt))
	}
	if p.SyncSettings.EnableS3Sync {
		c.KeyValue("Sync", p.SyncSettings.SyncFrequency)
	}
}

// PrintProjects prints a project table.
func (c *CLIFormatter) PrintProjects(projects []model.Project, now time.Time) {
	if len(projects) == 0 {
		c.Muted("No projects.")
		c.Muted("Use 'mindstore project create <name>' to start one.")
		return
	}
	rows := make([]TableRow, 0, len(projects))
	for _, p := range projects {
		name := p.Name
		if p.IsArchived {
			name += " (archived)"
		}
		rows = append(rows, TableRow{Columns: []string{
			p.ID, name, p.Version, strings.Join(p.Tags, ","), FormatAgo(p.UpdatedAt, now),
		}})
	}
	c.PrintTable([]string{"ID", "NAME", "VERSION", "TAGS", "UPDATED"}, rows)
}

// PrintHistory prints project history entries.
func (c *CLIFormatter) PrintHistory(entries []model.ProjectHistoryEntry) {
	if len(entries) == 0 {
		c.Muted("No history.")
		return
	}
	rows := make([]TableRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, TableRow{Columns: []string{
			FormatTime(e.Timestamp), string(e.Action), formatDetails(e.Details),
		}})
	}
	c.PrintTable([]string{"TIME", "ACTION", "DETAILS"}, rows)
}

// PrintCommits prints a commit list, marking the current one.
func (c *CLIFormatter) PrintCommits(commits []model.Commit, currentID string) {
	if len(commits) == 0 {
		c.Muted("No commits.")
		return
	}
	rows := make([]TableRow, 0, len(commits))
	for _, cm := range commits {
		marker := ""
		if cm.ID == currentID {
			marker = "*"
		}
		rows = append(rows, TableRow{Columns: []string{marker, cm.ID, cm.Version, FormatTime(cm.Timestamp), cm.Message}})
	}
	c.PrintTable([]string{"", "ID", "VERSION", "TIME", "MESSAGE"}, rows)
}

// PrintLogs prints persisted log entries.
func (c *CLIFormatter) PrintLogs(entries []model.LogEntry) {
	if len(entries) == 0 {
		c.Muted("No log entries.")
		return
	}
	for _, e := range entries {
		level := strings.ToUpper(string(e.Level))
		switch e.Level {
		case model.LogError, model.LogCritical:
			level = c.render(styleError, level)
		case model.LogWarn:
			level = c.render(styleWarning, level)
		default:
			level = c.render(styleMuted, level)
		}
		c.Printf("%s %s %s", FormatTime(e.Time()), level, e.Message)
		if len(e.Context) > 0 {
			c.Printf(" %s", c.render(styleMuted, formatDetails(e.Context)))
		}
		c.Println()
	}
}

func formatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}

// TableRow is one row of PrintTable.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple aligned table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	pad := func(s string, w int) string {
		return s + strings.Repeat(" ", max(w-lipgloss.Width(s), 0)) + "  "
	}

	var header strings.Builder
	for i, h := range headers {
		header.WriteString(pad(h, widths[i]))
	}
	c.Println(c.render(styleBold, strings.TrimRight(header.String(), " ")))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				line.WriteString(pad(col, widths[i]))
			}
		}
		c.Println(strings.TrimRight(line.String(), " "))
	}
}
