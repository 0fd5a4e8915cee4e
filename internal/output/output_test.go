package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/mindstore/internal/model"
)

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func plain(buf *bytes.Buffer) *CLIFormatter {
	return NewCLIFormatter(&Formatter{Writer: buf, ColorMode: ColorNever})
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNewFormatter(t *testing.T) {
	f := NewFormatter()
	assert.NotNil(t, f)
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCLI, "cli": FormatCLI, "json": FormatJSON, "plain": FormatPlain} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestFormatterIsColorEnabled(t *testing.T) {
	t.Run("color_always", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorAlways}
		assert.True(t, f.IsColorEnabled())
	})

	t.Run("color_never", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorNever}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("plain_format_disables_color", func(t *testing.T) {
		f := &Formatter{Format: FormatPlain, ColorMode: ColorAlways}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("color_auto_non_terminal", func(t *testing.T) {
		var buf bytes.Buffer
		f := &Formatter{Writer: &buf, ColorMode: ColorAuto}
		assert.False(t, f.IsColorEnabled())
	})
}

func TestFormatterPrint(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	f.Print("hello")
	f.Println(" world")
	f.Printf("%d", 42)
	assert.Equal(t, "hello world\n42", buf.String())
}

func TestFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	require.NoError(t, f.JSON(map[string]string{"key": "value"}))
	assert.Contains(t, buf.String(), `"key": "value"`)
}

func TestFormatterWrite(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	require.NoError(t, f.Write([]byte("a: 1")))
	require.NoError(t, f.Write([]byte("b: 2\n")))
	assert.Equal(t, "a: 1\nb: 2\n", buf.String())
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", FormatTime(time.Time{}))
	assert.Equal(t, "-", FormatTimeShort(time.Time{}))
	assert.Len(t, FormatTime(now), len("2006-01-02 15:04:05"))
	assert.Len(t, FormatTimeShort(now), len("2006-01-02 15:04"))
}

func TestFormatAgo(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAgo(tt.at, now))
		})
	}
}

// =============================================================================
// CLIFormatter Tests
// =============================================================================

func TestCLIFormatterMessages(t *testing.T) {
	var buf bytes.Buffer
	c := plain(&buf)

	c.Title("Title")
	c.Success("saved")
	c.Warning("careful")
	c.Error("broken")
	c.Muted("quiet")
	c.KeyValue("ID", "p1")

	assert.Equal(t, "Title\n✓ saved\n⚠ careful\n✗ broken\nquiet\n  ID: p1\n", buf.String())
}

func TestCLIFormatterInlineStyles(t *testing.T) {
	c := plain(&bytes.Buffer{})
	assert.Equal(t, "Demo", c.ProjectName("Demo"))
	assert.Equal(t, "0.1.0", c.Version("0.1.0"))
	assert.Equal(t, "#a #b", c.Tags([]string{"a", "b"}))
	assert.Empty(t, c.Tags(nil))
	assert.Equal(t, "#FF0000", c.Swatch("#FF0000"))
}

func TestCLIFormatterSwatchWithColor(t *testing.T) {
	c := NewCLIFormatter(&Formatter{Writer: &bytes.Buffer{}, ColorMode: ColorAlways})
	assert.True(t, strings.HasSuffix(c.Swatch("#FF0000"), " #FF0000"))
	assert.Equal(t, "nope", c.Swatch("nope"))
}

func TestCLIFormatterPrintProject(t *testing.T) {
	var buf bytes.Buffer
	c := plain(&buf)

	archivedAt := now.Add(-time.Hour)
	p := &model.Project{
		ID:          "p1",
		Name:        "Demo",
		Description: "desc",
		Version:     "0.1.0",
		Tags:        []string{"work"},
		Nodes:       []model.Node{{ID: "root"}},
		UpdatedAt:   now.Add(-2 * time.Hour),
		IsArchived:  true,
		ArchivedAt:  &archivedAt,
	}
	c.PrintProject(p, now)

	out := buf.String()
	assert.Contains(t, out, "Demo 0.1.0 (archived)")
	assert.Contains(t, out, "ID: p1")
	assert.Contains(t, out, "Description: desc")
	assert.Contains(t, out, "Tags: #work")
	assert.Contains(t, out, "Nodes: 1")
	assert.Contains(t, out, "(2h ago)")
	assert.Contains(t, out, "Archived:")
}

func TestCLIFormatterPrintProjectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).PrintProjects(nil, now)
	assert.Contains(t, buf.String(), "No projects.")
}

func TestCLIFormatterPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).PrintProjects([]model.Project{
		{ID: "p1", Name: "Alpha", Version: "0.1.0", UpdatedAt: now},
		{ID: "p2", Name: "Beta", Version: "2025.3.14-1200", IsArchived: true, UpdatedAt: now},
	}, now)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[3], "Beta (archived)")
}

func TestCLIFormatterPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).PrintHistory([]model.ProjectHistoryEntry{
		{ProjectID: "p1", Timestamp: now, Action: model.ActionCreate, Details: map[string]any{"name": "Demo", "template": "blank"}},
	})
	assert.Contains(t, buf.String(), "create")
	assert.Contains(t, buf.String(), "name=Demo template=blank")
}

func TestCLIFormatterPrintCommits(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).PrintCommits([]model.Commit{
		{ID: "c1", Version: "0.1.0", Message: "Initial version", Timestamp: now},
		{ID: "c2", Version: "2025.3.14-1200", Message: "more", Timestamp: now},
	}, "c2")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.False(t, strings.HasPrefix(lines[2], "*"))
	assert.True(t, strings.HasPrefix(lines[3], "*"))
}

func TestCLIFormatterPrintLogs(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).PrintLogs([]model.LogEntry{
		{Timestamp: now.Format(time.RFC3339Nano), Level: model.LogError, Message: "write failed", Context: map[string]any{"op": "x"}},
	})
	assert.Contains(t, buf.String(), "ERROR write failed op=x")
}

func TestCLIFormatterPrintTable(t *testing.T) {
	var buf bytes.Buffer
	c := plain(&buf)

	c.PrintTable([]string{"A", "LONGER"}, []TableRow{
		{Columns: []string{"wide value", "x"}},
		{Columns: []string{"v", "y"}},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A           LONGER", lines[0])
	assert.Equal(t, "wide value  x", lines[2])
	assert.Equal(t, "v           y", lines[3])
}

func TestCLIFormatterPrintTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).PrintTable([]string{"A"}, nil)
	assert.Empty(t, buf.String())
}

// =============================================================================
// JSONFormatter Tests
// =============================================================================

func TestJSONFormatterPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintProjects(nil))
	var resp ProjectsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Projects)
	assert.Contains(t, buf.String(), `"projects": []`)
}

func TestJSONFormatterPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintStatus(StatusResponse{Status: "ok", Mode: "degraded", Reason: "timeout", SchemaVersion: 4}))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "degraded", got["mode"])
	assert.Equal(t, "timeout", got["reason"])
	assert.EqualValues(t, 4, got["schema_version"])
}

func TestJSONFormatterPrintError(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintError("record not found", "user", "List projects"))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrorResponse{Status: "error", Error: "record not found", Category: "user", Suggestion: "List projects"}, resp)
}

func TestJSONFormatterPrintResult(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintResult("deleted", "p1", 0))
	assert.JSONEq(t, `{"status":"deleted","id":"p1"}`, buf.String())
}
