package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/output"
	"github.com/manav03panchal/mindstore/internal/runtime"
	"github.com/manav03panchal/mindstore/internal/storage"
)

// cli runs commands against one on-disk database.
type cli struct {
	t  *testing.T
	db string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MINDSTORE_FALLBACK_PATH", filepath.Join(dir, "fallback.json"))
	t.Setenv("MINDSTORE_MIN_FREE_SPACE", "0")
	t.Setenv(runtime.PassphraseEnv, "")
	return &cli{t: t, db: filepath.Join(dir, "db")}
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace([]string{})
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--db", c.db, "--format", "json", "--env-file", ""}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	closeApp()
	return out.String(), err
}

func (c *cli) mustRun(v any, args ...string) {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	if v != nil {
		require.NoError(c.t, json.Unmarshal([]byte(out), v), out)
	}
}

func TestVersionCommand(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "mindstore dev")
	assert.Nil(t, app)
}

func TestStatusCommand(t *testing.T) {
	c := newCLI(t)
	var status output.StatusResponse
	c.mustRun(&status, "status")

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "primary", status.Mode)
	assert.Equal(t, storage.SchemaVersion, status.SchemaVersion)
	assert.Equal(t, c.db, status.DataPath)
	assert.False(t, status.SyncEnabled)
}

func TestProjectLifecycle(t *testing.T) {
	c := newCLI(t)

	var p model.Project
	c.mustRun(&p, "project", "create", "Roadmap", "--template", "mindmap", "-d", "next year")
	require.NotEmpty(t, p.ID)
	assert.Equal(t, model.InitialVersion, p.Version)
	assert.Len(t, p.Nodes, 5)

	var list output.ProjectsResponse
	c.mustRun(&list, "project", "list")
	assert.Equal(t, 1, list.Count)

	var updated model.Project
	c.mustRun(&updated, "project", "update", p.ID, "--name", "Roadmap 2026", "--tag", "work")
	assert.Equal(t, "Roadmap 2026", updated.Name)
	assert.Equal(t, []string{"work"}, updated.Tags)

	c.mustRun(&list, "project", "list", "--tag", "work")
	assert.Equal(t, 1, list.Count)

	var saved model.Project
	c.mustRun(&saved, "project", "save", p.ID, "-m", "milestones")
	assert.NotEqual(t, model.InitialVersion, saved.Version)

	var commits []commitOutput
	c.mustRun(&commits, "commit", "list", p.ID)
	require.Len(t, commits, 2)
	assert.Equal(t, "milestones", commits[1].Message)
	assert.True(t, commits[1].Current)

	var restored model.Project
	c.mustRun(&restored, "commit", "checkout", p.ID, commits[0].ID)
	assert.Equal(t, model.InitialVersion, restored.Version)
	assert.Equal(t, "Roadmap", restored.Name)

	out, err := c.run("project", "export", p.ID, "--as", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Roadmap")

	var history []model.ProjectHistoryEntry
	c.mustRun(&history, "project", "history", p.ID)
	actions := make([]model.HistoryAction, len(history))
	for i, h := range history {
		actions[i] = h.Action
	}
	assert.Contains(t, actions, model.ActionCreate)
	assert.Contains(t, actions, model.ActionSave)
	assert.Contains(t, actions, model.ActionExport)

	var saves []model.ProjectHistoryEntry
	c.mustRun(&saves, "project", "history", "--action", "save")
	require.Len(t, saves, 1)
	assert.Equal(t, p.ID, saves[0].ProjectID)
	c.mustRun(&saves, "project", "history", p.ID, "--action", "delete")
	assert.Empty(t, saves)

	var other model.Project
	c.mustRun(&other, "project", "create", "Backlog")
	c.mustRun(&list, "project", "list", "--recent", "1")
	require.Equal(t, 1, list.Count)
	c.mustRun(nil, "project", "delete", other.ID)

	c.mustRun(nil, "project", "archive", p.ID)
	c.mustRun(&list, "project", "list")
	assert.Equal(t, 0, list.Count)
	c.mustRun(&list, "project", "list", "--all")
	assert.Equal(t, 1, list.Count)

	c.mustRun(nil, "project", "delete", p.ID)
	c.mustRun(&list, "project", "list", "--all")
	assert.Equal(t, 0, list.Count)
}

func TestProjectErrors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("project", "show", "ghost")
	require.Error(t, err)
	assert.Equal(t, runtime.ExitUser, runtime.ExitCode(err))

	_, err = c.run("project", "create", "X", "--template", "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = c.run("--format", "xml", "status")
	require.Error(t, err)

	_, err = c.run("project", "history", "--action", "rename")
	require.Error(t, err)
	assert.Equal(t, runtime.ExitUser, runtime.ExitCode(err))

	_, err = c.run("project", "history")
	require.Error(t, err)
	assert.Equal(t, runtime.ExitUser, runtime.ExitCode(err))

	_, err = c.run("project", "list", "--recent", "-1")
	require.Error(t, err)
}

func TestSchemeCommands(t *testing.T) {
	c := newCLI(t)

	var schemes []model.ColorScheme
	c.mustRun(&schemes, "scheme", "list")
	ids := make([]string, len(schemes))
	for i, s := range schemes {
		ids[i] = s.ID
	}
	assert.ElementsMatch(t, []string{model.ColorSchemeDefault, model.ColorSchemeDark}, ids)

	var created model.ColorScheme
	c.mustRun(&created, "scheme", "create", "Solar", "--from", "dark", "--color", "idea=#B58900")
	assert.Equal(t, "#B58900", created.Colors[model.NodeTypeIdea])
	assert.True(t, created.IsCustom)

	_, err := c.run("scheme", "delete", model.ColorSchemeDefault)
	assert.True(t, errors.Is(err, errors.ErrDefaultSchemeProtected))

	c.mustRun(nil, "scheme", "default", created.ID)
	c.mustRun(nil, "scheme", "delete", model.ColorSchemeDefault)
}

func TestPrefsCommands(t *testing.T) {
	c := newCLI(t)

	var prefs model.NodePreferences
	c.mustRun(&prefs, "prefs", "set-size", "large")
	assert.Equal(t, model.SizeLarge, prefs.DefaultSize)

	c.mustRun(&prefs, "prefs", "set-color", "task", "#112233")
	assert.Equal(t, "#112233", prefs.CustomColors["task"])

	_, err := c.run("prefs", "set-size", "huge")
	assert.True(t, errors.IsUserError(err))
}

func TestSecretCommands(t *testing.T) {
	c := newCLI(t)

	c.mustRun(nil, "--passphrase", "hunter2", "secret", "set", "api", "s3cr3t")

	var got map[string]string
	c.mustRun(&got, "--passphrase", "hunter2", "secret", "get", "api")
	assert.Equal(t, "s3cr3t", got["value"])

	var keys []string
	c.mustRun(&keys, "secret", "list")
	assert.Equal(t, []string{"api"}, keys)

	_, err := c.run("--passphrase", "wrong", "secret", "get", "api")
	assert.True(t, errors.Is(err, errors.ErrDecryptionFailure))
}

func TestQueueAndSyncCommands(t *testing.T) {
	c := newCLI(t)

	var entries []model.OfflineQueueEntry
	c.mustRun(&entries, "queue", "list")
	assert.Empty(t, entries)
	c.mustRun(&entries, "queue", "list", "--operation", "upload")
	assert.Empty(t, entries)

	_, err := c.run("sync", "versions", "any")
	assert.True(t, errors.Is(err, errors.ErrSyncDisabled))
}

func TestLogsCommands(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("logs", "clear")
	require.Error(t, err)

	_, err = c.run("logs", "clear", "--before", "qwzx blorp")
	assert.True(t, errors.IsUserError(err))

	var entries []model.LogEntry
	c.mustRun(&entries, "logs", "list", "--level", "error", "--since", "last week")
	assert.Empty(t, entries)
}
