package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer

	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&out)

	return cmd, &out
}

func sampleStatus(root string) m.DirectoryStatus {
	return m.DirectoryStatus{
		Changed:   []m.Path{m.Path(filepath.Join(root, "out", "main.o"))},
		New:       []m.Path{m.Path(filepath.Join(root, "out", "extra.o"))},
		Deleted:   []m.Path{},
		Unchanged: []m.Path{m.Path(filepath.Join(root, "out", "util.o"))},
	}
}

func TestNewUI(t *testing.T) {
	cmd, _ := newTestCmd()

	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false))
	assert.IsType(t, &TUI{}, NewUI(cmd, true))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"text": FormatText, "json": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseOutputFormat("xml")
	assert.Error(t, err)
}

func TestWriteStatus_JSON(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "build")
	var out bytes.Buffer

	require.NoError(t, WriteStatus(&out, FormatJSON, m.Path(root), sampleStatus(root)))

	var decoded struct {
		Root    string         `json:"root"`
		Counts  m.StatusCounts `json:"counts"`
		Changed []string       `json:"changed"`
		Deleted []string       `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, root, decoded.Root)
	assert.Equal(t, m.StatusCounts{Changed: 1, New: 1, Unchanged: 1}, decoded.Counts)
	assert.Equal(t, []string{filepath.Join(root, "out", "main.o")}, decoded.Changed)
	assert.NotNil(t, decoded.Deleted)
}

func TestWriteStatus_YAML(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "build")
	var out bytes.Buffer

	require.NoError(t, WriteStatus(&out, FormatYAML, m.Path(root), sampleStatus(root)))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, root, decoded["root"])
	assert.Contains(t, decoded, "changed")
	assert.Contains(t, decoded, "unchanged")
	assert.Contains(t, decoded, "counts")
}

func TestWriteStatus_Text(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "build")
	var out bytes.Buffer

	require.NoError(t, WriteStatus(&out, FormatText, m.Path(root), sampleStatus(root)))

	text := out.String()
	assert.Contains(t, text, "out/main.o")
	assert.Contains(t, text, "out/extra.o")
	assert.NotContains(t, text, "util.o")
	assert.Contains(t, text, "1 CHANGED, 1 NEW, 0 DELETED, 1 UNCHANGED")
}

func TestSimpleUI_Track(t *testing.T) {
	cmd, out := newTestCmd()
	ui := NewSimpleUI(cmd)

	require.NoError(t, ui.Track(context.Background(), "build Bla/Blub", func(context.Context) error { return nil }))
	assert.Contains(t, out.String(), "build Bla/Blub: ok")

	boom := errors.New("boom")
	err := ui.Track(context.Background(), "build A", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, out.String(), "build A: FAILED (boom)")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err = ui.Track(ctx, "never", func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSimpleUI_Displays(t *testing.T) {
	cmd, out := newTestCmd()
	ui := NewSimpleUI(cmd)
	ctx := context.Background()

	ui.DisplayBuildResults(ctx, []m.BuildOutcome{
		{Variant: "A", BuildKit: m.KitProd, Target: "all", ReturnCode: 0, Duration: time.Second},
		{Variant: "B", BuildKit: m.KitProd, Target: "all", ReturnCode: 2},
		{Variant: "C", BuildKit: m.KitProd, Target: "all", Err: errors.New("spawn failed")},
	})
	ui.DisplayPackaging(ctx, "A", "/w/artifacts.zip", "")
	ui.DisplaySnapshot(ctx, "/w/build", "/w/build/.vbuild/snapshot.gob", 7)
	ui.DisplayStageResults(ctx, []domain.StageResult{
		{Stage: domain.StageBuild, Variant: "A", BuildKit: m.KitProd, Target: "all"},
		{Stage: domain.StageReports, Variant: "A", BuildKit: m.KitTest, Target: "all", Missing: []m.Path{"c/reports/html/index.html"}},
	})

	text := out.String()
	assert.Contains(t, text, "2 FAILED")
	assert.Contains(t, text, "spawn failed")
	assert.Contains(t, text, "A: archive /w/artifacts.zip")
	assert.NotContains(t, text, "manifest")
	assert.Contains(t, text, "Recorded 7 file(s)")
	assert.Contains(t, text, "c/reports/html/index.html")
}

func TestTUI_Displays(t *testing.T) {
	var out bytes.Buffer
	ui := NewTUI(&out)
	ctx := context.Background()

	require.NoError(t, ui.DisplayStatus(ctx, "/w", m.DirectoryStatus{Unchanged: []m.Path{"/w/a"}}))
	assert.Contains(t, out.String(), "no changes under /w")

	out.Reset()
	ui.DisplayBuildResults(ctx, []m.BuildOutcome{{Variant: "A", ReturnCode: 1}})
	assert.Contains(t, out.String(), "1 of 1 build(s) failed")

	out.Reset()
	ui.DisplayStageResults(ctx, []domain.StageResult{{Stage: domain.StageBuild, Variant: "A"}})
	assert.Contains(t, out.String(), "all stages passed")
}

func TestTUI_Track(t *testing.T) {
	var out bytes.Buffer
	ui := NewTUI(&out)

	boom := errors.New("license server down")
	err := ui.Track(context.Background(), "build A", func(context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestProgressModel(t *testing.T) {
	pm := newProgressModel("build A")
	assert.NotNil(t, pm.Init())
	assert.Contains(t, pm.View(), "build A")

	updated, cmd := pm.Update(finishedMsg{err: errors.New("exit 2")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Contains(t, updated.View(), "exit 2")

	updated, _ = pm.Update(finishedMsg{})
	assert.Contains(t, updated.View(), "✓")
}
