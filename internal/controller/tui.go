package controller

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// TUI implements UI with a Bubble Tea spinner for long running work and
// styled summaries.
type TUI struct {
	output io.Writer
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Track shows a spinner with elapsed time until fn returns.
func (t *TUI) Track(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	program := tea.NewProgram(newProgressModel(title),
		tea.WithOutput(t.output),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	go func() {
		err := fn(ctx)
		done <- err

		program.Send(finishedMsg{err: err})
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		// Terminal setup failed; keep the title visible as plain text.
		_, _ = fmt.Fprintf(t.output, "%s ...\n", title)
	}

	return <-done
}

// DisplayBuildResults renders the build summary.
func (t *TUI) DisplayBuildResults(ctx context.Context, outcomes []m.BuildOutcome) {
	if ctx.Err() != nil {
		return
	}

	failed := 0

	for _, o := range outcomes {
		if !o.Succeeded() {
			failed++
		}
	}

	t.println(titleStyle.Render("Build results"))
	t.println(renderBuildTable(outcomes))

	if failed == 0 {
		t.println(okStyle.Render(fmt.Sprintf("✓ %d build(s) succeeded", len(outcomes))))
	} else {
		t.println(failStyle.Render(fmt.Sprintf("✗ %d of %d build(s) failed", failed, len(outcomes))))
	}
}

// DisplayPackaging renders the written output locations.
func (t *TUI) DisplayPackaging(ctx context.Context, variant m.Variant, archive, manifest m.Path) {
	if ctx.Err() != nil {
		return
	}

	if archive != "" {
		t.println(fmt.Sprintf("%s %s %s", okStyle.Render("📦"), titleStyle.Render(variant.String()), archive))
	}

	if manifest != "" {
		t.println(fmt.Sprintf("%s %s %s", okStyle.Render("📄"), titleStyle.Render(variant.String()), manifest))
	}
}

// DisplaySnapshot confirms a recorded baseline.
func (t *TUI) DisplaySnapshot(ctx context.Context, root, snapshotPath m.Path, files int) {
	if ctx.Err() != nil {
		return
	}

	t.println(fmt.Sprintf("%s recorded %d file(s) under %s", okStyle.Render("✓"), files, root))
	t.println(faintStyle.Render("  " + snapshotPath.String()))
}

// DisplayStatus renders the status table with a colored verdict.
func (t *TUI) DisplayStatus(ctx context.Context, root m.Path, status m.DirectoryStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !status.Touched() {
		t.println(okStyle.Render(fmt.Sprintf("✓ no changes under %s (%d file(s))", root, len(status.Unchanged))))
		return nil
	}

	t.println(titleStyle.Render(fmt.Sprintf("Changes under %s", root)))

	return WriteStatus(t.output, FormatText, root, status)
}

// DisplayStageResults renders the verification summary.
func (t *TUI) DisplayStageResults(ctx context.Context, results []domain.StageResult) {
	if ctx.Err() != nil {
		return
	}

	t.println(titleStyle.Render("Verification"))
	t.println(renderStageTable(results))

	for _, r := range results {
		if !r.Passed() {
			t.println(failStyle.Render("✗ verification failed"))
			return
		}
	}

	t.println(okStyle.Render("✓ all stages passed"))
}

func (t *TUI) println(s string) {
	_, _ = fmt.Fprintln(t.output, s)
}

type finishedMsg struct {
	err error
}

// progressModel is the Bubble Tea model behind Track.
type progressModel struct {
	spinner spinner.Model
	title   string
	start   time.Time
	done    bool
	err     error
}

func newProgressModel(title string) progressModel {
	return progressModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(okStyle)),
		title:   title,
		start:   time.Now(),
	}
}

func (pm progressModel) Init() tea.Cmd {
	return pm.spinner.Tick
}

func (pm progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case finishedMsg:
		pm.done = true
		pm.err = msg.err

		return pm, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return pm, tea.Quit
		}

		return pm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		pm.spinner, cmd = pm.spinner.Update(msg)

		return pm, cmd
	}

	return pm, nil
}

func (pm progressModel) View() string {
	elapsed := time.Since(pm.start).Round(time.Second)

	if !pm.done {
		return fmt.Sprintf("%s %s %s\n", pm.spinner.View(), pm.title, faintStyle.Render(elapsed.String()))
	}

	if pm.err != nil {
		return fmt.Sprintf("%s %s %s\n", failStyle.Render("✗"), pm.title, faintStyle.Render(pm.err.Error()))
	}

	return fmt.Sprintf("%s %s %s\n", okStyle.Render("✓"), pm.title, faintStyle.Render(elapsed.String()))
}
