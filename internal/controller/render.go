package controller

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

const (
	okLabel     = "ok"
	failedLabel = "FAILED"
)

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

func renderBuildTable(outcomes []m.BuildOutcome) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Variant", "Kit", "Target", "Exit", "Duration", "Result"})

	failed := 0

	for _, o := range outcomes {
		result := okLabel
		exit := fmt.Sprintf("%d", o.ReturnCode)

		if o.Err != nil {
			exit = "-"
			result = o.Err.Error()
		}

		if !o.Succeeded() {
			failed++
			if o.Err == nil {
				result = failedLabel
			}
		}

		table.Append([]string{o.Variant.String(), o.BuildKit.String(), o.Target, exit, o.Duration.Round(10*time.Millisecond).String(), result})
	}

	table.SetFooter([]string{fmt.Sprintf("Total %d", len(outcomes)), "", "", "", "", fmt.Sprintf("%d failed", failed)})
	table.Render()

	return buf.String()
}

func renderStatusTable(root m.Path, status m.DirectoryStatus) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"State", "Path"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	groups := []struct {
		label string
		paths []m.Path
	}{
		{"changed", status.Changed},
		{"new", status.New},
		{"deleted", status.Deleted},
	}

	for _, g := range groups {
		for _, p := range g.paths {
			table.Append([]string{g.label, relativeTo(root, p)})
		}
	}

	c := status.Counts()
	table.SetFooter([]string{
		"",
		fmt.Sprintf("%d changed, %d new, %d deleted, %d unchanged", c.Changed, c.New, c.Deleted, c.Unchanged),
	})
	table.Render()

	return buf.String()
}

func renderStageTable(results []domain.StageResult) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Variant", "Stage", "Kit", "Target", "Exit", "Missing", "Result"})

	for _, r := range results {
		result := okLabel
		if !r.Passed() {
			result = failedLabel
		}

		missing := make([]string, 0, len(r.Missing))
		for _, p := range r.Missing {
			missing = append(missing, filepath.ToSlash(p.String()))
		}

		table.Append([]string{
			r.Variant.String(), string(r.Stage), r.BuildKit.String(), r.Target,
			fmt.Sprintf("%d", r.ReturnCode), strings.Join(missing, " "), result,
		})
	}

	table.Render()

	return buf.String()
}

func relativeTo(root, path m.Path) string {
	rel, err := filepath.Rel(root.String(), path.String())
	if err != nil || strings.HasPrefix(rel, "..") {
		return path.String()
	}

	return filepath.ToSlash(rel)
}
