package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// field is one labelled line of a detail view
type field struct {
	label string
	value string
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// validateOutput rejects output formats other than text and json.
func validateOutput(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid output format %q (expected text or json)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// writeTable renders rows under headers. An empty row set prints emptyMsg instead.
func writeTable(w io.Writer, headers []string, rows [][]string, emptyMsg string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, emptyMsg)
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// writeFields renders a titled detail view. Fields with empty values are skipped.
func writeFields(w io.Writer, title string, fields []field) error {
	width := 0
	for _, f := range fields {
		if f.value != "" && len(f.label) > width {
			width = len(f.label)
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		label := labelStyle.Render(f.label + ":")
		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", width-len(f.label)+1))
		b.WriteString(f.value)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// label turns a snake_case key into a display label, "os_version" -> "Os Version".
func label(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
