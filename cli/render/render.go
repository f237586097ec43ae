// Package render provides output rendering for the corpus CLI.
//
// Format selection:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format always overrides the default
//
// --no-color affects table and markdown output only.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/corpus/cli/tui"
	"github.com/pithecene-io/corpus/types"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// MarkdownWrap is the word-wrap width for markdown transcripts.
const MarkdownWrap = 100

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context, writing to the app's
// writer (stdout unless overridden).
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stdout
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}
	tty := isTTY(out)

	if format == "" {
		if tty {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color") || !tty,
		out:     out,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Format returns the selected output format.
func (r *Renderer) Format() Format {
	return r.format
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderState outputs a UI state. Table format gets a readable layout
// (status line, transcript, chapters, characters); json and yaml encode
// the state as is.
func (r *Renderer) RenderState(s types.UIState) error {
	if r.format != FormatTable {
		return r.Render(s)
	}

	status := string(s.Status)
	if !r.noColor {
		status = tui.StateStyle(status).Render(status)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	if s.SessionID != "" {
		fmt.Fprintf(w, "session:\t%s\n", s.SessionID)
	}
	fmt.Fprintf(w, "status:\t%s\n", status)
	fmt.Fprintf(w, "progress:\t%d%%\n", s.Progress)
	if s.LocalError != "" {
		fmt.Fprintf(w, "local_error:\t%s\n", s.LocalError)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(s.Transcript) > 0 {
		r.heading("Transcript")
		for _, line := range s.Transcript {
			fmt.Fprintln(r.out, line)
		}
	}
	if len(s.Chapters) > 0 {
		r.heading("Chapters")
		if err := r.renderTable(s.Chapters); err != nil {
			return err
		}
	}
	if len(s.Characters) > 0 {
		r.heading("Characters")
		if err := r.renderTable(characterRows(s.Characters)); err != nil {
			return err
		}
	}
	return nil
}

// RenderMarkdown renders the state's transcript, chapters, and characters
// as terminal-styled markdown.
func (r *Renderer) RenderMarkdown(s types.UIState) error {
	style := "dark"
	if r.noColor {
		style = "notty"
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(MarkdownWrap),
	)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := tr.Render(Markdown(s))
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(r.out, out)
	return err
}

// Markdown builds the markdown document for a state.
func Markdown(s types.UIState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", orDash(s.SessionID))
	fmt.Fprintf(&b, "**Status:** %s | **Progress:** %d%%\n\n", s.Status, s.Progress)

	if len(s.Transcript) > 0 {
		b.WriteString("## Transcript\n\n")
		for _, line := range s.Transcript {
			if strings.HasPrefix(line, types.ErrorPrefix) {
				fmt.Fprintf(&b, "> %s\n\n", line)
				continue
			}
			fmt.Fprintf(&b, "%s\n\n", line)
		}
	}

	if len(s.Chapters) > 0 {
		b.WriteString("## Chapters\n\n")
		for _, ch := range s.Chapters {
			fmt.Fprintf(&b, "### %d. %s\n\n%s\n\n", ch.ID, ch.Name, ch.Summary)
		}
	}

	if len(s.Characters) > 0 {
		b.WriteString("## Characters\n\n")
		for _, c := range s.Characters {
			fmt.Fprintf(&b, "### %s\n\n", c.Name)
			if c.Arc != "" {
				fmt.Fprintf(&b, "- **Arc:** %s\n", c.Arc)
			}
			if c.PhysicalDescription != "" {
				fmt.Fprintf(&b, "- **Physical:** %s\n", c.PhysicalDescription)
			}
			if c.PsychologicalDescription != "" {
				fmt.Fprintf(&b, "- **Psychological:** %s\n", c.PsychologicalDescription)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

type characterRow struct {
	Name string `json:"name"`
	Arc  string `json:"arc"`
}

func characterRows(cs []types.Character) []characterRow {
	rows := make([]characterRow, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, characterRow{Name: c.Name, Arc: c.Arc})
	}
	return rows
}

func (r *Renderer) heading(title string) {
	if !r.noColor {
		title = tui.TitleStyle.UnsetMarginBottom().Render(title)
	}
	fmt.Fprintf(r.out, "\n%s\n", title)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Renderer) renderTable(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice {
		return r.renderSliceTable(v)
	}
	return r.renderStructTable(data)
}

func (r *Renderer) renderSliceTable(v reflect.Value) error {
	if v.Len() == 0 {
		fmt.Fprintln(r.out, "(no results)")
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	headers := r.getHeaders(v.Index(0))
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	for i := range v.Len() {
		row := r.getRowValues(v.Index(i), headers)
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	return nil
}

func (r *Renderer) renderStructTable(data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := range v.NumField() {
			if !t.Field(i).IsExported() {
				continue
			}
			fmt.Fprintf(w, "%s:\t%s\n", r.getFieldName(t.Field(i)), r.formatValue(v.Field(i)))
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprintf("%v", iter.Key().Interface())
			fmt.Fprintf(w, "%s:\t%s\n", key, r.formatValue(iter.Value()))
		}
	default:
		fmt.Fprintf(w, "%v\n", data)
	}

	return nil
}

func (r *Renderer) getHeaders(v reflect.Value) []string {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	var headers []string
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			if t.Field(i).IsExported() {
				headers = append(headers, r.getFieldName(t.Field(i)))
			}
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			headers = append(headers, fmt.Sprintf("%v", key.Interface()))
		}
	default:
		headers = []string{"value"}
	}
	return headers
}

func (r *Renderer) getRowValues(v reflect.Value, headers []string) []string {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	var values []string
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := range v.NumField() {
			if t.Field(i).IsExported() {
				values = append(values, r.formatValue(v.Field(i)))
			}
		}
	case reflect.Map:
		for _, h := range headers {
			val := v.MapIndex(reflect.ValueOf(h))
			if val.IsValid() {
				values = append(values, r.formatValue(val))
			} else {
				values = append(values, "")
			}
		}
	default:
		values = []string{r.formatValue(v)}
	}
	return values
}

func (r *Renderer) getFieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(f.Name)
}

func (r *Renderer) formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
		return "{...}"
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// isTTY returns true if w is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
