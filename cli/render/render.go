// Package render writes command results to stdout.
//
// The format is --format when given. Otherwise a terminal gets a table and
// anything else (a pipe, a file) gets JSON so scripts never parse tables.
//
// Tables are built from struct fields by reflection: the json tag names the
// column, json:"-" hides it, and a render tag changes how the value reads.
// render:"bytes" shows a size as "10.00MB (10485760 bytes)" and render:"ms"
// shows milliseconds as a duration. JSON and YAML always carry raw values.
// --no-color only affects tables and status lines.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/inhies/go-bytesize"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/ffpkg/cli/tui"
	"github.com/pithecene-io/ffpkg/iox"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat maps a --format value to a Format. Matching ignores case.
// An empty value returns "" so the caller can pick a default.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return "", nil
	}
	f := Format(strings.ToLower(s))
	switch f {
	case FormatJSON, FormatTable, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
}

// Renderer writes results in one format.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer reads --format and --no-color from c and writes to the
// app's writer.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stdout
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}

	if format == "" {
		format = FormatJSON
		if isTerminalWriter(out) {
			format = FormatTable
		}
	}

	return &Renderer{format: format, noColor: c.Bool("no-color"), out: out}, nil
}

// NewRendererWithWriter returns a renderer with a fixed format and writer.
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{format: format, noColor: noColor, out: out}
}

// Format returns the selected format.
func (r *Renderer) Format() Format {
	return r.format
}

// Render writes data in the renderer's format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		return r.table(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI shows data in an interactive view. When the output is not a
// terminal the view is printed once instead.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	if !isTerminalWriter(r.out) {
		out, err := tui.RenderStatic(viewType, data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.out, out)
		return err
	}
	return tui.Run(viewType, data)
}

// column is one table column derived from a struct field.
type column struct {
	name  string
	index []int
	kind  string // render tag
}

func columnsOf(t reflect.Type) []column {
	var cols []column
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = strings.ToLower(f.Name)
		}
		cols = append(cols, column{name: name, index: f.Index, kind: f.Tag.Get("render")})
	}
	return cols
}

func (c column) format(v reflect.Value) string {
	switch c.kind {
	case "bytes":
		if n, ok := nonNegative(v); ok {
			return FormatBytes(n)
		}
	case "ms":
		if n, ok := nonNegative(v); ok {
			return FormatMillis(n)
		}
	}
	return formatValue(v)
}

func (r *Renderer) table(data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer iox.DiscardErr(w.Flush)

	v := indirect(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		r.rows(w, v)
	case reflect.Struct:
		for _, col := range columnsOf(v.Type()) {
			fmt.Fprintf(w, "%s\t%s\n", r.label(col.name+":"), col.format(v.FieldByIndex(col.index)))
		}
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\n", r.label(fmt.Sprint(k.Interface())+":"), formatValue(v.MapIndex(k)))
		}
	default:
		fmt.Fprintf(w, "%v\n", data)
	}
	return nil
}

// rows writes one header line and one line per element.
// Elements that are not structs are written one per line.
func (r *Renderer) rows(w io.Writer, v reflect.Value) {
	if v.Len() == 0 {
		fmt.Fprintln(w, "(no results)")
		return
	}

	first := indirect(v.Index(0))
	if first.Kind() != reflect.Struct {
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(w, formatValue(v.Index(i)))
		}
		return
	}

	cols := columnsOf(first.Type())
	cells := make([]string, len(cols))
	for i, col := range cols {
		cells[i] = r.label(col.name)
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))

	for i := 0; i < v.Len(); i++ {
		row := indirect(v.Index(i))
		for j, col := range cols {
			cells[j] = col.format(row.FieldByIndex(col.index))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

// label colours table keys unless colour is disabled.
func (r *Renderer) label(s string) string {
	if r.noColor {
		return s
	}
	c := color.New(color.FgCyan)
	c.EnableColor()
	return c.Sprint(s)
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func nonNegative(v reflect.Value) (uint64, bool) {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Int() < 0 {
			return 0, false
		}
		return uint64(v.Int()), true
	}
	return 0, false
}

// FormatBytes renders n as a human-readable size with the exact count,
// e.g. "10.00MB (10485760 bytes)".
func FormatBytes(n uint64) string {
	return fmt.Sprintf("%s (%d bytes)", bytesize.ByteSize(n).String(), n)
}

// FormatMillis renders a millisecond count as a duration, e.g. "1.5s".
func FormatMillis(ms uint64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

func formatValue(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() || ((v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil()) {
		return ""
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		if v.Type().Elem().Kind() == reflect.String {
			parts := make([]string, v.Len())
			for i := range parts {
				parts[i] = v.Index(i).String()
			}
			return strings.Join(parts, " ")
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
		return fmt.Sprint(v.Interface())
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && IsTerminal(f)
}
