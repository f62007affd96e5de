package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/imamik/abspool/internal/abs"
	"github.com/imamik/abspool/internal/provisioning"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorDim   = lipgloss.Color("#6b7280")

	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	dimStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// errorPayload is the failure object printed on stdout.
type errorPayload struct {
	Error errorBody `json:"_error"`
}

type errorBody struct {
	Kind abs.Kind `json:"kind"`
	Msg  string   `json:"msg"`
}

// reportedError marks an error whose payload was already written.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already written to stdout by a handler.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// output writes exactly one result or error object per run.
type output struct {
	w      io.Writer
	format string
	indent bool
}

func newOutput(w io.Writer, format string) (*output, error) {
	switch format {
	case "", FormatJSON:
		format = FormatJSON
	case FormatText:
	default:
		return nil, abs.Errorf(abs.KindValidation, "unknown output format %q: use json or text", format)
	}
	return &output{w: w, format: format, indent: isTerminal(w)}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (o *output) result(v any) error {
	if o.format == FormatText {
		_, err := io.WriteString(o.w, renderResult(v))
		return err
	}
	return o.json(v)
}

// fail writes err and returns it marked as reported.
func (o *output) fail(err error) error {
	body := errorBody{Kind: abs.KindOf(err), Msg: err.Error()}
	var writeErr error
	if o.format == FormatText {
		_, writeErr = io.WriteString(o.w, renderError(body))
	} else {
		writeErr = o.json(errorPayload{Error: body})
	}
	if writeErr != nil {
		return err
	}
	return &reportedError{err: err}
}

func (o *output) json(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetEscapeHTML(false)
	if o.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteError prints err as the JSON error payload. Used for failures that
// happen before a handler runs, such as flag parsing.
func WriteError(w io.Writer, err error) {
	o := &output{w: w, format: FormatJSON, indent: isTerminal(w)}
	_ = o.fail(err)
}

func renderResult(v any) string {
	var b strings.Builder
	switch r := v.(type) {
	case *provisioning.ProvisionResult:
		b.WriteString(okStyle.Render(fmt.Sprintf("✔ provisioned %d node(s)", r.Nodes)))
		b.WriteString("\n")
	case *provisioning.TeardownResult:
		b.WriteString(okStyle.Render(fmt.Sprintf("✔ removed %d node(s)", len(r.Removed))))
		b.WriteString("\n")
		for _, host := range r.Removed {
			b.WriteString(dimStyle.Render("  - " + host))
			b.WriteString("\n")
		}
	default:
		fmt.Fprintf(&b, "%v\n", v)
	}
	return b.String()
}

func renderError(body errorBody) string {
	return failStyle.Render("✘ "+string(body.Kind)) + " " + body.Msg + "\n"
}
