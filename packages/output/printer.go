package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/ht/packages/http"
	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// PrettyMode selects reformatting and coloring of bodies.
type PrettyMode int

const (
	PrettyAll PrettyMode = iota
	PrettyColors
	PrettyFormat
	PrettyNone
)

// ParsePrettyMode reads a --pretty value.
func ParsePrettyMode(s string) (PrettyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return PrettyAll, nil
	case "colors":
		return PrettyColors, nil
	case "format":
		return PrettyFormat, nil
	case "none":
		return PrettyNone, nil
	}
	return PrettyNone, fmt.Errorf("invalid pretty mode %q (want all, colors, format or none)", s)
}

func (m PrettyMode) String() string {
	switch m {
	case PrettyAll:
		return "all"
	case PrettyColors:
		return "colors"
	case PrettyFormat:
		return "format"
	default:
		return "none"
	}
}

func (m PrettyMode) formats() bool {
	return m == PrettyAll || m == PrettyFormat
}

func (m PrettyMode) colors() bool {
	return m == PrettyAll || m == PrettyColors
}

// Parts selects which sections of the exchange get printed.
type Parts struct {
	RequestHeaders  bool
	RequestBody     bool
	ResponseHeaders bool
	ResponseBody    bool
}

// ParseParts reads a --print value: H and B for the request headers and
// body, h and b for the response.
func ParseParts(s string) (Parts, error) {
	var p Parts
	for _, r := range s {
		switch r {
		case 'H':
			p.RequestHeaders = true
		case 'B':
			p.RequestBody = true
		case 'h':
			p.ResponseHeaders = true
		case 'b':
			p.ResponseBody = true
		default:
			return Parts{}, fmt.Errorf("invalid print part %q (want a combination of H, B, h and b)", r)
		}
	}
	return p, nil
}

// DefaultParts is "hb", "HBhb" when verbose and "HB" when nothing is sent.
func DefaultParts(verbose, offline bool) Parts {
	switch {
	case offline:
		return Parts{RequestHeaders: true, RequestBody: true}
	case verbose:
		return Parts{RequestHeaders: true, RequestBody: true, ResponseHeaders: true, ResponseBody: true}
	}
	return Parts{ResponseHeaders: true, ResponseBody: true}
}

// Request reports whether any request section is selected.
func (p Parts) Request() bool {
	return p.RequestHeaders || p.RequestBody
}

// Response reports whether any response section is selected.
func (p Parts) Response() bool {
	return p.ResponseHeaders || p.ResponseBody
}

func (p Parts) String() string {
	var sb strings.Builder
	for _, part := range []struct {
		on     bool
		letter byte
	}{
		{p.RequestHeaders, 'H'},
		{p.RequestBody, 'B'},
		{p.ResponseHeaders, 'h'},
		{p.ResponseBody, 'b'},
	} {
		if part.on {
			sb.WriteByte(part.letter)
		}
	}
	return sb.String()
}

// Printer renders requests and responses as text.
type Printer struct {
	writer io.Writer
	pretty PrettyMode
	color  bool
	parts  Parts
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// NewPrinter creates a printer writing to stdout with the format mode and
// the default "hb" parts.
func NewPrinter(opts ...PrinterOption) *Printer {
	p := &Printer{
		writer: os.Stdout,
		pretty: PrettyFormat,
		parts:  DefaultParts(false, false),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithWriter sets the output writer
func WithWriter(w io.Writer) PrinterOption {
	return func(p *Printer) {
		p.writer = w
	}
}

// WithPretty sets the pretty mode
func WithPretty(mode PrettyMode) PrinterOption {
	return func(p *Printer) {
		p.pretty = mode
	}
}

// WithColor tells the printer whether its writer can display ANSI colors.
func WithColor(capable bool) PrinterOption {
	return func(p *Printer) {
		p.color = capable
	}
}

// WithParts selects the sections PrintRequest and PrintResponse write.
func WithParts(parts Parts) PrinterOption {
	return func(p *Printer) {
		p.parts = parts
	}
}

func (p *Printer) colored() bool {
	return p.color && p.pretty.colors()
}

func (p *Printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.colored() {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// RenderRequest renders the start line, headers and body of req.
func (p *Printer) RenderRequest(req *http.Request) string {
	return p.renderRequest(req, true, true)
}

// RenderResponse renders the status line, headers and body of resp.
func (p *Printer) RenderResponse(resp *http.Response) string {
	return p.renderResponse(resp, true, true)
}

// PrintRequest writes the request sections selected by the printer's parts.
func (p *Printer) PrintRequest(req *http.Request) error {
	if !p.parts.Request() {
		return nil
	}
	_, err := io.WriteString(p.writer, p.renderRequest(req, p.parts.RequestHeaders, p.parts.RequestBody))
	return err
}

// PrintResponse writes the response sections selected by the printer's parts.
func (p *Printer) PrintResponse(resp *http.Response) error {
	if !p.parts.Response() {
		return nil
	}
	_, err := io.WriteString(p.writer, p.renderResponse(resp, p.parts.ResponseHeaders, p.parts.ResponseBody))
	return err
}

func (p *Printer) renderRequest(req *http.Request, headers, body bool) string {
	method := p.paint(color.FgGreen, color.Bold).Sprint(req.Method())
	target := p.paint(color.FgCyan).Sprint(req.RequestURI())
	startLine := fmt.Sprintf("%s %s %s", method, target, p.paint(color.FgBlue).Sprint("HTTP/1.1"))

	return p.render(message{
		startLine:   startLine,
		headers:     req.Headers(),
		body:        req.Body(),
		hasBody:     req.HasBody(),
		contentType: req.ContentType(),
	}, headers, body)
}

func (p *Printer) renderResponse(resp *http.Response, headers, body bool) string {
	startLine := fmt.Sprintf("%s %s",
		p.paint(color.FgBlue).Sprint(resp.Proto),
		p.paint(statusColor(resp), color.Bold).Sprint(strings.TrimPrefix(resp.StatusLine(), resp.Proto+" ")))

	return p.render(message{
		startLine:   startLine,
		headers:     http.SortHeaders(resp.Headers),
		body:        resp.Body,
		hasBody:     resp.HasBody(),
		contentType: resp.ContentType(),
	}, headers, body)
}

func statusColor(resp *http.Response) color.Attribute {
	switch {
	case resp.IsClientError(), resp.IsServerError():
		return color.FgRed
	case resp.IsRedirect():
		return color.FgYellow
	case resp.IsSuccess():
		return color.FgGreen
	default:
		return color.FgCyan
	}
}

type message struct {
	startLine   string
	headers     []http.Header
	body        []byte
	hasBody     bool
	contentType string
}

func (p *Printer) render(m message, showHeaders, showBody bool) string {
	var sb strings.Builder
	name := p.paint(color.FgCyan)

	if showHeaders {
		sb.WriteString(m.startLine)
		sb.WriteByte('\n')
		for _, h := range m.headers {
			fmt.Fprintf(&sb, "%s: %s\n", name.Sprint(h.Name), h.Value)
		}
		sb.WriteByte('\n')
	}

	if showBody && m.hasBody {
		text := p.formatBody(m.body, m.contentType)
		sb.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			sb.WriteByte('\n')
		}
		if showHeaders {
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

var prettyOptions = &pretty.Options{Indent: "    "}

func (p *Printer) formatBody(body []byte, contentType string) string {
	if p.pretty == PrettyNone {
		return string(body)
	}
	if isBinary(body) {
		return fmt.Sprintf("[binary data not shown: %d bytes]", len(body))
	}
	if !http.IsJSONContentType(contentType) || !gjson.ValidBytes(body) {
		return string(body)
	}

	out := body
	if p.pretty.formats() {
		out = pretty.PrettyOptions(body, prettyOptions)
	}
	if p.colored() {
		out = pretty.Color(out, pretty.TerminalStyle)
	}
	return string(out)
}

func isBinary(body []byte) bool {
	return bytes.IndexByte(body, 0) >= 0 || !utf8.Valid(body)
}
