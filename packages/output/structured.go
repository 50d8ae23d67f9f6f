package output

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/ht/packages/http"
	"gopkg.in/yaml.v3"
)

// DumpFormat is the document format of --dump.
type DumpFormat string

const (
	DumpJSON DumpFormat = "json"
	DumpYAML DumpFormat = "yaml"
)

// ParseDumpFormat reads a --dump value; "yml" is accepted for yaml.
func ParseDumpFormat(s string) (DumpFormat, error) {
	switch f := DumpFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case DumpJSON, DumpYAML:
		return f, nil
	case "yml":
		return DumpYAML, nil
	}
	return "", fmt.Errorf("invalid dump format %q (want json or yaml)", s)
}

// Snapshot is the structured form of one exchange.
type Snapshot struct {
	Request  *RequestSnapshot  `json:"request" yaml:"request"`
	Response *ResponseSnapshot `json:"response,omitempty" yaml:"response,omitempty"`
}

// RequestSnapshot is the request half of a Snapshot.
type RequestSnapshot struct {
	Method       string        `json:"method" yaml:"method"`
	URL          string        `json:"url" yaml:"url"`
	Headers      []http.Header `json:"headers" yaml:"headers"`
	Content      string        `json:"content" yaml:"content"`
	Body         string        `json:"body,omitempty" yaml:"body,omitempty"`
	BodyEncoding string        `json:"bodyEncoding,omitempty" yaml:"bodyEncoding,omitempty"`
}

// ResponseSnapshot is the response half of a Snapshot. Duration is in
// milliseconds.
type ResponseSnapshot struct {
	Proto        string        `json:"proto" yaml:"proto"`
	StatusCode   int           `json:"statusCode" yaml:"statusCode"`
	Reason       string        `json:"reason" yaml:"reason"`
	Headers      []http.Header `json:"headers" yaml:"headers"`
	Body         string        `json:"body,omitempty" yaml:"body,omitempty"`
	BodyEncoding string        `json:"bodyEncoding,omitempty" yaml:"bodyEncoding,omitempty"`
	Duration     float64       `json:"duration" yaml:"duration"`
}

// NewSnapshot captures req and, when it was sent, resp.
func NewSnapshot(req *http.Request, resp *http.Response) Snapshot {
	body, encoding := snapshotBody(req.Body())
	s := Snapshot{
		Request: &RequestSnapshot{
			Method:       req.Method(),
			URL:          req.URLString(),
			Headers:      req.Headers(),
			Content:      req.Content().String(),
			Body:         body,
			BodyEncoding: encoding,
		},
	}

	if resp != nil {
		body, encoding := snapshotBody(resp.Body)
		s.Response = &ResponseSnapshot{
			Proto:        resp.Proto,
			StatusCode:   resp.StatusCode,
			Reason:       resp.Reason,
			Headers:      http.SortHeaders(resp.Headers),
			Body:         body,
			BodyEncoding: encoding,
			Duration:     float64(resp.DurationMs()),
		}
	}
	return s
}

// Binary bodies are carried as base64.
func snapshotBody(body []byte) (string, string) {
	if isBinary(body) {
		return base64.StdEncoding.EncodeToString(body), "base64"
	}
	return string(body), ""
}

// WriteStructured writes the exchange as a JSON or YAML document.
func WriteStructured(w io.Writer, format DumpFormat, req *http.Request, resp *http.Response) error {
	snapshot := NewSnapshot(req, resp)

	switch format {
	case DumpJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "    ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(snapshot)
	case DumpYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(snapshot); err != nil {
			return err
		}
		return encoder.Close()
	}
	return fmt.Errorf("invalid dump format %q", format)
}
