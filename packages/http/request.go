package http

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	neturl "net/url"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/ht/packages/core/parser"
)

// TestUserAgent replaces the versioned user agent in test mode so that
// rendered output does not change between builds.
const TestUserAgent = "ht/0.0.0 (test mode)"

const (
	acceptAny  = "*/*"
	acceptJSON = "application/json, */*"
)

var methodPattern = regexp.MustCompile(`^[A-Za-z]+$`)

// Request is an assembled HTTP request. It is never modified after
// Assemble returns; accessors hand out copies.
type Request struct {
	method  string
	url     *neturl.URL
	headers []Header
	content ContentModel
	body    []byte
}

// Method returns the upper-cased method.
func (r *Request) Method() string {
	return r.method
}

// URL returns a copy of the target URL.
func (r *Request) URL() *neturl.URL {
	u := *r.url
	return &u
}

// URLString returns the full target URL.
func (r *Request) URLString() string {
	return r.url.String()
}

// RequestURI is the path and query as written on the request line.
func (r *Request) RequestURI() string {
	return r.url.RequestURI()
}

// Headers returns the header fields sorted by name.
func (r *Request) Headers() []Header {
	return slices.Clone(r.headers)
}

// Header looks up a header by name, ignoring case.
func (r *Request) Header(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, h := range r.headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// ContentType returns the content-type header, or "".
func (r *Request) ContentType() string {
	ct, _ := r.Header("content-type")
	return ct
}

// Content returns the content model the body was built with.
func (r *Request) Content() ContentModel {
	return r.content
}

// Body returns a copy of the serialized body.
func (r *Request) Body() []byte {
	return bytes.Clone(r.body)
}

// HasBody reports whether the request carries a body section, which may
// still be zero bytes long (an empty stdin body, for example).
func (r *Request) HasBody() bool {
	return r.content != ContentEmpty
}

// AssembleOptions carries the flags and environment that shape a request.
type AssembleOptions struct {
	Form       bool
	RawBody    []byte
	HasRawBody bool
	TestMode   bool
	Version    string
	Auth       string // user:password for Basic auth
	Bearer     string
	LoadFile   FileLoader
	Boundary   string
}

// UserAgent returns the default user-agent value.
func UserAgent(version string, testMode bool) string {
	if testMode {
		return TestUserAgent
	}
	if version == "" {
		version = "dev"
	}
	return "ht/" + version
}

// Assemble builds a Request from the method, target and parsed items.
func Assemble(method, rawURL string, items []parser.Item, opts AssembleOptions) (*Request, error) {
	if !methodPattern.MatchString(method) {
		return nil, fmt.Errorf("invalid method %q", method)
	}
	method = strings.ToUpper(method)

	u, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	appendQuery(u, items)

	headers := newHeaderSet()
	for _, item := range items {
		switch item.Kind {
		case parser.ItemHeader:
			headers.set(item.Key, item.Value)
		case parser.ItemHeaderUnset:
			headers.unset(item.Key)
		}
	}

	explicitType, _ := headers.explicit("content-type")
	model, err := ResolveContent(items, ContentOptions{
		Form:        opts.Form,
		ContentType: explicitType,
		RawBody:     opts.HasRawBody,
	})
	if err != nil {
		return nil, err
	}

	body, bodyType, err := serializeBody(model, items, opts)
	if err != nil {
		return nil, err
	}

	accept := acceptAny
	if model == ContentJSON || (model == ContentRaw && opts.HasRawBody) {
		accept = acceptJSON
	}
	headers.setDefault("accept", accept)
	headers.setDefault("accept-encoding", "gzip, deflate")
	headers.setDefault("connection", "keep-alive")
	headers.setDefault("host", u.Host)
	headers.setDefault("user-agent", UserAgent(opts.Version, opts.TestMode))
	if auth := authorization(opts); auth != "" {
		headers.setDefault("authorization", auth)
	}
	if bodyType != "" {
		headers.setDefault("content-type", bodyType)
	}
	if model == ContentMultipart && explicitType != "" {
		headers.set("content-type", withBoundary(explicitType, bodyType))
	}
	// net/http always sends a length for these, so an unset cannot hide it.
	switch {
	case carriesBody(method) || len(body) > 0:
		headers.setComputed("content-length", strconv.Itoa(len(body)))
		headers.pin("content-length")
	case model != ContentEmpty:
		headers.setComputed("content-length", "0")
	default:
		headers.withhold("content-length")
	}

	return &Request{
		method:  method,
		url:     u,
		headers: headers.resolve(),
		content: model,
		body:    body,
	}, nil
}

func serializeBody(model ContentModel, items []parser.Item, opts AssembleOptions) ([]byte, string, error) {
	load := opts.LoadFile
	if load == nil {
		load = os.ReadFile
	}

	switch model {
	case ContentJSON:
		body, err := SerializeJSON(items, load)
		return body, MIMEJSON, err
	case ContentForm:
		body, err := SerializeForm(items, load)
		return body, MIMEForm, err
	case ContentMultipart:
		boundary := opts.Boundary
		if boundary == "" && opts.TestMode {
			boundary = TestBoundary
		}
		if boundary == "" {
			boundary = NewBoundary()
		}
		return SerializeMultipart(items, load, boundary)
	case ContentRaw:
		if opts.HasRawBody {
			if opts.Form {
				return bytes.Clone(opts.RawBody), MIMEForm, nil
			}
			return bytes.Clone(opts.RawBody), MIMEJSON, nil
		}
		// Only reached with an explicit Content-Type, which stays in charge.
		if opts.Form {
			body, err := SerializeForm(items, load)
			return body, "", err
		}
		body, err := SerializeJSON(items, load)
		return body, "", err
	}
	return nil, "", nil
}

// withBoundary keeps a user supplied multipart type but makes sure it
// names the boundary the body was written with.
func withBoundary(explicit, generated string) string {
	_, params, err := mime.ParseMediaType(explicit)
	if err == nil && params["boundary"] != "" {
		return explicit
	}
	_, generatedParams, err := mime.ParseMediaType(generated)
	if err != nil {
		return explicit
	}
	return explicit + "; boundary=" + generatedParams["boundary"]
}

func carriesBody(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

func authorization(opts AssembleOptions) string {
	if opts.Bearer != "" {
		return "Bearer " + opts.Bearer
	}
	if opts.Auth != "" {
		creds := opts.Auth
		if !strings.Contains(creds, ":") {
			creds += ":"
		}
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
	}
	return ""
}
