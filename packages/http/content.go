package http

import (
	"mime"
	"strings"

	"github.com/abdul-hamid-achik/ht/packages/core/parser"
)

// ContentModel is the body encoding chosen for a request.
type ContentModel int

const (
	ContentEmpty ContentModel = iota
	ContentJSON
	ContentForm
	ContentMultipart
	ContentRaw
)

const (
	MIMEJSON      = "application/json"
	MIMEForm      = "application/x-www-form-urlencoded"
	MIMEMultipart = "multipart/form-data"
)

func (m ContentModel) String() string {
	switch m {
	case ContentJSON:
		return "json"
	case ContentForm:
		return "form"
	case ContentMultipart:
		return "multipart"
	case ContentRaw:
		return "raw"
	default:
		return "empty"
	}
}

// ContentOptions carries the flags that take part in choosing a content model.
type ContentOptions struct {
	Form        bool
	ContentType string // explicit Content-Type header value, empty if none
	RawBody     bool   // a body was supplied outside of the items (stdin)
}

// ResolveContent picks the content model for a request. The presence of
// body items decides it, never the method.
func ResolveContent(items []parser.Item, opts ContentOptions) (ContentModel, error) {
	var hasBody, hasFile, hasRawJSON bool
	for _, item := range items {
		if !item.IsBody() {
			continue
		}
		hasBody = true
		if item.Kind == parser.ItemFile {
			hasFile = true
		}
		if item.IsRawJSON() {
			hasRawJSON = true
		}
	}

	if opts.RawBody {
		if hasBody {
			return ContentEmpty, conflict("request body from stdin cannot be mixed with data items (use --ignore-stdin)")
		}
		return ContentRaw, nil
	}

	if opts.ContentType != "" {
		switch {
		case hasFile && !IsMultipartContentType(opts.ContentType):
			return ContentEmpty, conflict("file items need a multipart content type, got %q", opts.ContentType)
		case hasFile && hasRawJSON:
			return ContentEmpty, conflict("raw JSON items cannot be sent as multipart form data")
		case hasFile:
			return ContentMultipart, nil
		case hasBody && opts.Form && hasRawJSON:
			return ContentEmpty, conflict("raw JSON items cannot be sent as form data")
		case hasBody:
			return ContentRaw, nil
		}
		return ContentEmpty, nil
	}

	switch {
	case hasFile && hasRawJSON:
		return ContentEmpty, conflict("raw JSON items cannot be sent as multipart form data")
	case hasFile:
		return ContentMultipart, nil
	case opts.Form && hasRawJSON:
		return ContentEmpty, conflict("raw JSON items cannot be sent as form data")
	case opts.Form:
		return ContentForm, nil
	case hasBody:
		return ContentJSON, nil
	}
	return ContentEmpty, nil
}

// IsJSONContentType reports whether a Content-Type value names a JSON media type.
func IsJSONContentType(contentType string) bool {
	mediaType := mediaTypeOf(contentType)
	return mediaType == MIMEJSON ||
		mediaType == "text/json" ||
		strings.HasSuffix(mediaType, "+json")
}

// IsMultipartContentType reports whether contentType is a multipart/* type.
func IsMultipartContentType(contentType string) bool {
	return strings.HasPrefix(mediaTypeOf(contentType), "multipart/")
}

func mediaTypeOf(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
