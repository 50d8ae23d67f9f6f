package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Response is what the transport received. Headers are lowercased and kept
// in arrival order; the renderer sorts them.
type Response struct {
	Proto      string
	StatusCode int
	Reason     string
	Headers    []Header
	Body       []byte
	Duration   time.Duration
}

func newResponse(resp *http.Response, body []byte, duration time.Duration) *Response {
	proto := resp.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}

	var headers []Header
	for name, values := range resp.Header {
		for _, v := range values {
			headers = append(headers, Header{Name: strings.ToLower(name), Value: v})
		}
	}

	return &Response{
		Proto:      proto,
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Headers:    SortHeaders(headers),
		Body:       body,
		Duration:   duration,
	}
}

func reasonPhrase(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

// Header returns the first value of the named header, or "".
func (r *Response) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// ContentType returns the content-type header.
func (r *Response) ContentType() string {
	return r.Header("content-type")
}

func (r *Response) HasBody() bool {
	return len(r.Body) > 0
}

// StatusLine returns "<proto> <code> <reason>".
func (r *Response) StatusLine() string {
	if r.Reason == "" {
		return fmt.Sprintf("%s %d", r.Proto, r.StatusCode)
	}
	return fmt.Sprintf("%s %d %s", r.Proto, r.StatusCode, r.Reason)
}

// IsSuccess returns true if status code is 2xx
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect returns true if status code is 3xx
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError returns true if status code is 4xx
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError returns true if status code is 5xx
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

// DurationMs returns the elapsed time in milliseconds
func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
