package http

import (
	"fmt"
	"net"
	neturl "net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/ht/packages/core/parser"
	"golang.org/x/net/idna"
)

const defaultScheme = "http"

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeURL turns a command-line target into an absolute URL. A missing
// scheme defaults to http, and ":3000/path" is shorthand for
// "http://localhost:3000/path".
func NormalizeURL(raw string) (*neturl.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("invalid URL: empty")
	}

	if rest, ok := strings.CutPrefix(raw, ":"); ok {
		port, path, _ := strings.Cut(rest, "/")
		raw = "localhost"
		if port != "" {
			raw += ":" + port
		}
		raw += "/" + path
	}

	if !schemePattern.MatchString(raw) {
		raw = defaultScheme + "://" + raw
	}

	u, err := neturl.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", raw)
	}

	host, err := asciiHost(u.Hostname())
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u, nil
}

func asciiHost(host string) (string, error) {
	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			return idna.Lookup.ToASCII(host)
		}
	}
	return strings.ToLower(host), nil
}

// appendQuery adds query items after the URL's existing query string. A
// repeated key keeps its first position and takes the last value.
func appendQuery(u *neturl.URL, items []parser.Item) {
	var keys []string
	values := make(map[string]string)
	for _, item := range items {
		if item.Kind != parser.ItemQuery {
			continue
		}
		if _, seen := values[item.Key]; !seen {
			keys = append(keys, item.Key)
		}
		values[item.Key] = item.Value
	}
	if len(keys) == 0 {
		return
	}

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, neturl.QueryEscape(key)+"="+neturl.QueryEscape(values[key]))
	}
	encoded := strings.Join(pairs, "&")
	if u.RawQuery == "" {
		u.RawQuery = encoded
	} else {
		u.RawQuery += "&" + encoded
	}
	u.ForceQuery = false
}
