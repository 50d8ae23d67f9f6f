package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	neturl "net/url"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/ht/packages/core/parser"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// TestBoundary is the multipart boundary used in test mode.
const TestBoundary = "ht-test-boundary"

// FileLoader reads the contents of a file referenced by an item.
type FileLoader func(path string) ([]byte, error)

// NewBoundary returns a random multipart boundary.
func NewBoundary() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func loadItemFile(load FileLoader, item parser.Item) ([]byte, error) {
	data, err := load(item.Value)
	if err != nil {
		return nil, fmt.Errorf("cannot read file for item %q: %w", item.Token, err)
	}
	return data, nil
}

// SerializeJSON encodes the body items as one compact JSON object, one
// member per item in item order. A repeated key becomes a repeated member.
func SerializeJSON(items []parser.Item, load FileLoader) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	members := 0

	for _, item := range items {
		var raw string
		switch item.Kind {
		case parser.ItemField:
			raw = jsonString(item.Value)
		case parser.ItemRawJSON:
			raw = string(pretty.Ugly([]byte(item.Value)))
		case parser.ItemFieldFile:
			data, err := loadItemFile(load, item)
			if err != nil {
				return nil, err
			}
			raw = jsonString(string(data))
		case parser.ItemRawJSONFile:
			data, err := loadItemFile(load, item)
			if err != nil {
				return nil, err
			}
			if !gjson.ValidBytes(data) {
				return nil, &parser.ItemError{Token: item.Token, Reason: fmt.Sprintf("file %s does not contain valid JSON", item.Value)}
			}
			raw = string(pretty.Ugly(data))
		case parser.ItemFile:
			return nil, conflict("file item %q cannot be sent in a JSON body", item.Token)
		default:
			continue
		}

		if members > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(jsonString(item.Key))
		buf.WriteByte(':')
		buf.WriteString(raw)
		members++
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // a string always encodes
	return strings.TrimSuffix(buf.String(), "\n")
}

// SerializeForm encodes the body items as application/x-www-form-urlencoded.
// Repeated keys are kept, a newline inside a value becomes %0A.
func SerializeForm(items []parser.Item, load FileLoader) ([]byte, error) {
	pairs := make([]string, 0, len(items))
	for _, item := range items {
		var value string
		switch item.Kind {
		case parser.ItemField:
			value = item.Value
		case parser.ItemFieldFile:
			data, err := loadItemFile(load, item)
			if err != nil {
				return nil, err
			}
			value = string(data)
		case parser.ItemRawJSON, parser.ItemRawJSONFile:
			return nil, conflict("raw JSON item %q cannot be sent as form data", item.Token)
		case parser.ItemFile:
			return nil, conflict("file item %q needs a multipart body", item.Token)
		default:
			continue
		}
		pairs = append(pairs, neturl.QueryEscape(item.Key)+"="+neturl.QueryEscape(value))
	}
	return []byte(strings.Join(pairs, "&")), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// SerializeMultipart builds a multipart/form-data body and returns it with
// its Content-Type value.
func SerializeMultipart(items []parser.Item, load FileLoader, boundary string) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if boundary != "" {
		if err := writer.SetBoundary(boundary); err != nil {
			return nil, "", err
		}
	}

	for _, item := range items {
		switch item.Kind {
		case parser.ItemField:
			if err := writer.WriteField(item.Key, item.Value); err != nil {
				return nil, "", err
			}
		case parser.ItemFieldFile:
			data, err := loadItemFile(load, item)
			if err != nil {
				return nil, "", err
			}
			if err := writer.WriteField(item.Key, string(data)); err != nil {
				return nil, "", err
			}
		case parser.ItemFile:
			data, err := loadItemFile(load, item)
			if err != nil {
				return nil, "", err
			}
			part, err := writer.CreatePart(filePartHeader(item.Key, filepath.Base(item.Value)))
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(data); err != nil {
				return nil, "", err
			}
		case parser.ItemRawJSON, parser.ItemRawJSONFile:
			return nil, "", conflict("raw JSON item %q cannot be sent as multipart form data", item.Token)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

func filePartHeader(field, filename string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", guessContentType(filename))
	return h
}

func guessContentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
