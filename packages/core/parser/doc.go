// Package parser turns positional request items into typed values.
//
// Each command-line token after the URL is one item. The separator decides
// what the item is:
//   - name==value   query string parameter
//   - Name:value    request header
//   - Name:         remove a default header
//   - Name;         header with an empty value
//   - name=value    body field (JSON string or form field)
//   - name:=json    raw JSON body field
//   - name@path     file upload
//   - name=@path    body field read from a file
//   - name:=@path   raw JSON body field read from a file
//
// A backslash in front of a separator character makes it literal, so
// 'a\=b=c' is the field "a=b" with value "c".
package parser
