package parser

import (
	"errors"
	"fmt"
)

// ItemKind identifies what an item contributes to the request.
type ItemKind int

const (
	ItemQuery ItemKind = iota
	ItemHeader
	ItemHeaderUnset
	ItemField
	ItemRawJSON
	ItemFile
	ItemFieldFile
	ItemRawJSONFile
)

var itemKindNames = map[ItemKind]string{
	ItemQuery:       "query",
	ItemHeader:      "header",
	ItemHeaderUnset: "header-unset",
	ItemField:       "field",
	ItemRawJSON:     "raw-json",
	ItemFile:        "file",
	ItemFieldFile:   "field-file",
	ItemRawJSONFile: "raw-json-file",
}

func (k ItemKind) String() string {
	if name, ok := itemKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ItemKind(%d)", int(k))
}

// Item is one parsed request item. For the file kinds Value holds the path.
type Item struct {
	Kind  ItemKind
	Key   string
	Value string
	Token string
}

// IsBody reports whether the item contributes to the request body.
func (i Item) IsBody() bool {
	switch i.Kind {
	case ItemField, ItemRawJSON, ItemFile, ItemFieldFile, ItemRawJSONFile:
		return true
	}
	return false
}

// IsRawJSON reports whether the item carries a JSON literal rather than a string.
func (i Item) IsRawJSON() bool {
	return i.Kind == ItemRawJSON || i.Kind == ItemRawJSONFile
}

// IsHeader reports whether the item sets or unsets a header.
func (i Item) IsHeader() bool {
	return i.Kind == ItemHeader || i.Kind == ItemHeaderUnset
}

func (i Item) String() string {
	return i.Token
}

// ErrMalformedItem matches every *ItemError.
var ErrMalformedItem = errors.New("malformed request item")

// ItemError reports a token that is not a valid item.
type ItemError struct {
	Token  string
	Reason string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("invalid request item %q: %s", e.Token, e.Reason)
}

func (e *ItemError) Is(target error) bool {
	return target == ErrMalformedItem
}
