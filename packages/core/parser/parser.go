package parser

import (
	"github.com/tidwall/gjson"
)

// Parse classifies a single request item. The first unescaped separator
// in the token decides the item kind.
func Parse(token string) (Item, error) {
	chars := newLexer(token).chars()
	for pos := range chars {
		for _, sep := range separators {
			if !matchAt(chars, pos, sep.text) {
				continue
			}
			key := literal(chars[:pos])
			value := literal(chars[pos+len(sep.text):])
			return newItem(token, sep, key, value)
		}
	}
	return Item{}, &ItemError{Token: token, Reason: "missing separator"}
}

func newItem(token string, sep separator, key, value string) (Item, error) {
	if key == "" {
		return Item{}, &ItemError{Token: token, Reason: "empty key"}
	}

	item := Item{
		Kind:  sep.kind,
		Key:   key,
		Value: value,
		Token: token,
	}

	switch {
	case sep.emptyHeader:
		if value != "" {
			return Item{}, &ItemError{Token: token, Reason: "text after ';' (use 'Name;' for an empty header)"}
		}
	case sep.kind == ItemHeader && value == "":
		item.Kind = ItemHeaderUnset
	case sep.kind == ItemRawJSON:
		if !gjson.Valid(value) {
			return Item{}, &ItemError{Token: token, Reason: "value is not valid JSON"}
		}
	case sep.kind == ItemFile || sep.kind == ItemFieldFile || sep.kind == ItemRawJSONFile:
		if value == "" {
			return Item{}, &ItemError{Token: token, Reason: "empty file path"}
		}
	}

	return item, nil
}

// ParseAll parses tokens in order and stops at the first malformed one.
func ParseAll(tokens []string) ([]Item, error) {
	items := make([]Item, 0, len(tokens))
	for _, token := range tokens {
		item, err := Parse(token)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// IsItem reports whether token would parse as a request item.
func IsItem(token string) bool {
	_, err := Parse(token)
	return err == nil
}
