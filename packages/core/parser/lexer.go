package parser

import "strings"

type separator struct {
	text        string
	kind        ItemKind
	emptyHeader bool
}

// separators are tried in this order at every position, so a longer
// separator always wins over its own prefix (":=" over ":", "==" over "=").
var separators = []separator{
	{text: ":=@", kind: ItemRawJSONFile},
	{text: ":=", kind: ItemRawJSON},
	{text: "==", kind: ItemQuery},
	{text: "=@", kind: ItemFieldFile},
	{text: ":", kind: ItemHeader},
	{text: "=", kind: ItemField},
	{text: "@", kind: ItemFile},
	{text: ";", kind: ItemHeader, emptyHeader: true},
}

// char is one rune of an item token. Escaped runes never act as separators.
type char struct {
	r       rune
	escaped bool
}

// lexer resolves backslash escapes in one item token.
type lexer struct {
	input []rune
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: []rune(input)}
}

func isSpecial(r rune) bool {
	return strings.ContainsRune(`:=@;\`, r)
}

func (l *lexer) next() (char, bool) {
	if l.pos >= len(l.input) {
		return char{}, false
	}
	r := l.input[l.pos]
	l.pos++
	if r == '\\' && l.pos < len(l.input) && isSpecial(l.input[l.pos]) {
		c := char{r: l.input[l.pos], escaped: true}
		l.pos++
		return c, true
	}
	return char{r: r}, true
}

// chars consumes the whole input and resolves backslash escapes.
func (l *lexer) chars() []char {
	chars := make([]char, 0, len(l.input))
	for {
		c, ok := l.next()
		if !ok {
			return chars
		}
		chars = append(chars, c)
	}
}

func matchAt(chars []char, pos int, text string) bool {
	i := pos
	for _, r := range text {
		if i >= len(chars) || chars[i].escaped || chars[i].r != r {
			return false
		}
		i++
	}
	return true
}

func literal(chars []char) string {
	var sb strings.Builder
	for _, c := range chars {
		sb.WriteRune(c.r)
	}
	return sb.String()
}
