package http

import (
	"slices"
	"strings"
)

// Header is a single header field. Names are stored lowercased.
type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// SortHeaders returns a copy of headers ordered by lowercased name.
// Fields sharing a name keep their relative order.
func SortHeaders(headers []Header) []Header {
	sorted := slices.Clone(headers)
	slices.SortStableFunc(sorted, func(a, b Header) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return sorted
}

type headerState int

const (
	stateDefault headerState = iota
	stateSet
	stateUnset
)

type headerEntry struct {
	state    headerState
	value    string
	fallback string
	hasValue bool
	computed bool
	pinned   bool
}

// headerSet tracks, per header name, whether the engine default applies,
// the user replaced it, or the user removed it.
type headerSet struct {
	order   []string
	entries map[string]*headerEntry
}

func newHeaderSet() *headerSet {
	return &headerSet{entries: make(map[string]*headerEntry)}
}

func (h *headerSet) entry(name string) *headerEntry {
	name = strings.ToLower(name)
	e, ok := h.entries[name]
	if !ok {
		e = &headerEntry{}
		h.entries[name] = e
		h.order = append(h.order, name)
	}
	return e
}

func (h *headerSet) set(name, value string) {
	e := h.entry(name)
	e.state = stateSet
	e.value = value
}

func (h *headerSet) unset(name string) {
	e := h.entry(name)
	e.state = stateUnset
	e.value = ""
}

// explicit returns the user supplied value for name, if any.
func (h *headerSet) explicit(name string) (string, bool) {
	e, ok := h.entries[strings.ToLower(name)]
	if !ok || e.state != stateSet {
		return "", false
	}
	return e.value, true
}

func (h *headerSet) setDefault(name, value string) {
	e := h.entry(name)
	e.fallback = value
	e.hasValue = true
}

// setComputed registers a default that a user value cannot replace,
// only remove.
func (h *headerSet) setComputed(name, value string) {
	h.setDefault(name, value)
	h.entries[strings.ToLower(name)].computed = true
}

// pin makes a computed header survive an unset.
func (h *headerSet) pin(name string) {
	h.entries[strings.ToLower(name)].pinned = true
}

// withhold drops a header the engine computes but this request has no
// value for, whatever the user set.
func (h *headerSet) withhold(name string) {
	if e, ok := h.entries[strings.ToLower(name)]; ok {
		e.computed = true
		e.hasValue = false
	}
}

func (h *headerSet) resolve() []Header {
	headers := make([]Header, 0, len(h.order))
	for _, name := range h.order {
		e := h.entries[name]
		switch {
		case e.pinned && e.hasValue:
			headers = append(headers, Header{Name: name, Value: e.fallback})
		case e.state == stateUnset:
			continue
		case e.state == stateSet && !e.computed:
			headers = append(headers, Header{Name: name, Value: e.value})
		case e.hasValue:
			headers = append(headers, Header{Name: name, Value: e.fallback})
		}
	}
	return SortHeaders(headers)
}
