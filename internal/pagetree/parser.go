package pagetree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Limits bounds parsing and traversal. Zero values select defaults.
type Limits struct {
	MaxBytes        int // max raw payload size
	MaxNodes        int // max total node count
	TraversalBudget int // max steps per recursive walk
}

// DefaultLimits returns the configured ceilings used when the caller passes
// a zero Limits.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:        8 << 20,
		MaxNodes:        20_000,
		TraversalBudget: DefaultTraversalBudget,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxBytes <= 0 {
		l.MaxBytes = d.MaxBytes
	}
	if l.MaxNodes <= 0 {
		l.MaxNodes = d.MaxNodes
	}
	if l.TraversalBudget <= 0 {
		l.TraversalBudget = d.TraversalBudget
	}
	return l
}

// PayloadDelimiter marks the start of an embedded JSON payload inside a
// larger textual blob, e.g. an export file that prefixes the page data with
// commentary.
const PayloadDelimiter = "<!-- PAGE_JSON -->"

// payloadMarker is the looser fallback: the payload starts at the first '['
// after this marker.
const payloadMarker = "page_data:"

// Parse normalizes raw input into a Document. Input may be an
// already-structured node list ([]*Node or a decoded []any), a JSON string,
// raw bytes, or a textual blob embedding the JSON after PayloadDelimiter.
// All failures come back as typed errors, never panics.
func Parse(input any, lim Limits) (*Document, error) {
	lim = lim.withDefaults()

	var raw string
	switch v := input.(type) {
	case []*Node:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, &ParseError{Offset: -1, Reason: fmt.Sprintf("reserialize structured input: %s", err)}
		}
		raw = string(data)
	case []any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, &ParseError{Offset: -1, Reason: fmt.Sprintf("reserialize structured input: %s", err)}
		}
		raw = string(data)
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return nil, &ParseError{Offset: -1, Reason: "nil input"}
	default:
		return nil, &ParseError{Offset: -1, Reason: fmt.Sprintf("unsupported input type %T (want node list, string, or bytes)", input)}
	}

	if len(raw) > lim.MaxBytes {
		return nil, &SizeLimitError{What: "bytes", Got: len(raw), Limit: lim.MaxBytes}
	}

	payload, base, err := locatePayload(raw)
	if err != nil {
		return nil, err
	}

	if err := checkArrayRoot(payload, base); err != nil {
		return nil, err
	}

	// Decode stops after the first value, so trailing commentary after an
	// embedded payload survives.
	var nodes []*Node
	if err := json.NewDecoder(strings.NewReader(payload)).Decode(&nodes); err != nil {
		return nil, syntaxError(payload, base, err)
	}
	if nodes == nil {
		nodes = []*Node{}
	}

	if n := CountNodes(nodes); n > lim.MaxNodes {
		return nil, &SizeLimitError{What: "nodes", Got: n, Limit: lim.MaxNodes}
	}

	return &Document{Nodes: nodes, RawData: raw}, nil
}

// locatePayload finds the JSON segment inside raw. Input starting with '['
// is the bare array itself. Anything else is checked for an embedded payload
// first (after PayloadDelimiter, or at the first '[' after payloadMarker),
// because leading commentary may well start with a JSON-looking byte like
// 't' or a digit. Only input with neither delimiter is treated as bare
// non-array JSON, so the root check can name the shape. base is the offset
// of the payload within raw, used to report absolute error positions.
func locatePayload(raw string) (payload string, base int64, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", 0, &ParseError{Offset: 0, Reason: "empty input"}
	}
	lead := int64(len(raw) - len(strings.TrimLeft(raw, " \t\r\n")))
	if trimmed[0] == '[' {
		return trimmed, lead, nil
	}

	if i := strings.Index(raw, PayloadDelimiter); i >= 0 {
		start := i + len(PayloadDelimiter)
		return strings.TrimSpace(raw[start:]), int64(start), nil
	}
	if i := strings.Index(raw, payloadMarker); i >= 0 {
		rest := raw[i+len(payloadMarker):]
		if j := strings.IndexByte(rest, '['); j >= 0 {
			start := i + len(payloadMarker) + j
			return raw[start:], int64(start), nil
		}
	}

	switch trimmed[0] {
	case '{', '"', 't', 'f', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		// Bare JSON with a non-array root; reported as such downstream.
		return trimmed, lead, nil
	}
	return "", 0, &ParseError{
		Offset:  0,
		Snippet: snippet(raw, 0),
		Reason:  "no JSON payload found (expected bare JSON or embedded payload after delimiter)",
	}
}

// checkArrayRoot rejects non-array roots with a diagnostic naming the shape
// actually found.
func checkArrayRoot(payload string, base int64) error {
	trimmed := strings.TrimLeft(payload, " \t\r\n")
	if trimmed == "" {
		return &ParseError{Offset: base, Reason: "empty payload after delimiter"}
	}
	if trimmed[0] == '[' {
		return nil
	}
	return &ParseError{
		Offset:  base,
		Snippet: snippet(trimmed, 0),
		Reason:  fmt.Sprintf("document root must be an array, found %s", jsonShape(trimmed[0])),
	}
}

func jsonShape(c byte) string {
	switch c {
	case '{':
		return "an object"
	case '"':
		return "a string"
	case 't', 'f':
		return "a boolean"
	case 'n':
		return "null"
	default:
		if c == '-' || (c >= '0' && c <= '9') {
			return "a number"
		}
		return fmt.Sprintf("unexpected character %q", c)
	}
}

// syntaxError converts an encoding/json failure into a ParseError carrying
// the absolute offset and the offending snippet.
func syntaxError(payload string, base int64, err error) error {
	var off int64 = -1
	switch e := err.(type) {
	case *json.SyntaxError:
		off = e.Offset
	case *json.UnmarshalTypeError:
		off = e.Offset
	}
	pe := &ParseError{Offset: -1, Reason: err.Error()}
	if off >= 0 {
		pe.Offset = base + off
		pe.Snippet = snippet(payload, off)
	}
	return pe
}

// snippet returns a short window of text around off for diagnostics.
func snippet(s string, off int64) string {
	const window = 40
	start := int(off) - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

// ParseResult is the structured parse surface handed to external callers:
// success flag, normalized nodes, eager index, duplicate-id side list, and
// the retained raw payload. Failures fill Error (and DebugInfo for parse
// position detail) instead of raising.
type ParseResult struct {
	Success      bool                   `json:"success"`
	Data         []*Node                `json:"data,omitempty"`
	Index        map[string]*IndexEntry `json:"index,omitempty"`
	DuplicateIDs []string               `json:"duplicateIds,omitempty"`
	RawData      string                 `json:"rawData,omitempty"`
	Error        string                 `json:"error,omitempty"`
	DebugInfo    string                 `json:"debugInfo,omitempty"`
}

// ParseToResult runs Parse plus eager indexing, folding any failure into the
// result instead of returning it.
func ParseToResult(input any, lim Limits) ParseResult {
	doc, err := Parse(input, lim)
	if err != nil {
		res := ParseResult{Success: false, Error: err.Error()}
		var pe *ParseError
		if errors.As(err, &pe) && pe.Snippet != "" {
			res.DebugInfo = fmt.Sprintf("offset %d near %q", pe.Offset, pe.Snippet)
		}
		return res
	}
	idx, err := BuildIndex(doc, lim)
	if err != nil {
		return ParseResult{Success: false, RawData: doc.RawData, Error: err.Error()}
	}
	return ParseResult{
		Success:      true,
		Data:         doc.Nodes,
		Index:        idx.Entries(),
		DuplicateIDs: idx.DuplicateIDs(),
		RawData:      doc.RawData,
	}
}
