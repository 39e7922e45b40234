package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

const (
	reasonNoBlock     = "no JSON block found"
	reasonInvalidJSON = "invalid JSON"
	reasonNotObject   = "JSON payload is not an object"
)

// ResponseExtractor pulls the JSON payload out of a raw model reply.
type ResponseExtractor interface {
	Extract(raw string) (json.RawMessage, error)
}

// FencedBlockExtractor reads the first ```json fenced block.
type FencedBlockExtractor struct{}

var fencedJSON = regexp.MustCompile("(?s)```(?i:json)[ \t]*\r?\n(.*?)\r?\n[ \t]*```")

func (FencedBlockExtractor) Extract(raw string) (json.RawMessage, error) {
	match := fencedJSON.FindStringSubmatch(raw)
	if match == nil {
		return nil, &MalformedResponseError{Reason: reasonNoBlock}
	}
	return parseObject(match[1])
}

// StructuredOutputExtractor expects the whole reply to be one JSON object,
// as returned by providers running in JSON output mode.
type StructuredOutputExtractor struct{}

func (StructuredOutputExtractor) Extract(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, &MalformedResponseError{Reason: reasonNoBlock}
	}
	return parseObject(trimmed)
}

// RawJSONExtractor takes the first balanced {...} span that parses.
type RawJSONExtractor struct{}

func (RawJSONExtractor) Extract(raw string) (json.RawMessage, error) {
	var firstErr error

	for start := strings.IndexByte(raw, '{'); start >= 0; {
		end := balancedEnd(raw, start)
		if end < 0 {
			break
		}

		msg, err := parseObject(raw[start : end+1])
		if err == nil {
			return msg, nil
		}
		if firstErr == nil {
			firstErr = err
		}

		// Objects nested in a span that failed to parse are never the payload.
		next := strings.IndexByte(raw[end+1:], '{')
		if next < 0 {
			break
		}
		start = end + 1 + next
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return nil, &MalformedResponseError{Reason: reasonNoBlock}
}

// balancedEnd returns the index of the brace closing the one at start, or -1.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ChainExtractor tries each extractor in order. When all fail, a reply that
// held a broken payload is reported over one that held none.
type ChainExtractor []ResponseExtractor

func (c ChainExtractor) Extract(raw string) (json.RawMessage, error) {
	var firstErr, payloadErr error

	for _, extractor := range c {
		msg, err := extractor.Extract(raw)
		if err == nil {
			return msg, nil
		}
		if firstErr == nil {
			firstErr = err
		}

		var malformed *MalformedResponseError
		if payloadErr == nil && errors.As(err, &malformed) && malformed.Reason != reasonNoBlock {
			payloadErr = err
		}
	}

	if payloadErr != nil {
		return nil, payloadErr
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, &MalformedResponseError{Reason: reasonNoBlock}
}

// DefaultResponseExtractor accepts fenced replies first, then bare JSON.
func DefaultResponseExtractor() ResponseExtractor {
	return ChainExtractor{FencedBlockExtractor{}, StructuredOutputExtractor{}, RawJSONExtractor{}}
}

// ExtractJSON parses the fenced JSON block of a model reply into a map.
func ExtractJSON(raw string) (map[string]any, error) {
	msg, err := FencedBlockExtractor{}.Extract(raw)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(msg, &out); err != nil {
		return nil, &MalformedResponseError{Reason: reasonInvalidJSON, Cause: err}
	}
	return out, nil
}

func parseObject(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, &MalformedResponseError{Reason: reasonInvalidJSON, Cause: err}
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, &MalformedResponseError{Reason: reasonNotObject}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(text)); err != nil {
		return nil, &MalformedResponseError{Reason: reasonInvalidJSON, Cause: err}
	}
	return compact.Bytes(), nil
}
