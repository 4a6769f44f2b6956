package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrMissingClosingDelimiter is returned when a document opens a front matter
// block but never closes it.
var ErrMissingClosingDelimiter = errors.New("front matter opening delimiter found but closing delimiter is missing")

// Attr is one front matter key/value pair. Slices of Attr keep the order the
// keys were written in.
type Attr struct {
	Key   string
	Value any
}

const tomlDelimiter = "+++"

// splitTOML separates a `+++` delimited TOML block from the body. ok is false
// when the document does not start with a TOML block.
func splitTOML(src []byte) (front, body []byte, ok bool, err error) {
	nl := []byte("\n")
	if bytes.HasPrefix(src, []byte(tomlDelimiter+"\r\n")) {
		nl = []byte("\r\n")
	} else if !bytes.HasPrefix(src, []byte(tomlDelimiter+"\n")) {
		return nil, src, false, nil
	}

	start := len(tomlDelimiter) + len(nl)
	closing := append(append([]byte{}, nl...), tomlDelimiter...)
	idx := bytes.Index(src[start-len(nl):], closing)
	if idx < 0 {
		return nil, nil, true, ErrMissingClosingDelimiter
	}
	end := start - len(nl) + idx
	front = src[start:max(end, start)]
	rest := src[end+len(closing):]
	rest = bytes.TrimPrefix(rest, nl)
	return front, rest, true, nil
}

// parseTOML decodes a TOML front matter block. TOML tables carry no key order,
// so keys are returned sorted.
func parseTOML(front []byte) ([]Attr, error) {
	fields := map[string]any{}
	if err := toml.Unmarshal(front, &fields); err != nil {
		return nil, fmt.Errorf("parse toml front matter: %w", err)
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	attrs := make([]Attr, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, Attr{Key: key, Value: normalizeValue(fields[key])})
	}
	return attrs, nil
}

// normalizeValue maps decoder specific scalar types onto plain Go values so
// callers only ever see strings, bools, numbers, time.Time and slices.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case toml.LocalDate:
		return value.AsTime(time.UTC)
	case toml.LocalDateTime:
		return value.AsTime(time.UTC)
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
