// Package flatten turns nested KPI payloads into flat records keyed by
// dotted paths.
//
// Objects are descended into and their keys joined with ".". Arrays are not
// descended into; they are stored as their compact JSON serialization.
// Scalars are stored unchanged. Key order follows JavaScript property order
// so that exports line up with what the upstream dashboard shows.
//
//	{"kpis": {"clients": {"value": 42}}, "tags": ["a", "b"]}
//
// flattens to
//
//	kpis.clients.value = 42
//	tags               = "[\"a\",\"b\"]"
package flatten

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidPayload is returned when the input is not a JSON object.
var ErrInvalidPayload = errors.New("invalid payload")

// Flatten parses payload and flattens it into a record.
func Flatten(payload []byte) (*Record, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidPayload)
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: root must be an object, got %s", ErrInvalidPayload, describe(root))
	}
	return FlattenResult(root), nil
}

// FlattenResult flattens an already parsed object. Non-object input yields
// an empty record.
func FlattenResult(obj gjson.Result) *Record {
	rec := NewRecord()
	if obj.IsObject() {
		flattenInto(rec, obj, "")
	}
	return rec
}

func flattenInto(rec *Record, obj gjson.Result, prefix string) {
	for _, m := range members(obj) {
		path := m.key
		if prefix != "" {
			path = prefix + "." + m.key
		}

		switch {
		case m.value.IsArray():
			rec.Set(path, String(Stringify(m.value)))
		case m.value.IsObject():
			rec.Merge(flattenObject(m.value, path))
		default:
			rec.Set(path, scalar(m.value))
		}
	}
}

func flattenObject(obj gjson.Result, prefix string) *Record {
	sub := NewRecord()
	flattenInto(sub, obj, prefix)
	return sub
}

// scalar converts a non-container gjson result into a Value.
func scalar(r gjson.Result) Value {
	switch r.Type {
	case gjson.String:
		return String(r.Str)
	case gjson.Number:
		return Number(r.Num)
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	default:
		return Null()
	}
}

type member struct {
	key   string
	value gjson.Result
}

// members lists the properties of obj the way JSON.parse materializes them:
// a duplicated key keeps its first position and its last value, and
// array-index keys come first.
func members(obj gjson.Result) []member {
	var order []string
	values := make(map[string]gjson.Result)
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, seen := values[k]; !seen {
			order = append(order, k)
		}
		values[k] = value
		return true
	})

	out := make([]member, 0, len(order))
	for _, k := range propertyOrder(order) {
		out = append(out, member{key: k, value: values[k]})
	}
	return out
}

// Stringify serializes r compactly with JavaScript number formatting and
// string escaping.
func Stringify(r gjson.Result) string {
	var b strings.Builder
	writeJSON(&b, r)
	return b.String()
}

func writeJSON(b *strings.Builder, r gjson.Result) {
	switch {
	case r.IsArray():
		b.WriteByte('[')
		for i, el := range r.Array() {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSON(b, el)
		}
		b.WriteByte(']')
	case r.IsObject():
		b.WriteByte('{')
		for i, m := range members(r) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(Quote(m.key))
			b.WriteByte(':')
			writeJSON(b, m.value)
		}
		b.WriteByte('}')
	default:
		b.WriteString(scalar(r).JSON())
	}
}

func describe(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.Type == gjson.Null:
		return "null"
	case r.Type == gjson.True, r.Type == gjson.False:
		return "boolean"
	default:
		return strings.ToLower(r.Type.String())
	}
}
