// Package extract reads and writes values in JSON documents by dotted path.
//
// Paths are dot-separated property names ("book.title"). Numeric segments
// index arrays ("items.0.id"). Every other character is taken literally, so
// property names containing wildcard or query characters resolve as written.
package extract

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Get returns the value at path. A missing intermediate segment, a non-JSON
// body, or an absent leaf all report ok=false. An empty path returns the
// whole document.
func Get(body []byte, path string) (interface{}, bool) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil, false
	}
	if path == "" {
		return gjson.ParseBytes(body).Value(), true
	}
	res := gjson.GetBytes(body, Escape(path))
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// Set writes value at path, creating intermediate objects as needed.
// A nil or empty body starts from an empty object.
func Set(body []byte, path string, value interface{}) ([]byte, error) {
	if len(body) == 0 {
		body = []byte("{}")
	}
	return sjson.SetBytes(body, Escape(path), value)
}

// Escape converts a dotted path into gjson/sjson path syntax, escaping every
// character with a special meaning inside a segment.
func Escape(path string) string {
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		segments[i] = escapeSegment(seg)
	}
	return strings.Join(segments, ".")
}

func escapeSegment(seg string) string {
	var b strings.Builder
	b.Grow(len(seg))
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if !isPlain(c) {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isPlain(c byte) bool {
	return c <= ' ' || c > '~' || c == '_' || c == '-' || c == ':' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
