// Package modeljson extracts JSON objects from free-form vision model replies.
package modeljson

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/menta2k/snapfx/pkg/types"
)

// Sanitize removes code fences, comments and trailing commas, and keeps only
// the outermost {...} of the reply. Comment markers and commas inside string
// literals are left alone.
func Sanitize(raw string) string {
	s := outermost(stripFences(raw))
	s = dropTrailingCommas(stripComments(s))
	return strings.TrimSpace(outermost(s))
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	return strings.Trim(strings.TrimSpace(raw), "`")
}

func outermost(s string) string {
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return s
}

// literal tracks whether a scan is inside a JSON string.
type literal struct {
	in, escaped bool
}

// step consumes c and reports whether it belongs to a string literal.
func (l *literal) step(c byte) bool {
	switch {
	case !l.in:
		l.in = c == '"'
		return l.in
	case l.escaped:
		l.escaped = false
	case c == '\\':
		l.escaped = true
	case c == '"':
		l.in = false
	}
	return true
}

// stripComments drops // line comments and /* */ block comments.
func stripComments(s string) string {
	var b strings.Builder
	var lit literal
	for i := 0; i < len(s); i++ {
		c := s[i]
		if lit.step(c) {
			b.WriteByte(c)
			continue
		}
		switch {
		case strings.HasPrefix(s[i:], "//"):
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				return b.String()
			}
			i += end - 1
		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// dropTrailingCommas removes commas directly before a closing } or ].
func dropTrailingCommas(s string) string {
	var b strings.Builder
	var lit literal
	for i := 0; i < len(s); i++ {
		c := s[i]
		if lit.step(c) {
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			rest := strings.TrimLeft(s[i+1:], " \t\r\n")
			if strings.HasPrefix(rest, "}") || strings.HasPrefix(rest, "]") {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Unmarshal decodes the first JSON object in raw into v. The object is
// decoded as-is when it is valid and sanitized only when it is not.
func Unmarshal(raw string, v any) error {
	obj := outermost(stripFences(raw))
	if !strings.HasPrefix(obj, "{") {
		return fmt.Errorf("no JSON object in model reply")
	}
	if json.Valid([]byte(obj)) {
		if err := json.Unmarshal([]byte(obj), v); err != nil {
			return fmt.Errorf("decode model reply: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal([]byte(Sanitize(raw)), v); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}

// reply accepts both a list of faces and the single "primary" object some
// models answer with.
type reply struct {
	Faces       []types.Face `json:"faces"`
	Primary     *types.Face  `json:"primary"`
	Description string       `json:"description"`
}

// LocateResult parses a face locator reply. Replies that cannot be parsed
// yield a result without faces whose description says why.
func LocateResult(raw string) *types.LocateResult {
	var r reply
	if err := Unmarshal(raw, &r); err != nil {
		return &types.LocateResult{Description: "unusable model reply: " + err.Error()}
	}
	faces := r.Faces
	if r.Primary != nil {
		faces = append(faces, *r.Primary)
	}
	return &types.LocateResult{Faces: faces, Description: r.Description}
}
