package ptcorm

import (
	"strconv"
	"strings"
	"unicode"
)

// fieldTag is the parsed form of a `db:"..."` struct tag. The first,
// comma-separated token is the column name override (or "-" to mark
// the field ignored, per spec §4.2 @Ignore); everything after is a
// set of bare options or key:value options, mirroring the teacher's
// driver.Tag helper (orm/driver/tag.go), generalized with a value
// accessor for every option instead of just "default".
type fieldTag struct {
	name    string
	ignored bool
	opts    map[string]string
}

func parseFieldTag(raw string) fieldTag {
	if raw == "" {
		return fieldTag{opts: map[string]string{}}
	}
	parts := strings.Split(raw, ",")
	t := fieldTag{opts: map[string]string{}}
	if parts[0] == "-" {
		t.ignored = true
	} else {
		t.name = parts[0]
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if idx := strings.Index(p, ":"); idx >= 0 {
			t.opts[p[:idx]] = p[idx+1:]
		} else {
			t.opts[p] = ""
		}
	}
	return t
}

func (t fieldTag) has(key string) bool {
	_, ok := t.opts[key]
	return ok
}

func (t fieldTag) value(key string) string {
	return t.opts[key]
}

func (t fieldTag) intValue(key string, def int) int {
	v, ok := t.opts[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// camelToSnake implements the table/column name derivation rule from
// spec §3 ("lowercasing + snake-casing the type name").
func camelToSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
