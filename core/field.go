package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// FieldKind tells which member of a Field holds the value.
type FieldKind uint8

const (
	StringKind FieldKind = iota
	IntKind
	FloatKind
	BoolKind
	TimeKind
	DurationKind
	ErrorKind
	AnyKind
)

// Field is a key/value pair rendered after a message as key=value.
// Numbers and flags live in Num, strings and error text in Str, the rest in Any.
type Field struct {
	Key   string
	Kind  FieldKind
	Num   int64
	Float float64
	Str   string
	Any   any
}

// AppendTo appends " key=value" to dst. String values that contain spaces,
// quotes, '=' or non-printable runes are quoted so the line stays parseable.
func (f Field) AppendTo(dst []byte) []byte {
	dst = append(dst, ' ')
	dst = append(dst, f.Key...)
	dst = append(dst, '=')
	return f.AppendValue(dst)
}

// AppendValue appends the rendered value to dst.
func (f Field) AppendValue(dst []byte) []byte {
	switch f.Kind {
	case StringKind, ErrorKind:
		return appendMaybeQuoted(dst, f.Str)
	case IntKind:
		return strconv.AppendInt(dst, f.Num, 10)
	case FloatKind:
		return strconv.AppendFloat(dst, f.Float, 'f', -1, 64)
	case BoolKind:
		return strconv.AppendBool(dst, f.Num != 0)
	case TimeKind:
		if t, ok := f.Any.(time.Time); ok {
			return t.AppendFormat(dst, time.RFC3339Nano)
		}
		return time.Unix(0, f.Num).UTC().AppendFormat(dst, time.RFC3339Nano)
	case DurationKind:
		return append(dst, time.Duration(f.Num).String()...)
	case AnyKind:
		return appendMaybeQuoted(dst, fmt.Sprint(f.Any))
	}
	return dst
}

func appendMaybeQuoted(dst []byte, s string) []byte {
	if s == "" {
		return append(dst, `""`...)
	}
	if needsQuote(s) {
		return strconv.AppendQuote(dst, s)
	}
	return append(dst, s...)
}

func needsQuote(s string) bool {
	if strings.ContainsAny(s, " =\"") {
		return true
	}
	for _, r := range s {
		if r == utf8.RuneError || !strconv.IsPrint(r) {
			return true
		}
	}
	return false
}
