package flatten

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a scalar leaf of a flattened payload.
// Arrays are carried as KindString holding their serialized form.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

// String returns a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Null returns the null Value.
func Null() Value { return Value{Kind: KindNull} }

// JSON serializes the value the way JSON.stringify does in a browser:
// strings are quoted, numbers use the shortest round-trip form and
// non-finite numbers become null.
func (v Value) JSON() string {
	switch v.Kind {
	case KindString:
		return Quote(v.Str)
	case KindNumber:
		return FormatNumber(v.Num)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return "null"
	}
}

// Text is the display form: the raw string for strings, JSON otherwise.
func (v Value) Text() string {
	if v.Kind == KindString {
		return v.Str
	}
	return v.JSON()
}

// FormatNumber renders n using ECMAScript Number-to-String rules.
func FormatNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "null"
	}
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	// Shortest digits d1.d2...dk and decimal exponent.
	sci := strconv.FormatFloat(n, 'e', -1, 64)
	mant, expPart, _ := strings.Cut(sci, "e")
	digits := strings.Replace(mant, ".", "", 1)
	exp, _ := strconv.Atoi(expPart)

	k := len(digits)
	pos := exp + 1 // value = 0.digits * 10^pos

	switch {
	case k <= pos && pos <= 21:
		return digits + strings.Repeat("0", pos-k)
	case 0 < pos && pos <= 21:
		return digits[:pos] + "." + digits[pos:]
	case -6 < pos && pos <= 0:
		return "0." + strings.Repeat("0", -pos) + digits
	}

	e := pos - 1
	sign := "+"
	if e < 0 {
		sign = "-"
		e = -e
	}
	if k == 1 {
		return digits + "e" + sign + strconv.Itoa(e)
	}
	return digits[:1] + "." + digits[1:] + "e" + sign + strconv.Itoa(e)
}

// Quote returns s as a JSON string literal. Only quotes, backslashes and
// control characters are escaped; HTML-sensitive characters pass through.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				b.WriteByte(hexDigits[r>>4])
				b.WriteByte(hexDigits[r&0xF])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

const hexDigits = "0123456789abcdef"
