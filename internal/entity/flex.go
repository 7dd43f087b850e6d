package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// StringOrNumber holds a field that spreadsheets deliver either as a bare
// number or as text. JSON arrays and objects are kept as their raw text so
// the normalizer can decide how to read them. It is a raw value: nothing
// outside the normalize package should interpret it.
type StringOrNumber struct {
	Text     string
	Number   float64
	IsNumber bool

	raw json.RawMessage
}

// String builds a textual StringOrNumber.
func String(s string) StringOrNumber {
	return StringOrNumber{Text: s}
}

// Number builds a numeric StringOrNumber.
func Number(n float64) StringOrNumber {
	return StringOrNumber{Number: n, IsNumber: true}
}

// IsZero reports whether the field was absent or empty.
func (v StringOrNumber) IsZero() bool {
	return !v.IsNumber && strings.TrimSpace(v.Text) == "" && len(v.raw) == 0
}

func (v *StringOrNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*v = StringOrNumber{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	v.raw = append(json.RawMessage(nil), b...)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v.Text = s
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		v.Number = n
		v.IsNumber = true
		return nil
	}
	// Array or object: keep the raw text and let the normalizer parse it.
	v.Text = string(b)
	return nil
}

func (v StringOrNumber) MarshalJSON() ([]byte, error) {
	if len(v.raw) > 0 {
		return append([]byte(nil), v.raw...), nil
	}
	if v.IsNumber {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}

func (v StringOrNumber) clone() StringOrNumber {
	out := v
	out.raw = append(json.RawMessage(nil), v.raw...)
	return out
}

// FlexInt is an integer field that may arrive as a JSON number, a numeric
// string, or garbage. Valid is false when the raw value did not parse as an
// integer; Raw keeps the original text for error messages.
type FlexInt struct {
	Value int
	Valid bool
	Raw   string

	raw json.RawMessage
}

// Int builds a parsed FlexInt.
func Int(n int) FlexInt {
	return FlexInt{Value: n, Valid: true, Raw: strconv.Itoa(n)}
}

// IsZero reports whether the field was absent or empty.
func (v FlexInt) IsZero() bool {
	return !v.Valid && strings.TrimSpace(v.Raw) == "" && len(v.raw) == 0
}

func (v *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*v = FlexInt{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	v.raw = append(json.RawMessage(nil), b...)
	text := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
	}
	v.Raw = text
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		v.Value = n
		v.Valid = true
		return nil
	}
	// Tolerate integral floats like "3.0".
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int(f)) {
		v.Value = int(f)
		v.Valid = true
	}
	return nil
}

func (v FlexInt) MarshalJSON() ([]byte, error) {
	if len(v.raw) > 0 {
		return append([]byte(nil), v.raw...), nil
	}
	if v.Valid {
		return json.Marshal(v.Value)
	}
	return json.Marshal(v.Raw)
}

func (v FlexInt) clone() FlexInt {
	out := v
	out.raw = append(json.RawMessage(nil), v.raw...)
	return out
}
