package geozone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// Member is a single key/value pair of a JSON object.
type Member struct {
	Key   string
	Value json.RawMessage
}

// Object is a JSON object that keeps its members in source order.
// It carries keys the typed records do not model.
type Object []Member

// Get returns the raw value stored under key.
func (o Object) Get(key string) (json.RawMessage, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Set replaces the value under key in place, or appends a new member.
func (o *Object) Set(key string, value json.RawMessage) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = value
			return
		}
	}
	*o = append(*o, Member{Key: key, Value: value})
}

// SetValue encodes v and stores it under key.
func (o *Object) SetValue(key string, v any) error {
	raw, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	o.Set(key, raw)
	return nil
}

// Delete removes key if present.
func (o *Object) Delete(key string) {
	for i := range *o {
		if (*o)[i].Key == key {
			*o = append((*o)[:i], (*o)[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for i, m := range o {
		out[i] = Member{Key: m.Key, Value: bytes.Clone(m.Value)}
	}
	return out
}

// UnmarshalJSON decodes a JSON object preserving member order.
// Duplicate keys keep the last value at the first position.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	out := Object{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		out.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = out
	return nil
}

// MarshalJSON encodes the members in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.writeTo(&buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeTo encodes the object into buf. When custom is set, it is called for
// every member value and may write it itself, returning true when it did.
func (o Object) writeTo(buf *bytes.Buffer, custom func(buf *bytes.Buffer, m Member) (bool, error)) error {
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := marshal(m.Key)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')

		if custom != nil {
			done, err := custom(buf, m)
			if err != nil {
				return err
			}
			if done {
				continue
			}
		}

		value := m.Value
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		if err := compact(buf, value); err != nil {
			return fmt.Errorf("encode %q: %w", m.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// ordered merges typed members and passthrough members into one object.
// Keys follow order first, then any remaining typed or extra members.
func ordered(order []string, typed Object, extra Object) Object {
	out := make(Object, 0, len(typed)+len(extra))
	seen := make(map[string]bool, len(order))

	for _, key := range order {
		if seen[key] {
			continue
		}
		if v, ok := typed.Get(key); ok {
			out = append(out, Member{Key: key, Value: v})
			seen[key] = true
		} else if v, ok := extra.Get(key); ok {
			out = append(out, Member{Key: key, Value: v})
			seen[key] = true
		}
	}
	for _, list := range []Object{typed, extra} {
		for _, m := range list {
			if seen[m.Key] {
				continue
			}
			out = append(out, m)
			seen[m.Key] = true
		}
	}
	return out
}

// marshal encodes v without HTML escaping and without a trailing newline.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return literalUnicode(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// compact appends raw JSON to buf with insignificant whitespace removed.
func compact(buf *bytes.Buffer, raw []byte) error {
	var tmp bytes.Buffer
	if err := json.Compact(&tmp, raw); err != nil {
		return err
	}
	buf.Write(literalUnicode(tmp.Bytes()))
	return nil
}

// literalUnicode rewrites \uXXXX escapes of non-ASCII code points as literal
// UTF-8. ASCII escapes and lone surrogates stay escaped. src must be valid
// JSON, where a backslash only occurs inside a string.
func literalUnicode(src []byte) []byte {
	if !bytes.Contains(src, []byte(`\u`)) {
		return src
	}

	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != '\\' || i+1 == len(src) {
			out = append(out, c)
			continue
		}
		if src[i+1] != 'u' {
			out = append(out, c, src[i+1])
			i++
			continue
		}

		r, n := unicodeEscape(src[i:])
		if n == 0 {
			out = append(out, src[i:i+2]...)
			i++
			continue
		}
		out = utf8.AppendRune(out, r)
		i += n - 1
	}
	return out
}

// unicodeEscape decodes the escape at the start of b, joining surrogate
// pairs. It returns n == 0 when the escape is kept as is.
func unicodeEscape(b []byte) (rune, int) {
	r, ok := hex4(b)
	if !ok || r < utf8.RuneSelf {
		return 0, 0
	}
	if !utf16.IsSurrogate(r) {
		return r, 6
	}
	if r >= 0xdc00 || len(b) < 12 || b[6] != '\\' || b[7] != 'u' {
		return 0, 0
	}
	low, ok := hex4(b[6:])
	if !ok {
		return 0, 0
	}
	if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
		return pair, 12
	}
	return 0, 0
}

func hex4(b []byte) (rune, bool) {
	if len(b) < 6 {
		return 0, false
	}
	v, err := strconv.ParseUint(string(b[2:6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
