package starknet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// The class hashes commit to JSON text produced by Python's json.dumps with
// its default settings: ", " and ": " separators and every non-ASCII or
// control character escaped. The functions below reproduce that text.

// pythonJSON re-serializes the JSON document data, keeping object key order.
func pythonJSON(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	type frame struct {
		obj bool
		n   int
	}
	var stack []frame
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			b.WriteByte(byte(d))
			stack = stack[:len(stack)-1]
			continue
		}
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			switch {
			case top.obj && top.n%2 == 1:
				b.WriteString(": ")
			case top.n > 0:
				b.WriteString(", ")
			}
			top.n++
		}
		switch v := tok.(type) {
		case json.Delim:
			b.WriteByte(byte(v))
			stack = append(stack, frame{obj: v == '{'})
		default:
			if err := writePythonScalar(&b, v); err != nil {
				return "", err
			}
		}
	}
	return b.String(), nil
}

// pythonJSONSorted serializes v, a value decoded with json.Decoder.UseNumber,
// like json.dumps(v, sort_keys=True).
func pythonJSONSorted(v interface{}) (string, error) {
	var b strings.Builder
	if err := writePythonSorted(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// intKeyed is an object whose keys are non-negative decimal integers. Python
// sorts integer keys by value before turning them into strings.
type intKeyed map[string]interface{}

func writePythonSorted(b *strings.Builder, v interface{}) error {
	switch v := v.(type) {
	case intKeyed:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) < len(keys[j])
			}
			return keys[i] < keys[j]
		})
		return writePythonObject(b, keys, v)
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return writePythonObject(b, keys, v)
	case []interface{}:
		b.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writePythonSorted(b, e); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	default:
		return writePythonScalar(b, v)
	}
	return nil
}

func writePythonObject(b *strings.Builder, keys []string,
	v map[string]interface{}) error {
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		writePythonString(b, k)
		b.WriteString(": ")
		if err := writePythonSorted(b, v[k]); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func writePythonScalar(b *strings.Builder, v interface{}) error {
	switch v := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case json.Number:
		b.WriteString(v.String())
	case string:
		writePythonString(b, v)
	default:
		return fmt.Errorf("unexpected JSON value %T", v)
	}
	return nil
}

func writePythonString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r < 0x7f:
				b.WriteRune(r)
			case r > 0xffff:
				r -= 0x10000
				fmt.Fprintf(b, `\u%04x\u%04x`, 0xd800|(r>>10), 0xdc00|(r&0x3ff))
			default:
				fmt.Fprintf(b, `\u%04x`, r)
			}
		}
	}
	b.WriteByte('"')
}
