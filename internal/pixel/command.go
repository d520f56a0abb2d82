package pixel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Command is one backend operation.
type Command interface {
	Reactor() string
	Args() []Arg
}

// Arg is one argument of a Command. Arguments without a Key are positional.
type Arg struct {
	Key   string
	Value any
}

// Raw is a pixel written by hand. It is sent as is.
type Raw string

func (Raw) Reactor() string { return "" }
func (Raw) Args() []Arg     { return nil }

// Encode renders cmd as pixel text:
//
//	Reactor(key=<json>, key=<json>)
//
// Every value is JSON encoded. Maps and structs are wrapped in a one element
// list, which is how reactors receive map-valued arguments.
func Encode(cmd Command) (string, error) {
	if raw, ok := cmd.(Raw); ok {
		return strings.TrimSpace(string(raw)), nil
	}
	name := cmd.Reactor()
	if !isIdentifier(name) {
		return "", fmt.Errorf("encode pixel: invalid reactor name %q", name)
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, arg := range cmd.Args() {
		if i > 0 {
			b.WriteString(", ")
		}
		if arg.Key != "" {
			if !isIdentifier(arg.Key) {
				return "", fmt.Errorf("encode pixel %s: invalid argument name %q", name, arg.Key)
			}
			b.WriteString(arg.Key)
			b.WriteByte('=')
		}
		value, err := encodeValue(arg.Value)
		if err != nil {
			return "", fmt.Errorf("encode pixel %s: %w", name, err)
		}
		b.Write(value)
	}
	b.WriteByte(')')
	return b.String(), nil
}

func encodeValue(v any) ([]byte, error) {
	if needsWrap(v) {
		v = []any{v}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func needsWrap(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// Call is a parsed pixel.
type Call struct {
	Reactor    string
	Positional []json.RawMessage
	Named      map[string]json.RawMessage
}

// Parse reads text produced by Encode. A trailing semicolon is accepted.
func Parse(expression string) (Call, error) {
	text := strings.TrimSpace(expression)
	text = strings.TrimSpace(strings.TrimSuffix(text, ";"))

	open := strings.IndexByte(text, '(')
	if open < 0 || !strings.HasSuffix(text, ")") {
		return Call{}, fmt.Errorf("parse pixel %q: expected Reactor(...)", expression)
	}
	call := Call{Reactor: strings.TrimSpace(text[:open]), Named: map[string]json.RawMessage{}}
	if !isIdentifier(call.Reactor) {
		return Call{}, fmt.Errorf("parse pixel %q: invalid reactor name", expression)
	}

	body := text[open+1 : len(text)-1]
	pos := skipSpace(body, 0)
	for pos < len(body) {
		key, next := scanKey(body, pos)
		if key != "" {
			pos = next
		}
		dec := json.NewDecoder(strings.NewReader(body[pos:]))
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return Call{}, fmt.Errorf("parse pixel %q: argument at %d: %w", expression, pos, err)
		}
		pos = skipSpace(body, pos+int(dec.InputOffset()))

		if key == "" {
			call.Positional = append(call.Positional, value)
		} else {
			if _, dup := call.Named[key]; dup {
				return Call{}, fmt.Errorf("parse pixel %q: duplicate argument %q", expression, key)
			}
			call.Named[key] = value
		}

		if pos == len(body) {
			break
		}
		if body[pos] != ',' {
			return Call{}, fmt.Errorf("parse pixel %q: expected ',' at %d", expression, pos)
		}
		pos = skipSpace(body, pos+1)
	}
	return call, nil
}

// scanKey returns the argument name at pos and the position after '=', or ""
// if the argument is positional.
func scanKey(s string, pos int) (string, int) {
	end := pos
	for end < len(s) && (s[end] == '_' || isAlnum(s[end])) {
		end++
	}
	if end == pos {
		return "", pos
	}
	eq := skipSpace(s, end)
	if eq >= len(s) || s[eq] != '=' {
		return "", pos
	}
	return s[pos:end], skipSpace(s, eq+1)
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\n' || s[pos] == '\r') {
		pos++
	}
	return pos
}

// Text decodes the named string argument.
func (c Call) Text(key string) (string, error) {
	raw, ok := c.Named[key]
	if !ok {
		return "", fmt.Errorf("%s: missing argument %q", c.Reactor, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: argument %q: %w", c.Reactor, key, err)
	}
	return s, nil
}

// Decode unmarshals the named argument into dst. Missing arguments leave dst
// untouched and report false.
func (c Call) Decode(key string, dst any) (bool, error) {
	raw, ok := c.Named[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("%s: argument %q: %w", c.Reactor, key, err)
	}
	return true, nil
}

// Object decodes a map-valued argument, unwrapping the one element list
// Encode puts around it.
func (c Call) Object(key string, dst any) (bool, error) {
	raw, ok := c.Named[key]
	if !ok {
		return false, nil
	}
	var wrapped []json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if len(wrapped) != 1 {
			return true, fmt.Errorf("%s: argument %q: expected one map, got %d", c.Reactor, key, len(wrapped))
		}
		raw = wrapped[0]
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("%s: argument %q: %w", c.Reactor, key, err)
	}
	return true, nil
}
