package expr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// Node type tags used by the canonical encoding.
const (
	TypeConstant = "const"
	TypeVariable = "var"
	TypeSum      = "sum"
	TypeProduct  = "prod"
	TypePower    = "pow"
	TypeFunction = "func"
	TypeVector   = "vec"
)

// MarshalCanonical produces canonical JSON for n.
// This is the ONLY serialization used for content-addressed IDs.
//
// Differences from encoding/json:
//  1. Object keys are sorted
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. No JSON floats: constant values are encoded as the shortest
//     round-trip decimal string, so NaN and ±Inf are representable
func MarshalCanonical(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustMarshalCanonical is like MarshalCanonical but panics on error.
// Use only in tests or when the tree is known to be valid.
func MustMarshalCanonical(n Node) []byte {
	data, err := MarshalCanonical(n)
	if err != nil {
		panic(err)
	}
	return data
}

// field is one key/value pair of a canonical object. Values are either
// strings, Nodes or []Node.
type field struct {
	key   string
	value any
}

func writeCanonical(buf *bytes.Buffer, n Node) error {
	switch v := n.(type) {
	case nil:
		return fmt.Errorf("nil node is not encodable")
	case Constant:
		return writeObject(buf, field{"type", TypeConstant}, field{"value", FormatConstant(v.Value)})
	case Variable:
		return writeObject(buf, field{"type", TypeVariable})
	case Sum:
		return writeObject(buf, field{"type", TypeSum}, field{"left", v.Left}, field{"right", v.Right})
	case Product:
		return writeObject(buf, field{"type", TypeProduct}, field{"left", v.Left}, field{"right", v.Right})
	case Power:
		return writeObject(buf, field{"type", TypePower}, field{"base", v.Base}, field{"exponent", v.Exponent})
	case Function:
		return writeObject(buf, field{"type", TypeFunction}, field{"func", string(v.Kind)}, field{"arg", v.Arg})
	case Vector:
		return writeObject(buf, field{"type", TypeVector}, field{"elems", v.elems})
	default:
		return fmt.Errorf("unsupported node type for canonical JSON: %T", n)
	}
}

// writeObject writes fields as a JSON object with keys in sorted order.
func writeObject(buf *bytes.Buffer, fields ...field) error {
	slices.SortFunc(fields, func(a, b field) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})

	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(buf, f.key); err != nil {
			return fmt.Errorf("key %q: %w", f.key, err)
		}
		buf.WriteByte(':')

		var err error
		switch val := f.value.(type) {
		case string:
			err = writeCanonicalString(buf, val)
		case Node:
			err = writeCanonical(buf, val)
		case []Node:
			err = writeArray(buf, val)
		case nil:
			err = fmt.Errorf("nil node is not encodable")
		default:
			err = fmt.Errorf("unsupported value type %T", val)
		}
		if err != nil {
			return fmt.Errorf("value for key %q: %w", f.key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeArray(buf *bytes.Buffer, elems []Node) error {
	buf.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(buf, e); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

// writeCanonicalString writes s as a JSON string after NFC normalization,
// without HTML escaping.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false) // <, >, & must NOT be escaped
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	// json.Encoder adds a trailing newline
	out := tmp.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	buf.Write(out)
	return nil
}
