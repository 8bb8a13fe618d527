package expr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Unmarshal decodes a JSON expression tree. It accepts the canonical
// encoding produced by MarshalCanonical as well as the shorthands
// described on Decode.
func Unmarshal(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after expression")
	}
	return Decode(raw)
}

// Decode converts a generic value, as produced by encoding/json, yaml.v3
// or similar decoders, into a Node.
//
// Objects carry a "type" tag (const, var, sum, prod, pow, func, vec) and
// the fields of that variant. Two shorthands are accepted anywhere a node
// is expected: a bare number is a constant and the string "x" is the
// variable. Constant values may be numbers or decimal strings; strings
// allow NaN and ±Inf.
func Decode(v any) (Node, error) {
	return decodeAt(v, "root")
}

func decodeAt(v any, path string) (Node, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("%s: null is not an expression", path)
	case string:
		if val == "x" {
			return Variable{}, nil
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: string %q is neither \"x\" nor a number", path, val)
		}
		return Constant{Value: f}, nil
	case map[string]any:
		return decodeObject(val, path)
	case map[any]any:
		obj := make(map[string]any, len(val))
		for k, e := range val {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%s: non-string key %v", path, k)
			}
			obj[ks] = e
		}
		return decodeObject(obj, path)
	default:
		f, ok, err := toFloat(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if ok {
			return Constant{Value: f}, nil
		}
		return nil, fmt.Errorf("%s: unsupported type %T", path, v)
	}
}

func decodeObject(obj map[string]any, path string) (Node, error) {
	rawType, ok := obj["type"]
	if !ok {
		return nil, fmt.Errorf("%s: missing \"type\"", path)
	}
	typ, ok := rawType.(string)
	if !ok {
		return nil, fmt.Errorf("%s: \"type\" must be a string, got %T", path, rawType)
	}

	fields, known := TypeFields(typ)
	if !known {
		return nil, fmt.Errorf("%s: unknown type %q", path, typ)
	}
	if err := checkFields(obj, fields, path); err != nil {
		return nil, err
	}

	switch typ {
	case TypeConstant:
		return decodeConstant(obj["value"], path+".value")
	case TypeVariable:
		return Variable{}, nil
	case TypeSum, TypeProduct:
		left, err := decodeAt(obj["left"], path+".left")
		if err != nil {
			return nil, err
		}
		right, err := decodeAt(obj["right"], path+".right")
		if err != nil {
			return nil, err
		}
		if typ == TypeSum {
			return Sum{Left: left, Right: right}, nil
		}
		return Product{Left: left, Right: right}, nil
	case TypePower:
		base, err := decodeAt(obj["base"], path+".base")
		if err != nil {
			return nil, err
		}
		exponent, err := decodeAt(obj["exponent"], path+".exponent")
		if err != nil {
			return nil, err
		}
		return Power{Base: base, Exponent: exponent}, nil
	case TypeFunction:
		name, ok := obj["func"].(string)
		if !ok {
			return nil, fmt.Errorf("%s.func: must be a string", path)
		}
		kind := FuncKind(name)
		if !kind.Valid() {
			return nil, fmt.Errorf("%s.func: unknown function %q", path, name)
		}
		arg, err := decodeAt(obj["arg"], path+".arg")
		if err != nil {
			return nil, err
		}
		return Function{Kind: kind, Arg: arg}, nil
	default: // TypeVector
		list, ok := obj["elems"].([]any)
		if !ok {
			return nil, fmt.Errorf("%s.elems: must be a list", path)
		}
		elems := make([]Node, len(list))
		for i, e := range list {
			n, err := decodeAt(e, fmt.Sprintf("%s.elems[%d]", path, i))
			if err != nil {
				return nil, err
			}
			elems[i] = n
		}
		vec, err := NewVector(elems...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return vec, nil
	}
}

var typeFields = map[string][]string{
	TypeConstant: {"value"},
	TypeVariable: {},
	TypeSum:      {"left", "right"},
	TypeProduct:  {"left", "right"},
	TypePower:    {"base", "exponent"},
	TypeFunction: {"func", "arg"},
	TypeVector:   {"elems"},
}

// TypeFields returns the fields, besides "type", that an encoded node of
// the given type tag carries. ok is false for unknown tags.
func TypeFields(typ string) (fields []string, ok bool) {
	fields, ok = typeFields[typ]
	if !ok {
		return nil, false
	}
	return append([]string(nil), fields...), true
}

// checkFields rejects unknown keys (catches typos like "expnent") and
// reports missing required ones.
func checkFields(obj map[string]any, fields []string, path string) error {
	want := make(map[string]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}
	var unknown []string
	for k := range obj {
		if k != "type" && !want[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%s: unknown field %q", path, unknown[0])
	}
	for _, f := range fields {
		if _, ok := obj[f]; !ok {
			return fmt.Errorf("%s: missing %q", path, f)
		}
	}
	return nil
}

func decodeConstant(v any, path string) (Node, error) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", path, s)
		}
		return Constant{Value: f}, nil
	}
	f, ok, err := toFloat(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: must be a number, got %T", path, v)
	}
	return Constant{Value: f}, nil
}

// toFloat converts the numeric types produced by common decoders.
func toFloat(v any) (float64, bool, error) {
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case int32:
		return float64(n), true, nil
	case uint64:
		return float64(n), true, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("invalid number %q", n.String())
		}
		return f, true, nil
	default:
		return 0, false, nil
	}
}
