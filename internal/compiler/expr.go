package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/symb/internal/expr"
)

// Entry is one named expression from a library.
type Entry struct {
	Name        string
	Description string
	Tree        expr.Node

	// At lists sample points the expression is evaluated at when the
	// library is listed.
	At []float64
}

// CompileEntry parses a CUE value into an Entry.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the entry struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`expr: cube: { tree: {type: "pow", base: "x", exponent: 3} }`)
//	entry, err := CompileEntry(v.LookupPath(cue.ParsePath("expr.cube")))
func CompileEntry(v cue.Value) (*Entry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entry := &Entry{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		entry.Name = labels[len(labels)-1].String()
	}

	// description (optional)
	descVal := v.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, &CompileError{
				Field:   "description",
				Message: "description must be a string",
				Pos:     descVal.Pos(),
			}
		}
		entry.Description = desc
	}

	// tree (required)
	treeVal := v.LookupPath(cue.ParsePath("tree"))
	if !treeVal.Exists() {
		return nil, &CompileError{
			Field:   "tree",
			Message: "tree is required",
			Pos:     v.Pos(),
		}
	}
	tree, err := compileNode(treeVal, "tree")
	if err != nil {
		return nil, err
	}
	entry.Tree = tree

	// at (optional)
	atVal := v.LookupPath(cue.ParsePath("at"))
	if atVal.Exists() {
		entry.At, err = parseSamplePoints(atVal)
		if err != nil {
			return nil, err
		}
	}

	return entry, nil
}

// CompileExpr parses a CUE value holding a single expression tree.
//
// The tree uses the same shape as the canonical JSON encoding: structs
// tagged by "type", with bare numbers and the string "x" accepted as
// shorthand leaves.
func CompileExpr(v cue.Value) (expr.Node, error) {
	return compileNode(v, "tree")
}

func compileNode(v cue.Value, field string) (expr.Node, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	switch v.Kind() {
	case cue.IntKind, cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return expr.Const(f), nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if s == "x" {
			return expr.X(), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("string %q is neither \"x\" nor a number", s),
				Pos:     v.Pos(),
			}
		}
		return expr.Const(f), nil

	case cue.StructKind:
		return compileStruct(v, field)

	case cue.BottomKind:
		return nil, &CompileError{
			Field:   field,
			Message: "expression must be concrete",
			Pos:     v.Pos(),
		}

	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported %s value", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func compileStruct(v cue.Value, field string) (expr.Node, error) {
	typeVal := lookup(v, "type")
	if !typeVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".type",
			Message: "type is required",
			Pos:     v.Pos(),
		}
	}
	typ, err := typeVal.String()
	if err != nil {
		return nil, &CompileError{
			Field:   field + ".type",
			Message: "type must be a string",
			Pos:     typeVal.Pos(),
		}
	}

	fields, ok := expr.TypeFields(typ)
	if !ok {
		return nil, &CompileError{
			Field:   field + ".type",
			Message: fmt.Sprintf("unknown type %q", typ),
			Pos:     typeVal.Pos(),
		}
	}
	if err := checkFields(v, field, fields); err != nil {
		return nil, err
	}

	child := func(name string) (expr.Node, error) {
		return compileNode(lookup(v, name), field+"."+name)
	}

	switch typ {
	case expr.TypeConstant:
		return compileConstant(lookup(v, "value"), field+".value")

	case expr.TypeVariable:
		return expr.X(), nil

	case expr.TypeSum, expr.TypeProduct:
		left, err := child("left")
		if err != nil {
			return nil, err
		}
		right, err := child("right")
		if err != nil {
			return nil, err
		}
		if typ == expr.TypeSum {
			return expr.Add(left, right), nil
		}
		return expr.Mul(left, right), nil

	case expr.TypePower:
		base, err := child("base")
		if err != nil {
			return nil, err
		}
		exponent, err := child("exponent")
		if err != nil {
			return nil, err
		}
		return expr.PowExpr(base, exponent), nil

	case expr.TypeFunction:
		funcVal := lookup(v, "func")
		name, err := funcVal.String()
		if err != nil {
			return nil, &CompileError{Field: field + ".func", Message: "func must be a string", Pos: funcVal.Pos()}
		}
		kind := expr.FuncKind(name)
		if !kind.Valid() {
			return nil, &CompileError{
				Field:   field + ".func",
				Message: fmt.Sprintf("unknown function %q", name),
				Pos:     funcVal.Pos(),
			}
		}
		arg, err := child("arg")
		if err != nil {
			return nil, err
		}
		return expr.Function{Kind: kind, Arg: arg}, nil

	default: // expr.TypeVector
		elemsVal := lookup(v, "elems")
		iter, err := elemsVal.List()
		if err != nil {
			return nil, &CompileError{Field: field + ".elems", Message: "elems must be a list", Pos: elemsVal.Pos()}
		}
		var elems []expr.Node
		for i := 0; iter.Next(); i++ {
			n, err := compileNode(iter.Value(), fmt.Sprintf("%s.elems[%d]", field, i))
			if err != nil {
				return nil, err
			}
			elems = append(elems, n)
		}
		vec, err := expr.NewVector(elems...)
		if err != nil {
			return nil, &CompileError{Field: field + ".elems", Message: err.Error(), Pos: elemsVal.Pos()}
		}
		return vec, nil
	}
}

// lookup selects a regular field by name. Labels such as "func" are
// looked up as strings so they never parse as keywords.
func lookup(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}

// checkFields reports missing required fields and unknown ones.
func checkFields(v cue.Value, field string, want []string) error {
	allowed := map[string]bool{"type": true}
	for _, name := range want {
		allowed[name] = true
		if !lookup(v, name).Exists() {
			return &CompileError{
				Field:   field + "." + name,
				Message: fmt.Sprintf("%s is required", name),
				Pos:     v.Pos(),
			}
		}
	}

	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if !allowed[iter.Label()] {
			return &CompileError{
				Field:   field + "." + iter.Label(),
				Message: "unknown field",
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func compileConstant(v cue.Value, field string) (expr.Node, error) {
	switch v.Kind() {
	case cue.IntKind, cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return expr.Const(f), nil
	case cue.StringKind:
		s, _ := v.String()
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &CompileError{Field: field, Message: fmt.Sprintf("invalid number %q", s), Pos: v.Pos()}
		}
		return expr.Const(f), nil
	default:
		return nil, &CompileError{Field: field, Message: "value must be a number", Pos: v.Pos()}
	}
}

func parseSamplePoints(v cue.Value) ([]float64, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: "at", Message: "at must be a list of numbers", Pos: v.Pos()}
	}
	var points []float64
	for iter.Next() {
		f, err := iter.Value().Float64()
		if err != nil {
			return nil, &CompileError{Field: "at", Message: "at must be a list of numbers", Pos: iter.Value().Pos()}
		}
		points = append(points, f)
	}
	return points, nil
}

// CompileError is a compile failure with the CUE position it came from.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
