package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mica/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// moduleDoc mirrors the YAML fixture format for one module. Integer
// literals (delta, value) are strings so fixtures can use hex.
type moduleDoc struct {
	Module string    `yaml:"module"`
	Funcs  []funcDoc `yaml:"funcs"`
}

type funcDoc struct {
	Name string  `yaml:"name"`
	Ops  []opDoc `yaml:"ops"`
}

type opDoc struct {
	Kind   string   `yaml:"kind"`
	Name   string   `yaml:"name,omitempty"`
	Delta  string   `yaml:"delta,omitempty"`
	Value  string   `yaml:"value,omitempty"`
	Result string   `yaml:"result,omitempty"`
	Args   []string `yaml:"args,omitempty"`
}

// LoadError represents an error that occurred during fixture loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadModule reads a YAML module fixture, validates it against the
// embedded CUE schema, and builds the IR module.
func LoadModule(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("module fixture not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error reading %s: %v", path, err)}
	}
	return LoadModuleBytes(data)
}

// LoadModuleBytes is LoadModule over in-memory fixture content.
func LoadModuleBytes(data []byte) (*ir.Module, error) {
	// Schema validation runs over the raw document so unknown fields
	// are caught before the typed decode silently drops them.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("decoding fixture: %v", err)}
	}
	if err := validateAgainstSchema(raw); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Message: err.Error()}
	}

	var doc moduleDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("decoding fixture: %v", err)}
	}

	return buildModule(&doc)
}

// validateAgainstSchema checks the decoded document against #Module in
// the embedded CUE schema.
func validateAgainstSchema(raw map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Module"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("resolving #Module: %w", err)
	}

	unified := def.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("fixture does not match schema: %w", err)
	}
	return nil
}

// buildModule constructs the IR module from a validated document.
func buildModule(doc *moduleDoc) (*ir.Module, error) {
	m := ir.NewModule(doc.Module)

	for _, fd := range doc.Funcs {
		fn := m.NewOp(ir.KindFunc, ir.NoOp)
		fn.SetAttr(ir.AttrSymName, ir.StringAttr{Value: fd.Name})
		if err := m.Symbols().Insert(fd.Name, fn.ID); err != nil {
			return nil, &LoadError{Code: ErrCodeBuild, Message: err.Error()}
		}
		m.InsertAt(fn, len(m.Body))

		named := make(map[string]ir.ValueID)
		for i, od := range fd.Ops {
			if err := buildOp(m, fn, od, named); err != nil {
				return nil, &LoadError{Code: ErrCodeBuild,
					Message: fmt.Sprintf("func %s, op %d (%s): %v", fd.Name, i, od.Kind, err)}
			}
		}
	}

	return m, nil
}

// buildOp appends one op to fn's body. The fixture format deliberately
// covers only the kinds a frontend emits: the high-level rng op,
// constants, and returns. Everything else is produced by passes, not
// written by hand.
func buildOp(m *ir.Module, fn *ir.Op, od opDoc, named map[string]ir.ValueID) error {
	bind := func(op *ir.Op) {
		if od.Name != "" && len(op.Results) == 1 {
			named[od.Name] = op.Result()
		}
	}

	switch od.Kind {
	case ir.KindRngGetAndUpdateState.String():
		delta, err := ir.ParseWord(od.Delta)
		if err != nil {
			return fmt.Errorf("delta: %w", err)
		}
		resType, err := parseResultType(od.Result)
		if err != nil {
			return err
		}
		op := m.NewOp(ir.KindRngGetAndUpdateState, fn.ID)
		op.SetAttr(ir.AttrDelta, ir.IntAttr{Value: delta})
		m.AddResult(op, resType)
		m.InsertAt(op, len(fn.Body))
		bind(op)

	case ir.KindConstant.String():
		value, err := ir.ParseWord(od.Value)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		resType, err := parseResultType(od.Result)
		if err != nil {
			return err
		}
		op := m.NewOp(ir.KindConstant, fn.ID)
		op.SetAttr(ir.AttrValue, ir.IntAttr{Value: value})
		m.AddResult(op, resType)
		m.InsertAt(op, len(fn.Body))
		bind(op)

	case ir.KindReturn.String():
		op := m.NewOp(ir.KindReturn, fn.ID)
		for _, arg := range od.Args {
			v, ok := named[arg]
			if !ok {
				return fmt.Errorf("unknown value name %q", arg)
			}
			op.Operands = append(op.Operands, v)
		}
		m.InsertAt(op, len(fn.Body))

	default:
		return fmt.Errorf("kind %q is not allowed in fixtures", od.Kind)
	}

	return nil
}

func parseResultType(s string) (ir.Type, error) {
	if s == "" {
		return nil, fmt.Errorf("result type is required")
	}
	t, err := ir.ParseType(s)
	if err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	return t, nil
}
