package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Print renders the module in its canonical textual form. The form is
// deterministic: values are numbered in definition order and attributes
// print in a fixed per-kind order, so the output is stable input for
// golden tests and fingerprinting.
func Print(m *Module) string {
	p := &printer{m: m, names: make(map[ValueID]string)}
	p.printModule()
	return p.b.String()
}

type printer struct {
	m     *Module
	b     strings.Builder
	names map[ValueID]string
	next  int
}

func (p *printer) name(v ValueID) string {
	if n, ok := p.names[v]; ok {
		return n
	}
	n := fmt.Sprintf("%%%d", p.next)
	p.next++
	p.names[v] = n
	return n
}

func (p *printer) printModule() {
	fmt.Fprintf(&p.b, "module @%s {\n", p.m.Name)
	for _, id := range p.m.Body {
		if op := p.m.Op(id); op != nil {
			p.printOp(op, 1)
		}
	}
	p.b.WriteString("}\n")
}

func (p *printer) printOp(op *Op, depth int) {
	indent := strings.Repeat("  ", depth)
	switch op.Kind {
	case KindGlobal:
		sym, _ := op.Symbol()
		elem, _ := op.TypeAttrValue(AttrType)
		init, _ := op.IntAttrValue(AttrValue)
		vis, _ := op.StringAttrValue(AttrVisibility)
		fmt.Fprintf(&p.b, "%smemref.global @%s : %s = %s {visibility = %q}\n",
			indent, sym, elem, FormatWord(init), vis)
	case KindFunc:
		sym, _ := op.Symbol()
		fmt.Fprintf(&p.b, "%sfunc.func @%s() {\n", indent, sym)
		for _, id := range op.Body {
			if inner := p.m.Op(id); inner != nil {
				p.printOp(inner, depth+1)
			}
		}
		fmt.Fprintf(&p.b, "%s}\n", indent)
	case KindReturn:
		fmt.Fprintf(&p.b, "%sfunc.return%s\n", indent, p.operandList(op, " "))
	case KindStore:
		fmt.Fprintf(&p.b, "%smemref.store%s\n", indent, p.operandList(op, " "))
	case KindGetGlobal:
		sym, _ := op.StringAttrValue(AttrName)
		fmt.Fprintf(&p.b, "%s%s = memref.get_global @%s : %s\n",
			indent, p.name(op.Result()), sym, p.resultType(op))
	case KindConstant:
		val, _ := op.IntAttrValue(AttrValue)
		fmt.Fprintf(&p.b, "%s%s = arith.constant %s : %s\n",
			indent, p.name(op.Result()), FormatWord(val), p.resultType(op))
	case KindRngGetAndUpdateState:
		delta, _ := op.IntAttrValue(AttrDelta)
		fmt.Fprintf(&p.b, "%s%s = rng.get_and_update_state {delta = %s} : %s\n",
			indent, p.name(op.Result()), FormatWord(delta), p.resultType(op))
	default:
		fmt.Fprintf(&p.b, "%s%s = %s%s : %s\n",
			indent, p.name(op.Result()), op.Kind, p.operandList(op, " "), p.resultType(op))
	}
}

func (p *printer) operandList(op *Op, sep string) string {
	if len(op.Operands) == 0 {
		return ""
	}
	parts := make([]string, len(op.Operands))
	for i, v := range op.Operands {
		parts[i] = p.name(v)
	}
	return sep + strings.Join(parts, ", ")
}

func (p *printer) resultType(op *Op) string {
	if len(op.Results) == 0 {
		return ""
	}
	return p.m.Value(op.Result()).Type.String()
}

// SortedSymbols returns the module's symbol names in sorted order, for
// deterministic diagnostics.
func SortedSymbols(m *Module) []string {
	names := make([]string, 0, m.syms.Len())
	for name := range m.syms.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
