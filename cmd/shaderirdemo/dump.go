package main

import (
	"fmt"
	"sort"
	"strings"

	"shaderir/internal/ir"
)

// dumpShader renders a shader as an indented outline. It exists purely for
// this demo's terminal output; the core packages deliberately carry no
// pretty-printer of their own.
func dumpShader(s *ir.Shader) string {
	var b strings.Builder

	dumpVars := func(label string, vars map[string]*ir.Variable) {
		if len(vars) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", label)
		names := make([]string, 0, len(vars))
		for name := range vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	dumpVars("uniforms", s.Uniforms)
	dumpVars("inputs", s.Inputs)
	dumpVars("outputs", s.Outputs)
	dumpVars("globals", s.Globals)

	for _, fn := range s.Functions {
		for oi, overload := range fn.Overloads {
			fmt.Fprintf(&b, "function %s#%d:\n", fn.Name, oi)
			if overload.Impl == nil {
				fmt.Fprintf(&b, "  (no implementation)\n")
				continue
			}
			dumpCFList(&b, overload.Impl.Body, "  ")
		}
	}

	return b.String()
}

func dumpCFList(b *strings.Builder, list []ir.CFNode, indent string) {
	for _, node := range list {
		dumpCFNode(b, node, indent)
	}
}

func dumpCFNode(b *strings.Builder, node ir.CFNode, indent string) {
	switch n := node.(type) {
	case *ir.Block:
		fmt.Fprintf(b, "%sblock (%d instrs)\n", indent, len(n.Instrs))
		for _, instr := range n.Instrs {
			fmt.Fprintf(b, "%s  %s\n", indent, dumpInstr(instr))
		}
	case *ir.If:
		fmt.Fprintf(b, "%sif:\n", indent)
		fmt.Fprintf(b, "%s then:\n", indent)
		dumpCFList(b, n.Then, indent+"  ")
		fmt.Fprintf(b, "%s else:\n", indent)
		dumpCFList(b, n.Else, indent+"  ")
	case *ir.Loop:
		fmt.Fprintf(b, "%sloop:\n", indent)
		dumpCFList(b, n.Body, indent+"  ")
	}
}

func dumpInstr(instr ir.Instr) string {
	switch in := instr.(type) {
	case *ir.AluInstr:
		return fmt.Sprintf("alu %v", in.Op)
	case *ir.CallInstr:
		return fmt.Sprintf("call %s", in.Callee.Function.Name)
	case *ir.IntrinsicInstr:
		return fmt.Sprintf("intrinsic %v", in.Intrinsic)
	case *ir.LoadConstInstr:
		return fmt.Sprintf("load_const (%d vectors)", len(in.Values))
	case *ir.JumpInstr:
		return fmt.Sprintf("jump %v", in.JumpKind)
	case *ir.SSAUndefInstr:
		return fmt.Sprintf("ssa_undef #%d", in.Def.NumComponents)
	case *ir.PhiInstr:
		return fmt.Sprintf("phi (%d srcs)", len(in.Srcs))
	default:
		return "?"
	}
}
