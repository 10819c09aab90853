// Package lowerpreview sketches a validated FunctionImpl as textual LLVM
// IR. It is a demo aid for cmd/shaderirdemo, not a real backend: it only
// lowers the handful of ALU opcodes a shader core loop tends to use, over
// a flattened (if/loop-free) instruction stream, and only when every
// value involved is SSA. Anything it can't express it reports as an
// error instead of guessing.
//
// Grounded on the llir/llvm API shape shown in the retrieved x86-to-LLVM
// lifter example (module/function/block construction) and round-tripped
// through the real assembler parser as a validity check.
package lowerpreview

import (
	"fmt"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	irpkg "shaderir/internal/ir"
	"shaderir/internal/opcode"
)

// Preview renders impl as a single LLVM function operating entirely on
// floats. impl's body must be exactly one block, which is lowered in full.
// It returns an error if impl uses anything this sketch doesn't model: more
// than one CF node, registers, an instruction other than ssa_undef or ALU
// (a jump included), or an opcode other than fadd/fsub/fmul/fdiv/fneg/mov.
func Preview(moduleName string, impl *irpkg.FunctionImpl) (string, error) {
	if len(impl.Body) != 1 {
		return "", fmt.Errorf("lowerpreview: only a single-block function body is supported, got %d CF nodes", len(impl.Body))
	}
	block, ok := impl.Body[0].(*irpkg.Block)
	if !ok {
		return "", fmt.Errorf("lowerpreview: function body's only node is not a block")
	}

	m := ir.NewModule()
	m.SourceFilename = moduleName

	fn := m.NewFunc("main", types.Void)
	bb := fn.NewBlock("entry")

	vals := make(map[*irpkg.SSAValue]value.Value)

	for _, instr := range block.Instrs {
		if undef, ok := instr.(*irpkg.SSAUndefInstr); ok {
			// An SSAUndefInstr carries no defining computation of its own,
			// the same way LLVM's own undef constant carries no value: use
			// it directly rather than inventing a defining instruction.
			vals[undef.Def] = constant.NewUndef(types.Float)
			continue
		}

		alu, ok := instr.(*irpkg.AluInstr)
		if !ok {
			return "", fmt.Errorf("lowerpreview: unsupported instruction kind %T", instr)
		}
		if !alu.Dest.Dest.IsSSA {
			return "", fmt.Errorf("lowerpreview: register destinations are not supported")
		}

		operands := make([]value.Value, len(alu.Src))
		for i, src := range alu.Src {
			if !src.Src.IsSSA {
				return "", fmt.Errorf("lowerpreview: register sources are not supported")
			}
			v, ok := vals[src.Src.SSA]
			if !ok {
				return "", fmt.Errorf("lowerpreview: use of SSA value before it was lowered")
			}
			operands[i] = v
		}

		result, err := lowerAlu(bb, alu.Op, operands)
		if err != nil {
			return "", err
		}
		vals[alu.Dest.Dest.SSA] = result
	}

	bb.NewRet(nil)

	text := m.String()

	// Round-trip through the real assembler as a sanity check: if the
	// preview isn't even syntactically valid LLVM IR, say so instead of
	// handing the caller text that will fail further down the line.
	if _, err := asm.ParseString(moduleName+".ll", text); err != nil {
		return "", fmt.Errorf("lowerpreview: rendered module failed to parse back: %w", err)
	}

	return text, nil
}

func lowerAlu(bb *ir.Block, op opcode.Op, operands []value.Value) (value.Value, error) {
	switch op {
	case opcode.Fadd:
		return bb.NewFAdd(operands[0], operands[1]), nil
	case opcode.Fsub:
		return bb.NewFSub(operands[0], operands[1]), nil
	case opcode.Fmul:
		return bb.NewFMul(operands[0], operands[1]), nil
	case opcode.Fdiv:
		return bb.NewFDiv(operands[0], operands[1]), nil
	case opcode.Fneg:
		return bb.NewFNeg(operands[0]), nil
	case opcode.Mov:
		return operands[0], nil
	default:
		return nil, fmt.Errorf("lowerpreview: opcode %v has no LLVM lowering in this preview", op)
	}
}
