package main

import (
	"shaderir/internal/builder"
	"shaderir/internal/ir"
	"shaderir/internal/opcode"
	"shaderir/internal/types"
)

// buildSampleShader assembles a tiny fragment-shader-shaped program: three
// float uniforms a, b, c and a float output "result" (declared, never
// written); a single function that computes (a + b) * c as an SSA chain,
// enters a loop whose body multiplies a register by that product and
// breaks on its first pass, and then returns. It exercises blocks, a loop,
// SSA ALU chains, a register operand, and jumps in one small tree so the
// CLI subcommands have something real to validate, dump, and lower.
func buildSampleShader() *ir.Shader {
	s := ir.NewShader()

	a := s.NewUniform(types.FloatType, "a")
	b := s.NewUniform(types.FloatType, "b")
	c := s.NewUniform(types.FloatType, "c")
	out := s.NewOutput(types.FloatType, "result")
	_ = out

	fn := s.NewFunction("main")
	overload := fn.NewOverload(nil, types.VoidType)
	impl := overload.NewImpl()

	entry := impl.StartBlock

	// Lowering a uniform read into an intrinsic load is front-end territory;
	// here an SSAUndef just stands in for "some value flows in," which is
	// all an ALU-chain demo needs.
	loadSrc := func(v *ir.Variable) ir.Src {
		undef := ir.NewSSAUndefInstr(1)
		builder.InstrInsertAfterBlock(entry, undef)
		_ = v
		return ir.NewSSASrc(undef.Def)
	}

	sum := ir.NewAluInstr(opcode.Fadd)
	sum.Dest.Dest = ir.NewSSADest(1)
	sum.Dest.WriteMask = 1
	sum.Src[0].Src = loadSrc(a)
	sum.Src[1].Src = loadSrc(b)
	builder.InstrInsertAfterBlock(entry, sum)

	product := ir.NewAluInstr(opcode.Fmul)
	product.Dest.Dest = ir.NewSSADest(1)
	product.Dest.WriteMask = 1
	product.Src[0].Src = ir.NewSSASrc(sum.Dest.Dest.SSA)
	product.Src[1].Src = loadSrc(c)
	builder.InstrInsertAfterBlock(entry, product)

	loop := ir.NewLoop()
	builder.InsertAfter(entry, loop)
	// InsertAfter already split a fresh block off entry to flank the loop
	// on the way out; that's the block the return belongs in, not a new
	// one spliced in separately.
	tail := impl.Body[2].(*ir.Block)

	counter := impl.NewRegister(1, 0)
	counterRef := ir.NewRegRef(counter, 0)
	half := ir.NewAluInstr(opcode.Fmul)
	half.Dest.Dest = ir.NewRegDest(counterRef)
	half.Dest.WriteMask = 1
	half.Src[0].Src = ir.NewRegSrc(counterRef)
	half.Src[1].Src = ir.NewSSASrc(product.Dest.Dest.SSA)
	loopBlock := loop.FirstBlock()
	builder.InstrInsertAfterBlock(loopBlock, half)

	brk := ir.NewJumpInstr(ir.JumpBreak)
	builder.InstrInsertAfterBlock(loopBlock, brk)
	builder.HandleJump(loopBlock)

	ret := ir.NewJumpInstr(ir.JumpReturn)
	builder.InstrInsertAfterBlock(tail, ret)
	builder.HandleJump(tail)

	return s
}
