package validate

import (
	"testing"

	"github.com/kr/pretty"

	"shaderir/internal/builder"
	"shaderir/internal/ir"
	"shaderir/internal/opcode"
	"shaderir/internal/types"
)

func newTestImpl(t *testing.T) *ir.FunctionImpl {
	t.Helper()
	s := ir.NewShader()
	fn := s.NewFunction("main")
	overload := fn.NewOverload(nil, types.VoidType)
	return overload.NewImpl()
}

func mustReturn(t *testing.T, impl *ir.FunctionImpl, block *ir.Block) {
	t.Helper()
	ret := ir.NewJumpInstr(ir.JumpReturn)
	builder.InstrInsertAfterBlock(block, ret)
	builder.HandleJump(block)
}

// TestShaderAcceptsEmptyFunction covers the simplest seed scenario: a
// function that just returns immediately.
func TestShaderAcceptsEmptyFunction(t *testing.T) {
	impl := newTestImpl(t)
	mustReturn(t, impl, impl.StartBlock)

	if err := Shader(impl.Overload.Function.Shader); err != nil {
		t.Fatalf("expected an empty returning function to validate, got %v", err)
	}
}

// TestShaderAcceptsLoopWithBreak covers a loop whose only exit is a break
// nested inside an if in its header block, followed by a returning tail
// block. The break sits inside the if (rather than unconditionally at the
// top of the loop body) so that HandleJump's target actually distinguishes
// "exit the loop" from "loop back to the header" instead of the two
// coinciding by accident.
func TestShaderAcceptsLoopWithBreak(t *testing.T) {
	impl := newTestImpl(t)
	entry := impl.StartBlock

	cond := impl.NewRegister(1, 0)
	condRef := ir.NewRegRef(cond, 0)

	initVal := ir.NewLoadConstInstr(1)
	initVal.Dest = ir.NewRegDest(condRef)
	builder.InstrInsertAfterBlock(entry, initVal)

	loop := ir.NewLoop()
	builder.InsertAfter(entry, loop)
	tail := impl.Body[2].(*ir.Block)
	loopBlock := loop.FirstBlock()

	ifStmt := ir.NewIf()
	ifStmt.Condition = ir.NewRegSrc(condRef)
	builder.InsertAfter(loopBlock, ifStmt)
	thenBlock := ifStmt.FirstThenBlock()

	brk := ir.NewJumpInstr(ir.JumpBreak)
	builder.InstrInsertAfterBlock(thenBlock, brk)
	builder.HandleJump(thenBlock)

	mustReturn(t, impl, tail)

	if err := Shader(impl.Overload.Function.Shader); err != nil {
		t.Fatalf("expected a loop-with-break function to validate, got %v", err)
	}
	if thenBlock.Successors[0] != tail {
		t.Fatalf("expected the break to exit to the block after the loop, not loop back to its header")
	}
}

// TestShaderAcceptsCountedLoopOverRegister covers a register-based counter
// threaded through a loop body: compare against a length, break out through
// a nested if once the counter catches up, otherwise fall through and
// increment. This exercises register def/use bookkeeping across a genuine
// back edge rather than an unconditional single-iteration loop.
func TestShaderAcceptsCountedLoopOverRegister(t *testing.T) {
	impl := newTestImpl(t)
	entry := impl.StartBlock

	length := impl.NewRegister(1, 0)
	one := impl.NewRegister(1, 0)
	index := impl.NewRegister(1, 0)
	lengthRef := ir.NewRegRef(length, 0)
	oneRef := ir.NewRegRef(one, 0)
	indexRef := ir.NewRegRef(index, 0)

	lengthInit := ir.NewLoadConstInstr(1)
	lengthInit.Dest = ir.NewRegDest(lengthRef)
	builder.InstrInsertAfterBlock(entry, lengthInit)

	oneInit := ir.NewLoadConstInstr(1)
	oneInit.Dest = ir.NewRegDest(oneRef)
	builder.InstrInsertAfterBlock(entry, oneInit)

	indexInit := ir.NewLoadConstInstr(1)
	indexInit.Dest = ir.NewRegDest(indexRef)
	builder.InstrInsertAfterBlock(entry, indexInit)

	loop := ir.NewLoop()
	builder.InsertAfter(entry, loop)
	tail := impl.Body[2].(*ir.Block)
	loopBlock := loop.FirstBlock()

	cmp := impl.NewRegister(1, 0)
	cmpRef := ir.NewRegRef(cmp, 0)
	ige := ir.NewAluInstr(opcode.Ige)
	ige.Dest.Dest = ir.NewRegDest(cmpRef)
	ige.Dest.WriteMask = 1
	ige.Src[0].Src = ir.NewRegSrc(indexRef)
	ige.Src[1].Src = ir.NewRegSrc(lengthRef)
	builder.InstrInsertAfterBlock(loopBlock, ige)

	ifStmt := ir.NewIf()
	ifStmt.Condition = ir.NewRegSrc(cmpRef)
	builder.InsertAfter(loopBlock, ifStmt)
	thenBlock := ifStmt.FirstThenBlock()
	afterIf := loop.Body[2].(*ir.Block)

	brk := ir.NewJumpInstr(ir.JumpBreak)
	builder.InstrInsertAfterBlock(thenBlock, brk)
	builder.HandleJump(thenBlock)

	iadd := ir.NewAluInstr(opcode.Iadd)
	iadd.Dest.Dest = ir.NewRegDest(indexRef)
	iadd.Dest.WriteMask = 1
	iadd.Src[0].Src = ir.NewRegSrc(indexRef)
	iadd.Src[1].Src = ir.NewRegSrc(oneRef)
	builder.InstrInsertAfterBlock(afterIf, iadd)

	mustReturn(t, impl, tail)

	if err := Shader(impl.Overload.Function.Shader); err != nil {
		t.Fatalf("expected a counted loop over a register to validate, got %v", err)
	}
	if thenBlock.Successors[0] != tail {
		t.Fatalf("expected the break to exit to the block after the loop, not loop back to its header")
	}
	// The if's condition is read directly off cmp, not through an
	// instruction operand, so it never shows up in cmp.Uses; ige is its
	// only tracked def.
	if len(cmp.Defs) != 1 {
		t.Fatalf("expected the comparison register to have one def (ige), got %d", len(cmp.Defs))
	}
	if len(index.Defs) != 2 || len(index.Uses) != 2 {
		t.Fatalf("expected the counter to have two defs (init, iadd) and two uses (ige, iadd), got %d defs, %d uses", len(index.Defs), len(index.Uses))
	}
}

// TestShaderRejectsBlockWithNoSuccessor exercises the documented open
// question around InstrRemove: it does not touch the CFG, so after removing
// a jump the block keeps the edge the jump installed (here entry still
// points at the end block). The test drops that edge by hand, leaving a
// block with no successor, and expects the validator to reject it.
func TestShaderRejectsBlockWithNoSuccessor(t *testing.T) {
	impl := newTestImpl(t)
	entry := impl.StartBlock

	ret := ir.NewJumpInstr(ir.JumpReturn)
	builder.InstrInsertAfterBlock(entry, ret)
	builder.HandleJump(entry)

	builder.InstrRemove(ret)
	// InstrRemove leaves successor edges alone (relinking is
	// RemoveJumpAndRelink's job), so entry still points at the end block;
	// drop that edge directly to leave entry with no successor.
	delete(entry.Successors[0].Predecessors, entry)
	entry.Successors[0] = nil

	err := Shader(impl.Overload.Function.Shader)
	if err == nil {
		t.Fatalf("expected validation to fail once entry has no successor")
	}
}

// TestShaderRejectsRegisterSharedAcrossImplsWithoutGlobal builds two
// functions that both reference a register declared local to the first,
// the way a builder bug (forgetting to promote the register to global)
// would.
func TestShaderRejectsRegisterSharedAcrossImplsWithoutGlobal(t *testing.T) {
	s := ir.NewShader()

	fn1 := s.NewFunction("first")
	overload1 := fn1.NewOverload(nil, types.VoidType)
	impl1 := overload1.NewImpl()

	reg := impl1.NewRegister(1, 0)
	ref := ir.NewRegRef(reg, 0)

	mov := ir.NewAluInstr(opcode.Mov)
	mov.Dest.Dest = ir.NewRegDest(ref)
	mov.Dest.WriteMask = 1
	mov.Src[0].Src = ir.NewRegSrc(ref)
	builder.InstrInsertAfterBlock(impl1.StartBlock, mov)
	mustReturn(t, impl1, impl1.StartBlock)

	fn2 := s.NewFunction("second")
	overload2 := fn2.NewOverload(nil, types.VoidType)
	impl2 := overload2.NewImpl()

	mov2 := ir.NewAluInstr(opcode.Mov)
	mov2.Dest.Dest = ir.NewRegDest(ref)
	mov2.Dest.WriteMask = 1
	mov2.Src[0].Src = ir.NewRegSrc(ref)
	builder.InstrInsertAfterBlock(impl2.StartBlock, mov2)
	mustReturn(t, impl2, impl2.StartBlock)

	err := Shader(s)
	if err == nil {
		t.Fatalf("expected cross-impl use of a non-global register to fail validation")
	}
	t.Logf("got expected violation: %# v", pretty.Formatter(err))
}

// TestShaderAcceptsGlobalRegisterSharedAcrossImpls is the same shape as
// above but with the register correctly declared global, which must pass.
func TestShaderAcceptsGlobalRegisterSharedAcrossImpls(t *testing.T) {
	s := ir.NewShader()

	reg := s.NewGlobalRegister(1, 0)
	ref := ir.NewRegRef(reg, 0)

	fn1 := s.NewFunction("first")
	overload1 := fn1.NewOverload(nil, types.VoidType)
	impl1 := overload1.NewImpl()
	mov1 := ir.NewAluInstr(opcode.Mov)
	mov1.Dest.Dest = ir.NewRegDest(ref)
	mov1.Dest.WriteMask = 1
	mov1.Src[0].Src = ir.NewRegSrc(ref)
	builder.InstrInsertAfterBlock(impl1.StartBlock, mov1)
	mustReturn(t, impl1, impl1.StartBlock)

	fn2 := s.NewFunction("second")
	overload2 := fn2.NewOverload(nil, types.VoidType)
	impl2 := overload2.NewImpl()
	mov2 := ir.NewAluInstr(opcode.Mov)
	mov2.Dest.Dest = ir.NewRegDest(ref)
	mov2.Dest.WriteMask = 1
	mov2.Src[0].Src = ir.NewRegSrc(ref)
	builder.InstrInsertAfterBlock(impl2.StartBlock, mov2)
	mustReturn(t, impl2, impl2.StartBlock)

	if err := Shader(s); err != nil {
		t.Fatalf("expected a shared global register to validate, got %v", err)
	}
}

// TestShaderRejectsCrossImplSSAUse builds an SSA value in one function and
// references it from another, which must never validate since SSA values
// (unlike registers) have no global variant at all.
func TestShaderRejectsCrossImplSSAUse(t *testing.T) {
	s := ir.NewShader()

	fn1 := s.NewFunction("first")
	overload1 := fn1.NewOverload(nil, types.VoidType)
	impl1 := overload1.NewImpl()
	undef := ir.NewSSAUndefInstr(1)
	builder.InstrInsertAfterBlock(impl1.StartBlock, undef)
	mustReturn(t, impl1, impl1.StartBlock)

	fn2 := s.NewFunction("second")
	overload2 := fn2.NewOverload(nil, types.VoidType)
	impl2 := overload2.NewImpl()
	mov := ir.NewAluInstr(opcode.Mov)
	mov.Dest.Dest = ir.NewSSADest(1)
	mov.Dest.WriteMask = 1
	mov.Src[0].Src = ir.NewSSASrc(undef.Def)
	builder.InstrInsertAfterBlock(impl2.StartBlock, mov)
	mustReturn(t, impl2, impl2.StartBlock)

	err := Shader(s)
	if err == nil {
		t.Fatalf("expected cross-impl SSA use to fail validation")
	}
}

// TestMustShaderPanicsOnViolation confirms the panicking entry point
// panics on a shader that Shader rejects (a block with no successor).
func TestMustShaderPanicsOnViolation(t *testing.T) {
	s := ir.NewShader()
	fn := s.NewFunction("main")
	overload := fn.NewOverload(nil, types.VoidType)
	impl := overload.NewImpl()
	entry := impl.StartBlock

	ret := ir.NewJumpInstr(ir.JumpReturn)
	builder.InstrInsertAfterBlock(entry, ret)
	builder.HandleJump(entry)
	builder.InstrRemove(ret)
	delete(entry.Successors[0].Predecessors, entry)
	entry.Successors[0] = nil

	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustShader to panic on a block with no successor")
		}
	}()
	MustShader(s)
}
