package lowerpreview

import (
	"strings"
	"testing"

	"shaderir/internal/builder"
	irpkg "shaderir/internal/ir"
	"shaderir/internal/opcode"
	"shaderir/internal/types"
)

func newTestImpl(t *testing.T) *irpkg.FunctionImpl {
	t.Helper()
	s := irpkg.NewShader()
	fn := s.NewFunction("main")
	overload := fn.NewOverload(nil, types.VoidType)
	return overload.NewImpl()
}

func TestPreviewLowersSingleBlockAluChain(t *testing.T) {
	impl := newTestImpl(t)
	entry := impl.StartBlock

	a := irpkg.NewSSAUndefInstr(1)
	builder.InstrInsertAfterBlock(entry, a)
	b := irpkg.NewSSAUndefInstr(1)
	builder.InstrInsertAfterBlock(entry, b)

	sum := irpkg.NewAluInstr(opcode.Fadd)
	sum.Dest.Dest = irpkg.NewSSADest(1)
	sum.Dest.WriteMask = 1
	sum.Src[0].Src = irpkg.NewSSASrc(a.Def)
	sum.Src[1].Src = irpkg.NewSSASrc(b.Def)
	builder.InstrInsertAfterBlock(entry, sum)

	text, err := Preview("test", impl)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(text, "fadd") {
		t.Fatalf("expected lowered text to contain an fadd, got:\n%s", text)
	}
}

func TestPreviewRejectsMultiBlockBody(t *testing.T) {
	impl := newTestImpl(t)
	entry := impl.StartBlock

	loop := irpkg.NewLoop()
	builder.InsertAfter(entry, loop)

	if _, err := Preview("test", impl); err == nil {
		t.Fatalf("expected an error previewing a function with a loop")
	}
}

func TestPreviewRejectsRegisterOperands(t *testing.T) {
	impl := newTestImpl(t)
	entry := impl.StartBlock

	reg := impl.NewRegister(1, 0)
	ref := irpkg.NewRegRef(reg, 0)

	mov := irpkg.NewAluInstr(opcode.Mov)
	mov.Dest.Dest = irpkg.NewRegDest(ref)
	mov.Dest.WriteMask = 1
	mov.Src[0].Src = irpkg.NewRegSrc(ref)
	builder.InstrInsertAfterBlock(entry, mov)

	if _, err := Preview("test", impl); err == nil {
		t.Fatalf("expected an error previewing a register-based instruction")
	}
}
