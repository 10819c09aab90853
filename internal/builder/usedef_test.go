package builder

import (
	"testing"

	"shaderir/internal/intrinsic"
	"shaderir/internal/ir"
	"shaderir/internal/types"
)

// TestIntrinsicInstrTracksRegisterIndexedDerefUse guards against a gap where
// addDefsUses walked an intrinsic's RegSrcs/RegDests but never its Variables
// derefs, leaving a register read through an indirect array index untracked.
func TestIntrinsicInstrTracksRegisterIndexedDerefUse(t *testing.T) {
	impl := newTestImpl(t)
	entry := impl.StartBlock

	idxReg := impl.NewRegister(1, 0)
	idxRef := ir.NewRegRef(idxReg, 0)

	arrType := types.NewArray(types.FloatType, 4)
	v := ir.NewVariable(ir.ModeLocal, arrType, "arr")
	deref := ir.NewDeref(v).IndexArray(ir.NewRegSrc(idxRef))

	load := ir.NewIntrinsicInstr(intrinsic.LoadVarVec1)
	load.Variables[0] = deref

	InstrInsertAfterBlock(entry, load)

	if _, ok := idxReg.Uses[load]; !ok {
		t.Fatalf("expected the intrinsic to be recorded as a use of the deref's array-index register")
	}

	InstrRemove(load)

	if _, ok := idxReg.Uses[load]; ok {
		t.Fatalf("expected removing the intrinsic to clear the array-index register use")
	}
}
