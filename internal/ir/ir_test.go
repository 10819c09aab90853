package ir

import (
	"testing"

	"shaderir/internal/types"
)

func TestNewImplSeedsDistinctStartAndEndBlocks(t *testing.T) {
	s := NewShader()
	fn := s.NewFunction("main")
	overload := fn.NewOverload(nil, types.VoidType)
	impl := overload.NewImpl()

	if impl.StartBlock == impl.EndBlock {
		t.Fatalf("start and end block must be distinct")
	}
	if len(impl.Body) != 1 || impl.Body[0] != impl.StartBlock {
		t.Fatalf("impl.Body must contain exactly the start block at creation, got %v", impl.Body)
	}
	if impl.StartBlock.Successors[0] != impl.EndBlock {
		t.Fatalf("start block must fall through to end block")
	}
	if _, ok := impl.EndBlock.Predecessors[impl.StartBlock]; !ok {
		t.Fatalf("end block must list start block as a predecessor")
	}
}

func TestNewImplPanicsOnSecondCall(t *testing.T) {
	s := NewShader()
	fn := s.NewFunction("main")
	overload := fn.NewOverload(nil, types.VoidType)
	overload.NewImpl()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on second NewImpl call")
		}
	}()
	overload.NewImpl()
}

func TestNewIfSeedsOneBlockPerBranch(t *testing.T) {
	ifStmt := NewIf()
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("NewIf must seed exactly one block per branch")
	}
	if ifStmt.FirstThenBlock().Parent() != ifStmt {
		t.Fatalf("then block's parent must be the if statement")
	}
	if ifStmt.FirstElseBlock().Parent() != ifStmt {
		t.Fatalf("else block's parent must be the if statement")
	}
}

func TestNewLoopHeaderIsOwnSuccessorAndPredecessor(t *testing.T) {
	loop := NewLoop()
	header := loop.FirstBlock()
	if header.Successors[0] != header {
		t.Fatalf("loop header must be its own successor at creation")
	}
	if _, ok := header.Predecessors[header]; !ok {
		t.Fatalf("loop header must be its own predecessor at creation")
	}
}

func TestNewIndirectRegRefRejectsDoubleIndirection(t *testing.T) {
	reg := newRegister(0, 1)
	outer := newRegister(1, 1)
	indirectOnce := NewIndirectRegRef(outer, 0, NewRegSrc(NewRegRef(reg, 0)))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic building a doubly-indirect register reference")
		}
	}()
	NewIndirectRegRef(reg, 0, Src{Reg: indirectOnce})
}

func TestBindSSADefAssignsIncreasingIndices(t *testing.T) {
	s := NewShader()
	fn := s.NewFunction("main")
	overload := fn.NewOverload(nil, types.VoidType)
	impl := overload.NewImpl()

	v1 := &SSAValue{NumComponents: 1}
	v2 := &SSAValue{NumComponents: 1}
	instr := NewSSAUndefInstr(1)

	impl.BindSSADef(v1, instr)
	impl.BindSSADef(v2, instr)

	if v2.Index <= v1.Index {
		t.Fatalf("expected increasing SSA indices, got %d then %d", v1.Index, v2.Index)
	}
}
