package opcode

import "testing"

// TestInfosCoversEveryOp guards against the infos table falling out of sync
// with the Op enum. A new Op with no matching infos entry gets the zero
// Info (NumInputs 0, empty name), which validate would accept silently.
func TestInfosCoversEveryOp(t *testing.T) {
	for op := Mov; op <= Vec4; op++ {
		info := Lookup(op)
		if info.Name == "" {
			t.Fatalf("op %d has no entry in infos", op)
		}
		if info.NumInputs == 0 {
			t.Fatalf("op %q has NumInputs == 0", info.Name)
		}
	}
}

func TestLookupPanicsOnOutOfRangeOp(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Lookup to panic on an out-of-range op")
		}
	}()
	Lookup(Op(len(infos)))
}

func TestFcselReadsScalarCondition(t *testing.T) {
	info := Lookup(Fcsel)
	if info.InputSizes[0] != 1 {
		t.Fatalf("expected fcsel's condition operand to be a scalar, got size %d", info.InputSizes[0])
	}
	if info.InputSizes[1] != 0 || info.InputSizes[2] != 0 {
		t.Fatalf("expected fcsel's value operands to be per-component, got %v", info.InputSizes)
	}
}

func TestVecOpcodesHorizontalOutputSizes(t *testing.T) {
	cases := []struct {
		op   Op
		want int
	}{
		{Vec2, 2},
		{Vec3, 3},
		{Vec4, 4},
	}
	for _, c := range cases {
		if got := Lookup(c.op).OutputSize; got != c.want {
			t.Fatalf("%v: expected OutputSize %d, got %d", c.op, c.want, got)
		}
	}
}

func TestNumInputsMatchesLookup(t *testing.T) {
	if NumInputs(Fadd) != Lookup(Fadd).NumInputs {
		t.Fatalf("NumInputs and Lookup disagree for Fadd")
	}
}
