package intrinsic

import "testing"

// TestInfosCoversEveryIntrinsic guards against the infos table falling out
// of sync with the Intrinsic enum.
func TestInfosCoversEveryIntrinsic(t *testing.T) {
	for id := LoadVarVec1; id <= StoreOutput; id++ {
		if Lookup(id).Name == "" {
			t.Fatalf("intrinsic %d has no entry in infos", id)
		}
	}
}

func TestLookupPanicsOnOutOfRangeID(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Lookup to panic on an out-of-range id")
		}
	}()
	Lookup(Intrinsic(len(infos)))
}

// TestCanReorderImpliesCanEliminate checks every table entry against the
// documented relationship between the two flags, not just the two flag
// constants in isolation.
func TestCanReorderImpliesCanEliminate(t *testing.T) {
	for id := LoadVarVec1; id <= StoreOutput; id++ {
		info := Lookup(id)
		if info.CanReorder() && !info.CanEliminate() {
			t.Fatalf("intrinsic %q sets CanReorder without CanEliminate", info.Name)
		}
	}
}

func TestLoadUboCarriesConstIndex(t *testing.T) {
	if !Lookup(LoadUbo).HasConstIndex {
		t.Fatalf("expected load_ubo to carry a constant index")
	}
	if Lookup(LoadUniform).HasConstIndex {
		t.Fatalf("expected load_uniform not to carry a constant index")
	}
}

func TestStoreOutputHasNoOutputsAndIsNotEliminable(t *testing.T) {
	info := Lookup(StoreOutput)
	if info.NumRegOutputs != 0 {
		t.Fatalf("expected store_output to have no register outputs, got %d", info.NumRegOutputs)
	}
	if info.CanEliminate() {
		t.Fatalf("expected store_output (a side effect) not to be eliminable")
	}
}

func TestCopyVarTakesTwoVariableOperands(t *testing.T) {
	if Lookup(CopyVar).NumVariables != 2 {
		t.Fatalf("expected copy_var to take two variable operands, got %d", Lookup(CopyVar).NumVariables)
	}
}
