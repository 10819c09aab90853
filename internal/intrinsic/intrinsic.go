// Package intrinsic is the static description of every intrinsic: register
// source/dest shapes, variable-operand count, whether it carries a constant
// index, and the CAN_ELIMINATE/CAN_REORDER flags.
//
// Grounded on original_source/nir_intrinsics.h and intrinsics.c (the
// INTRINSIC/LOAD/STORE macro table), with the CAN_ELIMINATE/CAN_REORDER
// bits collapsed into one Flag bitset instead of separate bool fields.
package intrinsic

// Flag is a bitset of intrinsic properties.
type Flag uint8

const (
	// CanEliminate marks an intrinsic safe to drop when its result is
	// unused (read-only memory loads; anything without side effects).
	CanEliminate Flag = 1 << iota
	// CanReorder marks an intrinsic safe to move across unrelated
	// instructions. Implies CanEliminate.
	CanReorder
)

// Intrinsic identifies one intrinsic operation.
type Intrinsic int

const (
	LoadVarVec1 Intrinsic = iota
	LoadVarVec2
	LoadVarVec3
	LoadVarVec4
	StoreVarVec1
	StoreVarVec2
	StoreVarVec3
	StoreVarVec4
	CopyVar

	LoadUniform
	LoadUbo
	LoadInput

	StoreOutput
)

// Info describes the shape of one intrinsic.
type Info struct {
	Name               string
	NumRegInputs       int
	RegInputComponents [4]int
	NumRegOutputs      int
	RegOutputComponents [2]int
	NumVariables       int
	HasConstIndex      bool
	Flags              Flag
}

func (i Info) CanEliminate() bool { return i.Flags&(CanEliminate|CanReorder) != 0 }
func (i Info) CanReorder() bool   { return i.Flags&CanReorder != 0 }

func loadVar(name string, n int) Info {
	return Info{Name: name, NumVariables: 1, Flags: CanEliminate}
}

func storeVar(name string, n int) Info {
	return Info{Name: name, NumRegInputs: 1, RegInputComponents: [4]int{n}, NumVariables: 1}
}

func load(name string, reorder bool) Info {
	flags := CanEliminate
	if reorder {
		flags |= CanReorder
	}
	return Info{
		Name:                "load_" + name,
		NumRegInputs:        1,
		RegInputComponents:  [4]int{1},
		NumRegOutputs:       1,
		RegOutputComponents: [2]int{4},
		HasConstIndex:       name == "ubo",
		Flags:               flags,
	}
}

func store(name string) Info {
	return Info{
		Name:               "store_" + name,
		NumRegInputs:       2,
		RegInputComponents: [4]int{1, 4},
	}
}

var infos = [...]Info{
	LoadVarVec1: loadVar("load_var_vec1", 1),
	LoadVarVec2: loadVar("load_var_vec2", 2),
	LoadVarVec3: loadVar("load_var_vec3", 3),
	LoadVarVec4: loadVar("load_var_vec4", 4),

	StoreVarVec1: storeVar("store_var_vec1", 1),
	StoreVarVec2: storeVar("store_var_vec2", 2),
	StoreVarVec3: storeVar("store_var_vec3", 3),
	StoreVarVec4: storeVar("store_var_vec4", 4),

	CopyVar: {Name: "copy_var", NumVariables: 2},

	LoadUniform: load("uniform", true),
	LoadUbo:     load("ubo", true),
	LoadInput:   load("input", true),

	StoreOutput: store("output"),
}

// Lookup returns the Info describing id. Panics on an out-of-range id;
// an invalid intrinsic id is a programmer bug, same as opcode.Lookup.
func Lookup(id Intrinsic) Info {
	if int(id) < 0 || int(id) >= len(infos) {
		panic("intrinsic: id out of range")
	}
	return infos[id]
}
