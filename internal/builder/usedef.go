package builder

import "shaderir/internal/ir"

// addUse records instr as a user of src's register (and, transitively, of
// any register its indirect offset reads). SSA sources need no bookkeeping;
// an SSA value's uses are discovered by walking the IR, not tracked
// incrementally.
func addUse(src *ir.Src, instr ir.Instr) {
	if src.IsSSA {
		return
	}
	reg := src.Reg.Reg
	reg.Uses[instr] = struct{}{}
	if src.Reg.Indirect != nil {
		addUse(src.Reg.Indirect, instr)
	}
}

// addDef records instr as a definer of dest's register.
func addDef(dest *ir.Dest, instr ir.Instr) {
	if dest.IsSSA {
		return
	}
	reg := dest.Reg.Reg
	reg.Defs[instr] = struct{}{}
	if dest.Reg.Indirect != nil {
		addUse(dest.Reg.Indirect, instr)
	}
}

// removeUse undoes addUse. The indirect offset, itself a use, is removed
// symmetrically rather than re-added.
func removeUse(src *ir.Src, instr ir.Instr) {
	if src.IsSSA {
		return
	}
	delete(src.Reg.Reg.Uses, instr)
	if src.Reg.Indirect != nil {
		removeUse(src.Reg.Indirect, instr)
	}
}

// removeDef undoes addDef.
func removeDef(dest *ir.Dest, instr ir.Instr) {
	if dest.IsSSA {
		return
	}
	delete(dest.Reg.Reg.Defs, instr)
	if dest.Reg.Indirect != nil {
		removeUse(dest.Reg.Indirect, instr)
	}
}

// addDerefUses records instr as a user of every register an array-index
// link in d's chain reads, the same way addUse tracks a RegRef's indirect
// offset. Struct-field links carry no register operand.
func addDerefUses(d *ir.Deref, instr ir.Instr) {
	if d == nil {
		return
	}
	for i := range d.Links {
		if d.Links[i].Kind == ir.DerefArrayIndex {
			addUse(&d.Links[i].Index, instr)
		}
	}
}

// removeDerefUses undoes addDerefUses.
func removeDerefUses(d *ir.Deref, instr ir.Instr) {
	if d == nil {
		return
	}
	for i := range d.Links {
		if d.Links[i].Kind == ir.DerefArrayIndex {
			removeUse(&d.Links[i].Index, instr)
		}
	}
}

func addDefsUses(instr ir.Instr) {
	switch in := instr.(type) {
	case *ir.AluInstr:
		addDef(&in.Dest.Dest, instr)
		for i := range in.Src {
			addUse(&in.Src[i].Src, instr)
		}
	case *ir.IntrinsicInstr:
		for i := range in.RegSrcs {
			addUse(&in.RegSrcs[i], instr)
		}
		for i := range in.RegDests {
			addDef(&in.RegDests[i], instr)
		}
		for _, d := range in.Variables {
			addDerefUses(d, instr)
		}
	case *ir.LoadConstInstr:
		addDef(&in.Dest, instr)
	case *ir.PhiInstr:
		for i := range in.Srcs {
			addUse(&in.Srcs[i].Src, instr)
		}
		addDef(&in.Dest, instr)
	case *ir.CallInstr, *ir.JumpInstr, *ir.SSAUndefInstr:
		// no register operands
	}
}

func removeDefsUses(instr ir.Instr) {
	switch in := instr.(type) {
	case *ir.AluInstr:
		removeDef(&in.Dest.Dest, instr)
		for i := range in.Src {
			removeUse(&in.Src[i].Src, instr)
		}
	case *ir.IntrinsicInstr:
		for i := range in.RegSrcs {
			removeUse(&in.RegSrcs[i], instr)
		}
		for i := range in.RegDests {
			removeDef(&in.RegDests[i], instr)
		}
		for _, d := range in.Variables {
			removeDerefUses(d, instr)
		}
	case *ir.LoadConstInstr:
		removeDef(&in.Dest, instr)
	case *ir.PhiInstr:
		for i := range in.Srcs {
			removeUse(&in.Srcs[i].Src, instr)
		}
		removeDef(&in.Dest, instr)
	case *ir.CallInstr, *ir.JumpInstr, *ir.SSAUndefInstr:
		// no register operands
	}
}

// ssaDests returns the SSA values instr defines, so the builder can assign
// them an index the first time they're actually inserted into a block.
func ssaDests(instr ir.Instr) []*ir.SSAValue {
	switch in := instr.(type) {
	case *ir.AluInstr:
		if in.Dest.Dest.IsSSA {
			return []*ir.SSAValue{in.Dest.Dest.SSA}
		}
	case *ir.LoadConstInstr:
		if in.Dest.IsSSA {
			return []*ir.SSAValue{in.Dest.SSA}
		}
	case *ir.PhiInstr:
		if in.Dest.IsSSA {
			return []*ir.SSAValue{in.Dest.SSA}
		}
	case *ir.SSAUndefInstr:
		return []*ir.SSAValue{in.Def}
	}
	return nil
}
