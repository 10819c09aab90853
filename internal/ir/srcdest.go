package ir

// RegRef names a register operand: the register itself, an optional
// indirect offset (a non-indirect Src, enforced by NewIndirectRegRef to
// cap indirection at one level), and a constant base offset added to it.
type RegRef struct {
	Reg        *Register
	Indirect   *Src
	BaseOffset int
}

// NewRegRef builds a direct (non-indirect) register reference.
func NewRegRef(reg *Register, baseOffset int) RegRef {
	return RegRef{Reg: reg, BaseOffset: baseOffset}
}

// NewIndirectRegRef builds a register reference offset by indirect, itself
// required to be a non-indirect register or SSA source.
func NewIndirectRegRef(reg *Register, baseOffset int, indirect Src) RegRef {
	if indirect.Reg.Indirect != nil {
		panic("ir: indirect source may not itself be indirect")
	}
	return RegRef{Reg: reg, BaseOffset: baseOffset, Indirect: &indirect}
}

// Src is a tagged use: either an SSA value or a register reference. Exactly
// one of SSA/Reg is meaningful, selected by IsSSA.
type Src struct {
	IsSSA bool
	SSA   *SSAValue
	Reg   RegRef
}

// NewSSASrc builds a source referencing an SSA value.
func NewSSASrc(v *SSAValue) Src { return Src{IsSSA: true, SSA: v} }

// NewRegSrc builds a source referencing a register.
func NewRegSrc(ref RegRef) Src { return Src{Reg: ref} }

// Dest is a tagged definition: either a fresh SSA value or a register
// reference being written. Exactly one of SSA/Reg is meaningful, selected
// by IsSSA.
type Dest struct {
	IsSSA bool
	SSA   *SSAValue
	Reg   RegRef
}

// NewSSADest allocates a fresh SSA value of the given width as a dest. The
// value's Index and owning Instr stay unset until the owning instruction is
// inserted into a block, at which point the builder assigns both through
// FunctionImpl.BindSSADef.
func NewSSADest(numComponents int) Dest {
	return Dest{IsSSA: true, SSA: &SSAValue{NumComponents: numComponents}}
}

// NewRegDest builds a dest referencing a register.
func NewRegDest(ref RegRef) Dest { return Dest{Reg: ref} }

// AluSrc is an ALU operand: a generic Src plus the per-component modifiers
// ALU instructions add (abs/negate act before the op; swizzle selects which
// of the source's components feed which destination component).
type AluSrc struct {
	Src     Src
	Abs     bool
	Negate  bool
	Swizzle [4]uint8
}

// IdentitySwizzle returns the swizzle that selects components 0,1,2,3
// unchanged.
func IdentitySwizzle() [4]uint8 { return [4]uint8{0, 1, 2, 3} }

// AluDest is an ALU result: a generic Dest plus saturate (clamp to [0,1])
// and a write mask (which of the destination's components this instruction
// actually writes).
type AluDest struct {
	Dest      Dest
	Saturate  bool
	WriteMask uint8
}
