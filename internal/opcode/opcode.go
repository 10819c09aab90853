// Package opcode is the static description of every ALU opcode: arity,
// per-component flag, and explicit input/output widths. It parameterizes
// how internal/ir's AluInstr is shaped and how internal/validate checks it.
//
// Grounded on original_source/nir_opcodes.h (the OPCODE/UNOP/BINOP/TRIOP/
// QUADOP macro table) and on a flat OpCode enum over a closed, table-driven
// set of entries, the same shape a bytecode interpreter's opcode table uses.
package opcode

// Op identifies one ALU opcode. The enumeration is closed: adding an
// opcode is a table change (a new Op constant plus its infos entry), not a
// schema change.
type Op int

const (
	Mov Op = iota

	Inot
	Fnot
	Fneg
	Ineg
	Fabs
	Iabs
	Fsign
	Isign
	Frcp
	Frsq
	Fsqrt
	Fexp
	Flog
	Fexp2
	Flog2
	F2i
	F2u
	I2f
	F2b
	B2f
	I2b
	U2f

	Bany
	Ball
	Fany
	Fall

	Ftrunc
	Fceil
	Ffloor
	Ffract
	FroundEven

	Fsin
	Fcos

	Fddx
	Fddy

	Fadd
	Iadd
	Fsub
	Isub

	Fmul
	Imul
	ImulHigh
	UmulHigh

	Fdiv
	Idiv
	Udiv

	UaddCarry
	UsubBorrow

	Fmod

	Flt
	Fge
	Feq
	Fne
	Ilt
	Ige
	Ieq
	Ine
	Ult
	Uge

	Slt
	Sge
	Seq
	Sne

	Ishl
	Ishr
	Ushr

	Iand
	Ior
	Ixor

	Fand
	For
	Fxor

	Fdot2
	Fdot3
	Fdot4

	Fmin
	Imin
	Fmax
	Imax
	Umax

	Fpow

	Ffma
	Flrp

	Fcsel
	Icsel

	BitfieldInsert

	// Combines the first component of each input into an n-component vector.
	Vec2
	Vec3
	Vec4
)

// Info describes the shape of one opcode.
//
// If PerComponent, the operation runs independently on each written
// destination component, sourcing the corresponding swizzled input
// components. If not PerComponent, OutputSize components are written and
// each source i is read as InputSizes[i] components; an InputSizes[i] of
// 0 falls back to per-component semantics for that operand only. The
// conditional-select opcodes record their two value operands as 0 and
// their condition operand as 1 (a single scalar component).
type Info struct {
	Name         string
	NumInputs    int
	PerComponent bool
	OutputSize   int
	InputSizes   [4]int
}

func unop(name string) Info {
	return Info{Name: name, NumInputs: 1, PerComponent: true, OutputSize: 0, InputSizes: [4]int{0}}
}

func unopHoriz(name string, outSize, inSize int) Info {
	return Info{Name: name, NumInputs: 1, PerComponent: false, OutputSize: outSize, InputSizes: [4]int{inSize}}
}

func binop(name string) Info {
	return Info{Name: name, NumInputs: 2, PerComponent: true, OutputSize: 0, InputSizes: [4]int{0, 0}}
}

func binopHoriz(name string, outSize, s1, s2 int) Info {
	return Info{Name: name, NumInputs: 2, PerComponent: false, OutputSize: outSize, InputSizes: [4]int{s1, s2}}
}

func triop(name string) Info {
	return Info{Name: name, NumInputs: 3, PerComponent: true, OutputSize: 0, InputSizes: [4]int{0, 0, 0}}
}

func triopHoriz(name string, outSize, s1, s2, s3 int) Info {
	return Info{Name: name, NumInputs: 3, PerComponent: false, OutputSize: outSize, InputSizes: [4]int{s1, s2, s3}}
}

func quadopHoriz(name string, outSize, s1, s2, s3, s4 int) Info {
	return Info{Name: name, NumInputs: 4, PerComponent: false, OutputSize: outSize, InputSizes: [4]int{s1, s2, s3, s4}}
}

// infos is indexed by Op; see nir_op_infos in original_source/opcodes.c
// (not checked in, but referenced by nir_validate.c) for the analogous
// table this mirrors.
var infos = [...]Info{
	Mov: unop("mov"),

	Inot: unop("inot"),
	Fnot: unop("fnot"),
	Fneg: unop("fneg"),
	Ineg: unop("ineg"),
	Fabs: unop("fabs"),
	Iabs: unop("iabs"),

	Fsign: unop("fsign"),
	Isign: unop("isign"),
	Frcp:  unop("frcp"),
	Frsq:  unop("frsq"),
	Fsqrt: unop("fsqrt"),
	Fexp:  unop("fexp"),
	Flog:  unop("flog"),
	Fexp2: unop("fexp2"),
	Flog2: unop("flog2"),
	F2i:   unop("f2i"),
	F2u:   unop("f2u"),
	I2f:   unop("i2f"),
	F2b:   unop("f2b"),
	B2f:   unop("b2f"),
	I2b:   unop("i2b"),
	U2f:   unop("u2f"),

	Bany: unopHoriz("bany", 1, 4),
	Ball: unopHoriz("ball", 1, 4),
	Fany: unopHoriz("fany", 1, 4),
	Fall: unopHoriz("fall", 1, 4),

	Ftrunc:     unop("ftrunc"),
	Fceil:      unop("fceil"),
	Ffloor:     unop("ffloor"),
	Ffract:     unop("ffract"),
	FroundEven: unop("fround_even"),

	Fsin: unop("fsin"),
	Fcos: unop("fcos"),

	Fddx: unop("fddx"),
	Fddy: unop("fddy"),

	Fadd: binop("fadd"),
	Iadd: binop("iadd"),
	Fsub: binop("fsub"),
	Isub: binop("isub"),

	Fmul:     binop("fmul"),
	Imul:     binop("imul"),
	ImulHigh: binop("imul_high"),
	UmulHigh: binop("umul_high"),

	Fdiv: binop("fdiv"),
	Idiv: binop("idiv"),
	Udiv: binop("udiv"),

	UaddCarry:  binop("uadd_carry"),
	UsubBorrow: binop("usub_borrow"),

	Fmod: binop("fmod"),

	Flt: binop("flt"),
	Fge: binop("fge"),
	Feq: binop("feq"),
	Fne: binop("fne"),
	Ilt: binop("ilt"),
	Ige: binop("ige"),
	Ieq: binop("ieq"),
	Ine: binop("ine"),
	Ult: binop("ult"),
	Uge: binop("uge"),

	Slt: binop("slt"),
	Sge: binop("sge"),
	Seq: binop("seq"),
	Sne: binop("sne"),

	Ishl: binop("ishl"),
	Ishr: binop("ishr"),
	Ushr: binop("ushr"),

	Iand: binop("iand"),
	Ior:  binop("ior"),
	Ixor: binop("ixor"),

	Fand: binop("fand"),
	For:  binop("for"),
	Fxor: binop("fxor"),

	Fdot2: binopHoriz("fdot2", 1, 2, 2),
	Fdot3: binopHoriz("fdot3", 1, 3, 3),
	Fdot4: binopHoriz("fdot4", 1, 4, 4),

	Fmin: binop("fmin"),
	Imin: binop("imin"),
	Fmax: binop("fmax"),
	Imax: binop("imax"),
	Umax: binop("umax"),

	Fpow: binop("fpow"),

	Ffma: triop("ffma"),
	Flrp: triop("flrp"),

	// Conditional select: per-component, but the condition operand is read
	// as a single scalar component alongside the two per-component values.
	// NIR overloads the 0 sentinel for "per-component" everywhere except
	// fcsel/icsel's predicate operand, which always reads one component.
	Fcsel: {Name: "fcsel", NumInputs: 3, PerComponent: true, OutputSize: 0, InputSizes: [4]int{1, 0, 0}},
	Icsel: {Name: "icsel", NumInputs: 3, PerComponent: true, OutputSize: 0, InputSizes: [4]int{1, 0, 0}},

	BitfieldInsert: {Name: "bitfield_insert", NumInputs: 4, PerComponent: true, OutputSize: 0, InputSizes: [4]int{0, 0, 0, 0}},

	Vec2: binopHoriz("vec2", 2, 1, 1),
	Vec3: triopHoriz("vec3", 3, 1, 1, 1),
	Vec4: quadopHoriz("vec4", 4, 1, 1, 1, 1),
}

// Lookup returns the Info describing op. It panics if op is outside the
// closed enumeration, since an invalid opcode is a programmer bug, the
// same class of error the validator reports rather than tolerates.
func Lookup(op Op) Info {
	if int(op) < 0 || int(op) >= len(infos) {
		panic("opcode: op out of range")
	}
	return infos[op]
}

// NumInputs is a convenience wrapper around Lookup(op).NumInputs.
func NumInputs(op Op) int { return Lookup(op).NumInputs }
