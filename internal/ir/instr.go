package ir

import (
	"shaderir/internal/intrinsic"
	"shaderir/internal/opcode"
)

// InstrKind tags the seven instruction variants. Every Instr implementation
// reports one of these; pattern matching on Kind replaces the downcast
// macros the C original used.
type InstrKind int

const (
	InstrAlu InstrKind = iota
	InstrCall
	InstrIntrinsic
	InstrLoadConst
	InstrJump
	InstrSSAUndef
	InstrPhi
)

// Instr is implemented by AluInstr, CallInstr, IntrinsicInstr,
// LoadConstInstr, JumpInstr, SSAUndefInstr, and PhiInstr. Every instruction
// belongs to exactly one Block.
type Instr interface {
	InstrKind() InstrKind
	Block() *Block
	// SetBlock is a builder primitive: it stamps an instruction's owning
	// block during insertion. Code outside internal/builder should not
	// call it directly.
	SetBlock(*Block)
}

type instrBase struct {
	block *Block
}

func (b *instrBase) Block() *Block     { return b.block }
func (b *instrBase) SetBlock(blk *Block) { b.block = blk }

// AluInstr applies an ALU opcode to a fixed-arity list of per-operand
// sources, writing one dest under a write mask.
type AluInstr struct {
	instrBase
	Op   opcode.Op
	Dest AluDest
	Src  []AluSrc
}

// NewAluInstr allocates an AluInstr with Src sized to the opcode's arity,
// each operand defaulting to the identity swizzle.
func NewAluInstr(op opcode.Op) *AluInstr {
	info := opcode.Lookup(op)
	srcs := make([]AluSrc, info.NumInputs)
	for i := range srcs {
		srcs[i].Swizzle = IdentitySwizzle()
	}
	return &AluInstr{Op: op, Src: srcs}
}

func (i *AluInstr) InstrKind() InstrKind { return InstrAlu }

// CallInstr invokes a FunctionOverload, passing parameter Variables and
// optionally writing a return Variable.
type CallInstr struct {
	instrBase
	Callee    *FunctionOverload
	Params    []*Variable
	ReturnVar *Variable
}

// NewCallInstr allocates a call to callee with nil param slots (the caller
// fills them to match callee.Params).
func NewCallInstr(callee *FunctionOverload) *CallInstr {
	return &CallInstr{Callee: callee, Params: make([]*Variable, len(callee.Params))}
}

func (i *CallInstr) InstrKind() InstrKind { return InstrCall }

// IntrinsicInstr invokes a fixed intrinsic operation over register
// sources/dests, variable-deref operands, and an optional constant index.
type IntrinsicInstr struct {
	instrBase
	Intrinsic     intrinsic.Intrinsic
	RegSrcs       []Src
	RegDests      []Dest
	Variables     []*Deref
	ConstIndex    int32
	HasConstIndex bool
}

// NewIntrinsicInstr allocates an IntrinsicInstr with operand slices sized
// to match id's Info.
func NewIntrinsicInstr(id intrinsic.Intrinsic) *IntrinsicInstr {
	info := intrinsic.Lookup(id)
	return &IntrinsicInstr{
		Intrinsic: id,
		RegSrcs:   make([]Src, info.NumRegInputs),
		RegDests:  make([]Dest, info.NumRegOutputs),
		Variables: make([]*Deref, info.NumVariables),
	}
}

func (i *IntrinsicInstr) InstrKind() InstrKind { return InstrIntrinsic }

// LoadConstInstr materializes one or more constant component-vectors into a
// single dest (an array-typed dest holds one vector per array element).
type LoadConstInstr struct {
	instrBase
	Values [][4]float32
	Dest   Dest
}

// NewLoadConstInstr allocates a LoadConstInstr with numElems immediate
// vector slots.
func NewLoadConstInstr(numElems int) *LoadConstInstr {
	return &LoadConstInstr{Values: make([][4]float32, numElems)}
}

func (i *LoadConstInstr) InstrKind() InstrKind { return InstrLoadConst }

// JumpKind distinguishes the three structured jump targets.
type JumpKind int

const (
	JumpReturn JumpKind = iota
	JumpBreak
	JumpContinue
)

// JumpInstr is an unconditional exit from the block it terminates: a
// function return, a loop break, or a loop continue. It is always the last
// instruction in its block.
type JumpInstr struct {
	instrBase
	JumpKind JumpKind
}

// NewJumpInstr allocates a jump of the given kind.
func NewJumpInstr(kind JumpKind) *JumpInstr {
	return &JumpInstr{JumpKind: kind}
}

func (i *JumpInstr) InstrKind() InstrKind { return InstrJump }

// SSAUndefInstr defines one SSA value with unspecified contents. It can
// only define SSA (never a register), matching the uninitialized-local
// case of a real front-end.
type SSAUndefInstr struct {
	instrBase
	Def *SSAValue
}

// NewSSAUndefInstr allocates an SSAUndefInstr defining a fresh SSA value of
// the given width.
func NewSSAUndefInstr(numComponents int) *SSAUndefInstr {
	return &SSAUndefInstr{Def: &SSAValue{NumComponents: numComponents}}
}

func (i *SSAUndefInstr) InstrKind() InstrKind { return InstrSSAUndef }

// PhiSrc pairs one phi source with the predecessor block it is taken from.
type PhiSrc struct {
	Pred *Block
	Src  Src
}

// PhiInstr selects among values defined along different predecessors of
// its block. Its source count must equal the block's predecessor count,
// and it must precede every non-phi instruction in the block.
type PhiInstr struct {
	instrBase
	Srcs []PhiSrc
	Dest Dest
}

// NewPhiInstr allocates an empty PhiInstr; the caller fills Srcs with one
// entry per predecessor of the phi's block (the builder does not add them).
func NewPhiInstr() *PhiInstr {
	return &PhiInstr{}
}

func (i *PhiInstr) InstrKind() InstrKind { return InstrPhi }
