// Package validate walks a built Shader and checks every structural
// invariant internal/builder is supposed to maintain: block adjacency,
// jump placement, successor/predecessor symmetry, register use/def
// bookkeeping, SSA/local-variable scoping, phi shape, and deref-chain
// typing.
//
// Grounded on original_source/nir_validate.c; ported from its
// assert()-per-check style to explicit error returns, since aborting a Go
// process on a caught invariant violation is the caller's decision, not
// the validator's.
package validate

import (
	"shaderir/internal/ir"
	"shaderir/internal/irerr"
	"shaderir/internal/opcode"
)

type regState struct {
	uses         map[ir.Instr]struct{}
	defs         map[ir.Instr]struct{}
	whereDefined *ir.FunctionImpl // nil for a global register
}

type state struct {
	regs map[*ir.Register]*regState

	instr      ir.Instr
	block      *ir.Block
	parentNode ir.CFNode
	impl       *ir.FunctionImpl

	ssaDefs map[*ir.SSAValue]*ir.FunctionImpl
	varDefs map[*ir.Variable]*ir.FunctionImpl
}

func newState() *state {
	return &state{
		regs:    make(map[*ir.Register]*regState),
		ssaDefs: make(map[*ir.SSAValue]*ir.FunctionImpl),
		varDefs: make(map[*ir.Variable]*ir.FunctionImpl),
	}
}

func fail(rule, detail string, subject any) error {
	return irerr.New(rule, detail, subject)
}

// Shader validates every function implementation in s, returning the first
// invariant violation found (or nil if s is structurally sound).
func Shader(s *ir.Shader) error {
	st := newState()

	for _, v := range s.Uniforms {
		validateVarDecl(v, true, st)
	}
	for _, v := range s.Inputs {
		validateVarDecl(v, true, st)
	}
	for _, v := range s.Outputs {
		validateVarDecl(v, true, st)
	}
	for _, v := range s.Globals {
		validateVarDecl(v, true, st)
	}

	for _, reg := range s.Registers {
		if err := prevalidateRegDecl(reg, true, st); err != nil {
			return err
		}
	}

	for _, fn := range s.Functions {
		for _, overload := range fn.Overloads {
			if overload.Function != fn {
				return fail("function-overload-backlink", "overload's function does not match its owning Function", overload)
			}
			if overload.Impl == nil {
				continue
			}
			if err := validateFunctionImpl(overload.Impl, st); err != nil {
				return err
			}
		}
	}

	for _, reg := range s.Registers {
		if err := postvalidateRegDecl(reg, st); err != nil {
			return err
		}
	}

	return nil
}

// MustShader validates s and panics on the first invariant violation. Use
// this at the boundary where an invalid IR truly is a programmer bug
// (tests, a builder pass that just ran) rather than a condition the caller
// should recover from.
func MustShader(s *ir.Shader) {
	if err := Shader(s); err != nil {
		panic(err)
	}
}

func validateVarDecl(v *ir.Variable, isGlobal bool, st *state) {
	if !isGlobal {
		st.varDefs[v] = st.impl
	}
}

func prevalidateRegDecl(reg *ir.Register, isGlobal bool, st *state) error {
	if reg.Global != isGlobal {
		return fail("register-scope", "register's Global flag disagrees with its declaring list", reg)
	}
	var whereDefined *ir.FunctionImpl
	if !isGlobal {
		whereDefined = st.impl
	}
	st.regs[reg] = &regState{
		uses:         make(map[ir.Instr]struct{}),
		defs:         make(map[ir.Instr]struct{}),
		whereDefined: whereDefined,
	}
	return nil
}

func postvalidateRegDecl(reg *ir.Register, st *state) error {
	rs := st.regs[reg]
	if len(rs.uses) != len(reg.Uses) {
		return fail("register-use-bookkeeping", "register.Uses does not match the instructions that actually reference it", reg)
	}
	if len(rs.defs) != len(reg.Defs) {
		return fail("register-def-bookkeeping", "register.Defs does not match the instructions that actually define it", reg)
	}
	return nil
}

func validateFunctionImpl(impl *ir.FunctionImpl, st *state) error {
	if impl.Overload.Impl != impl {
		return fail("impl-backlink", "impl's overload does not point back to it", impl)
	}
	if impl.Parent() != nil {
		return fail("impl-parent", "a FunctionImpl's parent must always be nil", impl)
	}
	if len(impl.Params) != len(impl.Overload.Params) {
		return fail("impl-param-count", "impl's parameter locals do not match its overload's signature", impl)
	}
	for i, p := range impl.Params {
		if p.Type.Identity() != impl.Overload.Params[i].Type.Identity() {
			return fail("impl-param-type", "a parameter local's type does not match its overload's signature", impl)
		}
	}
	if impl.Overload.ReturnType.IsVoid() {
		if impl.ReturnVar != nil {
			return fail("impl-return-var", "a void overload's impl must not have a return variable", impl)
		}
	} else if impl.ReturnVar == nil || impl.ReturnVar.Type.Identity() != impl.Overload.ReturnType.Identity() {
		return fail("impl-return-var", "impl's return variable does not match its overload's return type", impl)
	}

	if len(impl.EndBlock.Instrs) != 0 {
		return fail("end-block-empty", "a FunctionImpl's end block must hold no instructions", impl.EndBlock)
	}
	if impl.EndBlock.Successors[0] != nil || impl.EndBlock.Successors[1] != nil {
		return fail("end-block-terminal", "a FunctionImpl's end block must have no successors", impl.EndBlock)
	}

	st.impl = impl
	st.parentNode = impl

	for _, local := range impl.Locals {
		validateVarDecl(local, false, st)
	}

	for _, reg := range impl.Registers {
		if err := prevalidateRegDecl(reg, false, st); err != nil {
			return err
		}
	}

	for _, node := range impl.Body {
		if err := validateCFNode(node, st); err != nil {
			return err
		}
	}

	for _, reg := range impl.Registers {
		if err := postvalidateRegDecl(reg, st); err != nil {
			return err
		}
	}

	return nil
}

func validateCFNode(node ir.CFNode, st *state) error {
	if node.Parent() != st.parentNode {
		return fail("cf-node-parent", "CF node's parent does not match the list it was visited from", node)
	}

	switch n := node.(type) {
	case *ir.Block:
		return validateBlock(n, st)
	case *ir.If:
		return validateIf(n, st)
	case *ir.Loop:
		return validateLoop(n, st)
	default:
		return fail("cf-node-kind", "unrecognized CF node kind", node)
	}
}

func validateBlock(block *ir.Block, st *state) error {
	st.block = block

	for i, instr := range block.Instrs {
		if _, ok := instr.(*ir.PhiInstr); ok {
			if i != 0 {
				if _, ok := block.Instrs[i-1].(*ir.PhiInstr); !ok {
					return fail("phi-placement", "a phi instruction must precede every non-phi instruction in its block", instr)
				}
			}
		}
		if _, ok := instr.(*ir.JumpInstr); ok {
			if i != len(block.Instrs)-1 {
				return fail("jump-placement", "a jump instruction must be the last instruction in its block", instr)
			}
		}
		if err := validateInstr(instr, st); err != nil {
			return err
		}
	}

	if block.Successors[0] == nil {
		return fail("block-has-successor", "every block must have at least one successor (even the end block is reached by falling off the last real block)", block)
	}

	for _, succ := range [2]*ir.Block{block.Successors[0], block.Successors[1]} {
		if succ == nil {
			continue
		}
		if _, ok := succ.Predecessors[block]; !ok {
			return fail("cfg-symmetry", "block is a successor of a block that is not in its own predecessor set", block)
		}
		if err := validatePhiSrcs(block, succ, st); err != nil {
			return err
		}
	}

	if block.EndsInJump() && block.Successors[1] != nil {
		return fail("jump-single-successor", "a block ending in a jump must have exactly one successor", block)
	}

	return nil
}

func validatePhiSrcs(block, succ *ir.Block, st *state) error {
	for _, instr := range succ.Instrs {
		phi, ok := instr.(*ir.PhiInstr)
		if !ok {
			break
		}
		found := false
		for _, src := range phi.Srcs {
			if src.Pred == block {
				if err := validateSrc(&src.Src, st); err != nil {
					return err
				}
				found = true
				break
			}
		}
		if !found {
			return fail("phi-src-missing", "phi instruction has no source for one of its block's predecessors", phi)
		}
	}
	return nil
}

func validateIf(ifStmt *ir.If, st *state) error {
	if len(ifStmt.Then) == 0 {
		return fail("if-then-nonempty", "an if's then branch must have at least one node", ifStmt)
	}
	if len(ifStmt.Else) == 0 {
		return fail("if-else-nonempty", "an if's else branch must have at least one node", ifStmt)
	}

	prevBlock, nextBlock, err := flankingBlocks(ifStmt, st)
	if err != nil {
		return err
	}
	if prevBlock.Successors[0] != ifStmt.FirstThenBlock() {
		return fail("if-then-link", "the block preceding an if must have the if's first then-block as its first successor", ifStmt)
	}
	if prevBlock.Successors[1] != ifStmt.FirstElseBlock() {
		return fail("if-else-link", "the block preceding an if must have the if's first else-block as its second successor", ifStmt)
	}
	_ = nextBlock

	if !ifStmt.Condition.IsSSA {
		reg := ifStmt.Condition.Reg.Reg
		if _, ok := st.regs[reg]; !ok {
			return fail("if-condition-reg-scope", "if condition references a register not declared in scope", ifStmt)
		}
	}

	oldParent := st.parentNode
	st.parentNode = ifStmt
	for _, node := range ifStmt.Then {
		if err := validateCFNode(node, st); err != nil {
			return err
		}
	}
	for _, node := range ifStmt.Else {
		if err := validateCFNode(node, st); err != nil {
			return err
		}
	}
	st.parentNode = oldParent

	return nil
}

func validateLoop(loop *ir.Loop, st *state) error {
	if len(loop.Body) == 0 {
		return fail("loop-body-nonempty", "a loop's body must have at least one node", loop)
	}

	prevBlock, _, err := flankingBlocks(loop, st)
	if err != nil {
		return err
	}
	if prevBlock.Successors[0] != loop.FirstBlock() {
		return fail("loop-entry-link", "the block preceding a loop must have the loop's first block as its sole successor", loop)
	}
	if prevBlock.Successors[1] != nil {
		return fail("loop-entry-link", "the block preceding a loop must have exactly one successor", loop)
	}

	oldParent := st.parentNode
	st.parentNode = loop
	for _, node := range loop.Body {
		if err := validateCFNode(node, st); err != nil {
			return err
		}
	}
	st.parentNode = oldParent

	return nil
}

// flankingBlocks finds the Block immediately before and after node in its
// containing list, enforcing that an If/Loop always has a block on both
// sides.
func flankingBlocks(node ir.CFNode, st *state) (prev, next *ir.Block, err error) {
	list := siblingList(node)
	idx := -1
	for i, n := range list {
		if n == node {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return nil, nil, fail("cf-node-flanked", "an If/Loop must have a block before it in its list", node)
	}
	if idx >= len(list)-1 {
		return nil, nil, fail("cf-node-flanked", "an If/Loop must have a block after it in its list", node)
	}
	prevBlock, ok := list[idx-1].(*ir.Block)
	if !ok {
		return nil, nil, fail("cf-node-flanked", "the node before an If/Loop must be a block", node)
	}
	nextBlock, ok := list[idx+1].(*ir.Block)
	if !ok {
		return nil, nil, fail("cf-node-flanked", "the node after an If/Loop must be a block", node)
	}
	return prevBlock, nextBlock, nil
}

func siblingList(node ir.CFNode) []ir.CFNode {
	switch p := node.Parent().(type) {
	case *ir.FunctionImpl:
		return p.Body
	case *ir.If:
		for _, n := range p.Then {
			if n == node {
				return p.Then
			}
		}
		return p.Else
	case *ir.Loop:
		return p.Body
	default:
		return nil
	}
}

func validateInstr(instr ir.Instr, st *state) error {
	if instr.Block() != st.block {
		return fail("instr-block-backlink", "instruction's Block() does not match the block it's being visited from", instr)
	}
	st.instr = instr

	switch in := instr.(type) {
	case *ir.AluInstr:
		return validateAluInstr(in, st)
	case *ir.CallInstr:
		return validateCallInstr(in, st)
	case *ir.IntrinsicInstr:
		return validateIntrinsicInstr(in, st)
	case *ir.LoadConstInstr:
		return validateLoadConstInstr(in, st)
	case *ir.JumpInstr:
		return nil
	case *ir.SSAUndefInstr:
		return validateSSAUndefInstr(in, st)
	case *ir.PhiInstr:
		return validatePhiInstr(in, st)
	default:
		return fail("instr-kind", "unrecognized instruction kind", instr)
	}
}

func validateAluInstr(instr *ir.AluInstr, st *state) error {
	info := opcode.Lookup(instr.Op)
	if len(instr.Src) != info.NumInputs {
		return fail("alu-arity", "ALU instruction's source count does not match its opcode's arity", instr)
	}

	destSize := aluDestSize(instr)
	if instr.Dest.WriteMask&^((1<<uint(destSize))-1) != 0 {
		return fail("alu-write-mask", "write mask touches components outside the destination's width", instr)
	}
	if err := validateDest(&instr.Dest.Dest, st); err != nil {
		return err
	}

	for i := range instr.Src {
		for _, c := range instr.Src[i].Swizzle {
			if c >= 4 {
				return fail("alu-swizzle", "swizzle component selects outside 0-3", instr)
			}
		}
		if err := validateSrc(&instr.Src[i].Src, st); err != nil {
			return err
		}
	}
	return nil
}

func aluDestSize(instr *ir.AluInstr) int {
	if instr.Dest.Dest.IsSSA {
		return instr.Dest.Dest.SSA.NumComponents
	}
	return instr.Dest.Dest.Reg.Reg.NumComponents
}

func validateCallInstr(instr *ir.CallInstr, st *state) error {
	if instr.ReturnVar == nil {
		if !instr.Callee.ReturnType.IsVoid() {
			return fail("call-return-var", "call has no return variable but its callee returns a value", instr)
		}
	} else if instr.ReturnVar.Type.Identity() != instr.Callee.ReturnType.Identity() {
		return fail("call-return-var", "call's return variable type does not match its callee's return type", instr)
	}

	if len(instr.Params) != len(instr.Callee.Params) {
		return fail("call-param-count", "call's parameter count does not match its callee's signature", instr)
	}
	for i, p := range instr.Params {
		if p.Type.Identity() != instr.Callee.Params[i].Type.Identity() {
			return fail("call-param-type", "call's parameter type does not match its callee's signature", instr)
		}
	}
	return nil
}

func validateIntrinsicInstr(instr *ir.IntrinsicInstr, st *state) error {
	for i := range instr.RegSrcs {
		if err := validateSrc(&instr.RegSrcs[i], st); err != nil {
			return err
		}
	}
	for i := range instr.RegDests {
		if err := validateDest(&instr.RegDests[i], st); err != nil {
			return err
		}
	}
	for _, d := range instr.Variables {
		if d == nil {
			continue
		}
		if err := validateDeref(d, st); err != nil {
			return err
		}
	}
	return nil
}

func validateLoadConstInstr(instr *ir.LoadConstInstr, st *state) error {
	if err := validateDest(&instr.Dest, st); err != nil {
		return err
	}
	if len(instr.Values) > 1 {
		if instr.Dest.IsSSA {
			return fail("load-const-array-ssa", "a multi-element load_const cannot target an SSA dest", instr)
		}
		reg := instr.Dest.Reg.Reg
		if instr.Dest.Reg.BaseOffset+len(instr.Values) > reg.NumArrayElems {
			return fail("load-const-array-bounds", "load_const writes past the end of its destination register's array", instr)
		}
	}
	return nil
}

func validateSSAUndefInstr(instr *ir.SSAUndefInstr, st *state) error {
	return validateSSADef(instr.Def, st)
}

func validatePhiInstr(instr *ir.PhiInstr, st *state) error {
	if err := validateDest(&instr.Dest, st); err != nil {
		return err
	}
	if len(instr.Srcs) != len(st.block.Predecessors) {
		return fail("phi-src-count", "phi instruction's source count does not match its block's predecessor count", instr)
	}
	return nil
}

func validateSrc(src *ir.Src, st *state) error {
	if src.IsSSA {
		return validateSSAUse(src.SSA, st)
	}
	return validateRegSrc(&src.Reg, st)
}

func validateRegSrc(ref *ir.RegRef, st *state) error {
	reg := ref.Reg
	if reg == nil {
		return fail("reg-src-nil", "register source has no register", ref)
	}
	if _, ok := reg.Uses[st.instr]; !ok {
		return fail("reg-use-missing", "register source not recorded in register.Uses", st.instr)
	}
	rs, ok := st.regs[reg]
	if !ok {
		return fail("reg-scope", "register source references a register not declared in scope", st.instr)
	}
	rs.uses[st.instr] = struct{}{}

	if !reg.Global && rs.whereDefined != st.impl {
		return fail("reg-cross-impl-use", "using a register declared in a different function", st.instr)
	}

	if reg.NumArrayElems != 0 && ref.BaseOffset >= reg.NumArrayElems {
		return fail("reg-array-bounds", "definitely out-of-bounds array access", st.instr)
	}

	if ref.Indirect != nil {
		if reg.NumArrayElems == 0 {
			return fail("reg-indirect-non-array", "indirect offset on a non-array register", st.instr)
		}
		if !ref.Indirect.IsSSA && ref.Indirect.Reg.Indirect != nil {
			return fail("reg-indirect-depth", "only one level of indirection allowed", st.instr)
		}
		if err := validateSrc(ref.Indirect, st); err != nil {
			return err
		}
	}
	return nil
}

func validateSSAUse(def *ir.SSAValue, st *state) error {
	if def == nil {
		return fail("ssa-use-nil", "SSA source has no value", st.instr)
	}
	owner, ok := st.ssaDefs[def]
	if !ok {
		return fail("ssa-use-undefined", "SSA value used before (or never) defined", st.instr)
	}
	if owner != st.impl {
		return fail("ssa-cross-impl-use", "using an SSA value defined in a different function", st.instr)
	}
	return nil
}

func validateDest(dest *ir.Dest, st *state) error {
	if dest.IsSSA {
		return validateSSADef(dest.SSA, st)
	}
	return validateRegDest(&dest.Reg, st)
}

func validateRegDest(ref *ir.RegRef, st *state) error {
	reg := ref.Reg
	if reg == nil {
		return fail("reg-dest-nil", "register dest has no register", ref)
	}
	if _, ok := reg.Defs[st.instr]; !ok {
		return fail("reg-def-missing", "register dest not recorded in register.Defs", st.instr)
	}
	rs, ok := st.regs[reg]
	if !ok {
		return fail("reg-scope", "register dest references a register not declared in scope", st.instr)
	}
	rs.defs[st.instr] = struct{}{}

	if !reg.Global && rs.whereDefined != st.impl {
		return fail("reg-cross-impl-def", "writing to a register declared in a different function", st.instr)
	}

	if reg.NumArrayElems != 0 && ref.BaseOffset >= reg.NumArrayElems {
		return fail("reg-array-bounds", "definitely out-of-bounds array access", st.instr)
	}

	if ref.Indirect != nil {
		if reg.NumArrayElems == 0 {
			return fail("reg-indirect-non-array", "indirect offset on a non-array register", st.instr)
		}
		if !ref.Indirect.IsSSA && ref.Indirect.Reg.Indirect != nil {
			return fail("reg-indirect-depth", "only one level of indirection allowed", st.instr)
		}
		if err := validateSrc(ref.Indirect, st); err != nil {
			return err
		}
	}
	return nil
}

func validateSSADef(def *ir.SSAValue, st *state) error {
	if def.NumComponents > 4 {
		return fail("ssa-width", "an SSA value may have at most 4 components", def)
	}
	st.ssaDefs[def] = st.impl
	return nil
}

func validateVarUse(v *ir.Variable, st *state) error {
	if v.Mode != ir.ModeLocal {
		return nil
	}
	owner, ok := st.varDefs[v]
	if !ok || owner != st.impl {
		return fail("var-cross-impl-use", "local variable used from a function other than where it was declared", v)
	}
	return nil
}

func validateDeref(d *ir.Deref, st *state) error {
	if d.Var == nil {
		return fail("deref-var-nil", "deref chain has no root variable", d)
	}
	if err := validateVarUse(d.Var, st); err != nil {
		return err
	}

	cur := d.Var.Type
	for _, link := range d.Links {
		switch link.Kind {
		case ir.DerefArrayIndex:
			elem, ok := cur.ArrayElement()
			if !ok || elem.Identity() != link.Type.Identity() {
				return fail("deref-array-type", "array-index deref link's type does not match its container's element type", d)
			}
			if err := validateSrc(&link.Index, st); err != nil {
				return err
			}
		case ir.DerefStructField:
			field, ok := cur.StructField(link.Field)
			if !ok || field.Identity() != link.Type.Identity() {
				return fail("deref-struct-type", "struct-field deref link's type does not match its container's field type", d)
			}
		default:
			return fail("deref-link-kind", "unrecognized deref link kind", d)
		}
		cur = link.Type
	}
	return nil
}
