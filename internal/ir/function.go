package ir

import "shaderir/internal/types"

// Function is a named group of FunctionOverloads (overloads share a name
// but differ in signature).
type Function struct {
	Shader    *Shader
	Name      string
	Overloads []*FunctionOverload
}

// NewOverload declares a new overload of f with the given parameter list
// and return type. The overload has no body until NewImpl is called.
func (f *Function) NewOverload(params []Parameter, returnType *types.Type) *FunctionOverload {
	o := &FunctionOverload{Function: f, Params: params, ReturnType: returnType}
	f.Overloads = append(f.Overloads, o)
	return o
}

// FunctionOverload is one signature of a Function: its parameter list,
// return type, and (once defined) its FunctionImpl body.
type FunctionOverload struct {
	Function   *Function
	Params     []Parameter
	ReturnType *types.Type
	Impl       *FunctionImpl
}

// NewImpl defines the overload's body. It panics if the overload is
// already defined (an overload is implemented at most once).
func (o *FunctionOverload) NewImpl() *FunctionImpl {
	if o.Impl != nil {
		panic("ir: function overload already has an implementation")
	}

	impl := &FunctionImpl{Overload: o}

	start := NewBlock()
	start.SetParent(impl)
	end := NewBlock()
	end.SetParent(impl)
	impl.Body = []CFNode{start}
	impl.StartBlock = start
	impl.EndBlock = end

	start.Successors[0] = end
	end.Predecessors[start] = struct{}{}

	for _, p := range o.Params {
		local := NewVariable(ModeLocal, p.Type, "")
		impl.Locals = append(impl.Locals, local)
		impl.Params = append(impl.Params, local)
	}
	if !o.ReturnType.IsVoid() {
		impl.ReturnVar = NewVariable(ModeLocal, o.ReturnType, "")
		impl.Locals = append(impl.Locals, impl.ReturnVar)
	}

	o.Impl = impl
	return impl
}

// FunctionImpl is the body of a defined FunctionOverload: a structured
// CF-node list (its own parent is always nil), the function's entry and
// exit blocks, its locals (including parameters and the return variable),
// its impl-local registers, and the SSA/register index allocators new
// values and registers within it draw from.
type FunctionImpl struct {
	cfNodeBase

	Overload *FunctionOverload

	Body       []CFNode
	StartBlock *Block
	EndBlock   *Block

	Locals    []*Variable
	Params    []*Variable
	ReturnVar *Variable

	Registers []*Register

	regAlloc int
	ssaAlloc int
}

func (f *FunctionImpl) CFKind() CFNodeKind { return CFFunction }

// NewLocal declares a new impl-scoped local Variable.
func (f *FunctionImpl) NewLocal(t *types.Type, name string) *Variable {
	v := NewVariable(ModeLocal, t, name)
	f.Locals = append(f.Locals, v)
	return v
}

// NewRegister allocates a register local to this FunctionImpl.
func (f *FunctionImpl) NewRegister(numComponents, numArrayElems int) *Register {
	r := newRegister(f.regAlloc, numComponents)
	r.NumArrayElems = numArrayElems
	r.Impl = f
	f.regAlloc++
	f.Registers = append(f.Registers, r)
	return r
}

// BindSSADef assigns the next SSA index to v and stamps its owning
// instruction. Called by internal/builder when an instruction defining v
// is inserted into this impl.
func (f *FunctionImpl) BindSSADef(v *SSAValue, instr Instr) {
	v.Index = f.ssaAlloc
	v.Instr = instr
	f.ssaAlloc++
}
