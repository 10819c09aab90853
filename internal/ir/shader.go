package ir

import "shaderir/internal/types"

// Shader is the top-level compilation unit: four name-keyed variable
// tables (uniforms, inputs, outputs, globals), an ordered list of
// Functions, an ordered list of global Registers, and the allocator
// counter those registers draw their Index from.
type Shader struct {
	Uniforms map[string]*Variable
	Inputs   map[string]*Variable
	Outputs  map[string]*Variable
	Globals  map[string]*Variable

	Functions []*Function
	Registers []*Register

	regAlloc int
}

// NewShader allocates an empty shader.
func NewShader() *Shader {
	return &Shader{
		Uniforms: make(map[string]*Variable),
		Inputs:   make(map[string]*Variable),
		Outputs:  make(map[string]*Variable),
		Globals:  make(map[string]*Variable),
	}
}

func (s *Shader) addVariable(table map[string]*Variable, mode Mode, t *types.Type, name string) *Variable {
	v := NewVariable(mode, t, name)
	table[name] = v
	return v
}

// NewUniform declares and registers a new uniform Variable.
func (s *Shader) NewUniform(t *types.Type, name string) *Variable {
	return s.addVariable(s.Uniforms, ModeUniform, t, name)
}

// NewInput declares and registers a new shader-input Variable.
func (s *Shader) NewInput(t *types.Type, name string) *Variable {
	return s.addVariable(s.Inputs, ModeIn, t, name)
}

// NewOutput declares and registers a new shader-output Variable.
func (s *Shader) NewOutput(t *types.Type, name string) *Variable {
	return s.addVariable(s.Outputs, ModeOut, t, name)
}

// NewGlobal declares and registers a new plain global Variable.
func (s *Shader) NewGlobal(t *types.Type, name string) *Variable {
	return s.addVariable(s.Globals, ModeGlobal, t, name)
}

// NewFunction declares a new, overload-less Function and appends it to the
// shader's function list.
func (s *Shader) NewFunction(name string) *Function {
	f := &Function{Shader: s, Name: name}
	s.Functions = append(s.Functions, f)
	return f
}

// NewGlobalRegister allocates a register shared across every FunctionImpl
// in the shader.
func (s *Shader) NewGlobalRegister(numComponents, numArrayElems int) *Register {
	r := newRegister(s.regAlloc, numComponents)
	r.Global = true
	r.NumArrayElems = numArrayElems
	s.regAlloc++
	s.Registers = append(s.Registers, r)
	return r
}
