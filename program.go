package gpgpu

import "maps"

// MaxDescriptorSets is the most descriptor sets a Program may use. Devices
// with a lower MaxBindGroups limit lower it further.
const MaxDescriptorSets = 4

// Program pairs a shader entry point with the descriptor sets bound to it.
// The i-th set added is bound to @group(i).
type Program struct {
	shader    *Shader
	entry     string
	sets      []*DescriptorSet
	constants map[string]float64
}

// NewProgram returns a program running entry of shader.
func NewProgram(shader *Shader, entry string) *Program {
	return &Program{shader: shader, entry: entry}
}

// AddDescriptorSet binds set to the next group.
func (p *Program) AddDescriptorSet(set *DescriptorSet) *Program {
	p.sets = append(p.sets, set)
	return p
}

// SetConstant overrides a pipeline-overridable constant declared with
// override in WGSL.
func (p *Program) SetConstant(name string, value float64) *Program {
	if p.constants == nil {
		p.constants = make(map[string]float64)
	}
	p.constants[name] = value
	return p
}

// Shader returns the program shader.
func (p *Program) Shader() *Shader { return p.shader }

// Entry returns the entry point name.
func (p *Program) Entry() string { return p.entry }

// DescriptorSets returns the sets in group order.
func (p *Program) DescriptorSets() []*DescriptorSet { return p.sets }

// layouts returns the set layouts in group order.
func (p *Program) layouts() []*SetLayout {
	out := make([]*SetLayout, len(p.sets))
	for i, s := range p.sets {
		if s != nil {
			out[i] = s.Layout()
		}
	}
	return out
}

func (p *Program) constantsCopy() map[string]float64 {
	if len(p.constants) == 0 {
		return nil
	}
	return maps.Clone(p.constants)
}
