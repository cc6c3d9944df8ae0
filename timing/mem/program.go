package mem

import "github.com/sarchlab/tgsim/insts"

// DefaultProgramSize is the program-memory size in 16-bit words: an
// 8-bit program counter's address space.
const DefaultProgramSize = 256

// ProgramMemory holds the instruction words for a run. It is written
// once before start and read combinationally by the cores; the
// recovered driver services the program port every cycle, so fetch
// carries no injected latency.
type ProgramMemory struct {
	words []insts.Word
	used  int
}

// NewProgramMemory creates a program memory of DefaultProgramSize words.
func NewProgramMemory() *ProgramMemory {
	return &ProgramMemory{words: make([]insts.Word, DefaultProgramSize)}
}

// Load writes a program image starting at word 0. Any previous
// contents past the image are cleared to NOP.
func (p *ProgramMemory) Load(program []insts.Word) {
	for i := range p.words {
		p.words[i] = 0
	}
	copy(p.words, program)
	p.used = len(program)
	if p.used > len(p.words) {
		p.used = len(p.words)
	}
}

// Read fetches the instruction word at pc.
func (p *ProgramMemory) Read(pc uint8) insts.Word {
	return p.words[int(pc)%len(p.words)]
}

// Len returns the length of the loaded image in words.
func (p *ProgramMemory) Len() int {
	return p.used
}
