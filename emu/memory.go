package emu

// DefaultMemorySize is the data-memory size of the modeled device:
// an 8-bit address space of 8-bit cells.
const DefaultMemorySize = 256

// Memory is the flat byte-addressed data memory used by the functional
// model and as the backing store for the timing model.
type Memory struct {
	data []uint8
}

// NewMemory creates a memory of DefaultMemorySize bytes.
func NewMemory() *Memory {
	return NewMemorySized(DefaultMemorySize)
}

// NewMemorySized creates a memory of the given size in bytes.
func NewMemorySized(size int) *Memory {
	return &Memory{data: make([]uint8, size)}
}

// Size returns the memory size in bytes.
func (m *Memory) Size() int {
	return len(m.data)
}

// Read returns the byte at addr.
func (m *Memory) Read(addr uint8) uint8 {
	return m.data[int(addr)%len(m.data)]
}

// Write stores value at addr.
func (m *Memory) Write(addr uint8, value uint8) {
	m.data[int(addr)%len(m.data)] = value
}

// Load copies data into memory starting at base.
func (m *Memory) Load(base uint8, data []uint8) {
	for i, b := range data {
		m.Write(base+uint8(i), b)
	}
}

// Dump returns a copy of length bytes starting at base.
func (m *Memory) Dump(base uint8, length int) []uint8 {
	out := make([]uint8, length)
	for i := range out {
		out[i] = m.Read(base + uint8(i))
	}
	return out
}
