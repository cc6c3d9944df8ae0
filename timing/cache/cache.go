// Package cache provides an optional data cache in front of the banked
// memory controller, built on Akita cache components.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes.
	Size int `json:"size"`
	// Associativity (number of ways).
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size).
	BlockSize int `json:"block_size"`
}

// DefaultConfig returns a small cache suited to the device's 256-byte
// data memory: 64 bytes, 2-way, 8-byte lines.
func DefaultConfig() Config {
	return Config{
		Size:          64,
		Associativity: 2,
		BlockSize:     8,
	}
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Fills     uint64
	Evictions uint64
}

// BackingStore is the next level in the memory hierarchy, read at line
// fill. *emu.Memory satisfies it.
type BackingStore interface {
	Read(addr uint8) uint8
}

// Cache is a lookup/fill cache. It never owns latency: the memory
// controller resolves hits at issue and fills lines when a missed load
// resolves, so all miss timing stays with the channel model. Stores
// write through; the backing write is the controller's store request.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	dataStore [][]uint8
	backing   BackingStore
	stats     Statistics
}

// New creates a cache over the given backing store.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]uint8, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]uint8, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) lineAddr(addr uint8) uint64 {
	return uint64(addr) / uint64(c.config.BlockSize) * uint64(c.config.BlockSize)
}

// Lookup returns the cached byte at addr and whether it was present.
func (c *Cache) Lookup(addr uint8) (uint8, bool) {
	c.stats.Lookups++

	block := c.directory.Lookup(0, c.lineAddr(addr))
	if block == nil || !block.IsValid {
		c.stats.Misses++
		return 0, false
	}

	c.stats.Hits++
	c.directory.Visit(block)

	offset := int(addr) % c.config.BlockSize
	return c.dataStore[c.blockIndex(block)][offset], true
}

// WriteThrough updates the cached byte if its line is present. It
// reports whether the line was present; it never allocates.
func (c *Cache) WriteThrough(addr, value uint8) bool {
	block := c.directory.Lookup(0, c.lineAddr(addr))
	if block == nil || !block.IsValid {
		return false
	}

	c.directory.Visit(block)
	offset := int(addr) % c.config.BlockSize
	c.dataStore[c.blockIndex(block)][offset] = value
	return true
}

// Fill brings addr's line in from the backing store, evicting the LRU
// victim of its set if needed. Lines are never dirty (write-through),
// so eviction is a silent drop.
func (c *Cache) Fill(addr uint8) {
	lineAddr := c.lineAddr(addr)

	victim := c.directory.FindVictim(lineAddr)
	if victim == nil {
		return
	}
	if victim.IsValid {
		c.stats.Evictions++
	}

	line := c.dataStore[c.blockIndex(victim)]
	for i := range line {
		line[i] = c.backing.Read(uint8(lineAddr) + uint8(i))
	}

	victim.Tag = lineAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	c.stats.Fills++
}

// Reset invalidates every line and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
