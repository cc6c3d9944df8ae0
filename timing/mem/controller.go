package mem

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/tgsim/emu"
	"github.com/sarchlab/tgsim/timing/cache"
)

// Statistics holds memory-controller counters.
type Statistics struct {
	// Loads and Stores count issued requests.
	Loads  uint64
	Stores uint64
	// ServicePasses is the number of external Service calls observed.
	ServicePasses uint64
	// Resolved is the number of requests completed.
	Resolved uint64
	// MaxQueueDepth is the deepest the overflow queue has been.
	MaxQueueDepth int
	// CacheHits and CacheMisses count lookups when a cache is attached.
	CacheHits   uint64
	CacheMisses uint64
}

// Controller is the banked data-memory controller. Requests occupy one
// of a fixed number of channels; requests beyond the channel count
// queue FIFO. A request on a channel resolves only after the caller
// has invoked Service the configured number of times — servicing is
// never automatic, so the caller's cadence is the memory latency.
//
// Per-address ordering: the queue is drained strictly in issue order,
// and the head is not promoted while any in-flight request targets the
// same address. A STORE followed by a LOAD of the same address
// therefore always resolves in issue order.
type Controller struct {
	config  Config
	backing *emu.Memory
	cache   *cache.Cache

	channels []*Request
	queue    []*Request

	nextID uint64
	stats  Statistics
}

// ControllerOption is a functional option for the Controller.
type ControllerOption func(*Controller)

// WithCache attaches a data cache. Load hits resolve at issue without
// consuming a channel; stores write through to the cache and still
// drain to the backing store over a channel.
func WithCache(c *cache.Cache) ControllerOption {
	return func(ctrl *Controller) {
		ctrl.cache = c
	}
}

// NewController creates a controller over the given backing memory.
func NewController(config Config, backing *emu.Memory, opts ...ControllerOption) *Controller {
	ctrl := &Controller{
		config:   config,
		backing:  backing,
		channels: make([]*Request, config.Channels),
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	return ctrl
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.config
}

// Stats returns the controller counters.
func (c *Controller) Stats() Statistics {
	return c.stats
}

// InFlight returns the number of requests currently occupying channels.
func (c *Controller) InFlight() int {
	n := 0
	for _, r := range c.channels {
		if r != nil {
			n++
		}
	}
	return n
}

// QueueDepth returns the number of requests waiting for a channel.
func (c *Controller) QueueDepth() int {
	return len(c.queue)
}

// Busy reports whether any request is in flight or queued.
func (c *Controller) Busy() bool {
	return c.InFlight() > 0 || len(c.queue) > 0
}

// IssueLoad creates a LOAD request for addr. With a cache attached, a
// hit resolves the request immediately.
func (c *Controller) IssueLoad(addr uint8, coreID, lane int) *Request {
	c.stats.Loads++
	c.nextID++
	r := &Request{
		ID:     c.nextID,
		Kind:   KindLoad,
		Addr:   addr,
		CoreID: coreID,
		Lane:   lane,
	}

	if c.cache != nil {
		if value, hit := c.cache.Lookup(addr); hit {
			c.stats.CacheHits++
			c.stats.Resolved++
			r.data = value
			r.done = true
			return r
		}
		c.stats.CacheMisses++
	}

	c.enqueue(r)
	return r
}

// IssueStore creates a STORE request writing value to addr. Stores are
// fire-and-forget for the issuing lane but still occupy a channel
// until serviced.
func (c *Controller) IssueStore(addr, value uint8, coreID, lane int) *Request {
	c.stats.Stores++
	c.nextID++
	r := &Request{
		ID:     c.nextID,
		Kind:   KindStore,
		Addr:   addr,
		Value:  value,
		CoreID: coreID,
		Lane:   lane,
	}

	// Write through so a later load hit observes the new value even
	// while the backing write is still in flight.
	if c.cache != nil {
		c.cache.WriteThrough(addr, value)
	}

	c.enqueue(r)
	return r
}

func (c *Controller) enqueue(r *Request) {
	c.queue = append(c.queue, r)
	if len(c.queue) > c.stats.MaxQueueDepth {
		c.stats.MaxQueueDepth = len(c.queue)
	}
	c.promote()
}

// promote moves queued requests onto free channels, head first. It
// stops at the head if no channel is free or an in-flight request
// targets the same address.
func (c *Controller) promote() {
	for len(c.queue) > 0 {
		head := c.queue[0]

		ch := c.freeChannel()
		if ch < 0 || c.addrInFlight(head.Addr) {
			return
		}

		head.remaining = c.config.Latency
		c.channels[ch] = head
		c.queue = c.queue[1:]
	}
}

func (c *Controller) freeChannel() int {
	for i, r := range c.channels {
		if r == nil {
			return i
		}
	}
	return -1
}

func (c *Controller) addrInFlight(addr uint8) bool {
	for _, r := range c.channels {
		if r != nil && r.Addr == addr {
			return true
		}
	}
	return false
}

// Service advances every occupied channel by one pass, resolving
// requests whose latency budget is spent, then refills free channels
// from the queue. The caller decides which cycles call Service; that
// cadence is the injected memory latency.
func (c *Controller) Service() {
	c.stats.ServicePasses++

	for i, r := range c.channels {
		if r == nil {
			continue
		}
		r.remaining--
		if r.remaining > 0 {
			continue
		}
		c.resolve(r)
		c.channels[i] = nil
	}

	c.promote()
}

func (c *Controller) resolve(r *Request) {
	switch r.Kind {
	case KindLoad:
		r.data = c.backing.Read(r.Addr)
		if c.cache != nil {
			c.cache.Fill(r.Addr)
		}
	case KindStore:
		c.backing.Write(r.Addr, r.Value)
	}
	r.done = true
	c.stats.Resolved++
}

// Drain services until nothing is in flight or queued, bounded by
// maxPasses. Used to flush trailing stores after a run completes.
func (c *Controller) Drain(maxPasses int) error {
	for i := 0; i < maxPasses; i++ {
		if !c.Busy() {
			return nil
		}
		c.Service()
	}
	if c.Busy() {
		return errors.Errorf("mem: %d requests still pending after %d passes",
			c.InFlight()+len(c.queue), maxPasses)
	}
	return nil
}

// Reset discards all in-flight and queued requests and clears the
// counters. Outstanding Request handles stay unresolved forever.
func (c *Controller) Reset() {
	for i := range c.channels {
		c.channels[i] = nil
	}
	c.queue = nil
	c.stats = Statistics{}
}
