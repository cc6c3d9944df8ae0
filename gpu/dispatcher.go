package gpu

import (
	"github.com/sarchlab/tgsim/timing/core"
)

// Event is one dispatch or completion observation, the Go rendering of
// the device's packed per-core start/done pulses and block-id field.
type Event struct {
	Cycle   uint64
	CoreID  int
	BlockID int
}

// pendingBlock is a not-yet-dispatched block.
type pendingBlock struct {
	id   int
	live uint8 // live lanes; less than TPB only for the final block
}

// Dispatcher owns the queue of pending blocks and the core pool. Each
// scheduling pass first harvests DONE cores back into the idle pool,
// then assigns queued blocks to idle cores, lowest core id first, so a
// core freed this pass can immediately receive a new block.
type Dispatcher struct {
	cores []*core.Core
	tpb   uint8

	queue []pendingBlock

	dispatches  []Event
	completions []Event
}

// NewDispatcher creates a dispatcher over the given core pool.
func NewDispatcher(cores []*core.Core, threadsPerBlock int) *Dispatcher {
	return &Dispatcher{
		cores: cores,
		tpb:   uint8(threadsPerBlock),
	}
}

// Populate partitions a total thread count into blocks of TPB threads
// and queues them FIFO by block id. The final block carries the
// remainder lanes when the count is not a multiple of TPB.
func (d *Dispatcher) Populate(threads int) {
	d.queue = nil

	blocks := (threads + int(d.tpb) - 1) / int(d.tpb)
	for i := 0; i < blocks; i++ {
		live := d.tpb
		if i == blocks-1 {
			if rem := threads - i*int(d.tpb); rem < int(d.tpb) {
				live = uint8(rem)
			}
		}
		d.queue = append(d.queue, pendingBlock{id: i, live: live})
	}
}

// Pass runs one scheduling pass at the given cycle.
func (d *Dispatcher) Pass(cycle uint64) {
	// Harvest completions first so freed cores can be reused this pass.
	for _, c := range d.cores {
		if c.State() != core.StateDone {
			continue
		}
		d.completions = append(d.completions, Event{
			Cycle:   cycle,
			CoreID:  c.ID(),
			BlockID: c.BlockID(),
		})
		c.Release()
	}

	for _, c := range d.cores {
		if len(d.queue) == 0 {
			break
		}
		if c.State() != core.StateIdle {
			continue
		}
		head := d.queue[0]
		d.queue = d.queue[1:]

		c.Assign(head.id, uint8(head.id), d.tpb, head.live)
		d.dispatches = append(d.dispatches, Event{
			Cycle:   cycle,
			CoreID:  c.ID(),
			BlockID: head.id,
		})
	}
}

// Done reports global completion: the queue is empty and every core is
// IDLE with no unprocessed DONE block.
func (d *Dispatcher) Done() bool {
	if len(d.queue) > 0 {
		return false
	}
	for _, c := range d.cores {
		if c.State() != core.StateIdle {
			return false
		}
	}
	return true
}

// QueueLen returns the number of blocks still waiting for a core.
func (d *Dispatcher) QueueLen() int {
	return len(d.queue)
}

// Dispatches returns the dispatch event stream, ordered by cycle then
// core id.
func (d *Dispatcher) Dispatches() []Event {
	return append([]Event(nil), d.dispatches...)
}

// Completions returns the completion event stream.
func (d *Dispatcher) Completions() []Event {
	return append([]Event(nil), d.completions...)
}

// Reset clears the queue and both event streams.
func (d *Dispatcher) Reset() {
	d.queue = nil
	d.dispatches = nil
	d.completions = nil
}
