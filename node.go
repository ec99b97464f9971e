package graph

import (
	"sync/atomic"

	"github.com/rs/xid"
)

// Node is the unit of computation. It owns its ports and exposes the
// lifecycle contract consumed by the scheduler.
//
// Process consumes current blocks from all connected inputs, produces new
// blocks on all outputs and calls MarkProcessed exactly once on success. It
// must only be called when IsReadyToProcess returned true. Multiple nodes
// execute literally in parallel within a scheduler wave, so Process must
// not mutate any state outside the node's own ports and buffers.
//
// The policy for unconnected required inputs is node-specific: a node may
// treat them as silence, pass another input through or refuse to become
// ready at all. Each implementation documents its own policy.
type Node interface {
	// Initialize performs one-time setup of ports and internal buffers.
	// It is called once, before the node is added to a running graph.
	Initialize()
	// Process produces one block.
	Process() error
	// Reset clears transient numerical state without touching
	// connections.
	Reset()
	// Clear clears buffered content such as delay lines. Nodes without
	// delay buffers may treat Reset and Clear identically.
	Clear()
	// IsReadyToProcess reports whether all required inputs have new data
	// and the node has not produced output this tick yet.
	IsReadyToProcess() bool
	// IsFinished reports whether the node processed the current block and
	// all of its required upstreams are finished.
	IsFinished() bool

	Name() string
	ID() string
	Ports() []Port
	Input(int) Port
	Output(int) Port
	Reference() Port
	Processed() bool
	MarkProcessed(bool)
}

// Core is the embeddable part of every node: identity, the port registry
// and the processed flag the scheduler inspects. Concrete nodes implement
// the computation and their readiness policy on top of it.
type Core struct {
	id        string
	name      string
	ports     []Port
	processed int32
}

// NewCore returns a node core with a unique id.
func NewCore(name string) Core {
	return Core{
		id:   xid.New().String(),
		name: name,
	}
}

// Bind registers ports on the node and sets their owner. It is called by
// concrete node constructors, once per port.
func (c *Core) Bind(n Node, ports ...Port) {
	for _, p := range ports {
		p.bind(n)
		c.ports = append(c.ports, p)
	}
}

// Name returns the node name.
func (c *Core) Name() string { return c.name }

// ID returns the unique node id.
func (c *Core) ID() string { return c.id }

// Ports returns all ports owned by the node.
func (c *Core) Ports() []Port { return c.ports }

// Input returns i-th input port, nil if out of range. Reference ports are
// not counted as inputs.
func (c *Core) Input(i int) Port {
	n := 0
	for _, p := range c.ports {
		switch p.(type) {
		case *AudioIn, *ControlIn:
			if n == i {
				return p
			}
			n++
		}
	}
	return nil
}

// Output returns i-th output port, nil if out of range.
func (c *Core) Output(i int) Port {
	n := 0
	for _, p := range c.ports {
		switch p.(type) {
		case *AudioOut, *ControlOut:
			if n == i {
				return p
			}
			n++
		}
	}
	return nil
}

// Reference returns the first reference port, nil if the node has none.
func (c *Core) Reference() Port {
	for _, p := range c.ports {
		if ref, ok := p.(*ReferenceIn); ok {
			return ref
		}
	}
	return nil
}

// Processed returns the processed flag. It is read by the scheduler and by
// downstream inputs concurrently with other nodes executing.
func (c *Core) Processed() bool {
	return atomic.LoadInt32(&c.processed) == 1
}

// MarkProcessed sets the processed flag. Nodes set it to true at the end of
// a successful Process call, the scheduler clears it at the start of every
// tick.
func (c *Core) MarkProcessed(processed bool) {
	if processed {
		atomic.StoreInt32(&c.processed, 1)
		return
	}
	atomic.StoreInt32(&c.processed, 0)
}
