package graph

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pipelined/graph/log"
	"github.com/pipelined/graph/metric"
	"github.com/pipelined/graph/signal"
	"github.com/rs/xid"
)

// Handle identifies a node added to a graph. Handles stay valid until the
// node is removed.
type Handle struct {
	id string
}

// Graph owns nodes and advances them block by block. A node is never owned
// by more than one graph. Edges are not stored by the graph itself, they
// live as back-references inside input ports.
type Graph struct {
	id      string
	name    string
	workers int
	nodes   []Node
	metric  *metric.Metric
	log     log.Logger
}

// Option provides a way to set functional parameters to graph.
type Option func(g *Graph) error

// New creates a new graph and applies provided options.
func New(options ...Option) (*Graph, error) {
	g := &Graph{
		id:      xid.New().String(),
		workers: runtime.NumCPU(),
		log:     log.GetLogger(),
	}
	for _, option := range options {
		err := option(g)
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

// WithName sets name to Graph.
func WithName(n string) Option {
	return func(g *Graph) error {
		g.name = n
		return nil
	}
}

// WithLogger sets logger to Graph. If this option is not provided, logrus
// logger is used.
func WithLogger(l log.Logger) Option {
	return func(g *Graph) error {
		g.log = l
		return nil
	}
}

// WithWorkers bounds the number of concurrent node tasks per tick. If this
// option is not provided, the number of CPUs is used.
func WithWorkers(n int) Option {
	return func(g *Graph) error {
		if n < 1 {
			return fmt.Errorf("invalid workers count: %d", n)
		}
		g.workers = n
		return nil
	}
}

// WithMetric adds counters for this graph.
func WithMetric(m *metric.Metric) Option {
	return func(g *Graph) error {
		g.metric = m
		return nil
	}
}

// Add initializes the node and hands its ownership over to the graph.
func (g *Graph) Add(n Node) Handle {
	n.Initialize()
	g.nodes = append(g.nodes, n)
	g.log.Debug("added node ", n.Name())
	return Handle{id: n.ID()}
}

// Node returns the node behind the handle, nil if it was removed.
func (g *Graph) Node(h Handle) Node {
	for _, n := range g.nodes {
		if n.ID() == h.id {
			return n
		}
	}
	return nil
}

// Remove detaches the node from the graph. All connections into and out of
// the node are dropped, so no other node keeps a reference to its ports.
func (g *Graph) Remove(h Handle) {
	for i, n := range g.nodes {
		if n.ID() != h.id {
			continue
		}
		disconnectAll(n)
		g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
		g.log.Debug("removed node ", n.Name())
		return
	}
}

// Connect wires two ports of owned nodes, see package-level Connect.
func (g *Graph) Connect(a, b Port) error {
	err := Connect(a, b)
	if err != nil {
		return fmt.Errorf("connect %s to %s: %w", a.Name(), b.Name(), err)
	}
	g.log.Debug("connected ", a.Name(), " to ", b.Name())
	return nil
}

// Disconnect unwires two ports of owned nodes, see package-level
// Disconnect.
func (g *Graph) Disconnect(a, b Port) error {
	return Disconnect(a, b)
}

// Tick advances the whole graph by one block. Nodes execute concurrently
// in waves: all nodes whose dependencies are satisfied run in parallel,
// separated by a barrier from nodes that depend on their output. A
// well-formed acyclic graph ends the tick with every reachable node
// processed exactly once. A graph with an unsatisfiable dependency ends
// with some nodes unprocessed, this is a partial tick and not an error.
//
// Errors returned by node Process calls are collected and returned after
// the tick drains, failed nodes simply never enable their downstream.
func (g *Graph) Tick() error {
	_, err := g.tick(1)
	return err
}

// tick runs one scheduler pass. initialScans is only varied by regression
// tests, a single scan is the natural design.
func (g *Graph) tick(initialScans int) (int, error) {
	for _, n := range g.nodes {
		n.MarkProcessed(false)
	}

	queued := make(map[string]bool)
	var wave []Node
	for s := 0; s < initialScans; s++ {
		for _, n := range g.nodes {
			if !queued[n.ID()] && n.IsReadyToProcess() {
				queued[n.ID()] = true
				wave = append(wave, n)
			}
		}
	}
	if len(wave) == 0 {
		return 0, nil
	}

	jobs := make(chan Node)
	var wg sync.WaitGroup
	var errMutex sync.Mutex
	var errs execErrors
	for i := 0; i < g.workers; i++ {
		go func() {
			for n := range jobs {
				if err := n.Process(); err != nil {
					errMutex.Lock()
					errs = append(errs, fmt.Errorf("process %s: %w", n.Name(), err))
					errMutex.Unlock()
				}
				wg.Done()
			}
		}()
	}

	processed := 0
	waves := 0
	for len(wave) > 0 {
		waves++
		wg.Add(len(wave))
		for _, n := range wave {
			jobs <- n
		}
		wg.Wait()

		// The barrier passed, only subscribers of the just-produced
		// outputs can have become ready.
		var next []Node
		for _, n := range wave {
			if !n.Processed() {
				continue
			}
			processed++
			if g.metric != nil {
				g.metric.AddSamples(outputSamples(n))
			}
			for _, d := range downstream(n) {
				if !queued[d.ID()] && d.IsReadyToProcess() {
					queued[d.ID()] = true
					next = append(next, d)
				}
			}
		}
		wave = next
	}
	close(jobs)

	if g.metric != nil {
		g.metric.AddTick()
		g.metric.AddWaves(int64(waves))
		g.metric.AddNodes(int64(processed))
	}
	g.log.Debug("tick done: ", processed, " nodes in ", waves, " waves")
	return processed, errs.ret()
}

// Run repeatedly calls Tick until the graph makes no progress, the context
// is cancelled or a tick fails. When realTime is set, ticks are paced to
// the wall-clock duration of one block.
func (g *Graph) Run(ctx context.Context, realTime bool, sampleRate, blockSize int) error {
	var ticker *time.Ticker
	if realTime {
		ticker = time.NewTicker(signal.DurationOf(sampleRate, int64(blockSize)))
		defer ticker.Stop()
	}
	for {
		processed, err := g.tick(1)
		if err != nil {
			return err
		}
		if processed == 0 {
			return nil
		}
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}
}

// downstream lists nodes subscribed to any output of n.
func downstream(n Node) []Node {
	var nodes []Node
	seen := make(map[string]bool)
	for _, p := range n.Ports() {
		switch out := p.(type) {
		case *AudioOut:
			for _, in := range out.destinations {
				if in.node != nil && !seen[in.node.ID()] {
					seen[in.node.ID()] = true
					nodes = append(nodes, in.node)
				}
			}
		case *ControlOut:
			for _, in := range out.destinations {
				if in.node != nil && !seen[in.node.ID()] {
					seen[in.node.ID()] = true
					nodes = append(nodes, in.node)
				}
			}
		}
	}
	return nodes
}

// outputSamples sums block sizes over audio outputs of n.
func outputSamples(n Node) int64 {
	var samples int64
	for _, p := range n.Ports() {
		if out, ok := p.(*AudioOut); ok {
			samples += int64(out.BlockSize())
		}
	}
	return samples
}

// disconnectAll drops every edge touching the node's ports.
func disconnectAll(n Node) {
	for _, p := range n.Ports() {
		switch port := p.(type) {
		case *AudioOut:
			for len(port.destinations) > 0 {
				port.disconnect(port.destinations[0])
			}
		case *ControlOut:
			for len(port.destinations) > 0 {
				port.disconnect(port.destinations[0])
			}
		case *AudioIn:
			if port.out != nil {
				port.out.disconnect(port)
			}
		case *ReferenceIn:
			if port.out != nil {
				port.out.disconnect(&port.AudioIn)
			}
		case *ControlIn:
			if port.out != nil {
				port.out.disconnect(port)
			}
		}
	}
}
