// Package mock provides simple nodes to test graph scheduling and
// concrete processing nodes.
package mock

import (
	"github.com/pipelined/graph"
	"github.com/pipelined/graph/signal"
)

// Source emits blocks of constant value or generated samples.
type Source struct {
	graph.Core
	out *graph.AudioOut

	// BufferSize is the size of emitted blocks.
	BufferSize int
	// Limit is the number of blocks to emit, 0 means unlimited.
	Limit int
	// Value fills emitted blocks when SignalFunc is not set.
	Value float64
	// SignalFunc generates a sample for absolute position i.
	SignalFunc func(i int) float64

	pos  int
	sent int
}

// NewSource returns a new source emitting blocks of provided size.
func NewSource(bufferSize int) *Source {
	s := &Source{
		Core:       graph.NewCore("mock.source"),
		out:        graph.NewAudioOut("out"),
		BufferSize: bufferSize,
	}
	s.Bind(s, s.out)
	return s
}

// Out returns the audio output of the source.
func (s *Source) Out() *graph.AudioOut { return s.out }

// Initialize implements graph.Node.
func (s *Source) Initialize() {}

// Process emits one block.
func (s *Source) Process() error {
	block := make(signal.Float64, s.BufferSize)
	for i := range block {
		if s.SignalFunc != nil {
			block[i] = s.SignalFunc(s.pos)
		} else {
			block[i] = s.Value
		}
		s.pos++
	}
	s.out.PutBlock(block)
	s.sent++
	s.MarkProcessed(true)
	return nil
}

// Reset rewinds the source to the beginning.
func (s *Source) Reset() {
	s.pos = 0
	s.sent = 0
}

// Clear implements graph.Node, the source holds no delayed content.
func (s *Source) Clear() {}

// IsReadyToProcess returns true until the block limit is reached.
func (s *Source) IsReadyToProcess() bool {
	return !s.Processed() && !s.exhausted()
}

// IsFinished returns true once the block limit is reached.
func (s *Source) IsFinished() bool {
	return s.exhausted()
}

func (s *Source) exhausted() bool {
	return s.Limit > 0 && s.sent >= s.Limit
}

// Processor applies Fn to every input block. With nil Fn blocks pass
// through unchanged.
type Processor struct {
	graph.Core
	in  *graph.AudioIn
	out *graph.AudioOut

	// Fn transforms an input block into an output block.
	Fn func(signal.Float64) signal.Float64
	// Err, if set, is returned by Process without producing a block.
	Err error
	// Counter is the number of performed Process calls.
	Counter int

	finished bool
}

// NewProcessor returns a new pass-through processor.
func NewProcessor() *Processor {
	p := &Processor{
		Core: graph.NewCore("mock.processor"),
		in:   graph.NewAudioIn("in"),
		out:  graph.NewAudioOut("out"),
	}
	p.Bind(p, p.in, p.out)
	return p
}

// In returns the audio input of the processor.
func (p *Processor) In() *graph.AudioIn { return p.in }

// Out returns the audio output of the processor.
func (p *Processor) Out() *graph.AudioOut { return p.out }

// Initialize implements graph.Node.
func (p *Processor) Initialize() {}

// Process transforms one block.
func (p *Processor) Process() error {
	if p.Err != nil {
		return p.Err
	}
	block := signal.Float64(nil).Append(p.in.Data())
	if p.Fn != nil {
		block = p.Fn(block)
	}
	p.out.PutBlock(block)
	p.Counter++
	if p.in.Finished() {
		p.finished = true
	}
	p.MarkProcessed(true)
	return nil
}

// Reset implements graph.Node.
func (p *Processor) Reset() {
	p.Counter = 0
	p.finished = false
}

// Clear implements graph.Node.
func (p *Processor) Clear() {}

// IsReadyToProcess requires a connected and ready input.
func (p *Processor) IsReadyToProcess() bool {
	return !p.Processed() && p.in.Connected() && p.in.Ready()
}

// IsFinished returns true once the last upstream block was processed.
func (p *Processor) IsFinished() bool {
	return p.finished
}

// Sink records all received blocks.
type Sink struct {
	graph.Core
	in *graph.AudioIn

	// Received keeps copies of all processed blocks.
	Received []signal.Float64
	// Counter is the number of performed Process calls.
	Counter int

	finished bool
}

// NewSink returns a new recording sink.
func NewSink() *Sink {
	s := &Sink{
		Core: graph.NewCore("mock.sink"),
		in:   graph.NewAudioIn("in"),
	}
	s.Bind(s, s.in)
	return s
}

// In returns the audio input of the sink.
func (s *Sink) In() *graph.AudioIn { return s.in }

// Initialize implements graph.Node.
func (s *Sink) Initialize() {}

// Process records one block.
func (s *Sink) Process() error {
	s.Received = append(s.Received, signal.Float64(nil).Append(s.in.Data()))
	s.Counter++
	if s.in.Finished() {
		s.finished = true
	}
	s.MarkProcessed(true)
	return nil
}

// Reset drops all recorded blocks.
func (s *Sink) Reset() {
	s.Received = nil
	s.Counter = 0
	s.finished = false
}

// Clear implements graph.Node.
func (s *Sink) Clear() {}

// IsReadyToProcess requires a connected and ready input.
func (s *Sink) IsReadyToProcess() bool {
	return !s.Processed() && s.in.Connected() && s.in.Ready()
}

// IsFinished returns true once the last upstream block was processed.
func (s *Sink) IsFinished() bool {
	return s.finished
}

// ControlSource emits the same block of control events every tick.
type ControlSource struct {
	graph.Core
	out *graph.ControlOut

	// Events is the block emitted on every tick.
	Events signal.Events
	// Limit is the number of blocks to emit, 0 means unlimited.
	Limit int

	sent int
}

// NewControlSource returns a new control event source.
func NewControlSource(events signal.Events) *ControlSource {
	s := &ControlSource{
		Core:   graph.NewCore("mock.controlsource"),
		out:    graph.NewControlOut("out"),
		Events: events,
	}
	s.Bind(s, s.out)
	return s
}

// Out returns the control output of the source.
func (s *ControlSource) Out() *graph.ControlOut { return s.out }

// Initialize implements graph.Node.
func (s *ControlSource) Initialize() {}

// Process emits one block of events.
func (s *ControlSource) Process() error {
	s.out.PutBlock(s.Events)
	s.sent++
	s.MarkProcessed(true)
	return nil
}

// Reset rewinds the source.
func (s *ControlSource) Reset() { s.sent = 0 }

// Clear implements graph.Node.
func (s *ControlSource) Clear() {}

// IsReadyToProcess returns true until the block limit is reached.
func (s *ControlSource) IsReadyToProcess() bool {
	return !s.Processed() && !(s.Limit > 0 && s.sent >= s.Limit)
}

// IsFinished returns true once the block limit is reached.
func (s *ControlSource) IsFinished() bool {
	return s.Limit > 0 && s.sent >= s.Limit
}

// ControlSink records all received event blocks.
type ControlSink struct {
	graph.Core
	in *graph.ControlIn

	// Received keeps copies of all processed blocks.
	Received []signal.Events

	finished bool
}

// NewControlSink returns a new control event sink.
func NewControlSink() *ControlSink {
	s := &ControlSink{
		Core: graph.NewCore("mock.controlsink"),
		in:   graph.NewControlIn("in"),
	}
	s.Bind(s, s.in)
	return s
}

// In returns the control input of the sink.
func (s *ControlSink) In() *graph.ControlIn { return s.in }

// Initialize implements graph.Node.
func (s *ControlSink) Initialize() {}

// Process records one block of events.
func (s *ControlSink) Process() error {
	s.Received = append(s.Received, signal.Events(nil).Append(s.in.Events()))
	if s.in.Finished() {
		s.finished = true
	}
	s.MarkProcessed(true)
	return nil
}

// Reset drops all recorded blocks.
func (s *ControlSink) Reset() {
	s.Received = nil
	s.finished = false
}

// Clear implements graph.Node.
func (s *ControlSink) Clear() {}

// IsReadyToProcess requires a connected and ready input.
func (s *ControlSink) IsReadyToProcess() bool {
	return !s.Processed() && s.in.Connected() && s.in.Ready()
}

// IsFinished returns true once the last upstream block was processed.
func (s *ControlSink) IsFinished() bool {
	return s.finished
}
