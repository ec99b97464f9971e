// Package biquad implements a second-order recursive (IIR) filter node.
// It is the base building block for every frequency-shaping node: concrete
// flavors such as lowpass or shelving are plain coefficient calculators,
// see design.go.
package biquad

import (
	"math"

	"github.com/pipelined/graph"
	"github.com/pipelined/graph/signal"
)

// Coefficients holds the transfer function coefficients of a single
// second-order section. A0 is kept unnormalized, the recurrence divides
// by it.
type Coefficients struct {
	B0, B1, B2 float64
	A0, A1, A2 float64
}

// valid reports whether the denominator is usable.
func (c Coefficients) valid() bool {
	return c.A0 != 0 && !math.IsNaN(c.A0)
}

// Identity returns coefficients that reproduce the input exactly.
func Identity() Coefficients {
	return Coefficients{B0: 1, A0: 1}
}

// Filter is a biquad filter node with Direct Form I state.
//
// If the input is left unconnected, the filter emits zero blocks of the
// configured size instead of failing, so it never exhausts in that case.
type Filter struct {
	graph.Core
	in  *graph.AudioIn
	out *graph.AudioOut

	coefficients   Coefficients
	x1, x2, y1, y2 float64

	blockSize int
	block     signal.Float64
	finished  bool
}

// Option provides a way to set functional parameters to filter.
type Option func(f *Filter)

// WithBlockSize sets the block size emitted when the input is
// unconnected.
func WithBlockSize(blockSize int) Option {
	return func(f *Filter) {
		f.blockSize = blockSize
	}
}

// WithName sets the node name.
func WithName(name string) Option {
	return func(f *Filter) {
		f.Core = graph.NewCore(name)
	}
}

const defaultBlockSize = 512

// New returns a new filter with provided coefficients. It fails with
// ErrInvalidCoefficients if the denominator is degenerate.
func New(c Coefficients, options ...Option) (*Filter, error) {
	if !c.valid() {
		return nil, graph.ErrInvalidCoefficients
	}
	f := &Filter{
		Core:         graph.NewCore("biquad"),
		coefficients: c,
		blockSize:    defaultBlockSize,
	}
	for _, option := range options {
		option(f)
	}
	f.in = graph.NewAudioIn("in")
	f.out = graph.NewAudioOut("out")
	f.Bind(f, f.in, f.out)
	return f, nil
}

// In returns the audio input of the filter.
func (f *Filter) In() *graph.AudioIn { return f.in }

// Out returns the audio output of the filter.
func (f *Filter) Out() *graph.AudioOut { return f.out }

// Coefficients returns the current coefficients.
func (f *Filter) Coefficients() Coefficients { return f.coefficients }

// SetCoefficients replaces the coefficients and resets filter history.
// The change is abrupt, values are not interpolated between blocks. It
// fails with ErrInvalidCoefficients if the denominator is degenerate.
func (f *Filter) SetCoefficients(c Coefficients) error {
	if !c.valid() {
		return graph.ErrInvalidCoefficients
	}
	f.coefficients = c
	f.Reset()
	return nil
}

// Initialize implements graph.Node.
func (f *Filter) Initialize() {
	f.block = make(signal.Float64, 0, f.blockSize)
}

// Process filters one block. An unconnected input produces a zero block
// of the configured size.
func (f *Filter) Process() error {
	if !f.in.Connected() {
		f.out.PutBlock(signal.EmptyFloat64(f.blockSize))
		f.MarkProcessed(true)
		return nil
	}
	in := f.in.Data()
	if cap(f.block) < len(in) {
		f.block = make(signal.Float64, len(in))
	}
	out := f.block[:len(in)]
	c := f.coefficients
	for i, x := range in {
		y := (c.B0*x + c.B1*f.x1 + c.B2*f.x2 - c.A1*f.y1 - c.A2*f.y2) / c.A0
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		out[i] = y
	}
	f.out.PutBlock(out)
	if f.in.Finished() {
		f.finished = true
	}
	f.MarkProcessed(true)
	return nil
}

// Reset clears filter history.
func (f *Filter) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
	f.finished = false
}

// Clear implements graph.Node. The filter has no delay buffer, so it is
// the same as Reset.
func (f *Filter) Clear() {
	f.Reset()
}

// IsReadyToProcess returns true when the connected input is ready. An
// unconnected filter is always ready and emits silence.
func (f *Filter) IsReadyToProcess() bool {
	if f.Processed() {
		return false
	}
	if !f.in.Connected() {
		return true
	}
	return f.in.Ready()
}

// IsFinished returns true once the last upstream block was processed. An
// unconnected filter never finishes.
func (f *Filter) IsFinished() bool {
	return f.finished
}
