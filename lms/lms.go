// Package lms implements a normalized least-mean-squares adaptive filter
// node. The filter estimates the primary signal from the reference
// side-chain and outputs the estimation error, which makes it usable for
// echo and noise cancellation. Adaptation is guarded against divergence by
// gradient clipping and a NaN reset, aggressive step sizes may degrade the
// result but never halt processing.
package lms

import (
	"fmt"
	"math"

	"github.com/pipelined/graph"
	"github.com/pipelined/graph/signal"
)

const (
	defaultBlockSize = 512

	// maxUpdate bounds the magnitude of a single coefficient update.
	maxUpdate = 0.1
)

// Filter is an adaptive filter node.
//
// Input policies: with an unconnected reference the primary input passes
// through unchanged, with an unconnected primary the output is silence,
// adaptation only runs when both are connected.
type Filter struct {
	graph.Core
	in  *graph.AudioIn
	ref *graph.ReferenceIn
	out *graph.AudioOut

	step         float64
	coefficients []float64
	delay        []float64

	blockSize int
	block     signal.Float64
	finished  bool
}

// Option provides a way to set functional parameters to filter.
type Option func(f *Filter)

// WithBlockSize sets the block size emitted when both inputs are
// unconnected.
func WithBlockSize(blockSize int) Option {
	return func(f *Filter) {
		f.blockSize = blockSize
	}
}

// New returns a new adaptive filter of provided length and step size.
func New(length int, step float64, options ...Option) (*Filter, error) {
	if length < 1 {
		return nil, fmt.Errorf("invalid filter length: %d", length)
	}
	if step <= 0 {
		return nil, fmt.Errorf("invalid step size: %f", step)
	}
	f := &Filter{
		Core:      graph.NewCore("lms"),
		step:      step,
		blockSize: defaultBlockSize,
	}
	for _, option := range options {
		option(f)
	}
	f.coefficients = make([]float64, length)
	f.delay = make([]float64, length)
	f.in = graph.NewAudioIn("in")
	f.ref = graph.NewReferenceIn("reference")
	f.out = graph.NewAudioOut("out")
	f.Bind(f, f.in, f.ref, f.out)
	return f, nil
}

// In returns the primary audio input of the filter.
func (f *Filter) In() *graph.AudioIn { return f.in }

// Ref returns the reference input of the filter.
func (f *Filter) Ref() *graph.ReferenceIn { return f.ref }

// Out returns the audio output of the filter.
func (f *Filter) Out() *graph.AudioOut { return f.out }

// Coefficients returns a copy of the current coefficient vector.
func (f *Filter) Coefficients() []float64 {
	c := make([]float64, len(f.coefficients))
	copy(c, f.coefficients)
	return c
}

// Initialize implements graph.Node.
func (f *Filter) Initialize() {
	f.block = make(signal.Float64, 0, f.blockSize)
}

// Process produces one block. It fails with ErrBlockSizeMismatch if the
// primary and reference blocks have different lengths.
func (f *Filter) Process() error {
	switch {
	case !f.in.Connected() && !f.ref.Connected():
		f.out.PutBlock(signal.EmptyFloat64(f.blockSize))
		f.MarkProcessed(true)
		return nil
	case !f.ref.Connected():
		f.out.PutBlock(signal.Float64(nil).Append(f.in.Data()))
		f.latchFinished()
		f.MarkProcessed(true)
		return nil
	case !f.in.Connected():
		f.out.PutBlock(signal.EmptyFloat64(f.ref.BlockSize()))
		f.latchFinished()
		f.MarkProcessed(true)
		return nil
	}

	primary := f.in.Data()
	reference := f.ref.Data()
	if len(primary) != len(reference) {
		return fmt.Errorf("primary block %d, reference block %d: %w",
			len(primary), len(reference), graph.ErrBlockSizeMismatch)
	}

	if cap(f.block) < len(primary) {
		f.block = make(signal.Float64, len(primary))
	}
	out := f.block[:len(primary)]
	for i := range primary {
		out[i] = f.adapt(primary[i], reference[i])
	}
	f.out.PutBlock(out)
	f.latchFinished()
	f.MarkProcessed(true)
	return nil
}

// adapt performs a single normalized update step and returns the
// estimation error.
func (f *Filter) adapt(d, r float64) float64 {
	copy(f.delay[1:], f.delay[:len(f.delay)-1])
	f.delay[0] = r

	var y float64
	for i := range f.coefficients {
		y += f.coefficients[i] * f.delay[i]
	}
	e := d - y

	var norm float64
	for i := range f.delay {
		norm += f.delay[i] * f.delay[i]
	}
	if norm == 0 {
		norm = 1
	}

	for i := range f.coefficients {
		update := f.step * e * f.delay[i] / norm
		if update > maxUpdate {
			update = maxUpdate
		} else if update < -maxUpdate {
			update = -maxUpdate
		}
		f.coefficients[i] += update
		if math.IsNaN(f.coefficients[i]) {
			f.coefficients[i] = 0
		}
	}
	return e
}

// Reset clears coefficients and the delay line.
func (f *Filter) Reset() {
	for i := range f.coefficients {
		f.coefficients[i] = 0
	}
	f.Clear()
	f.finished = false
}

// Clear clears the delay line only, learned coefficients are kept.
func (f *Filter) Clear() {
	for i := range f.delay {
		f.delay[i] = 0
	}
}

// IsReadyToProcess returns true when every connected input is ready.
// Unconnected inputs don't block readiness, see the type doc for the
// policies.
func (f *Filter) IsReadyToProcess() bool {
	if f.Processed() {
		return false
	}
	if f.in.Connected() && !f.in.Ready() {
		return false
	}
	if f.ref.Connected() && !f.ref.Ready() {
		return false
	}
	return true
}

// IsFinished returns true once the last block of every connected input was
// processed. A filter with both inputs unconnected never finishes.
func (f *Filter) IsFinished() bool {
	return f.finished
}

func (f *Filter) latchFinished() {
	if f.in.Connected() && !f.in.Finished() {
		return
	}
	if f.ref.Connected() && !f.ref.Finished() {
		return
	}
	if f.in.Connected() || f.ref.Connected() {
		f.finished = true
	}
}
