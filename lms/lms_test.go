package lms_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/graph"
	"github.com/pipelined/graph/lms"
	"github.com/pipelined/graph/mock"
	"github.com/pipelined/graph/signal"
)

func TestInvalidParameters(t *testing.T) {
	_, err := lms.New(0, 0.01)
	assert.NotNil(t, err)
	_, err = lms.New(8, 0)
	assert.NotNil(t, err)
	_, err = lms.New(8, -1)
	assert.NotNil(t, err)
}

// With the reference equal to the primary the filter learns to predict it
// and the error vanishes.
func TestConvergence(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	source := mock.NewSource(64)
	source.Limit = 200
	source.SignalFunc = func(i int) float64 {
		return math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
	}
	f, err := lms.New(8, 0.01)
	assert.Nil(t, err)
	sink := mock.NewSink()

	g.Add(source)
	g.Add(f)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), f.In()))
	assert.Nil(t, g.Connect(source.Out(), f.Ref()))
	assert.Nil(t, g.Connect(f.Out(), sink.In()))

	for {
		err = g.Tick()
		assert.Nil(t, err)
		if source.IsFinished() {
			break
		}
	}
	assert.Equal(t, 200, len(sink.Received))

	early := meanAbs(sink.Received[:10])
	late := meanAbs(sink.Received[190:])
	assert.True(t, late < early/100, "late error %f, early error %f", late, early)
}

// An absurd step size must degrade gracefully: gradient clipping and the
// NaN guard keep every coefficient finite.
func TestStability(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	primary := mock.NewSource(64)
	primary.Limit = 1000
	primary.SignalFunc = func(i int) float64 {
		return math.Sin(2 * math.Pi * 997 * float64(i) / 44100)
	}
	reference := mock.NewSource(64)
	reference.Limit = 1000
	reference.SignalFunc = func(i int) float64 {
		return math.Sin(2 * math.Pi * 1333 * float64(i) / 44100)
	}
	f, err := lms.New(8, 1.0)
	assert.Nil(t, err)

	g.Add(primary)
	g.Add(reference)
	g.Add(f)
	assert.Nil(t, g.Connect(primary.Out(), f.In()))
	assert.Nil(t, g.Connect(reference.Out(), f.Ref()))

	for i := 0; i < 1000; i++ {
		assert.Nil(t, g.Tick())
	}
	for i, c := range f.Coefficients() {
		assert.False(t, math.IsNaN(c), "coefficient %d is NaN", i)
	}
}

func TestBlockSizeMismatch(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	primary := mock.NewSource(512)
	reference := mock.NewSource(256)
	f, err := lms.New(8, 0.01)
	assert.Nil(t, err)

	g.Add(primary)
	g.Add(reference)
	g.Add(f)
	assert.Nil(t, g.Connect(primary.Out(), f.In()))
	assert.Nil(t, g.Connect(reference.Out(), f.Ref()))

	err = g.Tick()
	assert.True(t, errors.Is(err, graph.ErrBlockSizeMismatch))
	assert.False(t, f.Processed())
}

func TestPassThrough(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	source := mock.NewSource(8)
	source.Value = 0.4
	source.Limit = 1
	f, err := lms.New(8, 0.01)
	assert.Nil(t, err)
	sink := mock.NewSink()

	g.Add(source)
	g.Add(f)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), f.In()))
	assert.Nil(t, g.Connect(f.Out(), sink.In()))

	assert.Nil(t, g.Tick())
	assert.Equal(t, signal.Float64{0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4}, sink.Received[0])
	// learned nothing, the filter only forwarded the primary
	for _, c := range f.Coefficients() {
		assert.Equal(t, 0.0, c)
	}
}

func TestZeroFillWithoutPrimary(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	reference := mock.NewSource(16)
	reference.Value = 0.8
	reference.Limit = 1
	f, err := lms.New(8, 0.01)
	assert.Nil(t, err)
	sink := mock.NewSink()

	g.Add(reference)
	g.Add(f)
	g.Add(sink)
	assert.Nil(t, g.Connect(reference.Out(), f.Ref()))
	assert.Nil(t, g.Connect(f.Out(), sink.In()))

	assert.Nil(t, g.Tick())
	assert.Equal(t, signal.EmptyFloat64(16), sink.Received[0])
}

func TestBothUnconnected(t *testing.T) {
	f, err := lms.New(8, 0.01, lms.WithBlockSize(32))
	assert.Nil(t, err)
	f.Initialize()

	assert.True(t, f.IsReadyToProcess())
	assert.Nil(t, f.Process())
	assert.Equal(t, 32, f.Out().BlockSize())
	assert.False(t, f.IsFinished())
}

func TestResetAndClear(t *testing.T) {
	f, err := lms.New(4, 0.1)
	assert.Nil(t, err)
	f.Initialize()

	primary := mock.NewSource(32)
	primary.Value = 0.5
	reference := mock.NewSource(32)
	reference.Value = 0.5
	assert.Nil(t, graph.Connect(primary.Out(), f.In()))
	assert.Nil(t, graph.Connect(reference.Out(), f.Ref()))
	assert.Nil(t, primary.Process())
	assert.Nil(t, reference.Process())
	assert.Nil(t, f.Process())

	adapted := f.Coefficients()
	assert.NotEqual(t, 0.0, adapted[0])

	// Clear drops the delay line but keeps learned coefficients
	f.Clear()
	assert.Equal(t, adapted, f.Coefficients())

	// Reset drops everything
	f.Reset()
	for _, c := range f.Coefficients() {
		assert.Equal(t, 0.0, c)
	}
}

func meanAbs(blocks []signal.Float64) float64 {
	var sum float64
	var n int
	for _, block := range blocks {
		for _, sample := range block {
			sum += math.Abs(sample)
			n++
		}
	}
	return sum / float64(n)
}
