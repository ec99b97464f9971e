package graph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/pipelined/graph"
	"github.com/pipelined/graph/lms"
	"github.com/pipelined/graph/metric"
	"github.com/pipelined/graph/mock"
	"github.com/pipelined/graph/signal"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTickChain(t *testing.T) {
	g, err := graph.New(graph.WithWorkers(2))
	assert.Nil(t, err)

	source := mock.NewSource(16)
	source.Value = 1
	source.Limit = 3
	processor := mock.NewProcessor()
	processor.Fn = func(block signal.Float64) signal.Float64 {
		for i := range block {
			block[i] *= 0.5
		}
		return block
	}
	sink := mock.NewSink()
	g.Add(source)
	g.Add(processor)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), processor.In()))
	assert.Nil(t, g.Connect(processor.Out(), sink.In()))

	for i := 0; i < 3; i++ {
		assert.Nil(t, g.Tick())
	}
	// the graph is exhausted, one more tick makes no progress
	assert.Nil(t, g.Tick())

	assert.Equal(t, 3, processor.Counter)
	assert.Equal(t, 3, sink.Counter)
	for _, block := range sink.Received {
		assert.Equal(t, 16, block.Size())
		for _, sample := range block {
			assert.Equal(t, 0.5, sample)
		}
	}
	assert.True(t, source.IsFinished())
	assert.True(t, processor.IsFinished())
	assert.True(t, sink.IsFinished())
}

// Diamond topology: one source fans out to two processors which join into
// an adaptive filter through its primary and reference inputs.
func TestTickDiamond(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	source := mock.NewSource(8)
	source.Value = 0.1
	source.Limit = 1
	left := mock.NewProcessor()
	right := mock.NewProcessor()
	join, err := lms.New(4, 0.01)
	assert.Nil(t, err)
	sink := mock.NewSink()

	g.Add(source)
	g.Add(left)
	g.Add(right)
	g.Add(join)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), left.In()))
	assert.Nil(t, g.Connect(source.Out(), right.In()))
	assert.Nil(t, g.Connect(left.Out(), join.In()))
	assert.Nil(t, g.Connect(right.Out(), join.Ref()))
	assert.Nil(t, g.Connect(join.Out(), sink.In()))

	assert.Nil(t, g.Tick())

	// every reachable node processed exactly once
	assert.Equal(t, 1, left.Counter)
	assert.Equal(t, 1, right.Counter)
	assert.Equal(t, 1, sink.Counter)
	assert.Equal(t, 8, sink.Received[0].Size())
}

// An unconnected reference port must not block readiness.
func TestTickUnconnectedReference(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	source := mock.NewSource(8)
	source.Value = 0.25
	source.Limit = 1
	f, err := lms.New(4, 0.01)
	assert.Nil(t, err)
	sink := mock.NewSink()

	g.Add(source)
	g.Add(f)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), f.In()))
	assert.Nil(t, g.Connect(f.Out(), sink.In()))

	assert.Nil(t, g.Tick())

	// with an unconnected reference the filter passes through
	assert.Equal(t, 1, sink.Counter)
	assert.Equal(t, signal.Float64{0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25}, sink.Received[0])
}

// A true cycle yields a partial tick, not an error.
func TestTickCycleStalls(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	a := mock.NewProcessor()
	b := mock.NewProcessor()
	g.Add(a)
	g.Add(b)
	assert.Nil(t, g.Connect(a.Out(), b.In()))
	assert.Nil(t, g.Connect(b.Out(), a.In()))

	assert.Nil(t, g.Tick())
	assert.Equal(t, 0, a.Counter)
	assert.Equal(t, 0, b.Counter)
}

func TestTickProcessError(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	broken := errors.New("something went wrong")
	source := mock.NewSource(8)
	source.Limit = 1
	processor := mock.NewProcessor()
	processor.Err = broken
	sink := mock.NewSink()
	g.Add(source)
	g.Add(processor)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), processor.In()))
	assert.Nil(t, g.Connect(processor.Out(), sink.In()))

	err = g.Tick()
	assert.True(t, errors.Is(err, broken))
	// the failed node never enabled its downstream
	assert.Equal(t, 0, sink.Counter)
}

func TestRemove(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	source := mock.NewSource(8)
	sink := mock.NewSink()
	h := g.Add(source)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), sink.In()))
	assert.NotNil(t, g.Node(h))

	g.Remove(h)
	assert.Nil(t, g.Node(h))
	assert.False(t, sink.In().Connected())

	// nothing left to process
	assert.Nil(t, g.Tick())
	assert.Equal(t, 0, sink.Counter)
}

func TestRunFreeRunning(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	source := mock.NewSource(64)
	source.Limit = 5
	sink := mock.NewSink()
	g.Add(source)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), sink.In()))

	err = g.Run(context.Background(), false, 44100, 64)
	assert.Nil(t, err)
	assert.Equal(t, 5, sink.Counter)
}

func TestRunRealTimeCancel(t *testing.T) {
	g, err := graph.New()
	assert.Nil(t, err)

	source := mock.NewSource(64)
	sink := mock.NewSink()
	g.Add(source)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), sink.In()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = g.Run(ctx, true, 44100, 64)
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.True(t, sink.Counter > 0)
}

func TestMetric(t *testing.T) {
	m := metric.New()
	g, err := graph.New(graph.WithMetric(m))
	assert.Nil(t, err)

	source := mock.NewSource(32)
	source.Limit = 2
	sink := mock.NewSink()
	g.Add(source)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), sink.In()))

	assert.Nil(t, g.Tick())
	assert.Equal(t, int64(1), m.Ticks())
	assert.Equal(t, int64(2), m.Waves())
	assert.Equal(t, int64(2), m.Nodes())
	assert.Equal(t, int64(32), m.Samples())
}

// sideChainGraph builds a compressor-like topology: the source fans out
// into the processed path and a side-chain tap feeding the reference.
func sideChainGraph(t *testing.T) (*graph.Graph, *mock.Sink) {
	g, err := graph.New()
	assert.Nil(t, err)

	source := mock.NewSource(16)
	source.Limit = 4
	source.SignalFunc = func(i int) float64 {
		return float64(i%7) / 7
	}
	tap := mock.NewProcessor()
	f, err := lms.New(4, 0.01)
	assert.Nil(t, err)
	sink := mock.NewSink()

	g.Add(source)
	g.Add(tap)
	g.Add(f)
	g.Add(sink)
	assert.Nil(t, g.Connect(source.Out(), f.In()))
	assert.Nil(t, g.Connect(source.Out(), tap.In()))
	assert.Nil(t, g.Connect(tap.Out(), f.Ref()))
	assert.Nil(t, g.Connect(f.Out(), sink.In()))
	return g, sink
}

// A second initial ready scan must not change the outcome on graphs with
// side-chain taps.
func TestInitialScanRegression(t *testing.T) {
	single, singleSink := sideChainGraph(t)
	double, doubleSink := sideChainGraph(t)

	for {
		processedSingle, err := single.TickScans(1)
		assert.Nil(t, err)
		processedDouble, err := double.TickScans(2)
		assert.Nil(t, err)
		assert.Equal(t, processedSingle, processedDouble)
		if processedSingle == 0 {
			break
		}
	}
	assert.Equal(t, singleSink.Received, doubleSink.Received)
	assert.Equal(t, 4, singleSink.Counter)
}
