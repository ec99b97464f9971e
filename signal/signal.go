// Package signal provides block types carried by graph ports and
// conversions between them and go-audio buffers.
package signal

import (
	"math"
	"time"

	"github.com/go-audio/audio"
)

// Float64 is a single block of float64 samples.
type Float64 []float64

// Event is a single discrete control event, e.g. a MIDI message.
type Event []byte

// Events is a block of control events.
type Events []Event

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// devider is used when int to float conversion is done.
func (bitDepth BitDepth) devider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// EmptyFloat64 returns a zero block of specified size.
func EmptyFloat64(blockSize int) Float64 {
	return make(Float64, blockSize)
}

// Size returns number of samples in the block.
func (floats Float64) Size() int {
	return len(floats)
}

// Append adds the source block to the end of existing one.
// A new block is returned if floats is nil.
func (floats Float64) Append(source Float64) Float64 {
	if floats == nil {
		floats = make(Float64, 0, source.Size())
	}
	return append(floats, source...)
}

// Slice creates a new copy of the block from start position with defined
// length. If the block doesn't have enough samples, a shorten block is
// returned.
//
// If start >= block size or start < 0, nil is returned.
func (floats Float64) Slice(start int, len int) Float64 {
	if floats == nil || start >= floats.Size() || start < 0 {
		return nil
	}
	end := start + len
	if end > floats.Size() {
		end = floats.Size()
	}
	result := make(Float64, 0, end-start)
	return append(result, floats[start:end]...)
}

// AsFloatBuffer returns the block as a mono go-audio float buffer.
func (floats Float64) AsFloatBuffer(sampleRate int) *audio.FloatBuffer {
	if floats == nil {
		return nil
	}
	buf := &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data: make([]float64, len(floats)),
	}
	copy(buf.Data, floats)
	return buf
}

// Float64FromInts converts interleaved ints to a mono block. Channels are
// averaged into a single one, sample values are scaled down by bit depth.
func Float64FromInts(ints []int, numChannels int, bitDepth BitDepth) Float64 {
	if ints == nil || numChannels == 0 {
		return nil
	}
	devider := float64(bitDepth.devider())
	size := int(math.Ceil(float64(len(ints)) / float64(numChannels)))
	floats := make(Float64, size)
	for i := 0; i < size; i++ {
		var sum float64
		var n float64
		for c := 0; c < numChannels; c++ {
			pos := i*numChannels + c
			if pos >= len(ints) {
				break
			}
			sum += float64(ints[pos])
			n++
		}
		if n > 0 {
			floats[i] = sum / n / devider
		}
	}
	return floats
}

// AsInts converts the block to ints, scaled up by bit depth.
func (floats Float64) AsInts(bitDepth BitDepth) []int {
	if floats == nil {
		return nil
	}
	multiplier := float64(bitDepth.multiplier())
	ints := make([]int, len(floats))
	for i := range floats {
		ints[i] = int(floats[i] * multiplier)
	}
	return ints
}

// Size returns number of events in the block.
func (events Events) Size() int {
	return len(events)
}

// Append adds the source events to the end of existing block.
func (events Events) Append(source Events) Events {
	if events == nil {
		events = make(Events, 0, source.Size())
	}
	return append(events, source...)
}
