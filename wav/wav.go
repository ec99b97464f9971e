// Package wav provides file source and sink nodes. They are ordinary
// nodes satisfying the graph contract, kept outside the engine core.
package wav

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pipelined/graph"
	"github.com/pipelined/graph/signal"
)

// Source reads blocks from a wav file. Multichannel files are mixed down
// to a single channel. The source finishes once the file is drained, the
// last block may be shorter than the configured size.
type Source struct {
	graph.Core
	out *graph.AudioOut

	path        string
	bufferSize  int
	numChannels int
	bitDepth    int
	sampleRate  int

	file    *os.File
	decoder *wav.Decoder
	intBuf  *audio.IntBuffer
	eof     bool
}

// NewSource opens a wav file and returns a source reading it block by
// block.
func NewSource(path string, bufferSize int) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}
	s := &Source{
		Core:        graph.NewCore("wav.source"),
		out:         graph.NewAudioOut("out"),
		path:        path,
		bufferSize:  bufferSize,
		numChannels: decoder.Format().NumChannels,
		bitDepth:    int(decoder.BitDepth),
		sampleRate:  int(decoder.SampleRate),
		file:        file,
		decoder:     decoder,
	}
	s.Bind(s, s.out)
	return s, nil
}

// Out returns the audio output of the source.
func (s *Source) Out() *graph.AudioOut { return s.out }

// SampleRate returns the sample rate of the file.
func (s *Source) SampleRate() int { return s.sampleRate }

// NumChannels returns the number of channels in the file.
func (s *Source) NumChannels() int { return s.numChannels }

// Initialize implements graph.Node.
func (s *Source) Initialize() {
	s.intBuf = &audio.IntBuffer{
		Format:         s.decoder.Format(),
		Data:           make([]int, s.bufferSize*s.numChannels),
		SourceBitDepth: s.bitDepth,
	}
}

// Process reads one block from the file.
func (s *Source) Process() error {
	read, err := s.decoder.PCMBuffer(s.intBuf)
	if err != nil {
		return err
	}
	if read < len(s.intBuf.Data) {
		s.eof = true
	}
	block := signal.Float64FromInts(s.intBuf.Data[:read], s.numChannels, signal.BitDepth(s.bitDepth))
	if block == nil {
		block = signal.Float64{}
	}
	s.out.PutBlock(block)
	s.MarkProcessed(true)
	return nil
}

// Reset implements graph.Node, the file position is not rewound.
func (s *Source) Reset() {}

// Clear implements graph.Node.
func (s *Source) Clear() {}

// IsReadyToProcess returns true until the file is drained.
func (s *Source) IsReadyToProcess() bool {
	return !s.Processed() && !s.eof
}

// IsFinished returns true once the file is drained.
func (s *Source) IsFinished() bool {
	return s.eof
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.file.Close()
}

// Sink writes received blocks to a wav file. Close must be called after
// the graph drained to flush the encoder.
type Sink struct {
	graph.Core
	in *graph.AudioIn

	file     *os.File
	encoder  *wav.Encoder
	bitDepth int
	finished bool
}

// NewSink creates a wav file and returns a sink writing to it.
func NewSink(path string, sampleRate, bitDepth int) (*Sink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := &Sink{
		Core:     graph.NewCore("wav.sink"),
		in:       graph.NewAudioIn("in"),
		file:     file,
		encoder:  wav.NewEncoder(file, sampleRate, bitDepth, 1, 1),
		bitDepth: bitDepth,
	}
	s.Bind(s, s.in)
	return s, nil
}

// In returns the audio input of the sink.
func (s *Sink) In() *graph.AudioIn { return s.in }

// Initialize implements graph.Node.
func (s *Sink) Initialize() {}

// Process writes one block to the file.
func (s *Sink) Process() error {
	block := s.in.Data()
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  s.encoder.SampleRate,
		},
		SourceBitDepth: s.bitDepth,
		Data:           block.AsInts(signal.BitDepth(s.bitDepth)),
	}
	if err := s.encoder.Write(buf); err != nil {
		return err
	}
	if s.in.Finished() {
		s.finished = true
	}
	s.MarkProcessed(true)
	return nil
}

// Reset implements graph.Node.
func (s *Sink) Reset() {
	s.finished = false
}

// Clear implements graph.Node.
func (s *Sink) Clear() {}

// IsReadyToProcess requires a connected and ready input.
func (s *Sink) IsReadyToProcess() bool {
	return !s.Processed() && s.in.Connected() && s.in.Ready()
}

// IsFinished returns true once the last upstream block was written.
func (s *Sink) IsFinished() bool {
	return s.finished
}

// Close flushes the encoder and closes the file.
func (s *Sink) Close() error {
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
