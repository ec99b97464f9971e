package graph

import (
	"github.com/pipelined/graph/signal"
)

// Port is a named, typed connection endpoint. Every port is owned by
// exactly one node and lives as long as the owning node. The set of port
// types is closed: audio and control outputs, audio and control inputs and
// the reference (side-chain) variant of an audio input.
type Port interface {
	Name() string
	bind(Node)
}

type (
	// AudioOut is an audio output port. It owns the block produced by the
	// owning node and may fan out to any number of audio inputs.
	AudioOut struct {
		name         string
		node         Node
		data         signal.Float64
		blockSize    int
		destinations []*AudioIn
	}

	// AudioIn is an audio input port. It holds a back-reference to at
	// most one connected output and delegates all reads to it.
	AudioIn struct {
		name string
		node Node
		out  *AudioOut
	}

	// ReferenceIn is a side-chain variant of an audio input, used for
	// auxiliary signals such as detector taps. Nodes may legally leave it
	// unconnected.
	ReferenceIn struct {
		AudioIn
	}

	// ControlOut is a control output port carrying a block of discrete
	// events.
	ControlOut struct {
		name         string
		node         Node
		events       signal.Events
		blockSize    int
		destinations []*ControlIn
	}

	// ControlIn is a control input port.
	ControlIn struct {
		name string
		node Node
		out  *ControlOut
	}
)

// NewAudioOut returns a new audio output port.
func NewAudioOut(name string) *AudioOut {
	return &AudioOut{name: name}
}

// NewAudioIn returns a new audio input port.
func NewAudioIn(name string) *AudioIn {
	return &AudioIn{name: name}
}

// NewReferenceIn returns a new reference input port.
func NewReferenceIn(name string) *ReferenceIn {
	return &ReferenceIn{AudioIn{name: name}}
}

// NewControlOut returns a new control output port.
func NewControlOut(name string) *ControlOut {
	return &ControlOut{name: name}
}

// NewControlIn returns a new control input port.
func NewControlIn(name string) *ControlIn {
	return &ControlIn{name: name}
}

// Name returns the port name.
func (out *AudioOut) Name() string { return out.name }

func (out *AudioOut) bind(n Node) { out.node = n }

// PutBlock overwrites the port data with a new block.
func (out *AudioOut) PutBlock(data signal.Float64) {
	out.data = data
	out.blockSize = data.Size()
}

// Data returns the current block.
func (out *AudioOut) Data() signal.Float64 { return out.data }

// BlockSize returns size of the current block.
func (out *AudioOut) BlockSize() int { return out.blockSize }

// Connected returns true if the output has at least one subscriber.
func (out *AudioOut) Connected() bool { return len(out.destinations) > 0 }

// Destinations returns the number of subscribed inputs.
func (out *AudioOut) Destinations() int { return len(out.destinations) }

func (out *AudioOut) connect(in *AudioIn) error {
	if in.out != nil {
		return ErrConnectionConflict
	}
	in.out = out
	out.destinations = append(out.destinations, in)
	return nil
}

func (out *AudioOut) disconnect(in *AudioIn) {
	if in.out != out {
		return
	}
	in.out = nil
	for i := range out.destinations {
		if out.destinations[i] == in {
			out.destinations = append(out.destinations[:i], out.destinations[i+1:]...)
			return
		}
	}
}

// Name returns the port name.
func (in *AudioIn) Name() string { return in.name }

func (in *AudioIn) bind(n Node) { in.node = n }

// Connected returns true if an output is connected to this input.
func (in *AudioIn) Connected() bool { return in.out != nil }

// Ready returns true if the upstream node has produced this tick's block.
// An unconnected input is never ready.
func (in *AudioIn) Ready() bool {
	return in.out != nil && in.out.node.Processed()
}

// Finished returns true if the upstream node is finished.
func (in *AudioIn) Finished() bool {
	return in.out != nil && in.out.node.IsFinished()
}

// Data returns the block of the connected output, nil if unconnected.
func (in *AudioIn) Data() signal.Float64 {
	if in.out == nil {
		return nil
	}
	return in.out.data
}

// BlockSize returns block size of the connected output, 0 if unconnected.
func (in *AudioIn) BlockSize() int {
	if in.out == nil {
		return 0
	}
	return in.out.blockSize
}

// Name returns the port name.
func (out *ControlOut) Name() string { return out.name }

func (out *ControlOut) bind(n Node) { out.node = n }

// PutBlock overwrites the port events with a new block.
func (out *ControlOut) PutBlock(events signal.Events) {
	out.events = events
	out.blockSize = events.Size()
}

// Events returns the current block of events.
func (out *ControlOut) Events() signal.Events { return out.events }

// BlockSize returns size of the current block.
func (out *ControlOut) BlockSize() int { return out.blockSize }

// Connected returns true if the output has at least one subscriber.
func (out *ControlOut) Connected() bool { return len(out.destinations) > 0 }

// Destinations returns the number of subscribed inputs.
func (out *ControlOut) Destinations() int { return len(out.destinations) }

func (out *ControlOut) connect(in *ControlIn) error {
	if in.out != nil {
		return ErrConnectionConflict
	}
	in.out = out
	out.destinations = append(out.destinations, in)
	return nil
}

func (out *ControlOut) disconnect(in *ControlIn) {
	if in.out != out {
		return
	}
	in.out = nil
	for i := range out.destinations {
		if out.destinations[i] == in {
			out.destinations = append(out.destinations[:i], out.destinations[i+1:]...)
			return
		}
	}
}

// Name returns the port name.
func (in *ControlIn) Name() string { return in.name }

func (in *ControlIn) bind(n Node) { in.node = n }

// Connected returns true if an output is connected to this input.
func (in *ControlIn) Connected() bool { return in.out != nil }

// Ready returns true if the upstream node has produced this tick's block.
func (in *ControlIn) Ready() bool {
	return in.out != nil && in.out.node.Processed()
}

// Finished returns true if the upstream node is finished.
func (in *ControlIn) Finished() bool {
	return in.out != nil && in.out.node.IsFinished()
}

// Events returns the block of the connected output, nil if unconnected.
func (in *ControlIn) Events() signal.Events {
	if in.out == nil {
		return nil
	}
	return in.out.events
}

// BlockSize returns block size of the connected output, 0 if unconnected.
func (in *ControlIn) BlockSize() int {
	if in.out == nil {
		return 0
	}
	return in.out.blockSize
}

// Connect wires two ports together. The arguments may come in any order:
// the valid directed pairings are audio output to audio or reference input
// and control output to control input. Any other pairing returns
// ErrInvalidConnection. Connecting to an input that already has an output
// returns ErrConnectionConflict and leaves both ports untouched.
func Connect(a, b Port) error {
	switch out := a.(type) {
	case *AudioOut:
		switch in := b.(type) {
		case *AudioIn:
			return out.connect(in)
		case *ReferenceIn:
			return out.connect(&in.AudioIn)
		}
	case *ControlOut:
		if in, ok := b.(*ControlIn); ok {
			return out.connect(in)
		}
	case *AudioIn, *ReferenceIn, *ControlIn:
		switch b.(type) {
		case *AudioOut, *ControlOut:
			return Connect(b, a)
		}
	}
	return ErrInvalidConnection
}

// Disconnect unwires two ports. Arguments may come in any order, same as in
// Connect. Disconnecting ports that aren't connected to each other is a
// no-op. An invalid pairing returns ErrInvalidConnection.
func Disconnect(a, b Port) error {
	switch out := a.(type) {
	case *AudioOut:
		switch in := b.(type) {
		case *AudioIn:
			out.disconnect(in)
			return nil
		case *ReferenceIn:
			out.disconnect(&in.AudioIn)
			return nil
		}
	case *ControlOut:
		if in, ok := b.(*ControlIn); ok {
			out.disconnect(in)
			return nil
		}
	case *AudioIn, *ReferenceIn, *ControlIn:
		switch b.(type) {
		case *AudioOut, *ControlOut:
			return Disconnect(b, a)
		}
	}
	return ErrInvalidConnection
}
