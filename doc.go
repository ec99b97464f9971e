/*
Package graph provides a block-based dataflow engine for audio and MIDI
processing.

Processing units are nodes. A node owns typed ports: audio outputs, audio
inputs, control (event) outputs and inputs, and reference inputs used for
side-chain taps. Ports are wired into a directed acyclic graph and the whole
graph is advanced one fixed-size block at a time by calling Tick on the
graph. Within a tick, nodes whose dependencies are satisfied execute
concurrently in waves, with a barrier between waves: a node only ever
observes fully produced blocks from upstream nodes that completed in a
strictly earlier wave.

Concrete processing nodes live in subpackages: biquad implements a
second-order recursive filter, lms implements a normalized adaptive filter,
wav implements file source and sink nodes. The mock package contains simple
nodes used in tests.
*/
package graph
