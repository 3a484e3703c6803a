// Package channel provides small stateless helpers for seeding and draining
// plain Go channels around a flow pipeline. It is deliberately separate from
// the stateful node engine in the parent package: these are pure functions
// over <-chan/chan values, useful for feeding a Sender from a slice or range,
// or collecting a Receiver's output back into a slice for a test.
//
// # Quick Start
//
//	in := channel.FromRange(10)
//	out := channel.Merge(in, channel.FromValues(10, 11, 12))
//	all := channel.ToSlice(out)
//
// # Categories
//
// Sources: [FromSlice], [FromRange], [FromValues], [FromFunc]
//
// Fan-in: [Merge]
//
// Transforms: [Transform]
//
// Sinks: [ToSlice], [Drain]
//
// For the stateful pipeline engine itself, see the parent flow package.
package channel
