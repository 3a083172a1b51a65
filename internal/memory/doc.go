// Package memory owns the shared solver-format buffers that every particle
// body in a space draws from.
//
// Each buffer kind (particles, springs, triangles, rigids, rigid components,
// inflatables) is a set of parallel growable columns guarded by an
// [Allocator]. The allocator lends contiguous ranges of slots to bodies as
// [Chunk] values and keeps the used region dense: removing slots from a chunk,
// resizing a chunk or freeing it shifts every later chunk so the solver always
// sees one packed run starting at slot zero.
//
// # Indices
//
// Bodies address their data through body-local indices in [0, size). A chunk
// translates them into absolute buffer slots:
//
//	abs := chunk.BufferIndex(local)
//	local := chunk.ChunkIndex(abs)
//
// Absolute indices are only stable between compactions. Every compaction
// returns a [Remap] that callers apply to records holding absolute
// cross-references (spring endpoints, triangle corners, rigid components).
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. Buffers are mutated by
// the simulation-owning goroutine between solver steps.
package memory
