// Package compute provides the particle solver backends a space steps.
//
// A backend reads and writes the space's shared buffers in place:
//
//   - Flex: the native solver, only present in builds tagged flex
//   - CPU: a reference solver with gravity, distance constraints, rigid
//     cluster tracking and plane collisions
//
// Backends are injected into a space; there is no process-wide default.
//
//	backend := compute.AutoSelectBackend(compute.DefaultParams())
//	contacts := backend.Step(frame, 1.0/60)
package compute
