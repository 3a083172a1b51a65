// Package space owns the shared solver buffers and the bodies that lend
// chunks of them.
//
// A step runs in a fixed order:
//
//  1. queued removals of every body, one element kind at a time
//     (particles, springs, triangles, rigids)
//  2. changed phases and inflatable parameters are written to the buffers
//  3. the solver backend advances the buffers and reports contacts
//  4. contacts go to the bodies monitoring them, then sync callbacks run
//
// Removing elements compacts the buffers. Bodies are told when one of their
// body-local indices changed; references held in the buffers themselves
// (spring endpoints, triangle corners, rigid components) are patched by the
// space. An element that referenced a removed particle is removed as well.
//
// A Space is not safe for concurrent use.
package space
