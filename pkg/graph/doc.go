/*
Package graph indexes a flow for constant-time lookups and provides the structural
operations that happen around evaluation: sub-flow merging before it, and tree building
after it.

The Index is built once per graph identity. Traversal (internal/runtime) only reads it.
*/
package graph
