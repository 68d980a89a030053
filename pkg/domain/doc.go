/*
Package domain contains the core domain models of the arbor form engine.

It defines the graph authored in the editor (Nodes, Edges, Conditions), the value bag
the user fills in, and the persisted session State. This package is kept pure and free
of external dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Node: A graph vertex (input, ui, group or flow) with a kind-specific Data payload.
  - Edge: A directed arc, optionally carrying Conditions or marked as a fallback.
  - Graph: One flow (nodes + edges), treated as immutable during evaluation.
  - Values: The value bag keyed by node id; IsEmpty is the shared "no value" predicate.
  - State: The persisted snapshot of a form session (values, errors, status).
*/
package domain
