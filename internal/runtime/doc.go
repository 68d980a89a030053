/*
Package runtime is the evaluation core of arbor.

It evaluates edge conditions, walks the graph to find the visible nodes, keeps
reference-bound fields in sync with their sources and validates the visible fields.
Everything here is synchronous and free of I/O: the only mutable state is the value bag
and error map owned by a Form.
*/
package runtime
