/*
Package domain contains the core models of the flow engine.

It defines the read-only flow graph supplied by the editor and the mutable
state of a single run. This package is kept pure and free of I/O or
persistence concerns.

# Key Entities

  - Node: A typed step of the flow. Its Config is a tagged union keyed by Node.Type.
  - Edge: A directed link between nodes; an optional BranchSelector binds it to a condition branch.
  - Definition: The flat, id-indexed collection of nodes and edges.
  - RunState: Status, current node, variables, transcript and execution log of one run.
  - RunConfig: Per-run options (integration mode, contact, failure policies).
*/
package domain
