/*
Package ports defines the driven ports (interfaces) of the flow engine hosts.

These interfaces decouple runs and the session manager from external
implementations, so the same code works with in-memory, file and Redis backends.

# Key Interfaces

  - FlowLoader: Retrieves flow definitions by name (e.g., from a directory or memory).
  - TranscriptStore: Archives the final state of finished conversations.
  - DistributedLocker: Provides distributed locking for concurrent access to one conversation.
*/
package ports
