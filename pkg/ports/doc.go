/*
Package ports defines the driven ports (interfaces) for the arbor engine.

These interfaces decouple the evaluation core from external implementations, allowing
forms to be loaded from various sources and sessions to live in various stores.

# Key Interfaces

  - FlowLoader: Responsible for loading flow documents (e.g., from Loam or Memory).
  - StateStore: Responsible for persisting and loading session State.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - NodeRenderer: The render boundary, one method per node kind.
*/
package ports
