/*
Package ports defines the driven ports (interfaces) of the Finecision services.

These interfaces decouple workflow and application handling from the storage
and coordination backends, so the same services run on memory, files or Redis.

# Key Interfaces

  - WorkflowStore: persists workflow definitions.
  - ApplicationStore: persists credit applications and their decisions.
  - DistributedLocker: serializes processing of the same application across replicas.
*/
package ports
