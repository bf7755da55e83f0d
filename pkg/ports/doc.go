/*
Package ports defines the driven ports (interfaces) for flowcanvas.

These interfaces decouple workspaces and sessions from external implementations, allowing
workflows to live in memory, on disk or in Redis.

# Key Interfaces

  - WorkflowStore: persists and loads workflow graphs by name.
  - DistributedLocker: provides distributed locking for concurrent workspace access across replicas.

RunWorkflowStoreContract is a reusable test suite every WorkflowStore adapter runs.
*/
package ports
