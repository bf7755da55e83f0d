/*
Package session implements workspace management and persistence orchestration.

It keeps live workspaces in memory, loads them from a WorkflowStore on first use, and
serialises edits per workspace id with reference-counted local locks and an optional
distributed lock for deployments with several replicas.
*/
package session
