/*
Package domain contains the core domain models of the flowcanvas workflow simulator.

It defines the workflow graph, the simulation state, the events emitted during a run and
the sentinel errors shared by every layer. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node / Edge / Graph: the typed workflow graph assembled on the canvas.
  - Workflow: a named graph, the unit of persistence.
  - SimulationStep / SimulationState: the record and snapshot of a simulated run.
  - SimulatorHooks: the observer callbacks a run notifies.
  - StateDiff: a partial update between two states, for streaming clients.
*/
package domain
