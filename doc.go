/*
Package flowcanvas is a workflow canvas engine: an editable graph of typed agent-workflow steps
(start, end, agent, tool, condition, guardrail, note) with bounded undo/redo, and a simulator that
replays a run over the graph with synthetic outputs, pause/resume and cancellation.

# Concept

A Workspace owns one live graph and the simulator of its latest run. Edits go through the
editor, which records an immutable snapshot per edit. A run takes a snapshot of the graph,
traverses it one node at a time and reports progress through SimulatorHooks. Hosts (CLI, HTTP
server, MCP server) observe runs through hooks or Watch and never touch run state directly.

# Key Features

  - Bounded linear undo/redo: every edit is an independent snapshot.
  - Sequential depth-first traversal: branches run one after another in edge order.
  - Cooperative control: Pause, Resume and Stop are safe to call while a run is active.
  - Pluggable condition outcomes, strict validation and step limits.

# Usage

	package main

	import (
		"context"
		"log"
		"os"
		"time"

		"github.com/aretw0/flowcanvas"
		"github.com/aretw0/flowcanvas/pkg/domain"
	)

	func main() {
		ws := flowcanvas.New("support-bot", flowcanvas.WithStepDelay(200*time.Millisecond))

		ed := ws.Editor()
		agent := ed.AddNode(domain.NodeTypeAgent, "Helper", domain.Position{X: 300, Y: 200})
		end := ed.AddNode(domain.NodeTypeEnd, "Done", domain.Position{X: 500, Y: 200})
		ed.Connect("start-1", agent.ID, "")
		ed.Connect(agent.ID, end.ID, "")

		r := &flowcanvas.Runner{Output: os.Stdout, Headless: true}
		if _, err := r.Run(context.Background(), ws, "Hello, how can you help me?"); err != nil {
			log.Fatal(err)
		}
	}
*/
package flowcanvas
