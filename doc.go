/*
Package finecision is a credit-decision workflow engine.

A workflow is a directed graph authored on a visual canvas: a trigger node
declares the applicant variables, condition nodes branch on a variable,
credit-score nodes compute a weighted score, credit-score-check nodes branch
on that score and action nodes approve, reject or send the application to
manual review.

# Concept

The engine is a pure function of (workflow, variables). It computes every
credit score up front, walks the graph from the trigger following "true",
"false" or "default" connections, and stops at the first action node. Graphs
that dead-end or keep cycling end in review instead of failing, so a decision
is always produced for a structurally valid workflow.

Storage, HTTP, MCP and CLI surfaces live in pkg/adapters and cmd/finecision;
this package only wires the engine. Workflows are usually loaded from JSON or
YAML documents; pkg/dsl builds them in Go.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/finecision/finecision"
	)

	func main() {
		wf, err := finecision.Load("./workflows/personal-loan.yaml")
		if err != nil {
			log.Fatal(err)
		}

		eng := finecision.New()
		inputs := map[string]any{"age": 34, "income": 4200, "debt": 800}

		res, err := eng.Execute(context.Background(), wf, eng.Resolve(wf, inputs))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Status)
	}

# Observability

Lifecycle hooks (WithLifecycleHooks) fire on node entry, node exit and once
per decision; pkg/observability turns them into Prometheus metrics.
*/
package finecision
