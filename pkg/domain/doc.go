/*
Package domain contains the core domain models of the Finecision decision engine.

It defines the workflow graph authored by credit analysts (Nodes and Connections), the
typed configuration carried by each node type, the scoring model, and the decision that
the engine produces. This package is kept pure and free of I/O or persistence concerns,
following Hexagonal Architecture principles.

# Key Entities

  - Workflow: A directed graph of Nodes joined by typed Connections.
  - Node: A point in the graph. Its Config is a tagged union keyed by NodeType.
  - Connection: A labelled edge ("true", "false" or "default") between two nodes.
  - CreditScoreConfig: Weighted, bucketed scoring rules for applicant variables.
  - ExecutionResult: The decision (approved, rejected, review) and the computed score.
  - Application: A submitted set of applicant variables and its processed decision.
*/
package domain
