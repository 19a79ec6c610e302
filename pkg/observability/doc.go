/*
Package observability provides tools for monitoring the Finecision engine.

Metrics turns engine lifecycle hooks into Prometheus series (decisions by
status, node visits, credit score distribution). Combine merges several
LifecycleHooks values so metrics, logging and event streaming can observe the
same executions.
*/
package observability
