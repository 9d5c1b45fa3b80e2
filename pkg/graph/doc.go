// Package graph schedules task nodes linked into a dependency graph.
//
// Nodes are created, replaced and configured by commands drained from the
// setup queue; each Spin drains the queue, completes pending links, runs
// the eligible nodes in creation order and publishes their outputs to the
// feedback table. A node runs only when configured (all parameters
// received) and linked (every declared input resolved to a node).
package graph
