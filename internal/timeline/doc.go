// Package timeline implements the interval-indexed history of a simulation.
//
// Every committed agent update is stored as a [Record] covering the
// half-open range [Low, High) during which the computed state is valid.
// Records are kept ordered by Low in an AVL tree annotated with the maximum
// High of each subtree, so a point query visits O(log n + m) nodes for m
// matching records even when many agents' ranges overlap.
//
// A [Reader] folds every record covering an instant into one
// [dynamo.Universe].
//
// # Thread Safety
//
// [Store] is safe for concurrent use by one writer and any number of
// readers. Records are never mutated after insertion.
package timeline
