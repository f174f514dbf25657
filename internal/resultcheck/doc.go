// Package resultcheck validates the Result<T,E> control-flow discipline:
// success/error path coverage, legality of the `?` propagation operator,
// consumption of Result values, and a dead-error-path heuristic. Each check
// walks function bodies independently with an exhaustive switch over the
// closed statement and expression sets.
package resultcheck
