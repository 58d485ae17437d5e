// Package dynamo holds the cross-cutting primitives shared by the solver
// and its callers:
//
//   - sentinel errors ([ErrInvalidState], [ErrParameterBounds], ...)
//   - [SimulationError]: wraps an error with step, time and object context
//   - [ParallelFor]: chunked fan-out for embarrassingly parallel passes
//
// # Thread Safety
//
// Nothing in this package holds state. [ParallelFor] blocks until every
// chunk has returned, so callers keep single-writer semantics outside it.
package dynamo
