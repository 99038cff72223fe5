// Package executor implements GraphQL operation execution: it walks the
// selection set of an operation, invokes resolvers and completes their results
// against the declared field types, producing the response data and the
// located errors that occurred along the way.
//
// # Overview
//
// Execution is split between two concerns:
//   - Field resolution and value completion, shared by every operation and
//     implemented by Strategy.
//   - The ordering of sibling fields, which differs between operation kinds:
//     mutations execute serially, queries and subscriptions in parallel.
//
// A Strategy is assembled from its collaborators. Nothing is looked up from
// a global registry:
//
//	ec := NewExecutionContext(sch, doc, op, root, vars)
//	values := NewValuesResolver(sch)
//	s := NewParallelStrategy(ec, NewFieldCollector(ec, values), values, logger)
//	data := s.Execute(ctx)
//	errs := ec.Errors()
//
// Executor.ExecuteRequest performs these steps for a request after selecting
// the operation and coercing its variables.
//
// # Pending values
//
// Resolvers may return a plain value, an error, or a *pending.Value[any]
// that settles later. Every completion step yields a *pending.Value[any] and
// composes them with pending.Handle, pending.Then and pending.All. A chain in
// which every input is ready stays on the calling goroutine; as soon as one
// input is deferred the rest of that chain continues on its own goroutine.
//
// # Value completion
//
// completeValue dispatches on the return type:
//
//  1. A resolved error fails the field.
//  2. Non-Null completes the inner type and fails when the result is null.
//  3. Null completes to null.
//  4. Lists complete each element at its index path. Element failures are
//     contained per element, so one failing element never aborts siblings.
//  5. Scalars and enums are serialized. A serializer returning nil is an
//     invalid return type.
//  6. Interfaces and unions resolve their runtime object type first. The
//     runtime type must be an object type registered in the schema, possible
//     for the abstract type and identical to the registered instance.
//  7. Objects run their IsTypeOf check, if any, then execute the merged
//     sub-selections of all field nodes.
//
// # Errors
//
// Failures are located with the field nodes and response path where they
// were raised. A field of nullable type contains the error: it is recorded on
// the ExecutionContext and the field becomes null. A Non-Null field passes
// the error to its parent, so null propagates to the nearest nullable
// ancestor or, past the root, to the whole response data.
//
// Resolver panics, including panics on deferred goroutines, are recovered
// into *pending.PanicError and treated like any other resolver error.
//
// Classification uses errors.Is with ErrInvalidReturnType,
// ErrInvalidRuntimeType, ErrNonNullViolation and ErrUnexpectedType.
package executor
