package executor

import (
	"context"

	"go.uber.org/zap"

	introspection "github.com/hanpama/gqlexec/internal/introspection"
	language "github.com/hanpama/gqlexec/internal/language"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// Option configures an Executor.
type Option func(*Executor)

// WithFieldResolver sets the resolver used for fields that have neither a
// field resolver nor a type resolver of their own.
func WithFieldResolver(fn schema.FieldResolveFn) Option {
	return func(e *Executor) { e.fieldResolver = fn }
}

// WithTypeResolver sets the resolver used for abstract types without a
// ResolveType hook.
func WithTypeResolver(fn schema.ResolveTypeFn) Option {
	return func(e *Executor) { e.typeResolver = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithoutIntrospection disables the __schema and __type root fields.
func WithoutIntrospection() Option {
	return func(e *Executor) { e.introspection = false }
}

type Executor struct {
	schema        *schema.Schema
	fieldResolver schema.FieldResolveFn
	typeResolver  schema.ResolveTypeFn
	logger        *zap.Logger
	introspection bool
}

func NewExecutor(sch *schema.Schema, opts ...Option) *Executor {
	e := &Executor{
		schema:        sch,
		fieldResolver: DefaultFieldResolver,
		typeResolver:  DefaultTypeResolver,
		logger:        zap.NewNop(),
		introspection: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.introspection {
		e.schema = introspection.Extend(sch)
	}
	return e
}

// Schema returns the schema operations execute against, including the
// introspection types when enabled.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// ExecuteRequest selects the operation from document, coerces its variables
// and executes it. It blocks until every started field has settled.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := getOperation(document, operationName)
	if operation == nil {
		return &ExecutionResult{Errors: []*Error{requestError("operation not found")}}
	}

	values := NewValuesResolver(e.schema)
	coercedVariableValues, err := values.CoerceVariableValues(operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []*Error{requestError("%s", err.Error())}}
	}

	ec := NewExecutionContext(e.schema, document, operation, initialValue, coercedVariableValues)
	ec.FieldResolver = e.fieldResolver
	ec.TypeResolver = e.typeResolver
	ec.Introspection = e.introspection

	collector := NewFieldCollector(ec, values)
	logger := e.logger.With(zap.String("operation", operation.Name))
	var strategy *Strategy
	if operation.Operation == language.Mutation {
		strategy = NewSerialStrategy(ec, collector, values, logger)
	} else {
		strategy = NewParallelStrategy(ec, collector, values, logger)
	}

	data := strategy.Execute(ctx)
	return &ExecutionResult{Data: data, Errors: ec.Errors()}
}

func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(document.Operations) == 1 {
		for _, op := range document.Operations {
			return op
		}
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}
