package executor

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/events"
	introspection "github.com/hanpama/gqlexec/internal/introspection"
	language "github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/pending"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// fieldsExecutor decides in which order the fields of one selection set are
// started and how their results are gathered.
type fieldsExecutor interface {
	executeFields(
		ctx context.Context,
		s *Strategy,
		parentType *schema.Type,
		source any,
		path language.Path,
		fields *CollectedFields,
	) *pending.Value[any]
}

// Strategy resolves fields and completes their values for one operation.
// The ordering of sibling fields is delegated to its fieldsExecutor.
type Strategy struct {
	ec        *ExecutionContext
	collector *FieldCollector
	values    *ValuesResolver
	fields    fieldsExecutor
	logger    *zap.Logger
}

func newStrategy(
	ec *ExecutionContext,
	collector *FieldCollector,
	values *ValuesResolver,
	logger *zap.Logger,
	fields fieldsExecutor,
) *Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{
		ec:        ec,
		collector: collector,
		values:    values,
		fields:    fields,
		logger:    logger,
	}
}

// Execute runs the operation of the context and returns the response data.
// Errors are recorded on the ExecutionContext; when one escapes the root
// selection set the returned data is nil.
func (s *Strategy) Execute(ctx context.Context) any {
	op := s.ec.Operation
	var rootType *schema.Type
	switch op.Operation {
	case language.Query:
		rootType = s.ec.Schema.GetQueryType()
	case language.Mutation:
		rootType = s.ec.Schema.GetMutationType()
	case language.Subscription:
		rootType = s.ec.Schema.GetSubscriptionType()
	default:
		s.ec.AddError(requestError("Can only execute queries, mutations and subscriptions, got %q.", op.Operation))
		return nil
	}
	if rootType == nil {
		s.ec.AddError(requestError("Schema is not configured to execute %s operation.", op.Operation))
		return nil
	}

	fields := s.collector.CollectFields(rootType, op.SelectionSet)
	data, err := s.fields.executeFields(ctx, s, rootType, s.ec.RootValue, nil, fields).Await()
	if err != nil {
		s.ec.AddError(locatedError(err, nil, nil))
		return nil
	}
	return data
}

// resolveField resolves and completes the field grouped under nodes. It
// reports false when parentType defines no such field.
func (s *Strategy) resolveField(
	ctx context.Context,
	parentType *schema.Type,
	source any,
	nodes []*language.Field,
	path language.Path,
) (*pending.Value[any], bool) {
	node := nodes[0]
	fieldDef := s.getFieldDef(parentType, node.Name)
	if fieldDef == nil {
		s.logger.Debug("field skipped",
			zap.String("path", path.String()),
			zap.Error(fmt.Errorf("%w: %s.%s", ErrUndefinedField, parentType.Name, node.Name)),
		)
		return nil, false
	}
	info := s.ec.resolveInfo(fieldDef, nodes, parentType, path)

	start := time.Now()
	result := s.callResolver(ctx, fieldDef, parentType, source, node, info)
	result = pending.Handle(result, func(v any, err error) *pending.Value[any] {
		s.fieldResolved(ctx, info, start, err)
		if err != nil {
			return pending.Fail[any](err)
		}
		return pending.Ready(v)
	})
	return s.completeValueCatchingError(ctx, fieldDef.Type, nodes, info, path, result), true
}

func (s *Strategy) getFieldDef(parentType *schema.Type, name string) *schema.Field {
	switch name {
	case "__typename":
		return introspection.TypeNameMetaField
	case "__schema", "__type":
		if !s.ec.Introspection || parentType != s.ec.Schema.GetQueryType() {
			return nil
		}
		if name == "__schema" {
			return introspection.SchemaMetaField
		}
		return introspection.TypeMetaField
	}
	return parentType.GetField(name)
}

func (s *Strategy) fieldResolver(fieldDef *schema.Field, parentType *schema.Type) schema.FieldResolveFn {
	switch {
	case fieldDef.Resolve != nil:
		return fieldDef.Resolve
	case parentType.ResolveField != nil:
		return parentType.ResolveField
	case s.ec.FieldResolver != nil:
		return s.ec.FieldResolver
	}
	return DefaultFieldResolver
}

// callResolver invokes the resolver of fieldDef. Argument coercion errors,
// returned errors and panics all settle the result as a failure.
func (s *Strategy) callResolver(
	ctx context.Context,
	fieldDef *schema.Field,
	parentType *schema.Type,
	source any,
	node *language.Field,
	info schema.ResolveInfo,
) (result *pending.Value[any]) {
	args, err := s.values.CoerceArguments(fieldDef, node, s.ec.VariableValues)
	if err != nil {
		return pending.Fail[any](err)
	}
	defer func() {
		if r := recover(); r != nil {
			result = pending.Fail[any](&pending.PanicError{Value: r, Stack: debug.Stack()})
		}
	}()

	resolve := s.fieldResolver(fieldDef, parentType)
	v, err := resolve(ctx, schema.ResolveParams{Source: source, Args: args, Info: info})
	if err != nil {
		return pending.Fail[any](err)
	}
	if deferred, ok := v.(*pending.Value[any]); ok {
		if deferred == nil {
			return pending.Ready[any](nil)
		}
		return deferred
	}
	return pending.Ready(v)
}

func (s *Strategy) fieldResolved(ctx context.Context, info schema.ResolveInfo, start time.Time, err error) {
	if p, ok := err.(*pending.PanicError); ok {
		s.logger.Error("resolver panicked",
			zap.String("path", info.Path.String()),
			zap.Any("panic", p.Value),
			zap.ByteString("stack", p.Stack),
		)
	}
	if !eventbus.Has[events.FieldResolved]() {
		return
	}
	eventbus.Publish(ctx, events.FieldResolved{
		ParentType: info.ParentType.Name,
		Field:      info.FieldName,
		Path:       info.Path.String(),
		Start:      start,
		Duration:   time.Since(start),
		Err:        err,
	})
}

// completeValueCatchingError completes result once it settles and contains
// any failure according to returnType.
func (s *Strategy) completeValueCatchingError(
	ctx context.Context,
	returnType *schema.TypeRef,
	nodes []*language.Field,
	info schema.ResolveInfo,
	path language.Path,
	result *pending.Value[any],
) *pending.Value[any] {
	completed := pending.Then(result, func(v any) *pending.Value[any] {
		return s.catch(path, func() *pending.Value[any] {
			return s.completeValue(ctx, returnType, nodes, info, path, v)
		})
	})
	return pending.Handle(completed, func(v any, err error) *pending.Value[any] {
		if err != nil {
			return s.handleFieldError(err, returnType, nodes, path)
		}
		return pending.Ready(v)
	})
}

// catch turns a panic raised while completing a value into a failure.
func (s *Strategy) catch(path language.Path, fn func() *pending.Value[any]) (result *pending.Value[any]) {
	defer func() {
		if r := recover(); r != nil {
			p := &pending.PanicError{Value: r, Stack: debug.Stack()}
			s.logger.Error("completion panicked",
				zap.String("path", path.String()),
				zap.Any("panic", r),
				zap.ByteString("stack", p.Stack),
			)
			result = pending.Fail[any](p)
		}
	}()
	return fn()
}

// handleFieldError locates err at path. Under a Non-Null type the error is
// passed on to the parent; otherwise it is recorded and the field is null.
func (s *Strategy) handleFieldError(
	err error,
	returnType *schema.TypeRef,
	nodes []*language.Field,
	path language.Path,
) *pending.Value[any] {
	located := locatedError(err, nodes, path)
	if returnType.IsNonNull() {
		return pending.Fail[any](located)
	}
	s.ec.AddError(located)
	s.logger.Debug("field error",
		zap.String("path", located.Path.String()),
		zap.Error(located),
	)
	return pending.Ready[any](nil)
}

// completeValue reconciles a resolved value with returnType.
func (s *Strategy) completeValue(
	ctx context.Context,
	returnType *schema.TypeRef,
	nodes []*language.Field,
	info schema.ResolveInfo,
	path language.Path,
	result any,
) *pending.Value[any] {
	if err, ok := result.(error); ok {
		return pending.Fail[any](err)
	}

	if returnType.IsNonNull() {
		completed := s.completeValue(ctx, returnType.OfType, nodes, info, path, result)
		return pending.Then(completed, func(v any) *pending.Value[any] {
			if isNullish(v) {
				return pending.Fail[any](newKindError(ErrNonNullViolation,
					"Cannot return null for non-nullable field %s.%s.", info.ParentType.Name, info.FieldName))
			}
			return pending.Ready(v)
		})
	}

	if isNullish(result) {
		return pending.Ready[any](nil)
	}

	if returnType.Kind == schema.TypeRefKindList {
		return s.completeListValue(ctx, returnType, nodes, info, path, result)
	}

	namedType := s.ec.Schema.GetType(returnType.Named)
	switch {
	case namedType == nil:
	case namedType.IsLeaf():
		return s.completeLeafValue(namedType, result)
	case namedType.IsAbstract():
		return s.completeAbstractValue(ctx, namedType, nodes, info, path, result)
	case namedType.Kind == schema.TypeKindObject:
		return s.completeObjectValue(ctx, namedType, nodes, info, path, result)
	}
	return pending.Fail[any](newKindError(ErrUnexpectedType,
		"Cannot complete value of unexpected type %q.", returnType.String()))
}

func (s *Strategy) completeListValue(
	ctx context.Context,
	returnType *schema.TypeRef,
	nodes []*language.Field,
	info schema.ResolveInfo,
	path language.Path,
	result any,
) *pending.Value[any] {
	items, ok := listItems(result)
	if !ok {
		return pending.Fail[any](newKindError(ErrInvalidReturnType,
			"Expected Iterable, but did not find one for field \"%s.%s\".", info.ParentType.Name, info.FieldName))
	}

	itemType := returnType.OfType
	completed := make([]*pending.Value[any], len(items))
	for i, item := range items {
		itemResult, ok := item.(*pending.Value[any])
		if !ok || itemResult == nil {
			itemResult = pending.Ready(item)
		}
		itemPath := appendPath(path, language.PathIndex(i))
		completed[i] = s.completeValueCatchingError(ctx, itemType, nodes, info, itemPath, itemResult)
	}
	return pending.Then(pending.All(completed), func(values []any) *pending.Value[any] {
		return pending.Ready[any](values)
	})
}

// completeLeafValue serializes a scalar or enum value. Pointers are
// dereferenced before serialization.
func (s *Strategy) completeLeafValue(returnType *schema.Type, result any) *pending.Value[any] {
	value := result
	for rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer; rv = reflect.ValueOf(value) {
		if rv.IsNil() {
			return pending.Ready[any](nil)
		}
		value = rv.Elem().Interface()
	}

	serialized, err := returnType.SerializeValue(value)
	if err != nil {
		kerr := newKindError(ErrInvalidReturnType, "%s", err.Error())
		kerr.cause = err
		return pending.Fail[any](kerr)
	}
	if isNullish(serialized) {
		return pending.Fail[any](newKindError(ErrInvalidReturnType,
			"Expected a value of type %q but received: %s", returnType.Name, inspect(result)))
	}
	return pending.Ready(serialized)
}

func (s *Strategy) completeAbstractValue(
	ctx context.Context,
	returnType *schema.Type,
	nodes []*language.Field,
	info schema.ResolveInfo,
	path language.Path,
	result any,
) *pending.Value[any] {
	resolveType := returnType.ResolveType
	if resolveType == nil {
		resolveType = s.ec.TypeResolver
	}
	if resolveType == nil {
		resolveType = DefaultTypeResolver
	}

	runtimeType := resolveType(ctx, result, info, returnType)
	if runtimeType == nil {
		runtimeType = pending.Ready[any](nil)
	}
	return pending.Then(runtimeType, func(resolved any) *pending.Value[any] {
		objectType, err := s.ensureValidRuntimeType(resolved, returnType, info, result)
		if err != nil {
			return pending.Fail[any](err)
		}
		return s.completeObjectValue(ctx, objectType, nodes, info, path, result)
	})
}

// ensureValidRuntimeType checks that resolved names an object type
// registered in the schema as a possible type of abstract, and that it is
// the registered instance itself.
func (s *Strategy) ensureValidRuntimeType(
	resolved any,
	abstract *schema.Type,
	info schema.ResolveInfo,
	result any,
) (*schema.Type, error) {
	var runtimeType *schema.Type
	received := "null"
	switch v := resolved.(type) {
	case string:
		received = fmt.Sprintf("%q", v)
		runtimeType = s.ec.Schema.GetType(v)
	case *schema.Type:
		if v != nil {
			received = fmt.Sprintf("%q", v.Name)
			runtimeType = v
		}
	}

	if runtimeType == nil || runtimeType.Kind != schema.TypeKindObject {
		return nil, newKindError(ErrInvalidRuntimeType,
			"Abstract type %q must resolve to an Object type at runtime for field \"%s.%s\" with value %s, received %s.",
			abstract.Name, info.ParentType.Name, info.FieldName, inspect(result), received)
	}
	if !s.ec.Schema.IsPossibleType(abstract, runtimeType) {
		return nil, newKindError(ErrInvalidRuntimeType,
			"Runtime Object type %q is not a possible type for %q.", runtimeType.Name, abstract.Name)
	}
	if s.ec.Schema.GetType(runtimeType.Name) != runtimeType {
		return nil, newKindError(ErrInvalidRuntimeType,
			"Schema must contain unique named types but contains multiple types named %q.", runtimeType.Name)
	}
	return runtimeType, nil
}

func (s *Strategy) completeObjectValue(
	ctx context.Context,
	returnType *schema.Type,
	nodes []*language.Field,
	info schema.ResolveInfo,
	path language.Path,
	result any,
) *pending.Value[any] {
	if returnType.IsTypeOf != nil {
		check := returnType.IsTypeOf(ctx, result, info)
		if check == nil {
			check = pending.Ready(true)
		}
		return pending.Then(check, func(ok bool) *pending.Value[any] {
			if !ok {
				return pending.Fail[any](newKindError(ErrInvalidReturnType,
					"Expected value of type %q but got: %s.", returnType.Name, inspect(result)))
			}
			return s.executeSubFields(ctx, returnType, nodes, path, result)
		})
	}
	return s.executeSubFields(ctx, returnType, nodes, path, result)
}

// executeSubFields executes the merged sub-selections of nodes on result.
// With nothing selected the value is returned unchanged.
func (s *Strategy) executeSubFields(
	ctx context.Context,
	returnType *schema.Type,
	nodes []*language.Field,
	path language.Path,
	result any,
) *pending.Value[any] {
	fields := s.collector.CollectSubFields(returnType, nodes)
	if fields.Len() == 0 {
		return pending.Ready(result)
	}
	return s.fields.executeFields(ctx, s, returnType, result, path, fields)
}

// appendPath returns a new path; path itself is never modified.
func appendPath(path language.Path, elem language.PathElement) language.Path {
	out := make(language.Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

// listItems returns the elements of a slice or array value.
func listItems(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	}
	return nil, false
}

func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// inspect formats v for error messages.
func inspect(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}
