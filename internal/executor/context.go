package executor

import (
	"sync"

	language "github.com/hanpama/gqlexec/internal/language"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// ExecutionContext holds everything a single operation execution reads, plus
// the error sink it appends to. Apart from the sink it is not modified once
// execution starts.
type ExecutionContext struct {
	Schema         *schema.Schema
	Document       *language.QueryDocument
	Operation      *language.OperationDefinition
	Fragments      map[string]*language.FragmentDefinition
	RootValue      any
	VariableValues map[string]any

	// FieldResolver is used for fields with no field- or type-level resolver.
	FieldResolver schema.FieldResolveFn
	// TypeResolver is used for abstract types with no ResolveType of their own.
	TypeResolver schema.ResolveTypeFn
	// Introspection enables the __schema and __type root fields.
	Introspection bool

	mu     sync.Mutex
	errors []*Error
}

// NewExecutionContext prepares the context for running operation from doc.
// Fragment definitions are indexed by name and nil resolvers are replaced by
// the defaults.
func NewExecutionContext(
	sch *schema.Schema,
	doc *language.QueryDocument,
	operation *language.OperationDefinition,
	rootValue any,
	variableValues map[string]any,
) *ExecutionContext {
	fragments := make(map[string]*language.FragmentDefinition, len(doc.Fragments))
	for _, f := range doc.Fragments {
		if f != nil {
			fragments[f.Name] = f
		}
	}
	if variableValues == nil {
		variableValues = map[string]any{}
	}
	return &ExecutionContext{
		Schema:         sch,
		Document:       doc,
		Operation:      operation,
		Fragments:      fragments,
		RootValue:      rootValue,
		VariableValues: variableValues,
		FieldResolver:  DefaultFieldResolver,
		TypeResolver:   DefaultTypeResolver,
		Introspection:  true,
	}
}

// AddError records a located error. It is safe for concurrent use.
func (ec *ExecutionContext) AddError(err *Error) {
	ec.mu.Lock()
	ec.errors = append(ec.errors, err)
	ec.mu.Unlock()
}

// Errors returns a snapshot of the recorded errors.
func (ec *ExecutionContext) Errors() []*Error {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if len(ec.errors) == 0 {
		return nil
	}
	return append([]*Error(nil), ec.errors...)
}

func (ec *ExecutionContext) resolveInfo(
	fieldDef *schema.Field,
	nodes []*language.Field,
	parentType *schema.Type,
	path language.Path,
) schema.ResolveInfo {
	return schema.ResolveInfo{
		FieldName:      fieldDef.Name,
		FieldNodes:     nodes,
		ReturnType:     fieldDef.Type,
		ParentType:     parentType,
		Path:           path,
		Schema:         ec.Schema,
		Fragments:      ec.Fragments,
		RootValue:      ec.RootValue,
		Operation:      ec.Operation,
		VariableValues: ec.VariableValues,
	}
}
