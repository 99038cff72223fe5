package executor

import (
	"context"

	"go.uber.org/zap"

	language "github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/pending"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// NewParallelStrategy returns a Strategy that starts every field of a
// selection set before waiting on any of them. Output keys keep query order.
func NewParallelStrategy(
	ec *ExecutionContext,
	collector *FieldCollector,
	values *ValuesResolver,
	logger *zap.Logger,
) *Strategy {
	return newStrategy(ec, collector, values, logger, parallelFields{})
}

type parallelFields struct{}

func (parallelFields) executeFields(
	ctx context.Context,
	s *Strategy,
	parentType *schema.Type,
	source any,
	path language.Path,
	fields *CollectedFields,
) *pending.Value[any] {
	keys := make([]string, 0, fields.Len())
	values := make([]*pending.Value[any], 0, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		field := fields.At(i)
		fieldPath := appendPath(path, language.PathName(field.Key))
		value, ok := s.resolveField(ctx, parentType, source, field.Nodes, fieldPath)
		if !ok {
			continue
		}
		keys = append(keys, field.Key)
		values = append(values, value)
	}

	return pending.Then(pending.All(values), func(completed []any) *pending.Value[any] {
		result := make(ResultMap, len(completed))
		for i, v := range completed {
			result[i] = ResultField{Key: keys[i], Value: v}
		}
		return pending.Ready[any](result)
	})
}
