package executor

import (
	"context"

	"go.uber.org/zap"

	language "github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/pending"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// NewSerialStrategy returns a Strategy that starts each field only after the
// previous one has settled. Mutations execute with it.
func NewSerialStrategy(
	ec *ExecutionContext,
	collector *FieldCollector,
	values *ValuesResolver,
	logger *zap.Logger,
) *Strategy {
	return newStrategy(ec, collector, values, logger, serialFields{})
}

type serialFields struct{}

func (serialFields) executeFields(
	ctx context.Context,
	s *Strategy,
	parentType *schema.Type,
	source any,
	path language.Path,
	fields *CollectedFields,
) *pending.Value[any] {
	result := make(ResultMap, 0, fields.Len())

	var step func(i int) *pending.Value[any]
	step = func(i int) *pending.Value[any] {
		for ; i < fields.Len(); i++ {
			field := fields.At(i)
			fieldPath := appendPath(path, language.PathName(field.Key))
			value, ok := s.resolveField(ctx, parentType, source, field.Nodes, fieldPath)
			if !ok {
				continue
			}
			next := i + 1
			return pending.Then(value, func(v any) *pending.Value[any] {
				result = append(result, ResultField{Key: field.Key, Value: v})
				return step(next)
			})
		}
		return pending.Ready[any](result)
	}
	return step(0)
}
