package executor

import (
	"context"

	"github.com/hanpama/gqlexec/internal/pending"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// DefaultFieldResolver reads the field from a map[string]any or a
// schema.Accessor source. A value that is itself a resolver function is
// called with the same parameters.
func DefaultFieldResolver(ctx context.Context, p schema.ResolveParams) (any, error) {
	v, ok := fieldValue(p.Source, p.Info.FieldName)
	if !ok {
		return nil, nil
	}
	switch fn := v.(type) {
	case schema.FieldResolveFn:
		return fn(ctx, p)
	case func(context.Context, schema.ResolveParams) (any, error):
		return fn(ctx, p)
	}
	return v, nil
}

// DefaultTypeResolver determines the runtime type of value for abstract.
// A "__typename" entry on the value wins. Otherwise the IsTypeOf hooks of
// the possible types are probed in schema order: the first synchronous match
// is taken, then the first deferred match by that same order.
func DefaultTypeResolver(
	ctx context.Context,
	value any,
	info schema.ResolveInfo,
	abstract *schema.Type,
) *pending.Value[any] {
	if v, ok := fieldValue(value, "__typename"); ok {
		if name, ok := v.(string); ok {
			return pending.Ready[any](name)
		}
	}

	var (
		probes     []*pending.Value[bool]
		probeTypes []*schema.Type
	)
	for _, t := range info.Schema.PossibleTypes(abstract) {
		if t.IsTypeOf == nil {
			continue
		}
		probe := t.IsTypeOf(ctx, value, info)
		if probe == nil {
			continue
		}
		if probe.Deferred() {
			probes = append(probes, probe)
			probeTypes = append(probeTypes, t)
			continue
		}
		ok, err := probe.Await()
		if err != nil {
			// Let started probes settle before failing.
			return pending.Handle(pending.All(probes), func([]bool, error) *pending.Value[any] {
				return pending.Fail[any](err)
			})
		}
		if ok {
			return pending.Ready[any](t)
		}
	}

	if len(probes) == 0 {
		return pending.Ready[any](nil)
	}
	return pending.Then(pending.All(probes), func(matches []bool) *pending.Value[any] {
		for i, ok := range matches {
			if ok {
				return pending.Ready[any](probeTypes[i])
			}
		}
		return pending.Ready[any](nil)
	})
}

func fieldValue(source any, name string) (any, bool) {
	switch src := source.(type) {
	case map[string]any:
		v, ok := src[name]
		return v, ok
	case schema.Accessor:
		return src.FieldValue(name)
	}
	return nil, false
}
