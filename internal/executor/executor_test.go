package executor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/events"
	language "github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/pending"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

func TestExecuteRoundTrip(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { field: String }`)
	doc := mustParseQuery(t, `{ field }`)

	res := NewExecutor(sch).ExecuteRequest(context.Background(), doc, "", nil, map[string]any{"field": "ok"})
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(`{"data":{"field":"ok"}}`, string(b)); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteKeepsSelectionOrder(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { a: String b: String c: String }`)
	root := map[string]any{"a": "A", "b": "B", "c": "C"}

	got, errs := run(t, sch, `{ c a renamed: b a }`, root)
	assertData(t, `{"c":"C","a":"A","renamed":"B"}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}
}

func TestNullBubbling(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { a: A b: String }
		type A { nonNull: String! other: String }
	`)
	root := map[string]any{
		"a": map[string]any{"nonNull": nil, "other": "x"},
		"b": "ok",
	}

	got, errs := run(t, sch, `{ a { nonNull other } b }`, root)
	assertData(t, `{"a":null,"b":"ok"}`, got)

	want := []errorSummary{{Message: "Cannot return null for non-nullable field A.nonNull.", Path: "a.nonNull"}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(errs[0], ErrNonNullViolation) {
		t.Errorf("expected ErrNonNullViolation, got %v", errs[0].Err)
	}
}

func TestNullBubblingReachesRoot(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { x: String! y: String }`)

	got, errs := run(t, sch, `{ y x }`, map[string]any{"x": nil, "y": "y"})
	assertData(t, `null`, got)

	want := []errorSummary{{Message: "Cannot return null for non-nullable field Query.x.", Path: "x"}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestNullBubblingThroughNestedNonNull(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { outer: Outer }
		type Outer { inner: Inner! }
		type Inner { leaf: Int! }
	`)
	root := map[string]any{
		"outer": map[string]any{"inner": map[string]any{"leaf": nil}},
	}

	got, errs := run(t, sch, `{ outer { inner { leaf } } }`, root)
	assertData(t, `{"outer":null}`, got)

	want := []errorSummary{{Message: "Cannot return null for non-nullable field Inner.leaf.", Path: "outer.inner.leaf"}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestListPartialFailure(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { items: [Int] strict: [Int!] }`)
	root := map[string]any{
		"items":  []any{1, "bad", 3},
		"strict": []any{1, nil, 3},
	}

	got, errs := run(t, sch, `{ items strict }`, root)
	assertData(t, `{"items":[1,null,3],"strict":null}`, got)

	want := []errorSummary{
		{Message: "Int cannot represent non-integer value: bad", Path: "items[1]"},
		{Message: "Cannot return null for non-nullable field Query.strict.", Path: "strict[1]"},
	}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(errs[0], ErrInvalidReturnType) {
		t.Errorf("expected ErrInvalidReturnType, got %v", errs[0].Err)
	}
}

func TestListValues(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { names: [String!]! nums: [Int] }`)
	root := map[string]any{
		"names": []string{"a", "b"},
		"nums": []any{
			pending.Go(func() (any, error) { return 1, nil }),
			2,
		},
	}

	got, errs := run(t, sch, `{ names nums }`, root)
	assertData(t, `{"names":["a","b"],"nums":[1,2]}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}
}

func TestListRejectsNonIterable(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { nums: [Int] }`)

	got, errs := run(t, sch, `{ nums }`, map[string]any{"nums": 5})
	assertData(t, `{"nums":null}`, got)

	want := []errorSummary{{Message: `Expected Iterable, but did not find one for field "Query.nums".`, Path: "nums"}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestParallelStartsFieldsWithoutWaiting(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { first: String second: String }`)
	secondStarted := make(chan struct{})
	query := sch.GetType("Query")
	query.GetField("first").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return pending.Go(func() (any, error) {
			<-secondStarted
			return "first", nil
		}), nil
	})
	query.GetField("second").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		close(secondStarted)
		return "second", nil
	})

	got, errs := run(t, sch, `{ first second }`, nil)
	assertData(t, `{"first":"first","second":"second"}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}
}

func TestMutationFieldsRunSerially(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { ok: Int }
		type Mutation { a: Int b: Int c: Int }
	`)
	var (
		mu  sync.Mutex
		log []string
	)
	record := func(entry string) {
		mu.Lock()
		log = append(log, entry)
		mu.Unlock()
	}
	step := func(name string, n int) schema.FieldResolveFn {
		return func(ctx context.Context, p schema.ResolveParams) (any, error) {
			record("start " + name)
			return pending.Go(func() (any, error) {
				record("end " + name)
				return n, nil
			}), nil
		}
	}
	mutation := sch.GetType("Mutation")
	mutation.GetField("a").SetResolve(step("a", 1))
	mutation.GetField("b").SetResolve(step("b", 2))
	mutation.GetField("c").SetResolve(step("c", 3))

	got, errs := run(t, sch, `mutation { c a b }`, nil)
	assertData(t, `{"c":3,"a":1,"b":2}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}

	want := []string{"start c", "end c", "start a", "end a", "start b", "end b"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("resolution order mismatch (-want +got):\n%s", diff)
	}
}

func TestMutationStopsAfterNonNullFailure(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { ok: Int }
		type Mutation { first: Int! second: Int }
	`)
	called := false
	mutation := sch.GetType("Mutation")
	mutation.GetField("first").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return nil, errors.New("rejected")
	})
	mutation.GetField("second").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		called = true
		return 2, nil
	})

	got, errs := run(t, sch, `mutation { first second }`, nil)
	assertData(t, `null`, got)
	if called {
		t.Error("second field must not start after the first failed")
	}
	want := []errorSummary{{Message: "rejected", Path: "first"}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingRootType(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { a: String }`)

	got, errs := run(t, sch, `mutation { a }`, nil)
	assertData(t, `null`, got)
	want := []errorSummary{{Message: "Schema is not configured to execute mutation operation."}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestOperationSelection(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { a: String b: String }`)
	doc := mustParseQuery(t, `query A { a } query B { b }`)
	root := map[string]any{"a": "A", "b": "B"}
	exec := NewExecutor(sch)

	res := exec.ExecuteRequest(context.Background(), doc, "B", nil, root)
	b, _ := json.Marshal(res.Data)
	assertData(t, `{"b":"B"}`, string(b))

	res = exec.ExecuteRequest(context.Background(), doc, "", nil, root)
	if res.Data != nil {
		t.Errorf("expected no data, got %v", res.Data)
	}
	want := []errorSummary{{Message: "operation not found"}}
	if diff := cmp.Diff(want, summarize(res.Errors)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestUndefinedFieldIsSkipped(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { a: String }`)
	core, logs := observer.New(zap.DebugLevel)

	got, errs := run(t, sch, `{ nope a }`, map[string]any{"a": "A"}, WithLogger(zap.New(core)))
	assertData(t, `{"a":"A"}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}

	skipped := logs.FilterMessage("field skipped").All()
	if len(skipped) != 1 {
		t.Fatalf("expected 1 skipped field log, got %d", len(skipped))
	}
	var logged error
	for _, f := range skipped[0].Context {
		if f.Key == "error" {
			logged, _ = f.Interface.(error)
		}
	}
	if !errors.Is(logged, ErrUndefinedField) {
		t.Fatalf("expected ErrUndefinedField, got %v", logged)
	}
	if diff := cmp.Diff("undefined field: Query.nope", logged.Error()); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestSubSelectionsMergeAcrossNodes(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { hero: Character }
		type Character { id: ID name: String friend: Character }
	`)
	var calls int
	sch.GetType("Query").GetField("hero").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		calls++
		return map[string]any{
			"id":     "1",
			"name":   "Luke",
			"friend": map[string]any{"id": "2", "name": "Leia"},
		}, nil
	})

	got, errs := run(t, sch, `
		{
			hero { name friend { name } }
			...F
		}
		fragment F on Query { hero { id friend { id } } }
	`, nil)
	assertData(t, `{"hero":{"name":"Luke","friend":{"name":"Leia","id":"2"},"id":"1"}}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}
	if calls != 1 {
		t.Errorf("expected hero to resolve once, got %d", calls)
	}
}

func TestUncoercibleDirectiveIsReported(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { a: String b: String }`)
	root := map[string]any{"a": "A", "b": "B"}

	got, errs := run(t, sch, `{ a @skip(if: $undefined) b }`, root)
	assertData(t, `{"b":"B"}`, got)
	want := []errorSummary{
		{Message: `directive @skip: argument "if" of required type Boolean! was not provided`},
	}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(errs) == 1 && len(errs[0].Locations) != 1 {
		t.Errorf("expected the directive location, got %v", errs[0].Locations)
	}
}

func TestArgumentsAndVariables(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query {
			echo(msg: String!): String
			greet(name: String = "world"): String
			color(c: Color): Color
		}
		enum Color { RED GREEN }
	`)
	query := sch.GetType("Query")
	query.GetField("echo").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return p.Args["msg"], nil
	})
	query.GetField("greet").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return "hello " + p.Args["name"].(string), nil
	})
	query.GetField("color").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return p.Args["c"], nil
	})

	got, errs := runWithVariables(t, sch,
		`query ($m: String!) { echo(msg: $m) greet color(c: GREEN) }`,
		map[string]any{"m": "hi"}, nil)
	assertData(t, `{"echo":"hi","greet":"hello world","color":"GREEN"}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}

	got, errs = runWithVariables(t, sch, `query ($m: String) { echo(msg: $m) }`, nil, nil)
	assertData(t, `{"echo":null}`, got)
	want := []errorSummary{{Message: `argument "msg" of required type String! was not provided`, Path: "echo"}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}

	got, errs = runWithVariables(t, sch, `query ($m: String!) { echo(msg: $m) }`, nil, nil)
	assertData(t, `null`, got)
	want = []errorSummary{{Message: "variable $m of required type String! was not provided"}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFragmentsAndDirectives(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { a: String b: String c: String d: String }`)
	root := map[string]any{"a": "A", "b": "B", "c": "C", "d": "D"}

	got, errs := runWithVariables(t, sch, `
		query ($skip: Boolean!) {
			...F
			b @skip(if: $skip)
			c @include(if: false)
			... @include(if: true) { d }
		}
		fragment F on Query { a }
	`, map[string]any{"skip": true}, root)
	assertData(t, `{"a":"A","d":"D"}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}
}

func TestAbstractTypenameResolution(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { search: [SearchResult] }
		union SearchResult = Human | Droid
		type Human { name: String }
		type Droid { name: String primaryFunction: String }
	`)
	root := map[string]any{
		"search": []any{
			map[string]any{"__typename": "Human", "name": "Luke"},
			map[string]any{"__typename": "Droid", "name": "R2-D2", "primaryFunction": "Astromech"},
			map[string]any{"__typename": "Wookiee", "name": "Chewie"},
		},
	}

	got, errs := run(t, sch, `{
		search {
			__typename
			... on Human { name }
			... on Droid { name primaryFunction }
		}
	}`, root)
	assertData(t, `{"search":[`+
		`{"__typename":"Human","name":"Luke"},`+
		`{"__typename":"Droid","name":"R2-D2","primaryFunction":"Astromech"},`+
		`null]}`, got)

	want := []errorSummary{{
		Message: `Abstract type "SearchResult" must resolve to an Object type at runtime for field "Query.search" with value map[__typename:Wookiee name:Chewie], received "Wookiee".`,
		Path:    "search[2]",
	}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(errs[0], ErrInvalidRuntimeType) {
		t.Errorf("expected ErrInvalidRuntimeType, got %v", errs[0].Err)
	}
}

func TestAbstractIsTypeOfProbing(t *testing.T) {
	name := schema.NewField("name", "", schema.NamedType("String"))
	character := schema.NewType("Character", schema.TypeKindInterface, "").AddField(name)
	kindIs := func(kind string) schema.IsTypeOfFn {
		return func(ctx context.Context, value any, info schema.ResolveInfo) *pending.Value[bool] {
			return pending.Go(func() (bool, error) {
				return value.(map[string]any)["kind"] == kind, nil
			})
		}
	}
	human := newObjectType("Human", name).AddInterface("Character").SetIsTypeOf(kindIs("human"))
	droid := newObjectType("Droid", name,
		schema.NewField("primaryFunction", "", schema.NamedType("String")),
	).AddInterface("Character").SetIsTypeOf(kindIs("droid"))
	query := newObjectType("Query", schema.NewField("hero", "", schema.NamedType("Character")))
	sch := newSchemaWithQueryType(query, character, human, droid)

	root := map[string]any{
		"hero": map[string]any{"kind": "droid", "name": "R2-D2", "primaryFunction": "Astromech"},
	}
	got, errs := run(t, sch, `{ hero { name ... on Droid { primaryFunction } } }`, root)
	assertData(t, `{"hero":{"name":"R2-D2","primaryFunction":"Astromech"}}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}
}

func TestAbstractRuntimeTypeGuards(t *testing.T) {
	id := schema.NewField("id", "", schema.NamedType("ID"))
	node := schema.NewType("Node", schema.TypeKindInterface, "").AddField(id)
	thing := newObjectType("Thing", id).AddInterface("Node")
	other := newObjectType("Other", id)
	query := newObjectType("Query",
		schema.NewField("impostor", "", schema.NamedType("Node")),
		schema.NewField("stranger", "", schema.NamedType("Node")),
		schema.NewField("unknown", "", schema.NamedType("Node")),
	)
	sch := newSchemaWithQueryType(query, node, thing, other)
	node.SetResolveType(func(ctx context.Context, value any, info schema.ResolveInfo, abstract *schema.Type) *pending.Value[any] {
		switch info.FieldName {
		case "impostor":
			return pending.Ready[any](&schema.Type{Name: "Thing", Kind: schema.TypeKindObject, Fields: thing.Fields})
		case "stranger":
			return pending.Ready[any](other)
		}
		return pending.Ready[any]("Nope")
	})
	value := map[string]any{"id": "1"}
	root := map[string]any{"impostor": value, "stranger": value, "unknown": value}

	got, errs := run(t, sch, `{ impostor { id } stranger { id } unknown { id } }`, root)
	assertData(t, `{"impostor":null,"stranger":null,"unknown":null}`, got)

	want := []errorSummary{
		{Message: `Schema must contain unique named types but contains multiple types named "Thing".`, Path: "impostor"},
		{Message: `Runtime Object type "Other" is not a possible type for "Node".`, Path: "stranger"},
		{Message: `Abstract type "Node" must resolve to an Object type at runtime for field "Query.unknown" with value map[id:1], received "Nope".`, Path: "unknown"},
	}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestIsTypeOfRejectsValue(t *testing.T) {
	thing := newObjectType("Thing", schema.NewField("id", "", schema.NamedType("ID"))).
		SetIsTypeOf(func(ctx context.Context, value any, info schema.ResolveInfo) *pending.Value[bool] {
			return pending.Ready(false)
		})
	query := newObjectType("Query", schema.NewField("thing", "", schema.NamedType("Thing")))
	sch := newSchemaWithQueryType(query, thing)

	got, errs := run(t, sch, `{ thing { id } }`, map[string]any{"thing": map[string]any{"id": "1"}})
	assertData(t, `{"thing":null}`, got)
	want := []errorSummary{{Message: `Expected value of type "Thing" but got: map[id:1].`, Path: "thing"}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestLeafSerializationContract(t *testing.T) {
	odd := schema.NewType("Odd", schema.TypeKindScalar, "").SetSerialize(func(v any) (any, error) {
		return nil, nil
	})
	holder := newObjectType("Holder", schema.NewField("must", "", schema.NonNullType(schema.NamedType("Odd"))))
	query := newObjectType("Query",
		schema.NewField("plain", "", schema.NamedType("Odd")),
		schema.NewField("holder", "", schema.NamedType("Holder")),
	)
	sch := newSchemaWithQueryType(query, odd, holder)
	root := map[string]any{"plain": 3, "holder": map[string]any{"must": 3}}

	got, errs := run(t, sch, `{ plain holder { must } }`, root)
	assertData(t, `{"plain":null,"holder":null}`, got)
	want := []errorSummary{
		{Message: `Expected a value of type "Odd" but received: 3`, Path: "plain"},
		{Message: `Expected a value of type "Odd" but received: 3`, Path: "holder.must"},
	}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumSerialization(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { color: Color invalid: Color }
		enum Color { RED GREEN }
	`)
	sch.GetType("Color").GetEnumValue("RED").SetValue(1)

	got, errs := run(t, sch, `{ color invalid }`, map[string]any{"color": 1, "invalid": "PURPLE"})
	assertData(t, `{"color":"RED","invalid":null}`, got)
	want := []errorSummary{{Message: `Expected a value of type "Color" but received: "PURPLE"`, Path: "invalid"}}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestResolverPanicsAreContained(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { boom: String deferredBoom: String ok: String }`)
	query := sch.GetType("Query")
	query.GetField("boom").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		panic("boom")
	})
	query.GetField("deferredBoom").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return pending.Go(func() (any, error) {
			panic(errors.New("deferred boom"))
		}), nil
	})
	core, logs := observer.New(zap.ErrorLevel)

	got, errs := run(t, sch, `{ boom deferredBoom ok }`, map[string]any{"ok": "fine"}, WithLogger(zap.New(core)))
	assertData(t, `{"boom":null,"deferredBoom":null,"ok":"fine"}`, got)

	want := []errorSummary{
		{Message: "boom", Path: "boom"},
		{Message: "deferred boom", Path: "deferredBoom"},
	}
	if diff := cmp.Diff(want, summarize(errs)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	var panicErr *pending.PanicError
	if !errors.As(errs[1], &panicErr) {
		t.Errorf("expected a PanicError, got %T", errs[1].Err)
	}
	if n := logs.FilterMessage("resolver panicked").Len(); n != 2 {
		t.Errorf("expected 2 logged panics, got %d", n)
	}
}

func TestDomainErrorKeepsExtensions(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { secret: String }`)
	sch.GetType("Query").GetField("secret").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return nil, &gqlerror.Error{
			Message:    "not allowed",
			Extensions: map[string]any{"code": "FORBIDDEN"},
		}
	})
	doc := mustParseQuery(t, "{\n  secret\n}")

	res := NewExecutor(sch).ExecuteRequest(context.Background(), doc, "", nil, nil)
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", summarize(res.Errors))
	}
	got := res.Errors[0].GQLError()
	want := &gqlerror.Error{
		Message:    "not allowed",
		Path:       language.Path{language.PathName("secret")},
		Locations:  []gqlerror.Location{{Line: 2, Column: 3}},
		Extensions: map[string]any{"code": "FORBIDDEN"},
	}
	if diff := cmp.Diff(want.Message, got.Message); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Path, got.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Locations, got.Locations); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Extensions, got.Extensions); diff != "" {
		t.Errorf("extensions mismatch (-want +got):\n%s", diff)
	}
}

type person struct{ name string }

func (p person) FieldValue(name string) (any, bool) {
	if name == "name" {
		return p.name, true
	}
	return nil, false
}

func TestDefaultFieldResolverSources(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { person: Person computed: String plainFunc: String }
		type Person { name: String missing: String }
	`)
	root := map[string]any{
		"person": person{name: "Ada"},
		"computed": schema.FieldResolveFn(func(ctx context.Context, p schema.ResolveParams) (any, error) {
			return "computed", nil
		}),
		"plainFunc": func(ctx context.Context, p schema.ResolveParams) (any, error) {
			return p.Info.FieldName, nil
		},
	}

	got, errs := run(t, sch, `{ person { name missing } computed plainFunc }`, root)
	assertData(t, `{"person":{"name":"Ada","missing":null},"computed":"computed","plainFunc":"plainFunc"}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}
}

func TestResolverPrecedence(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { own: String typed: String }`)
	query := sch.GetType("Query")
	query.GetField("own").SetResolve(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return "field", nil
	})
	query.SetResolveField(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return "type", nil
	})
	fallback := WithFieldResolver(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return "executor", nil
	})

	got, _ := run(t, sch, `{ own typed }`, nil, fallback)
	assertData(t, `{"own":"field","typed":"type"}`, got)

	query.SetResolveField(nil)
	got, _ = run(t, sch, `{ own typed }`, nil, fallback)
	assertData(t, `{"own":"field","typed":"executor"}`, got)
}

func TestIntrospectionFields(t *testing.T) {
	sch := mustBuildSchema(t, `type Query { a: String }`)
	root := map[string]any{"a": "A"}

	got, errs := run(t, sch, `{ __typename __type(name: "Query") { name kind } }`, root)
	assertData(t, `{"__typename":"Query","__type":{"name":"Query","kind":"OBJECT"}}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}

	got, errs = run(t, sch, `{ __schema { queryType { name } } a }`, root, WithoutIntrospection())
	assertData(t, `{"a":"A"}`, got)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", summarize(errs))
	}
}

func TestFieldResolvedEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	var (
		mu   sync.Mutex
		seen []string
	)
	unsubscribe := eventbus.Subscribe[events.FieldResolved](func(ctx context.Context, e events.FieldResolved) {
		mu.Lock()
		seen = append(seen, e.ParentType+"."+e.Field+"@"+e.Path)
		mu.Unlock()
	})
	defer unsubscribe()

	sch := mustBuildSchema(t, `
		type Query { a: A }
		type A { b: String }
	`)
	run(t, sch, `{ a { b } }`, map[string]any{"a": map[string]any{"b": "B"}})

	want := []string{"Query.a@a", "A.b@a.b"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
