package executor

import (
	"fmt"
	"sync"

	language "github.com/hanpama/gqlexec/internal/language"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// CollectedFields maps response keys to the field nodes sharing them and
// preserves the order in which keys first appear in the query.
type CollectedFields struct {
	fields []CollectedField
	index  map[string]int
}

// CollectedField is one response key with every AST node contributing to it.
type CollectedField struct {
	Key   string
	Nodes []*language.Field
}

func NewCollectedFields() *CollectedFields {
	return &CollectedFields{
		fields: make([]CollectedField, 0),
		index:  make(map[string]int),
	}
}

// Add appends node to the group for key, creating the group on first use.
func (c *CollectedFields) Add(key string, node *language.Field) {
	if idx, exists := c.index[key]; exists {
		c.fields[idx].Nodes = append(c.fields[idx].Nodes, node)
	} else {
		c.index[key] = len(c.fields)
		c.fields = append(c.fields, CollectedField{
			Key:   key,
			Nodes: []*language.Field{node},
		})
	}
}

func (c *CollectedFields) Len() int { return len(c.fields) }

func (c *CollectedFields) At(i int) CollectedField { return c.fields[i] }

// Get returns the nodes collected under key.
func (c *CollectedFields) Get(key string) []*language.Field {
	if idx, ok := c.index[key]; ok {
		return c.fields[idx].Nodes
	}
	return nil
}

func (c *CollectedFields) Keys() []string {
	keys := make([]string, len(c.fields))
	for i, f := range c.fields {
		keys[i] = f.Key
	}
	return keys
}

// FieldCollector expands selection sets into CollectedFields, merging
// fragments and honoring @skip and @include.
type FieldCollector struct {
	ec        *ExecutionContext
	schema    *schema.Schema
	fragments map[string]*language.FragmentDefinition
	values    *ValuesResolver
	variables map[string]any

	mu       sync.Mutex
	reported map[*language.Directive]bool
}

func NewFieldCollector(ec *ExecutionContext, values *ValuesResolver) *FieldCollector {
	return &FieldCollector{
		ec:        ec,
		schema:    ec.Schema,
		fragments: ec.Fragments,
		values:    values,
		variables: ec.VariableValues,
		reported:  make(map[*language.Directive]bool),
	}
}

// CollectFields collects the top-level fields of selectionSet for runtimeType.
func (c *FieldCollector) CollectFields(runtimeType *schema.Type, selectionSet language.SelectionSet) *CollectedFields {
	into := NewCollectedFields()
	c.Collect(runtimeType, selectionSet, into, make(map[string]bool))
	return into
}

// CollectSubFields merges the sub-selections of every node into one field map.
func (c *FieldCollector) CollectSubFields(returnType *schema.Type, nodes []*language.Field) *CollectedFields {
	into := NewCollectedFields()
	visited := make(map[string]bool)
	for _, node := range nodes {
		if len(node.SelectionSet) > 0 {
			c.Collect(returnType, node.SelectionSet, into, visited)
		}
	}
	return into
}

// Collect adds the fields selected by selectionSet on runtimeType to into.
// Fragment spreads already present in visited are skipped.
func (c *FieldCollector) Collect(
	runtimeType *schema.Type,
	selectionSet language.SelectionSet,
	into *CollectedFields,
	visited map[string]bool,
) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !c.shouldInclude(sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			into.Add(responseName, sel)

		case *language.InlineFragment:
			if !c.shouldInclude(sel.Directives) {
				continue
			}
			if !c.doesFragmentConditionMatch(sel.TypeCondition, runtimeType) {
				continue
			}
			c.Collect(runtimeType, sel.SelectionSet, into, visited)

		case *language.FragmentSpread:
			if !c.shouldInclude(sel.Directives) {
				continue
			}
			if visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true

			fragmentDef := c.fragments[sel.Name]
			if fragmentDef == nil {
				continue
			}
			if !c.doesFragmentConditionMatch(fragmentDef.TypeCondition, runtimeType) {
				continue
			}
			c.Collect(runtimeType, fragmentDef.SelectionSet, into, visited)
		}
	}
}

// doesFragmentConditionMatch reports whether a fragment on condition applies
// to objects of runtimeType.
func (c *FieldCollector) doesFragmentConditionMatch(condition string, runtimeType *schema.Type) bool {
	if condition == "" || condition == runtimeType.Name {
		return true
	}
	condType := c.schema.GetType(condition)
	if condType == nil || !condType.IsAbstract() {
		return false
	}
	return c.schema.IsPossibleType(condType, runtimeType)
}

// shouldInclude evaluates @skip and @include. A directive whose argument
// cannot be coerced excludes the node and is recorded once as an error.
func (c *FieldCollector) shouldInclude(directives language.DirectiveList) bool {
	if len(directives) == 0 {
		return true
	}
	for _, name := range []string{"skip", "include"} {
		args, ok, err := c.values.DirectiveValues(c.directive(name), directives, c.variables)
		if !ok {
			continue
		}
		if err != nil {
			c.reportDirective(directives.ForName(name), err)
			return false
		}
		cond, _ := args["if"].(bool)
		if cond == (name == "skip") {
			return false
		}
	}
	return true
}

func (c *FieldCollector) reportDirective(d *language.Directive, err error) {
	c.mu.Lock()
	seen := c.reported[d]
	c.reported[d] = true
	c.mu.Unlock()
	if seen {
		return
	}
	located := &Error{
		Message: fmt.Sprintf("directive @%s: %v", d.Name, err),
		Err:     err,
	}
	if d.Position != nil {
		located.Source = d.Position.Src
		located.Locations = []language.Location{{Line: d.Position.Line, Column: d.Position.Column}}
	}
	c.ec.AddError(located)
}

func (c *FieldCollector) directive(name string) *schema.Directive {
	if d := c.schema.Directives[name]; d != nil {
		return d
	}
	return &schema.Directive{
		Name: name,
		Arguments: []*schema.InputValue{
			schema.NewInputValue("if", "", schema.NonNullType(schema.NamedType("Boolean"))),
		},
	}
}
