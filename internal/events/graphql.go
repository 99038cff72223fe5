package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// FieldResolved is emitted once a field's resolver result has settled,
// before the value is completed against the field type.
type FieldResolved struct {
	ParentType string
	Field      string
	Path       string
	Start      time.Time
	Duration   time.Duration
	Err        error
}
