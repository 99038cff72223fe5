package executor

import (
	"encoding/json"
	"errors"
	"fmt"

	language "github.com/hanpama/gqlexec/internal/language"
)

// Error kinds reported during completion. Use errors.Is to classify an *Error.
var (
	// ErrUndefinedField marks a selection with no field definition. Such
	// fields are skipped and only reported to the debug log.
	ErrUndefinedField = errors.New("undefined field")
	// ErrInvalidReturnType marks a value rejected by a leaf serializer or an
	// isTypeOf check.
	ErrInvalidReturnType = errors.New("invalid return type")
	// ErrInvalidRuntimeType marks an abstract type resolved to something that
	// is not a registered possible object type.
	ErrInvalidRuntimeType = errors.New("invalid runtime type")
	// ErrNonNullViolation marks null completed under a Non-Null wrapper.
	ErrNonNullViolation = errors.New("non-null violation")
	// ErrUnexpectedType marks a return type the executor cannot complete.
	ErrUnexpectedType = errors.New("unexpected type")
)

// kindError is a completion failure that carries its kind without putting
// the kind's text into the message.
type kindError struct {
	kind  error
	msg   string
	cause error
}

func newKindError(kind error, format string, args ...any) *kindError {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// Error is a field or request error located in the response. It renders as a
// gqlerror.Error on the wire.
type Error struct {
	Message    string
	Nodes      []*language.Field
	Source     *language.Source
	Locations  []language.Location
	Path       language.Path
	Err        error
	Extensions map[string]any
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// GQLError converts e into its wire representation.
func (e *Error) GQLError() *language.Error {
	return &language.Error{
		Message:    e.Message,
		Path:       e.Path,
		Locations:  e.Locations,
		Extensions: e.Extensions,
	}
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.GQLError())
}

// locatedError attaches AST nodes and a response path to err. An *Error that
// already carries a path is returned as is, so an error bubbling through
// several frames keeps the location where it was raised. A *gqlerror.Error
// raised by a resolver keeps its own path, locations and extensions.
func locatedError(err error, nodes []*language.Field, path language.Path) *Error {
	var located *Error
	if errors.As(err, &located) && located.Path != nil {
		return located
	}

	out := &Error{
		Message:   err.Error(),
		Nodes:     nodes,
		Path:      path,
		Err:       err,
		Locations: nodeLocations(nodes),
	}
	if len(nodes) > 0 && nodes[0].Position != nil {
		out.Source = nodes[0].Position.Src
	}

	var gqlErr *language.Error
	if errors.As(err, &gqlErr) {
		out.Message = gqlErr.Message
		out.Extensions = gqlErr.Extensions
		if len(gqlErr.Path) > 0 {
			out.Path = gqlErr.Path
		}
		if len(gqlErr.Locations) > 0 {
			out.Locations = gqlErr.Locations
		}
	}
	return out
}

// requestError builds an unlocated error for failures that prevent execution.
func requestError(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Message: msg, Err: errors.New(msg)}
}

func nodeLocations(nodes []*language.Field) []language.Location {
	var out []language.Location
	for _, n := range nodes {
		if n == nil || n.Position == nil {
			continue
		}
		out = append(out, language.Location{Line: n.Position.Line, Column: n.Position.Column})
	}
	return out
}
