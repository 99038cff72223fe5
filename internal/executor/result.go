package executor

import (
	"bytes"
	"encoding/json"

	language "github.com/hanpama/gqlexec/internal/language"
)

// ResultField is one response key and its completed value.
type ResultField struct {
	Key   string
	Value any
}

// ResultMap is a completed object. Keys appear in selection order and
// marshal to JSON in that order.
type ResultMap []ResultField

// Get returns the value stored under key.
func (m ResultMap) Get(key string) (any, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the response keys in order.
func (m ResultMap) Keys() []string {
	keys := make([]string, len(m))
	for i, f := range m {
		keys[i] = f.Key
	}
	return keys
}

func (m ResultMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   any      `json:"data"`
	Errors []*Error `json:"errors,omitempty"`
}

// GQLErrors returns the errors in their wire representation.
func (r *ExecutionResult) GQLErrors() language.ErrorList {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(language.ErrorList, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.GQLError()
	}
	return out
}

func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Data   any                `json:"data"`
		Errors language.ErrorList `json:"errors,omitempty"`
	}{Data: r.Data, Errors: r.GQLErrors()})
}
