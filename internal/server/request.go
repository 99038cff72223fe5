package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

// GraphQLRequest is one operation request as sent over HTTP.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// requestError rejects a request before any operation runs.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(message string) *requestError {
	return &requestError{status: http.StatusBadRequest, message: message}
}

// parseRequest decodes the operations carried by r. A JSON array body yields
// a batch; every other form yields a single request.
func parseRequest(r *http.Request, w http.ResponseWriter, maxBody int64) (GraphQLRequest, []GraphQLRequest, *requestError) {
	if r.Method == http.MethodGet {
		req, err := parseQueryParams(r)
		return req, nil, err
	}

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return GraphQLRequest{}, nil, &requestError{status: http.StatusUnsupportedMediaType, message: "unsupported Content-Type"}
		}
		mediaType = mt
	}

	body := r.Body
	if maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return GraphQLRequest{}, nil, &requestError{status: http.StatusRequestEntityTooLarge, message: "body too large"}
		}
		return GraphQLRequest{}, nil, badRequest("failed to read body")
	}

	switch mediaType {
	case "application/json":
		return parseJSONBody(raw)
	case "application/graphql":
		if strings.TrimSpace(string(raw)) == "" {
			return GraphQLRequest{}, nil, badRequest("missing 'query'")
		}
		req := GraphQLRequest{Query: string(raw), Variables: map[string]any{}}
		req.OperationName = r.URL.Query().Get("operationName")
		return req, nil, nil
	}
	return GraphQLRequest{}, nil, &requestError{status: http.StatusUnsupportedMediaType, message: "unsupported Content-Type"}
}

func parseQueryParams(r *http.Request) (GraphQLRequest, *requestError) {
	params := r.URL.Query()
	req := GraphQLRequest{
		Query:         params.Get("query"),
		OperationName: params.Get("operationName"),
		Variables:     map[string]any{},
	}
	if req.Query == "" {
		return GraphQLRequest{}, badRequest("missing 'query'")
	}
	if v := params.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
			return GraphQLRequest{}, badRequest("invalid 'variables' JSON")
		}
	}
	if v := params.Get("extensions"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Extensions); err != nil {
			return GraphQLRequest{}, badRequest("invalid 'extensions' JSON")
		}
	}
	return req, nil
}

func parseJSONBody(raw []byte) (GraphQLRequest, []GraphQLRequest, *requestError) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var batch []GraphQLRequest
		if err := json.Unmarshal(raw, &batch); err != nil {
			return GraphQLRequest{}, nil, badRequest("invalid JSON")
		}
		if len(batch) == 0 {
			return GraphQLRequest{}, nil, badRequest("empty batch")
		}
		for i := range batch {
			if batch[i].Variables == nil {
				batch[i].Variables = map[string]any{}
			}
		}
		return GraphQLRequest{}, batch, nil
	}

	var req GraphQLRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return GraphQLRequest{}, nil, badRequest("invalid JSON")
	}
	if req.Query == "" {
		return GraphQLRequest{}, nil, badRequest("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil, nil
}
