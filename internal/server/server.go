package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/metadata"

	eventbus "github.com/hanpama/gqlexec/internal/eventbus"
	events "github.com/hanpama/gqlexec/internal/events"
	executor "github.com/hanpama/gqlexec/internal/executor"
	language "github.com/hanpama/gqlexec/internal/language"
	reqid "github.com/hanpama/gqlexec/internal/reqid"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// RequestIDHeader carries the request ID. An incoming value is reused,
// otherwise one is generated; the ID is echoed in the response.
const RequestIDHeader = "X-Request-ID"

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the executor, and formats responses as GraphQL JSON.
type Handler struct {
	exec *executor.Executor
	opt  Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// MetadataHeaders lists HTTP headers to forward into gRPC metadata.
	// Header names are case-insensitive. Default is none.
	MetadataHeaders []string

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// BatchConcurrency bounds how many operations of a batched request run
	// at once. Values below 1 mean one at a time.
	BatchConcurrency int

	// RootValue is passed to every operation as the root source.
	RootValue any

	// Logger receives request failures. Defaults to a no-op logger.
	Logger *zap.Logger

	// ExecutorOptions are applied when the handler builds its executor.
	ExecutorOptions []executor.Option
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithMetadataHeaders(headers ...string) Option {
	return func(o *Options) { o.MetadataHeaders = headers }
}

func WithGraphiQL(enable bool) Option   { return func(o *Options) { o.GraphiQL = enable } }
func WithBatchConcurrency(n int) Option { return func(o *Options) { o.BatchConcurrency = n } }
func WithRootValue(v any) Option        { return func(o *Options) { o.RootValue = v } }
func WithLogger(l *zap.Logger) Option   { return func(o *Options) { o.Logger = l } }
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(o *Options) { o.ExecutorOptions = append(o.ExecutorOptions, opts...) }
}

// New creates a new GraphQL HTTP handler serving the given schema.
func New(sch *schema.Schema, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true, BatchConcurrency: 4}
	for _, f := range opts {
		f(&op)
	}
	if op.Logger == nil {
		op.Logger = zap.NewNop()
	}
	execOpts := append([]executor.Option{executor.WithLogger(op.Logger)}, op.ExecutorOptions...)
	exec := executor.NewExecutor(sch, execOpts...)
	return &Handler{exec: exec, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.WithID(ctx, r.Header.Get(RequestIDHeader))
	w.Header().Set(RequestIDHeader, rid)
	logger := h.opt.Logger.With(zap.String("request_id", rid))
	status := http.StatusOK
	operations := 0
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r, RequestID: rid})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{
			Request:    r,
			RequestID:  rid,
			Status:     status,
			Duration:   time.Since(start),
			Operations: operations,
		})
	}()

	if r.Method == http.MethodOptions {
		if h.opt.CORS.enabled() {
			h.opt.CORS.apply(w, r)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse(&language.Error{Message: "method not allowed"}), h.opt.Pretty)
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	// Map configured headers into metadata
	md := metadata.MD{}
	if len(h.opt.MetadataHeaders) > 0 {
		allowed := make(map[string]struct{}, len(h.opt.MetadataHeaders))
		for _, hdr := range h.opt.MetadataHeaders {
			allowed[strings.ToLower(hdr)] = struct{}{}
		}
		for k, v := range r.Header {
			if _, ok := allowed[strings.ToLower(k)]; ok {
				md[strings.ToLower(k)] = v
			}
		}
	}
	md["graphql-request-id"] = []string{rid}
	ctx = metadata.NewOutgoingContext(ctx, md)

	req, batch, rerr := parseRequest(r, w, h.opt.MaxBodyBytes)
	if rerr != nil {
		status = rerr.status
		logger.Debug("rejected request", zap.Int("status", status), zap.String("reason", rerr.message))
		writeJSON(w, status, errorResponse(&language.Error{Message: rerr.message}), h.opt.Pretty)
		return
	}

	if h.opt.CORS.enabled() {
		h.opt.CORS.apply(w, r)
	}

	if batch != nil {
		operations = len(batch)
		results := make([]*executor.ExecutionResult, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(h.opt.BatchConcurrency, 1))
		for i := range batch {
			g.Go(func() error {
				results[i] = h.executeOne(gctx, logger, batch[i])
				return nil
			})
		}
		_ = g.Wait()
		writeJSON(w, status, results, h.opt.Pretty)
		return
	}

	operations = 1
	res := h.executeOne(ctx, logger, req)
	writeJSON(w, status, res, h.opt.Pretty)
}

func (h *Handler) executeOne(ctx context.Context, logger *zap.Logger, req GraphQLRequest) *executor.ExecutionResult {
	doc, errs := h.parseQuery(req.Query)
	if len(errs) > 0 {
		logger.Debug("invalid query", zap.Error(errs))
		return &executor.ExecutionResult{Errors: toExecutorErrors(errs)}
	}

	opDef := doc.Operations.ForName(req.OperationName)
	if opDef == nil && len(doc.Operations) == 1 {
		opDef = doc.Operations[0]
	}
	opType := ""
	if opDef != nil {
		opType = string(opDef.Operation)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, h.opt.RootValue)
	resultErrs := make([]error, len(result.Errors))
	for i := range result.Errors {
		resultErrs[i] = result.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        resultErrs,
		Duration:      time.Since(start),
	})
	if len(result.Errors) > 0 {
		logger.Debug("operation finished with errors",
			zap.String("operation", req.OperationName),
			zap.Int("errors", len(result.Errors)),
		)
	}
	return result
}

// parseQuery parses the query text. When the schema was built from SDL the
// document is also validated against it.
func (h *Handler) parseQuery(query string) (*language.QueryDocument, language.ErrorList) {
	if ast := h.exec.Schema().AST; ast != nil {
		return language.LoadQuery(ast, query)
	}
	doc, err := language.ParseQuery(query)
	if err != nil {
		if ge, ok := err.(*language.Error); ok {
			return nil, language.ErrorList{ge}
		}
		return nil, language.ErrorList{{Message: err.Error()}}
	}
	return doc, nil
}

// ------------------ Response formatting ------------------

func errorResponse(err *language.Error) *executor.ExecutionResult {
	return &executor.ExecutionResult{Errors: toExecutorErrors(language.ErrorList{err})}
}

// toExecutorErrors wraps pre-execution errors so they share the response
// shape of execution errors.
func toExecutorErrors(errs language.ErrorList) []*executor.Error {
	out := make([]*executor.Error, len(errs))
	for i, e := range errs {
		out[i] = &executor.Error{
			Message:    e.Message,
			Locations:  e.Locations,
			Path:       e.Path,
			Extensions: e.Extensions,
			Err:        e,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}
