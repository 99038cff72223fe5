package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/executor"
	"github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/otel"
	"github.com/hanpama/gqlexec/internal/reqid"
	"github.com/hanpama/gqlexec/internal/schema"
	"github.com/hanpama/gqlexec/internal/server"
)

const rootUsage = `gqlexec: GraphQL execution engine and tools

USAGE:
  gqlexec <command> [flags]

COMMANDS:
  exec             Execute one operation against an SDL schema and a JSON root value
  serve            Run the HTTP GraphQL endpoint over an SDL schema and a JSON root value
  print-schema     Validate an SDL schema and print it in canonical form
  help             Show help for any command
`

const execUsage = `exec FLAGS:
  -schema <file>             GraphQL SDL file (required)
  -root <file>               JSON file used as the root value
  -query <text>              Operation document (or use -query.file)
  -query.file <file>         File holding the operation document
  -operation <name>          Operation to execute when the document has several
  -variables <json>          Variable values as a JSON object
  -introspection <bool>      Enable introspection fields (default: true)
  -pretty                    Indent the JSON result
  -log.level <level>         debug, info, warn or error (default: warn)
  -log.dev                   Human-readable development logging
`

const serveUsage = `serve FLAGS:
  -schema <file>                      GraphQL SDL file (required)
  -root <file>                        JSON file used as the root value
  -introspection <bool>               Enable introspection fields (default: true)
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body <bytes>            Maximum request body size, 0 for unlimited
  -server.batch-concurrency <n>       Operations of a batch executed at once (default: 4)
  -server.cors-origin <origin>        Allowed CORS origin. Repeatable
  -server.metadata-header <name>      Forward HTTP header to gRPC metadata. Repeatable
  -server.graphiql <bool>             Serve GraphiQL to browsers (default: true)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: gqlexec)
  -log.level <level>                  debug, info, warn or error (default: info)
  -log.dev                            Human-readable development logging
`

const printSchemaUsage = `print-schema FLAGS:
  -schema <file>           GraphQL SDL file (required)
  -out <file>              Write rendered SDL to file (default: stdout)
  (Validation always runs; exits non-zero on errors)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("gqlexec", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "exec":
		return cmdExec(cmdArgs, stdout, stderr)
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "print-schema":
		return cmdPrintSchema(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "exec":
		fmt.Fprint(stdout, execUsage)
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "print-schema":
		fmt.Fprint(stdout, printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// logFlags are shared by every command that executes operations.
type logFlags struct {
	level string
	dev   bool
}

func (l *logFlags) register(fs *flag.FlagSet, defaultLevel string) {
	l.level = defaultLevel
	fs.StringVar(&l.level, "log.level", l.level, "Minimum log level")
	fs.BoolVar(&l.dev, "log.dev", l.dev, "Development logging")
}

func (l *logFlags) build(stderr io.Writer) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.level)
	if err != nil {
		return nil, fmt.Errorf("-log.level: %w", err)
	}
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	opts := []zap.Option{zap.AddCaller()}
	if l.dev {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		opts = append(opts, zap.Development())
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(stderr), level)
	return zap.New(core, opts...), nil
}

func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return nil, fmt.Errorf("-schema is required")
	}
	sdl, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	sch, err := schema.BuildFromSDL(string(sdl))
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, nil
}

func loadRootValue(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read root value: %w", err)
	}
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("decode root value: %w", err)
	}
	return root, nil
}

func cmdExec(args []string, stdout, stderr io.Writer) error {
	schemaFile := ""
	rootFile := ""
	query := ""
	queryFile := ""
	operation := ""
	variables := ""
	introspection := true
	pretty := false
	var lf logFlags

	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&rootFile, "root", rootFile, "JSON root value file")
	fs.StringVar(&query, "query", query, "Operation document")
	fs.StringVar(&queryFile, "query.file", queryFile, "Operation document file")
	fs.StringVar(&operation, "operation", operation, "Operation name")
	fs.StringVar(&variables, "variables", variables, "Variables JSON")
	fs.BoolVar(&introspection, "introspection", introspection, "Enable introspection")
	fs.BoolVar(&pretty, "pretty", pretty, "Indent the JSON result")
	lf.register(fs, "warn")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, execUsage)
		return err
	}
	if queryFile != "" {
		b, err := os.ReadFile(queryFile)
		if err != nil {
			return fmt.Errorf("read query: %w", err)
		}
		query = string(b)
	}
	if query == "" {
		fmt.Fprint(stderr, execUsage)
		return fmt.Errorf("-query or -query.file is required")
	}

	logger, err := lf.build(stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	root, err := loadRootValue(rootFile)
	if err != nil {
		return err
	}
	vars := map[string]any{}
	if variables != "" {
		if err := json.Unmarshal([]byte(variables), &vars); err != nil {
			return fmt.Errorf("decode variables: %w", err)
		}
	}

	opts := []executor.Option{executor.WithLogger(logger)}
	if !introspection {
		opts = append(opts, executor.WithoutIntrospection())
	}
	exec := executor.NewExecutor(sch, opts...)

	var result *executor.ExecutionResult
	doc, errs := language.LoadQuery(exec.Schema().AST, query)
	if len(errs) > 0 {
		result = &executor.ExecutionResult{}
		for _, e := range errs {
			result.Errors = append(result.Errors, &executor.Error{
				Message: e.Message, Locations: e.Locations, Extensions: e.Extensions, Err: e,
			})
		}
	} else {
		ctx, _ := reqid.NewContext(context.Background())
		result = exec.ExecuteRequest(ctx, doc, operation, vars, root)
	}

	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return errExecution
	}
	return nil
}

// errExecution reports that the result was written but carries errors.
var errExecution = errors.New("execution finished with errors")

func cmdServe(args []string, stderr io.Writer) error {
	schemaFile := ""
	rootFile := ""
	introspection := true
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	maxBody := int64(0)
	batchConcurrency := 4
	graphiql := true
	otelEndpoint := ""
	otelService := "gqlexec"
	var corsOrigins stringListFlag
	var metadataHeaders stringListFlag
	var lf logFlags

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&rootFile, "root", rootFile, "JSON root value file")
	fs.BoolVar(&introspection, "introspection", introspection, "Enable introspection")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Int64Var(&maxBody, "server.max-body", maxBody, "Maximum request body size")
	fs.IntVar(&batchConcurrency, "server.batch-concurrency", batchConcurrency, "Concurrent batch operations")
	fs.Var(&corsOrigins, "server.cors-origin", "Allowed CORS origin")
	fs.Var(&metadataHeaders, "server.metadata-header", "Forward HTTP header to gRPC metadata")
	fs.BoolVar(&graphiql, "server.graphiql", graphiql, "Serve GraphiQL")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	lf.register(fs, "info")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(stderr, serveUsage)
		return fmt.Errorf("-schema is required")
	}

	logger, err := lf.build(stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	root, err := loadRootValue(rootFile)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	sopts := []server.Option{
		server.WithLogger(logger),
		server.WithRootValue(root),
		server.WithGraphiQL(graphiql),
		server.WithBatchConcurrency(batchConcurrency),
	}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if maxBody > 0 {
		sopts = append(sopts, server.WithMaxBodyBytes(maxBody))
	}
	if len(corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(corsOrigins...))
	}
	if len(metadataHeaders) > 0 {
		sopts = append(sopts, server.WithMetadataHeaders(metadataHeaders...))
	}
	if !introspection {
		sopts = append(sopts, server.WithExecutorOptions(executor.WithoutIntrospection()))
	}
	h, err := server.New(sch, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	srv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cmdPrintSchema(args []string, stdout, stderr io.Writer) error {
	schemaFile := ""
	outFile := ""
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&outFile, "out", outFile, "Write rendered SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, printSchemaUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(stderr, printSchemaUsage)
		return fmt.Errorf("-schema is required")
	}

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		fmt.Fprint(stdout, sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}
