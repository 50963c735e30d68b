package export

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/roach88/flowir/internal/ir"
)

// DefaultBatchSize is the number of rows sent per UNWIND statement.
const DefaultBatchSize = 500

// Runner executes one Cypher statement.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

// Config locates the database.
type Config struct {
	URI      string
	User     string
	Password string
	Database string
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r *driverRunner) Run(ctx context.Context, cypher string, params map[string]any) error {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if r.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(r.database))
	}
	_, err := neo4j.ExecuteQuery(ctx, r.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	return err
}

// Exporter loads modules into a graph database.
type Exporter struct {
	runner    Runner
	batchSize int
	close     func(context.Context) error
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithBatchSize sets the rows per UNWIND statement.
func WithBatchSize(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// New creates an Exporter that sends statements to r.
func New(r Runner, opts ...Option) *Exporter {
	e := &Exporter{runner: r, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connect opens a driver for cfg and verifies the server is reachable.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Exporter, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j at %s: %w", cfg.URI, err)
	}

	e := New(&driverRunner{driver: driver, database: cfg.Database}, opts...)
	e.close = driver.Close
	return e, nil
}

// Close releases the driver opened by Connect.
func (e *Exporter) Close(ctx context.Context) error {
	if e.close == nil {
		return nil
	}
	return e.close(ctx)
}

// CreateIndexes ensures the lookup indexes used by the export queries exist.
func (e *Exporter) CreateIndexes(ctx context.Context) error {
	slog.Info("creating indexes")
	indexes := []string{
		"CREATE INDEX flow_module_key IF NOT EXISTS FOR (n:FlowModule) ON (n.key)",
		"CREATE INDEX flow_function_key IF NOT EXISTS FOR (n:FlowFunction) ON (n.key)",
		"CREATE INDEX flow_function_name IF NOT EXISTS FOR (n:FlowFunction) ON (n.name)",
		"CREATE INDEX flow_node_key IF NOT EXISTS FOR (n:FlowNode) ON (n.key)",
	}
	for _, q := range indexes {
		if err := e.runner.Run(ctx, q, nil); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Clean removes every exported module.
func (e *Exporter) Clean(ctx context.Context) error {
	slog.Info("cleaning exported graphs")
	queries := []string{
		"MATCH (n:FlowNode) DETACH DELETE n",
		"MATCH (n:FlowFunction) DETACH DELETE n",
		"MATCH (n:FlowModule) DETACH DELETE n",
	}
	for _, q := range queries {
		if err := e.runner.Run(ctx, q, nil); err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}
	return nil
}

// Counts reports what one export wrote.
type Counts struct {
	Functions int
	Nodes     int
	Edges     int
}

// ExportModule replaces the graph stored under key with m. key is
// normally the module's source key.
func (e *Exporter) ExportModule(ctx context.Context, key string, m *ir.Module) (Counts, error) {
	var counts Counts

	if err := e.runner.Run(ctx,
		`MATCH (m:FlowModule {key: $key})
		 OPTIONAL MATCH (m)-[:DEFINES]->(f:FlowFunction)
		 OPTIONAL MATCH (f)-[:HAS_NODE]->(n:FlowNode)
		 DETACH DELETE n, f`,
		map[string]any{"key": key}); err != nil {
		return counts, fmt.Errorf("export %s: clear previous: %w", key, err)
	}

	moduleMeta, err := encodeMetadata(m.Metadata)
	if err != nil {
		return counts, fmt.Errorf("export %s: %w", key, err)
	}
	filePath, _ := m.Metadata["file_path"].(ir.String)
	if err := e.runner.Run(ctx,
		`MERGE (m:FlowModule {key: $key})
		 SET m.language = $language, m.file_path = $file_path, m.metadata = $metadata`,
		map[string]any{
			"key":       key,
			"language":  m.Language,
			"file_path": string(filePath),
			"metadata":  moduleMeta,
		}); err != nil {
		return counts, fmt.Errorf("export %s: module: %w", key, err)
	}

	var functions, nodes, edges []map[string]any
	for i := range m.Functions {
		fn := &m.Functions[i]
		fnKey := fmt.Sprintf("%s#%d", key, i)
		fnMeta, err := encodeMetadata(fn.Metadata)
		if err != nil {
			return counts, fmt.Errorf("export %s: function %s: %w", key, fn.Name, err)
		}
		functions = append(functions, map[string]any{
			"key":        fnKey,
			"module":     key,
			"position":   i,
			"name":       fn.Name,
			"parameters": slices.Clone(fn.Parameters),
			"returns":    optional(fn.Returns),
			"docstring":  optional(fn.Docstring),
			"metadata":   fnMeta,
		})

		for _, n := range fn.Nodes {
			row := map[string]any{
				"key":      fnKey + "/" + n.ID,
				"function": fnKey,
				"id":       n.ID,
				"kind":     string(n.Kind),
				"label":    n.Label,
				"summary":  optional(n.Summary),
				"line":     nil,
				"column":   nil,
			}
			if n.Location != nil {
				row["line"] = n.Location.Line
				row["column"] = n.Location.Column
			}
			nodes = append(nodes, row)
		}
		for seq, edge := range fn.Edges {
			edges = append(edges, map[string]any{
				"source": fnKey + "/" + edge.Source,
				"target": fnKey + "/" + edge.Target,
				"label":  edge.Label,
				"seq":    seq,
			})
		}
	}

	steps := []struct {
		what   string
		cypher string
		rows   []map[string]any
	}{
		{"functions", `UNWIND $batch AS row
		 MERGE (f:FlowFunction {key: row.key})
		 SET f.name = row.name, f.position = row.position, f.parameters = row.parameters,
		     f.returns = row.returns, f.docstring = row.docstring, f.metadata = row.metadata
		 WITH f, row
		 MATCH (m:FlowModule {key: row.module})
		 MERGE (m)-[:DEFINES]->(f)`, functions},
		{"nodes", `UNWIND $batch AS row
		 MERGE (n:FlowNode {key: row.key})
		 SET n.id = row.id, n.kind = row.kind, n.label = row.label, n.summary = row.summary,
		     n.line = row.line, n.column = row.column
		 WITH n, row
		 MATCH (f:FlowFunction {key: row.function})
		 MERGE (f)-[:HAS_NODE]->(n)`, nodes},
		{"edges", `UNWIND $batch AS row
		 MATCH (a:FlowNode {key: row.source}), (b:FlowNode {key: row.target})
		 MERGE (a)-[r:FLOWS_TO {seq: row.seq}]->(b)
		 SET r.label = row.label`, edges},
	}
	for _, step := range steps {
		if err := e.runBatched(ctx, step.cypher, step.rows); err != nil {
			return counts, fmt.Errorf("export %s: %s: %w", key, step.what, err)
		}
	}

	counts = Counts{Functions: len(functions), Nodes: len(nodes), Edges: len(edges)}
	slog.Info("exported module",
		"key", key,
		"file", string(filePath),
		"functions", counts.Functions,
		"nodes", counts.Nodes,
		"edges", counts.Edges)
	return counts, nil
}

func (e *Exporter) runBatched(ctx context.Context, cypher string, rows []map[string]any) error {
	for batch := range slices.Chunk(rows, e.batchSize) {
		if err := e.runner.Run(ctx, cypher, map[string]any{"batch": batch}); err != nil {
			return err
		}
	}
	return nil
}

// encodeMetadata flattens metadata to canonical JSON; graph properties
// cannot hold nested maps.
func encodeMetadata(obj ir.Object) (string, error) {
	if obj == nil {
		obj = ir.Object{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
