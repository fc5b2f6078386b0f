// Package neo4j loads hierarchy datasets from a Neo4j knowledge base.
//
// The loader runs one Cypher query returning child/parent rows and folds
// them into a [dataset.Dataset]. Query execution goes through [Runner] so
// tests and alternative drivers can supply rows without a database.
package neo4j

import (
	"context"
	"fmt"

	neo4jdrv "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matzehuels/taxoview/pkg/dataset"
	"github.com/matzehuels/taxoview/pkg/errors"
)

// DefaultQuery reads subclass and part-of links between entities. Result
// columns must be named child, parent, relation, child_label and
// parent_label; labels and relation may be null.
const DefaultQuery = `
MATCH (c:Entity)-[r:SUBCLASS_OF|PART_OF]->(p:Entity)
RETURN c.id AS child,
       p.id AS parent,
       coalesce(r.pid, type(r)) AS relation,
       c.label AS child_label,
       p.label AS parent_label
ORDER BY child, parent`

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "neo4j"

// Runner executes a Cypher query and buffers its records.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4jdrv.EagerResult, error)
}

// Executor is a [Runner] backed by the official driver.
type Executor struct {
	Driver   neo4jdrv.DriverWithContext
	Database string
}

// Connect creates a driver for uri. Empty credentials select no auth.
func Connect(uri, user, password, database string) (*Executor, error) {
	auth := neo4jdrv.NoAuth()
	if user != "" || password != "" {
		auth = neo4jdrv.BasicAuth(user, password, "")
	}
	drv, err := neo4jdrv.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "create neo4j driver")
	}
	if database == "" {
		database = DefaultDatabase
	}
	return &Executor{Driver: drv, Database: database}, nil
}

// Verify checks connectivity.
func (e *Executor) Verify(ctx context.Context) error {
	if err := e.Driver.VerifyConnectivity(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "neo4j connectivity")
	}
	return nil
}

// Close releases the driver.
func (e *Executor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

// Run executes query in a managed read transaction.
func (e *Executor) Run(ctx context.Context, query string, params map[string]any) (*neo4jdrv.EagerResult, error) {
	res, err := neo4jdrv.ExecuteQuery(ctx, e.Driver, query, params,
		neo4jdrv.EagerResultTransformer,
		neo4jdrv.ExecuteQueryWithDatabase(e.Database),
		neo4jdrv.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "neo4j query")
	}
	return res, nil
}

// Loader turns query rows into a dataset.
type Loader struct {
	Runner Runner
	Query  string         // DefaultQuery when empty
	Params map[string]any // passed through to the query
	Root   string         // dataset root override, optional
}

// Load runs the query and returns the validated dataset. Rows with a null
// child or parent are skipped.
func (l *Loader) Load(ctx context.Context) (*dataset.Dataset, error) {
	if l.Runner == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "neo4j loader has no runner")
	}
	query := l.Query
	if query == "" {
		query = DefaultQuery
	}

	res, err := l.Runner.Run(ctx, query, l.Params)
	if err != nil {
		return nil, err
	}

	d := &dataset.Dataset{Root: l.Root}
	for _, rec := range res.Records {
		child, parent := str(rec, "child"), str(rec, "parent")
		if child == "" || parent == "" {
			continue
		}
		d.Hierarchy = append(d.Hierarchy, []string{child, str(rec, "relation"), parent})
		if label := str(rec, "child_label"); label != "" {
			d.AddLabel(child, label)
		}
		if label := str(rec, "parent_label"); label != "" {
			d.AddLabel(parent, label)
		}
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("neo4j rows: %w", err)
	}
	return d, nil
}

func str(rec *neo4jdrv.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
