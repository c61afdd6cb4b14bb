package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Client defines the minimal contract the store needs from the graph database
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	// ExecuteWriteTx runs work in one write transaction. An error returned by
	// work rolls the transaction back.
	ExecuteWriteTx(ctx context.Context, work func(run RunFunc) error) error
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// RunFunc runs one statement inside a transaction
type RunFunc func(cypher string, params map[string]any) (Result, error)

// Result is a simplified representation of a query response
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine
type Record map[string]any

// Options configures the Bolt client
type Options struct {
	URI      string
	Database string
	Username string
	Password string
}

// ErrMissingURI indicates the graph URI is not provided
var ErrMissingURI = errors.New("neo4j URI is required")

// NewClient establishes a Bolt connection using the official driver
func NewClient(ctx context.Context, opts Options) (Client, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return &boltClient{driver: driver, database: opts.Database}, nil
}

type boltClient struct {
	driver   neo4j.DriverWithContext
	database string
}

func (c *boltClient) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   mode,
	})
}

func (c *boltClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, err
	}
	return consumeResult(ctx, res)
}

func (c *boltClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, err
	}
	return consumeResult(ctx, res)
}

func (c *boltClient) ExecuteWriteTx(ctx context.Context, work func(run RunFunc) error) error {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		run := func(cypher string, params map[string]any) (Result, error) {
			res, err := tx.Run(ctx, cypher, params)
			if err != nil {
				return Result{}, err
			}
			return consumeResult(ctx, res)
		}
		return nil, work(run)
	})
	return err
}

func (c *boltClient) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *boltClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func consumeResult(ctx context.Context, res neo4j.ResultWithContext) (Result, error) {
	var records []Record
	for res.Next(ctx) {
		rec := res.Record()
		record := make(Record, len(rec.Keys))
		for _, key := range rec.Keys {
			value, _ := rec.Get(key)
			record[key] = value
		}
		records = append(records, record)
	}
	if err := res.Err(); err != nil {
		return Result{}, err
	}
	return Result{Records: records}, nil
}
