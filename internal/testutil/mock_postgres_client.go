package testutil

import (
	"context"
	"sync/atomic"

	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// MockPostgresClient runs transactional work without a database. It does not roll
// anything back, the in-memory stores see every write as it happens.
type MockPostgresClient struct {
	logger *logger.Logger
	txs    atomic.Int64
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

type txDepthKey struct{}

// WithTx executes the given function as if inside a transaction. Nested calls
// stand in for savepoints and deepen TxDepth.
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	c.txs.Add(1)
	return fn(context.WithValue(ctx, txDepthKey{}, TxDepth(ctx)+1))
}

// TxDepth reports how many WithTx calls enclose ctx, 0 outside any transaction
func TxDepth(ctx context.Context) int {
	depth, _ := ctx.Value(txDepthKey{}).(int)
	return depth
}

// Querier is never used by the in-memory stores
func (c *MockPostgresClient) Querier(ctx context.Context) postgres.Querier {
	return nil
}

// TxCount returns how many transactions were started
func (c *MockPostgresClient) TxCount() int {
	return int(c.txs.Load())
}
