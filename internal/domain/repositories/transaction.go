package repositories

import "context"

// TxFn runs with a context that carries the active transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs functions atomically. Repositories pick up the
// transaction from the context.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
