package ports

import "context"

// UnitOfWork commits a group of catalog and intervention writes atomically.
// fn receives a context carrying the open transaction; repositories called
// with that context join it. A non-nil return from fn rolls everything back.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Tx is the adapter-specific transaction handle (a *gorm.DB for the gormdb adapter).
type Tx any

type txContextKey struct{}

func ContextWithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFrom returns the transaction opened by an enclosing WithTx, if any.
func TxFrom(ctx context.Context) (Tx, bool) {
	tx := ctx.Value(txContextKey{})
	return tx, tx != nil
}
