package uow

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

// UnitOfWork runs catalog seeds and other multi-row writes in one gorm
// transaction. A WithTx nested inside another joins the outer transaction.
type UnitOfWork struct {
	db *gorm.DB
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if fn == nil {
		return errors.New("transaction body is required")
	}
	if tx, ok := ports.TxFrom(ctx); ok {
		if _, isGorm := tx.(*gorm.DB); isGorm {
			return fn(ctx)
		}
	}

	var bodyErr error
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bodyErr = fn(ports.ContextWithTx(ctx, tx))
		return bodyErr
	})
	if err != nil && !errors.Is(err, bodyErr) {
		return errs.Wrap(err, "commit transaction")
	}
	return err
}
