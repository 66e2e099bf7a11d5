package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

// dbFromContext joins the transaction opened by uow.WithTx when ctx carries one.
func dbFromContext(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	tx, ok := ports.TxFrom(ctx)
	if !ok {
		return db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func cloneStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	value := *ptr
	return &value
}
