package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// ContextWithTx embeds a running transaction in the context so repositories
// invoked downstream join it instead of opening their own connections
func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// dbFor returns the transaction embedded in the context, or the fallback
// connection when none is present
func dbFor(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

// transactionOn is re-entrant: inside a running transaction it nests via a
// savepoint, so a failed inner unit rolls back alone and leaves the outer
// transaction usable. On Postgres any failed statement otherwise poisons
// the whole transaction.
func transactionOn(db *gorm.DB, ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.Transaction(func(nested *gorm.DB) error {
			return fn(ContextWithTx(ctx, nested))
		})
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTx(ctx, tx))
	})
}

// GormTransactionManager runs units of work in one transaction over a plain
// gorm connection. Database embeds the same behavior; this type exists so
// services can be wired against any *gorm.DB, test databases included.
type GormTransactionManager struct {
	DB *gorm.DB
}

// Transaction implements shared.TransactionManager
func (m *GormTransactionManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return transactionOn(m.DB, ctx, fn)
}
