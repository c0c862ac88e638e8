package shared

import "context"

// TransactionManager runs a unit of work atomically. All repository calls
// made with the context passed to fn share one transaction; fn returning
// an error rolls everything back. A nested call joins the surrounding
// transaction through a savepoint, so a failed inner unit rolls back alone.
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
