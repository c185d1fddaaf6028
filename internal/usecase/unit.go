package usecase

import "context"

// runUnit runs fn inside one database transaction bounded by
// DefaultTransactionTimeout. With a retrier, the whole unit is re-run on
// transient conflicts, so fn must not have effects outside tx.
func runUnit(ctx context.Context, txManager TransactionManager, retrier Retrier, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if retrier == nil {
		return attempt()
	}

	return retrier.Retry(ctx, attempt)
}
