package support

import (
	"context"

	"rentlona/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already carried by ctx or starts a
// read-only one. The returned cleanup is nil when the unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Attach(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// UnitFromContext returns the unit the Transaction middleware installed.
func UnitFromContext(ctx context.Context) (uow.UnitOfWork, error) {
	return uow.Require(ctx)
}
