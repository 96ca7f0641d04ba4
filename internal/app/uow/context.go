package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// sessionInjector is implemented by units whose repositories read a driver
// session from the context (the Mongo unit).
type sessionInjector interface {
	InjectContext(context.Context) context.Context
}

// Attach stores unit in ctx, after letting the unit add its driver session.
func Attach(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(sessionInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext returns the unit installed by Attach.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok
}

// Require is FromContext for handlers that cannot run without a unit.
func Require(ctx context.Context) (UnitOfWork, error) {
	unit, ok := FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkMissing
	}
	return unit, nil
}
