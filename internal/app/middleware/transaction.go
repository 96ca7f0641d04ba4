package middleware

import (
	"context"
	"log/slog"

	"rentlona/internal/app/commands"
	"rentlona/internal/app/uow"
)

// Transaction runs each command inside one unit of work, committed only when
// the handler succeeds.
func Transaction(factory uow.UoWFactory, logger *slog.Logger) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			unit, err := factory.Begin(ctx, uow.TxOptions{})
			if err != nil {
				return nil, err
			}
			execCtx := uow.Attach(ctx, unit)
			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				if rbErr := unit.Rollback(execCtx); rbErr != nil && logger != nil {
					logger.Warn("unit of work rollback failed", "command", cmd.Key(), "error", rbErr)
				}
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
