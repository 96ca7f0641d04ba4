package middleware

import (
	"context"
	"errors"
	"strings"

	"rentlona/internal/app/commands"
	"rentlona/internal/app/queries"
)

// ErrUnauthenticated is returned when a message that needs an acting user has none.
var ErrUnauthenticated = errors.New("middleware: authentication required")

// ActorBound messages are issued on behalf of a signed-in user.
type ActorBound interface {
	ActorID() string
}

// RequireActor stops commands that carry an empty actor before any store access.
func RequireActor() CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := checkActor(cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryRequireActor() QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := checkActor(q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}

func checkActor(message any) error {
	bound, ok := message.(ActorBound)
	if !ok {
		return nil
	}
	if strings.TrimSpace(bound.ActorID()) == "" {
		return ErrUnauthenticated
	}
	return nil
}
