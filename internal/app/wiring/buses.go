// Package wiring registers every application handler on the command and query
// buses and wraps them in the standard middleware chain.
package wiring

import (
	"errors"
	"log/slog"
	"time"

	"rentlona/internal/app/commands"
	listingapp "rentlona/internal/app/handlers/listings"
	messageapp "rentlona/internal/app/handlers/messages"
	userapp "rentlona/internal/app/handlers/users"
	"rentlona/internal/app/middleware"
	"rentlona/internal/app/outbox"
	"rentlona/internal/app/queries"
	"rentlona/internal/app/uow"
)

type Deps struct {
	UoW         uow.UoWFactory
	Outbox      outbox.Outbox
	Idempotency middleware.IdempotencyStore
	// Uploader may be nil; image uploads then fail with ErrUploadsDisabled.
	Uploader    listingapp.Uploader
	Thumbnailer listingapp.Thumbnailer

	AllowSelfMessaging bool
	Logger             *slog.Logger
	Now                func() time.Time
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func Build(deps Deps) (Buses, error) {
	switch {
	case deps.UoW == nil:
		return Buses{}, errors.New("wiring: unit of work factory required")
	case deps.Outbox == nil:
		return Buses{}, errors.New("wiring: outbox required")
	case deps.Idempotency == nil:
		return Buses{}, errors.New("wiring: idempotency store required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	encoder := outbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, &listingapp.CreateListingHandler{Outbox: deps.Outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &listingapp.UpdateListingHandler{Outbox: deps.Outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &listingapp.DeleteListingHandler{Outbox: deps.Outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &listingapp.UploadImagesHandler{Uploader: deps.Uploader, Thumbnailer: deps.Thumbnailer, Logger: logger})
	commands.RegisterHandler(commandBus, &messageapp.SendMessageHandler{
		AllowSelf: deps.AllowSelfMessaging,
		Outbox:    deps.Outbox,
		Encoder:   encoder,
		Logger:    logger,
		Now:       deps.Now,
	})
	commands.RegisterHandler(commandBus, &messageapp.MarkThreadReadHandler{Outbox: deps.Outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &userapp.UpdateProfileHandler{})
	commands.RegisterHandler(commandBus, &userapp.AddFavoriteHandler{Outbox: deps.Outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, &userapp.RemoveFavoriteHandler{Outbox: deps.Outbox, Encoder: encoder, Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, &listingapp.GetListingHandler{UoWFactory: deps.UoW})
	queries.RegisterHandler(queryBus, &listingapp.SearchListingsHandler{UoWFactory: deps.UoW})
	queries.RegisterHandler(queryBus, &listingapp.ListOwnerListingsHandler{UoWFactory: deps.UoW})
	queries.RegisterHandler(queryBus, &messageapp.GetThreadHandler{UoWFactory: deps.UoW})
	queries.RegisterHandler(queryBus, &messageapp.ListConversationsHandler{UoWFactory: deps.UoW, Logger: logger})
	queries.RegisterHandler(queryBus, &messageapp.ListMessagesHandler{UoWFactory: deps.UoW})
	queries.RegisterHandler(queryBus, &userapp.GetProfileHandler{UoWFactory: deps.UoW})
	queries.RegisterHandler(queryBus, &userapp.ListFavoritesHandler{UoWFactory: deps.UoW})

	return Buses{
		Commands: middleware.ChainCommands(
			commandBus,
			middleware.Idempotency(deps.Idempotency, nil),
			middleware.RequireActor(),
			middleware.Validation(),
			middleware.Transaction(deps.UoW, logger),
			middleware.OutboxFlush(deps.Outbox),
		),
		Queries: middleware.ChainQueries(
			queryBus,
			middleware.QueryRequireActor(),
			middleware.QueryValidation(),
		),
	}, nil
}
