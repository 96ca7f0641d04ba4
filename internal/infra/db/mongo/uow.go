package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentlona/internal/app/uow"
	domainlistings "rentlona/internal/domain/listings"
	domainmessages "rentlona/internal/domain/messages"
	domainuser "rentlona/internal/domain/user"
)

// Factory wires Mongo sessions into the generic UnitOfWork interface.
// Transactions need a replica set; with Transactions off each write commits on
// its own, which is what a standalone server gives anyway.
type Factory struct {
	DB           *mongo.Database
	Transactions bool

	ListingsRepo domainlistings.ListingRepository
	UsersRepo    domainuser.Repository
	MessagesRepo domainmessages.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.ListingsRepo == nil || f.UsersRepo == nil || f.MessagesRepo == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	unit := &Unit{listings: f.ListingsRepo, users: f.UsersRepo, messages: f.MessagesRepo}
	if !f.Transactions || opts.ReadOnly {
		return unit, nil
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	unit.session = session
	return unit, nil
}

type Unit struct {
	session mongo.Session

	listings domainlistings.ListingRepository
	users    domainuser.Repository
	messages domainmessages.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }
func (u *Unit) Users() domainuser.Repository               { return u.users }
func (u *Unit) Messages() domainmessages.Repository        { return u.messages }

func (u *Unit) Commit(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the session visible to repositories called with ctx.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	if u.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, u.session)
}
