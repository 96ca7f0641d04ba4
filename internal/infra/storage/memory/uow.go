package memory

import (
	"context"
	"errors"

	"rentlona/internal/app/uow"
	domainlistings "rentlona/internal/domain/listings"
	domainmessages "rentlona/internal/domain/messages"
	domainuser "rentlona/internal/domain/user"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo domainlistings.ListingRepository
	UsersRepo    domainuser.Repository
	MessagesRepo domainmessages.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin returns a unit without isolation; writes are visible immediately and
// Rollback does not undo them.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.UsersRepo == nil || f.MessagesRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{listings: f.ListingsRepo, users: f.UsersRepo, messages: f.MessagesRepo}, nil
}

type Unit struct {
	listings domainlistings.ListingRepository
	users    domainuser.Repository
	messages domainmessages.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }
func (u *Unit) Users() domainuser.Repository               { return u.users }
func (u *Unit) Messages() domainmessages.Repository        { return u.messages }

func (u *Unit) Commit(ctx context.Context) error   { return nil }
func (u *Unit) Rollback(ctx context.Context) error { return nil }
