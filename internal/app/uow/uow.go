package uow

import (
	"context"

	domainlistings "rentlona/internal/domain/listings"
	domainmessages "rentlona/internal/domain/messages"
	domainuser "rentlona/internal/domain/user"
)

// UnitOfWork groups the repositories touched by one command. Writes that span
// aggregates (a listing and its owner's back-reference) go through one unit.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Users() domainuser.Repository
	Messages() domainmessages.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
