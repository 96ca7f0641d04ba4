package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentlona/internal/app/dto"
	"rentlona/internal/app/handlers/support"
	"rentlona/internal/app/outbox"
	domainlistings "rentlona/internal/domain/listings"
	domainuser "rentlona/internal/domain/user"
)

const (
	createListingKey = "listings.create"
	updateListingKey = "listings.update"
	deleteListingKey = "listings.delete"
)

var (
	ErrListingNotOwned = errors.New("listings: listing belongs to another user")
	ErrOwnerNotFound   = errors.New("listings: owner not found")
)

// ListingPayload is the decoded create request.
type ListingPayload struct {
	Title          string
	Description    string
	Category       string
	Price          float64
	RentalPeriod   string
	ContactNumber  string
	Location       domainlistings.Location
	Images         []domainlistings.Image
	Specifications map[string]any
	Status         string
}

type CreateListingCommand struct {
	OwnerID string
	Payload ListingPayload
	// RequestKey is the client supplied Idempotency-Key, if any.
	RequestKey string
}

func (c CreateListingCommand) Key() string     { return createListingKey }
func (c CreateListingCommand) ActorID() string { return c.OwnerID }

func (c CreateListingCommand) IdempotencyKey() string {
	if strings.TrimSpace(c.RequestKey) == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", createListingKey, c.OwnerID, strings.TrimSpace(c.RequestKey))
}

func (c CreateListingCommand) ResultPrototype() any { return &dto.Listing{} }

type CreateListingHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*dto.Listing, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := unit.Users().ByID(ctx, domainuser.ID(cmd.OwnerID))
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}

	now := time.Now()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:             domainlistings.ListingID(uuid.NewString()),
		Owner:          domainlistings.OwnerID(owner.ID),
		Title:          cmd.Payload.Title,
		Description:    cmd.Payload.Description,
		Category:       cmd.Payload.Category,
		Price:          cmd.Payload.Price,
		RentalPeriod:   cmd.Payload.RentalPeriod,
		ContactNumber:  cmd.Payload.ContactNumber,
		Location:       cmd.Payload.Location,
		Images:         cmd.Payload.Images,
		Specifications: cmd.Payload.Specifications,
		Status:         cmd.Payload.Status,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	owner.AttachListing(string(listing.ID), now)
	if err := unit.Users().Save(ctx, owner); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "owner_id", owner.ID, "category", listing.Category)
	}
	result := dto.MapListing(listing, map[domainuser.ID]*domainuser.User{owner.ID: owner})
	return &result, nil
}

type UpdateListingCommand struct {
	OwnerID   string
	ListingID string
	Patch     domainlistings.Patch
	// Invalid carries a request decoding failure. It is reported only once the
	// caller is known to own the listing.
	Invalid error
}

func (c UpdateListingCommand) Key() string     { return updateListingKey }
func (c UpdateListingCommand) ActorID() string { return c.OwnerID }

type UpdateListingHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*dto.Listing, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := loadOwnedListing(ctx, unit.Listings(), cmd.ListingID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if cmd.Invalid != nil {
		return nil, cmd.Invalid
	}
	if !cmd.Patch.Empty() {
		if err := listing.Apply(cmd.Patch, time.Now()); err != nil {
			return nil, err
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return nil, err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, listing); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("listing updated", "listing_id", listing.ID, "owner_id", cmd.OwnerID)
		}
	}

	owners, err := unit.Users().ByIDs(ctx, []domainuser.ID{domainuser.ID(listing.Owner)})
	if err != nil {
		return nil, err
	}
	result := dto.MapListing(listing, owners)
	return &result, nil
}

type DeleteListingCommand struct {
	OwnerID   string
	ListingID string
}

func (c DeleteListingCommand) Key() string     { return deleteListingKey }
func (c DeleteListingCommand) ActorID() string { return c.OwnerID }

type DeleteListingHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *DeleteListingHandler) Handle(ctx context.Context, cmd DeleteListingCommand) (struct{}, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return struct{}{}, err
	}
	listing, err := loadOwnedListing(ctx, unit.Listings(), cmd.ListingID, cmd.OwnerID)
	if err != nil {
		return struct{}{}, err
	}
	if err := unit.Listings().Delete(ctx, listing.ID); err != nil {
		return struct{}{}, err
	}

	now := time.Now()
	owner, err := unit.Users().ByID(ctx, domainuser.ID(listing.Owner))
	switch {
	case err == nil:
		owner.DetachListing(string(listing.ID), now)
		if err := unit.Users().Save(ctx, owner); err != nil {
			return struct{}{}, err
		}
	case errors.Is(err, domainuser.ErrNotFound):
		if h.Logger != nil {
			h.Logger.Warn("deleted listing has no owner record", "listing_id", listing.ID, "owner_id", listing.Owner)
		}
	default:
		return struct{}{}, err
	}

	listing.MarkDeleted(now)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return struct{}{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing deleted", "listing_id", listing.ID, "owner_id", cmd.OwnerID)
	}
	return struct{}{}, nil
}

func loadOwnedListing(ctx context.Context, repo domainlistings.ListingRepository, listingID, ownerID string) (*domainlistings.Listing, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, domainlistings.ErrNotFound
	}
	listing, err := repo.ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return nil, err
	}
	if !listing.IsOwnedBy(domainlistings.OwnerID(ownerID)) {
		return nil, ErrListingNotOwned
	}
	return listing, nil
}
