package wiring_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentlona/internal/app/commands"
	"rentlona/internal/app/dto"
	listingapp "rentlona/internal/app/handlers/listings"
	messageapp "rentlona/internal/app/handlers/messages"
	userapp "rentlona/internal/app/handlers/users"
	"rentlona/internal/app/middleware"
	"rentlona/internal/app/queries"
	"rentlona/internal/app/wiring"
	domainlistings "rentlona/internal/domain/listings"
	domainmessages "rentlona/internal/domain/messages"
	"rentlona/internal/domain/shared/validation"
	domainuser "rentlona/internal/domain/user"
	"rentlona/internal/infra/obs"
	"rentlona/internal/infra/storage/memory"
)

type fixture struct {
	buses    wiring.Buses
	users    *memory.UserRepository
	listings *memory.ListingRepository
	outbox   *memory.Outbox
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		users:    memory.NewUserRepository(),
		listings: memory.NewListingRepository(),
		outbox:   memory.NewOutbox(obs.Discard()),
	}
	buses, err := wiring.Build(wiring.Deps{
		UoW: memory.Factory{
			ListingsRepo: f.listings,
			UsersRepo:    f.users,
			MessagesRepo: memory.NewMessageRepository(),
		},
		Outbox:      f.outbox,
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Logger:      obs.Discard(),
	})
	require.NoError(t, err)
	f.buses = buses
	return f
}

func (f fixture) addUser(t *testing.T, id, name string) {
	t.Helper()
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(id),
		Name:         name,
		Email:        id + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
}

func camera() listingapp.ListingPayload {
	return listingapp.ListingPayload{
		Title:         "Camera",
		Description:   "Mirrorless body with kit lens",
		Category:      "electronics",
		Price:         25,
		ContactNumber: "555-0100",
		Location:      domainlistings.Location{City: "Lagos"},
	}
}

func TestBuildRequiresDependencies(t *testing.T) {
	_, err := wiring.Build(wiring.Deps{})
	require.Error(t, err)
}

func TestFreshConversation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u2", "Bola")
	f.addUser(t, "u1", "Ade")

	sent, err := commands.Dispatch[messageapp.SendMessageCommand, *dto.Message](ctx, f.buses.Commands, messageapp.SendMessageCommand{
		SenderID:   "u2",
		ReceiverID: "u1",
		Content:    "Is the camera available?",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1_u2", sent.ThreadID)
	assert.Equal(t, "Bola", sent.Sender.Name)
	assert.False(t, sent.Read)

	forReceiver, err := queries.Ask[messageapp.ListConversationsQuery, []dto.Conversation](ctx, f.buses.Queries, messageapp.ListConversationsQuery{ViewerID: "u1"})
	require.NoError(t, err)
	require.Len(t, forReceiver, 1)
	assert.Equal(t, 1, forReceiver[0].MessageCount)
	assert.Equal(t, 1, forReceiver[0].UnreadCount)
	require.Len(t, forReceiver[0].Participants, 1)
	assert.Equal(t, "u2", forReceiver[0].Participants[0].ID)

	forSender, err := queries.Ask[messageapp.ListConversationsQuery, []dto.Conversation](ctx, f.buses.Queries, messageapp.ListConversationsQuery{ViewerID: "u2"})
	require.NoError(t, err)
	require.Len(t, forSender, 1)
	assert.Equal(t, 0, forSender[0].UnreadCount)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1", "Ade")
	f.addUser(t, "u2", "Bola")
	for _, content := range []string{"hi", "still there?"} {
		_, err := commands.Dispatch[messageapp.SendMessageCommand, *dto.Message](ctx, f.buses.Commands, messageapp.SendMessageCommand{SenderID: "u2", ReceiverID: "u1", Content: content})
		require.NoError(t, err)
	}

	first, err := commands.Dispatch[messageapp.MarkThreadReadCommand, *dto.MarkReadResult](ctx, f.buses.Commands, messageapp.MarkThreadReadCommand{ViewerID: "u1", ThreadID: "u1_u2"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Updated)
	assert.Equal(t, messageapp.MarkedReadMessage, first.Message)

	second, err := commands.Dispatch[messageapp.MarkThreadReadCommand, *dto.MarkReadResult](ctx, f.buses.Commands, messageapp.MarkThreadReadCommand{ViewerID: "u1", ThreadID: "u1_u2"})
	require.NoError(t, err)
	assert.Zero(t, second.Updated)

	convs, err := queries.Ask[messageapp.ListConversationsQuery, []dto.Conversation](ctx, f.buses.Queries, messageapp.ListConversationsQuery{ViewerID: "u1"})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Zero(t, convs[0].UnreadCount)
	assert.Equal(t, "still there?", convs[0].LastMessage.Content)
}

func TestThreadRejectsOutsiders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1", "Ade")
	f.addUser(t, "u2", "Bola")

	_, err := queries.Ask[messageapp.GetThreadQuery, []dto.Message](ctx, f.buses.Queries, messageapp.GetThreadQuery{ViewerID: "u3", ThreadID: "u1_u2"})
	require.ErrorIs(t, err, domainmessages.ErrNotParticipant)

	_, err = queries.Ask[messageapp.GetThreadQuery, []dto.Message](ctx, f.buses.Queries, messageapp.GetThreadQuery{ViewerID: "u1", ThreadID: "nonsense"})
	require.ErrorIs(t, err, validation.ErrInvalid)
}

func TestConversationToleratesDeletedCounterpart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1", "Ade")
	f.addUser(t, "u2", "Bola")
	_, err := commands.Dispatch[messageapp.SendMessageCommand, *dto.Message](ctx, f.buses.Commands, messageapp.SendMessageCommand{SenderID: "u1", ReceiverID: "u2", Content: "hello"})
	require.NoError(t, err)
	f.users.Delete(ctx, "u2")

	convs, err := queries.Ask[messageapp.ListConversationsQuery, []dto.Conversation](ctx, f.buses.Queries, messageapp.ListConversationsQuery{ViewerID: "u1"})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Empty(t, convs[0].Participants)
	assert.Equal(t, "u2", convs[0].LastMessage.Receiver.ID)
}

func TestCommandsRequireActor(t *testing.T) {
	f := newFixture(t)
	_, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](context.Background(), f.buses.Commands, listingapp.CreateListingCommand{Payload: camera()})
	require.ErrorIs(t, err, middleware.ErrUnauthenticated)
}

func TestCreateListingReplaysIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1", "Ade")
	cmd := listingapp.CreateListingCommand{OwnerID: "u1", Payload: camera(), RequestKey: "retry-1"}

	first, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](ctx, f.buses.Commands, cmd)
	require.NoError(t, err)
	second, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](ctx, f.buses.Commands, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	owned, err := queries.Ask[listingapp.ListOwnerListingsQuery, []dto.Listing](ctx, f.buses.Queries, listingapp.ListOwnerListingsQuery{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	profile, err := queries.Ask[userapp.GetProfileQuery, *dto.UserProfile](ctx, f.buses.Queries, userapp.GetProfileQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, profile.Listings, 1)
	assert.Equal(t, first.ID, profile.Listings[0].ID)
	assert.Zero(t, f.outbox.Pending())
}

func TestIdempotencyKeyRejectsChangedBody(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1", "Ade")
	_, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](ctx, f.buses.Commands,
		listingapp.CreateListingCommand{OwnerID: "u1", Payload: camera(), RequestKey: "retry-1"})
	require.NoError(t, err)

	changed := camera()
	changed.Price = 90
	_, err = commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](ctx, f.buses.Commands,
		listingapp.CreateListingCommand{OwnerID: "u1", Payload: changed, RequestKey: "retry-1"})
	require.ErrorIs(t, err, middleware.ErrIdempotencyConflict)

	owned, err := queries.Ask[listingapp.ListOwnerListingsQuery, []dto.Listing](ctx, f.buses.Queries, listingapp.ListOwnerListingsQuery{OwnerID: "u1"})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, 25.0, owned[0].Price)
}

func TestOwnershipCheckedBeforeValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1", "Ade")
	f.addUser(t, "u2", "Bola")
	created, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](ctx, f.buses.Commands, listingapp.CreateListingCommand{OwnerID: "u1", Payload: camera()})
	require.NoError(t, err)

	_, err = commands.Dispatch[listingapp.UpdateListingCommand, *dto.Listing](ctx, f.buses.Commands, listingapp.UpdateListingCommand{
		OwnerID:   "u2",
		ListingID: created.ID,
		Invalid:   validation.Field("price", "must be a number"),
	})
	require.ErrorIs(t, err, listingapp.ErrListingNotOwned)

	_, err = commands.Dispatch[listingapp.DeleteListingCommand, struct{}](ctx, f.buses.Commands, listingapp.DeleteListingCommand{OwnerID: "u2", ListingID: created.ID})
	require.ErrorIs(t, err, listingapp.ErrListingNotOwned)

	_, err = commands.Dispatch[listingapp.DeleteListingCommand, struct{}](ctx, f.buses.Commands, listingapp.DeleteListingCommand{OwnerID: "u1", ListingID: created.ID})
	require.NoError(t, err)
	_, err = queries.Ask[listingapp.GetListingQuery, *dto.Listing](ctx, f.buses.Queries, listingapp.GetListingQuery{ListingID: created.ID})
	require.ErrorIs(t, err, domainlistings.ErrNotFound)
}

func TestFavoritesSkipDeletedListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1", "Ade")
	f.addUser(t, "u2", "Bola")
	created, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](ctx, f.buses.Commands, listingapp.CreateListingCommand{OwnerID: "u1", Payload: camera()})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		res, err := commands.Dispatch[userapp.AddFavoriteCommand, *userapp.FavoriteResult](ctx, f.buses.Commands, userapp.AddFavoriteCommand{UserID: "u2", ListingID: created.ID})
		require.NoError(t, err)
		assert.Equal(t, userapp.AddedToFavorites, res.Message)
	}
	favs, err := queries.Ask[userapp.ListFavoritesQuery, []dto.Listing](ctx, f.buses.Queries, userapp.ListFavoritesQuery{UserID: "u2"})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "Ade", favs[0].User.Name)

	require.NoError(t, f.listings.Delete(ctx, domainlistings.ListingID(created.ID)))
	favs, err = queries.Ask[userapp.ListFavoritesQuery, []dto.Listing](ctx, f.buses.Queries, userapp.ListFavoritesQuery{UserID: "u2"})
	require.NoError(t, err)
	assert.Empty(t, favs)
}
