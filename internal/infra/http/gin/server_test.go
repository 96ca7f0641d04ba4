package ginserver

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rentlona/internal/app/dto"
	authsvc "rentlona/internal/app/services/auth"
	"rentlona/internal/app/wiring"
	"rentlona/internal/infra/config"
	"rentlona/internal/infra/media"
	"rentlona/internal/infra/obs"
	"rentlona/internal/infra/security"
	"rentlona/internal/infra/storage/localfs"
	"rentlona/internal/infra/storage/memory"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

type apiOptions struct {
	uploadDir string
	limiter   gin.HandlerFunc
}

func newTestAPI(t *testing.T, opts apiOptions) *testAPI {
	t.Helper()
	logger := obs.Discard()
	users := memory.NewUserRepository()
	box := memory.NewOutbox(logger)
	factory := memory.Factory{
		ListingsRepo: memory.NewListingRepository(),
		UsersRepo:    users,
		MessagesRepo: memory.NewMessageRepository(),
	}
	deps := wiring.Deps{
		UoW:         factory,
		Outbox:      box,
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Logger:      logger,
	}
	if opts.uploadDir != "" {
		deps.Uploader = localfs.Uploader{Dir: opts.uploadDir, URLPrefix: "/uploads"}
		deps.Thumbnailer = media.Thumbnailer{Size: 16}
	}
	buses, err := wiring.Build(deps)
	require.NoError(t, err)

	svc := &authsvc.Service{
		Users:     users,
		Passwords: security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:    security.JWTIssuer{Secret: []byte("test-secret"), TTL: time.Hour},
		Denylist:  memory.NewDenylist(),
		Logger:    logger,
	}
	router := NewRouter(config.Config{Env: "test"}, obs.Middleware{Logger: logger}, obs.HealthHandlers{}, Handlers{
		Auth:           AuthHandler{Service: svc, Queries: buses.Queries, Logger: logger},
		Listing:        ListingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Message:        MessageHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		User:           UserHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		AuthMiddleware: AuthMiddleware{Service: svc, Logger: logger}.Handle,
		AuthLimiter:    opts.limiter,
		UploadDir:      opts.uploadDir,
	})
	return &testAPI{t: t, router: router}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// register returns the token and user id of a new account.
func (a *testAPI) register(name, email string) (string, string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": name, "email": email, "password": "correct horse"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[dto.AuthResponse](a.t, rec)
	return res.Token, res.User.ID
}

func (a *testAPI) createListing(token string, body gin.H) dto.Listing {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/listings", token, body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.Listing](a.t, rec)
}

func listingBody(title, category, city string, price any) gin.H {
	return gin.H{
		"title":         title,
		"description":   title + " for rent",
		"category":      category,
		"price":         price,
		"contactNumber": "555-0100",
		"location":      gin.H{"city": city, "state": "LA"},
	}
}

func TestRegisterLoginAndMe(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	token, id := api.register("Ade", "ade@example.com")

	dup := api.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "Ade", "email": "ADE@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusConflict, dup.Code)

	short := api.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "Bo", "email": "bo@example.com", "password": "short"})
	require.Equal(t, http.StatusBadRequest, short.Code)
	assert.Contains(t, decode[errorResponse](t, short).Fields, "password")

	login := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ade@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, login.Code)
	assert.NotEmpty(t, decode[dto.AuthResponse](t, login).Token)

	wrong := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ade@example.com", "password": "incorrect"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	me := api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, id, decode[dto.UserProfile](t, me).ID)
}

func TestProtectedRoutesRejectMissingOrBadTokens(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	for _, token := range []string{"", "not-a-jwt"} {
		rec := api.do(http.MethodGet, "/api/messages/conversations", token, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, authRequiredMessage, decode[errorResponse](t, rec).Message)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	token, _ := api.register("Ade", "ade@example.com")

	require.Equal(t, http.StatusNoContent, api.do(http.MethodPost, "/api/auth/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/auth/me", token, nil).Code)
}

func TestConversationReadTransition(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	aliceToken, aliceID := api.register("Alice", "alice@example.com")
	bobToken, bobID := api.register("Bob", "bob@example.com")
	carolToken, _ := api.register("Carol", "carol@example.com")

	sent := api.do(http.MethodPost, "/api/messages", bobToken, gin.H{"receiverId": aliceID, "content": "Is it free this weekend?"})
	require.Equal(t, http.StatusCreated, sent.Code, sent.Body.String())
	msg := decode[dto.Message](t, sent)
	thread := msg.ThreadID
	assert.Equal(t, "Bob", msg.Sender.Name)

	convs := decode[[]dto.Conversation](t, api.do(http.MethodGet, "/api/messages/conversations", aliceToken, nil))
	require.Len(t, convs, 1)
	assert.Equal(t, thread, convs[0].ThreadID)
	assert.Equal(t, 1, convs[0].UnreadCount)
	require.Len(t, convs[0].Participants, 1)
	assert.Equal(t, bobID, convs[0].Participants[0].ID)

	reply := api.do(http.MethodPost, "/api/messages", aliceToken, gin.H{"receiverId": bobID, "content": "Yes", "threadId": thread})
	require.Equal(t, http.StatusCreated, reply.Code)

	history := decode[[]dto.Message](t, api.do(http.MethodGet, "/api/messages/thread/"+thread, aliceToken, nil))
	require.Len(t, history, 2)
	assert.Equal(t, "Is it free this weekend?", history[0].Content)
	assert.Equal(t, "Yes", history[1].Content)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/messages/thread/"+thread, carolToken, nil).Code)

	first := decode[dto.MarkReadResult](t, api.do(http.MethodPut, "/api/messages/read/"+thread, aliceToken, nil))
	assert.Equal(t, 1, first.Updated)
	assert.Equal(t, "Messages marked as read", first.Message)
	second := decode[dto.MarkReadResult](t, api.do(http.MethodPut, "/api/messages/read/"+thread, aliceToken, nil))
	assert.Zero(t, second.Updated)

	convs = decode[[]dto.Conversation](t, api.do(http.MethodGet, "/api/messages/conversations", aliceToken, nil))
	require.Len(t, convs, 1)
	assert.Zero(t, convs[0].UnreadCount)
	assert.Equal(t, 2, convs[0].MessageCount)

	bobView := decode[[]dto.Conversation](t, api.do(http.MethodGet, "/api/messages/conversations", bobToken, nil))
	require.Len(t, bobView, 1)
	assert.Equal(t, 1, bobView[0].UnreadCount)
}

func TestSendMessageValidation(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	token, id := api.register("Alice", "alice@example.com")

	missing := api.do(http.MethodPost, "/api/messages", token, gin.H{"content": "hi"})
	require.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Contains(t, decode[errorResponse](t, missing).Fields, "receiverId")

	self := api.do(http.MethodPost, "/api/messages", token, gin.H{"receiverId": id, "content": "hi"})
	assert.Equal(t, http.StatusBadRequest, self.Code)

	unknown := api.do(http.MethodPost, "/api/messages", token, gin.H{"receiverId": "ghost", "content": "hi"})
	assert.Equal(t, http.StatusNotFound, unknown.Code)
}

func TestListingOwnershipCheckedBeforeBody(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	ownerToken, ownerID := api.register("Owner", "owner@example.com")
	otherToken, _ := api.register("Other", "other@example.com")

	body := listingBody("Drill", "electronics", "Lagos", "40")
	body["location"] = `{"city":"Lagos","zipCode":"100001"}`
	created := api.createListing(ownerToken, body)
	assert.Equal(t, 40.0, created.Price)
	assert.Equal(t, "100001", created.Location.ZipCode)
	assert.Equal(t, ownerID, created.User.ID)
	assert.Equal(t, "daily", created.RentalPeriod)

	path := "/api/listings/" + created.ID
	forbidden := api.do(http.MethodPut, path, otherToken, `{"price": "lots"}`)
	require.Equal(t, http.StatusForbidden, forbidden.Code)
	assert.Equal(t, "Not authorized", decode[errorResponse](t, forbidden).Message)

	invalid := api.do(http.MethodPut, path, ownerToken, `{"price": "lots"}`)
	require.Equal(t, http.StatusBadRequest, invalid.Code)
	assert.Contains(t, decode[errorResponse](t, invalid).Fields, "price")

	updated := api.do(http.MethodPut, path, ownerToken, gin.H{"price": 55, "status": "rented"})
	require.Equal(t, http.StatusOK, updated.Code)
	got := decode[dto.Listing](t, updated)
	assert.Equal(t, 55.0, got.Price)
	assert.Equal(t, "rented", got.Status)
	assert.Equal(t, "Drill", got.Title)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, path, otherToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, "/api/listings/missing", ownerToken, `{"price": "lots"}`).Code)

	require.Equal(t, http.StatusOK, api.do(http.MethodDelete, path, ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, "", nil).Code)
	mine := decode[[]dto.Listing](t, api.do(http.MethodGet, "/api/listings/user", ownerToken, nil))
	assert.Empty(t, mine)
}

func TestCreateListingRejectsMalformedLocation(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	token, _ := api.register("Owner", "owner@example.com")
	body := listingBody("Drill", "electronics", "Lagos", 40)
	body["location"] = "{not json"

	rec := api.do(http.MethodPost, "/api/listings", token, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Fields, "location")

	noAuth := api.do(http.MethodPost, "/api/listings", "", listingBody("Drill", "electronics", "Lagos", 40))
	assert.Equal(t, http.StatusUnauthorized, noAuth.Code)
}

func TestFilteredSearch(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	token, ownerID := api.register("Owner", "owner@example.com")
	api.createListing(token, listingBody("Camera", "electronics", "Lagos", 60))
	api.createListing(token, listingBody("Speaker", "electronics", "Abuja", 30))
	api.createListing(token, listingBody("Sofa", "furniture", "Lagos", 45))
	api.createListing(token, listingBody("Projector", "electronics", "Lagos", 250))

	found := decode[[]dto.Listing](t, api.do(http.MethodGet, "/api/listings?category=electronics&location=lagos&minPrice=50&maxPrice=100", "", nil))
	require.Len(t, found, 1)
	assert.Equal(t, "Camera", found[0].Title)
	assert.Equal(t, "Owner", found[0].User.Name)

	text := decode[[]dto.Listing](t, api.do(http.MethodGet, "/api/listings?search=SOFA&location=All%20India", "", nil))
	require.Len(t, text, 1)
	assert.Equal(t, "Sofa", text[0].Title)

	all := decode[[]dto.Listing](t, api.do(http.MethodGet, "/api/listings", "", nil))
	assert.Len(t, all, 4)

	byOwner := decode[[]dto.Listing](t, api.do(http.MethodGet, "/api/listings/user/"+ownerID, "", nil))
	assert.Len(t, byOwner, 4)

	bad := api.do(http.MethodGet, "/api/listings?minPrice=cheap", "", nil)
	require.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Contains(t, decode[errorResponse](t, bad).Fields, "minPrice")
}

func TestFavoritesAndProfile(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	ownerToken, ownerID := api.register("Owner", "owner@example.com")
	fanToken, fanID := api.register("Fan", "fan@example.com")
	listing := api.createListing(ownerToken, listingBody("Tent", "property", "Lagos", 15))

	added := api.do(http.MethodPost, "/api/users/favorites/"+listing.ID, fanToken, nil)
	require.Equal(t, http.StatusOK, added.Code)
	assert.Equal(t, "Added to favorites", decode[gin.H](t, added)["message"])
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/users/favorites/missing", fanToken, nil).Code)

	favs := decode[[]dto.Listing](t, api.do(http.MethodGet, "/api/users/favorites", fanToken, nil))
	require.Len(t, favs, 1)
	assert.Equal(t, listing.ID, favs[0].ID)

	profile := decode[dto.UserProfile](t, api.do(http.MethodGet, "/api/users/profile/"+fanID, "", nil))
	require.Len(t, profile.Favorites, 1)
	ownerProfile := decode[dto.UserProfile](t, api.do(http.MethodGet, "/api/users/profile/"+ownerID, "", nil))
	require.Len(t, ownerProfile.Listings, 1)

	updated := api.do(http.MethodPut, "/api/users/profile", fanToken, gin.H{"name": "  Big Fan ", "profile": gin.H{"bio": "Likes tents"}})
	require.Equal(t, http.StatusOK, updated.Code)
	got := decode[dto.UserProfile](t, updated)
	assert.Equal(t, "Big Fan", got.Name)
	assert.Equal(t, "Likes tents", got.Profile.Bio)

	removed := api.do(http.MethodDelete, "/api/users/favorites/"+listing.ID, fanToken, nil)
	require.Equal(t, http.StatusOK, removed.Code)
	assert.Empty(t, decode[[]dto.Listing](t, api.do(http.MethodGet, "/api/users/favorites", fanToken, nil)))
}

func TestAuthRateLimit(t *testing.T) {
	api := newTestAPI(t, apiOptions{limiter: NewAuthRateLimiter(time.Minute, 2)})
	body := gin.H{"email": "nobody@example.com", "password": "whatever1"}
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/auth/login", "", body).Code)
	}
	limited := api.do(http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, token string, files int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	data := pngBytes(t)
	for i := 0; i < files; i++ {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="images"; filename="tent.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/listings/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadImages(t *testing.T) {
	api := newTestAPI(t, apiOptions{uploadDir: t.TempDir()})
	token, _ := api.register("Owner", "owner@example.com")

	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, uploadRequest(t, token, 2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[dto.UploadedImages](t, rec)
	require.Len(t, res.Images, 2)
	assert.Contains(t, res.Images[0].URL, "/uploads/")
	assert.NotEmpty(t, res.Images[0].ThumbnailURL)

	served := httptest.NewRecorder()
	api.router.ServeHTTP(served, httptest.NewRequest(http.MethodGet, res.Images[0].URL, nil))
	assert.Equal(t, http.StatusOK, served.Code)

	tooMany := httptest.NewRecorder()
	api.router.ServeHTTP(tooMany, uploadRequest(t, token, 6))
	assert.Equal(t, http.StatusBadRequest, tooMany.Code)
}

func TestUploadWithoutStorage(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	token, _ := api.register("Owner", "owner@example.com")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, uploadRequest(t, token, 1))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
