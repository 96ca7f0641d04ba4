package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-go-redis/adapter"
	rtypes "github.com/zishang520/socket.io-go-redis/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator func(ctx context.Context, token string) (string, error)

type Options struct {
	Authenticate Authenticator
	RequireAuth  bool
	CORSOrigins  []string
	// Redis enables the socket.io Redis adapter so emits reach sockets served
	// by other instances.
	Redis  *goredis.Client
	Logger *slog.Logger
}

// Hub is the socket.io endpoint. Delivery is best effort: one emit, no retry,
// nothing stored.
type Hub struct {
	server      *socket.Server
	handler     http.Handler
	auth        Authenticator
	requireAuth bool
	logger      *slog.Logger
	closeOnce   sync.Once
}

func NewHub(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	serverOpts := socket.DefaultServerOptions()
	serverOpts.SetPingInterval(25 * time.Second)
	serverOpts.SetPingTimeout(20 * time.Second)
	serverOpts.SetConnectTimeout(10 * time.Second)
	serverOpts.SetMaxHttpBufferSize(1 << 20)
	if len(opts.CORSOrigins) > 0 {
		serverOpts.SetCors(&types.Cors{Origin: opts.CORSOrigins, Credentials: true})
	}
	if opts.Redis != nil {
		serverOpts.SetAdapter(&adapter.RedisAdapterBuilder{
			Redis: rtypes.NewRedisClient(context.Background(), opts.Redis),
			Opts:  &adapter.RedisAdapterOptions{},
		})
	}

	h := &Hub{
		server:      socket.NewServer(nil, serverOpts),
		auth:        opts.Authenticate,
		requireAuth: opts.RequireAuth,
		logger:      logger,
	}
	h.server.Use(h.authenticate)
	h.server.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		h.onConnection(client)
	})
	h.handler = h.server.ServeHandler(serverOpts)
	return h
}

// Handler serves the engine.io transport; mount it for GET and POST.
func (h *Hub) Handler() http.Handler {
	return h.handler
}

// EmitToUser sends event to every socket in the user's room.
func (h *Hub) EmitToUser(userID, event string, payload any) {
	if userID == "" {
		return
	}
	if err := h.server.To(socket.Room(userID)).Emit(event, payload); err != nil {
		h.logger.Warn("socket emit failed", "event", event, "room", userID, "error", err)
	}
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.server.Close(nil)
	})
}

func (h *Hub) authenticate(client *socket.Socket, next func(*socket.ExtendedError)) {
	token, present := client.Conn().Request().Query().Get("token")
	if !present || token == "" || h.auth == nil {
		if h.requireAuth {
			next(socket.NewExtendedError("authentication required", nil))
			return
		}
		next(nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	userID, err := h.auth(ctx, token)
	if err != nil {
		if h.requireAuth {
			next(socket.NewExtendedError("authentication required", nil))
			return
		}
		next(nil)
		return
	}
	client.SetData(&identity{UserID: userID})
	client.Join(socket.Room(userID))
	next(nil)
}

func (h *Hub) onConnection(client *socket.Socket) {
	id := identityOf(client)
	if id != nil {
		h.logger.Debug("socket connected", "socket_id", client.Id(), "user_id", id.UserID)
	}

	client.On(EventJoin, func(args ...any) {
		room, ok := joinRoom(id, args, h.requireAuth)
		if !ok {
			h.logger.Debug("socket join refused", "socket_id", client.Id())
			return
		}
		client.Join(socket.Room(room))
	})

	relay := func(args ...any) {
		if h.requireAuth && id == nil {
			return
		}
		receiver, payload, ok := relayTarget(id, args)
		if !ok {
			return
		}
		h.EmitToUser(receiver, EventReceiveMessage, payload)
	}
	client.On(EventSendMessage, relay)
	client.On(EventSend, relay)
}

func identityOf(client *socket.Socket) *identity {
	id, _ := client.Data().(*identity)
	return id
}
