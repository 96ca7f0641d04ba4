package ginserver

import (
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"rentlona/internal/infra/config"
	"rentlona/internal/infra/obs"
)

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

type ListingHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Upload(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Mine(c *gin.Context)
	ByOwner(c *gin.Context)
}

type MessageHTTP interface {
	List(c *gin.Context)
	Conversations(c *gin.Context)
	Thread(c *gin.Context)
	Send(c *gin.Context)
	MarkRead(c *gin.Context)
}

type UserHTTP interface {
	Profile(c *gin.Context)
	UpdateProfile(c *gin.Context)
	AddFavorite(c *gin.Context)
	RemoveFavorite(c *gin.Context)
	Favorites(c *gin.Context)
}

type Handlers struct {
	Auth           AuthHTTP
	Listing        ListingHTTP
	Message        MessageHTTP
	User           UserHTTP
	AuthMiddleware gin.HandlerFunc
	// AuthLimiter guards register and login. Nil disables limiting.
	AuthLimiter gin.HandlerFunc
	// Realtime serves the socket.io transport under /socket.io/.
	Realtime http.Handler
	// UploadDir is served at /uploads when images are stored on local disk.
	UploadDir string
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	registerJSONFieldNames()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.UploadDir != "" {
		router.Static("/uploads", h.UploadDir)
	}
	if h.Realtime != nil {
		router.GET("/socket.io/*any", gin.WrapH(h.Realtime))
		router.POST("/socket.io/*any", gin.WrapH(h.Realtime))
	}

	api := router.Group("/api")
	if h.Auth != nil {
		authGroup := api.Group("/auth")
		limited := []gin.HandlerFunc{}
		if h.AuthLimiter != nil {
			limited = append(limited, h.AuthLimiter)
		}
		authGroup.POST("/register", append(limited, h.Auth.Register)...)
		authGroup.POST("/login", append(limited, h.Auth.Login)...)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.GET("/me", h.Auth.Me)
	}
	if h.Listing != nil {
		listings := api.Group("/listings")
		listings.GET("", h.Listing.Search)
		listings.POST("", h.Listing.Create)
		listings.POST("/upload", h.Listing.Upload)
		listings.GET("/user", h.Listing.Mine)
		listings.GET("/user/:userId", h.Listing.ByOwner)
		listings.GET("/:id", h.Listing.Get)
		listings.PUT("/:id", h.Listing.Update)
		listings.DELETE("/:id", h.Listing.Delete)
	}
	if h.Message != nil {
		messages := api.Group("/messages")
		messages.GET("", h.Message.List)
		messages.POST("", h.Message.Send)
		messages.GET("/conversations", h.Message.Conversations)
		messages.GET("/thread/:threadId", h.Message.Thread)
		messages.PUT("/read/:threadId", h.Message.MarkRead)
	}
	if h.User != nil {
		users := api.Group("/users")
		users.GET("/profile/:id", h.User.Profile)
		users.PUT("/profile", h.User.UpdateProfile)
		users.GET("/favorites", h.User.Favorites)
		users.POST("/favorites/:listingId", h.User.AddFavorite)
		users.DELETE("/favorites/:listingId", h.User.RemoveFavorite)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

var fieldNamesOnce sync.Once

// registerJSONFieldNames makes binding errors report json field names.
func registerJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
